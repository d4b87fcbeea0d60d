package hcl

import "github.com/hashicorp/hcl/v2"

// rootSchema lists every top-level block a file may contain.
var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "operation", LabelNames: []string{"name"}},
		{Type: "instance", LabelNames: []string{"name"}},
		{Type: "value", LabelNames: []string{"name"}},
	},
}

// instanceBody is decoded with gohcl from an `instance` block.
type instanceBody struct {
	Origin hcl.Expression `hcl:"origin,optional"`
	Angles hcl.Expression `hcl:"angles,optional"`
	Fixups hcl.Expression `hcl:"fixups,optional"`
}

// valueBody is decoded with gohcl from a `value` block.
type valueBody struct {
	Source      string  `hcl:"source"`
	Type        *string `hcl:"type,optional"`
	Default     *string `hcl:"default,optional"`
	AllowInvert *bool   `hcl:"allow_invert,optional"`
	Invert      *bool   `hcl:"invert,optional"`
	Rotate      *string `hcl:"rotate,optional"`
	Scale       *string `hcl:"scale,optional"`
	ZOffset     *string `hcl:"zoff,optional"`
}
