package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/precomp/internal/config"
	"github.com/vk/precomp/internal/ctxlog"
	"github.com/vk/precomp/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load finds every .hcl file under the given paths and translates all of
// their blocks into one model, in file order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := fsutil.FindAll(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	model := &config.Model{}
	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		fileModel, diags := l.translate(ctx, hclFile.Body)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		model.Merge(fileModel)
	}

	logger.Debug("HCL loading complete.",
		"operations", len(model.Operations),
		"instances", len(model.Instances),
		"values", len(model.Values),
	)
	return model, nil
}

// Parse translates HCL source held in memory. The filename is only used in
// messages.
func (l *Loader) Parse(ctx context.Context, src []byte, filename string) (*config.Model, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	model, diags := l.translate(ctx, hclFile.Body)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	return model, nil
}

func (l *Loader) translate(ctx context.Context, body hcl.Body) (*config.Model, hcl.Diagnostics) {
	content, diags := body.Content(rootSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	model := &config.Model{}
	for _, block := range content.Blocks {
		var blockDiags hcl.Diagnostics
		switch block.Type {
		case "operation":
			var op *config.Block
			op, blockDiags = l.translateOperation(ctx, block)
			if op != nil {
				model.Operations = append(model.Operations, op)
			}
		case "instance":
			var inst *config.Instance
			inst, blockDiags = l.translateInstance(ctx, block)
			if inst != nil {
				model.Instances = append(model.Instances, inst)
			}
		case "value":
			var val *config.Value
			val, blockDiags = l.translateValue(ctx, block)
			if val != nil {
				model.Values = append(model.Values, val)
			}
		}
		diags = append(diags, blockDiags...)
	}
	return model, diags
}

// translateOperation keeps every attribute, in order, as a property. The
// operation compiler decides which keys are valid. Entries of the `vars`
// object become "$name" declarations.
func (l *Loader) translateOperation(ctx context.Context, block *hcl.Block) (*config.Block, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	out := &config.Block{Name: block.Labels[0], Source: sourceOf(block.DefRange)}

	attrs, diags := orderedAttributes(block.Body)
	if diags.HasErrors() {
		return nil, diags
	}
	for _, attr := range attrs {
		if attr.Name == "vars" {
			vars, varDiags := exprPairs(attr.Expr, "variable declaration")
			diags = append(diags, varDiags...)
			for _, v := range vars {
				out.Add("$"+v.Key, v.Value)
			}
			continue
		}
		text, attrDiags := exprText(attr.Expr, attr.Name)
		diags = append(diags, attrDiags...)
		out.Add(attr.Name, text)
	}
	logger.Debug("Translated operation block.", "name", out.Name, "properties", len(out.Properties))
	return out, diags
}

func (l *Loader) translateInstance(ctx context.Context, block *hcl.Block) (*config.Instance, hcl.Diagnostics) {
	var body instanceBody
	if diags := gohcl.DecodeBody(block.Body, nil, &body); diags.HasErrors() {
		return nil, diags
	}

	out := &config.Instance{Name: block.Labels[0], Source: sourceOf(block.DefRange)}
	var diags hcl.Diagnostics
	if isExprDefined(ctx, body.Origin, "origin") {
		var d hcl.Diagnostics
		out.Origin, d = exprText(body.Origin, "origin")
		diags = append(diags, d...)
	}
	if isExprDefined(ctx, body.Angles, "angles") {
		var d hcl.Diagnostics
		out.Angles, d = exprText(body.Angles, "angles")
		diags = append(diags, d...)
	}
	if isExprDefined(ctx, body.Fixups, "fixups") {
		var d hcl.Diagnostics
		out.Fixups, d = exprPairs(body.Fixups, "fixup")
		diags = append(diags, d...)
	}
	return out, diags
}

func (l *Loader) translateValue(_ context.Context, block *hcl.Block) (*config.Value, hcl.Diagnostics) {
	var body valueBody
	if diags := gohcl.DecodeBody(block.Body, nil, &body); diags.HasErrors() {
		return nil, diags
	}

	out := &config.Value{
		Name:        block.Labels[0],
		Source:      sourceOf(block.DefRange),
		Text:        body.Source,
		Type:        "string",
		Default:     body.Default,
		AllowInvert: true,
	}
	if body.Type != nil {
		out.Type = *body.Type
	}
	if body.AllowInvert != nil {
		out.AllowInvert = *body.AllowInvert
	}
	if body.Invert != nil {
		out.Invert = *body.Invert
	}
	if body.Rotate != nil {
		out.Rotate = *body.Rotate
	}
	if body.Scale != nil {
		out.Scale = *body.Scale
	}
	if body.ZOffset != nil {
		out.ZOffset = *body.ZOffset
	}
	return out, nil
}
