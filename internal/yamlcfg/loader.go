// Package yamlcfg implements config.Loader for YAML files.
//
// A file holds up to three lists: operations, instances and values. Mapping
// order is significant for operations and fixups, so those sections are read
// from yaml.Node trees rather than Go maps.
package yamlcfg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vk/precomp/internal/config"
	"github.com/vk/precomp/internal/conv"
	"github.com/vk/precomp/internal/ctxlog"
	"github.com/vk/precomp/internal/fsutil"
)

type fileRoot struct {
	Operations []yaml.Node `yaml:"operations"`
	Instances  []yaml.Node `yaml:"instances"`
	Values     []yaml.Node `yaml:"values"`
}

type instanceEntry struct {
	Name   string    `yaml:"name"`
	Origin yaml.Node `yaml:"origin"`
	Angles yaml.Node `yaml:"angles"`
	Fixups yaml.Node `yaml:"fixups"`
}

type valueEntry struct {
	Name        string  `yaml:"name"`
	Source      string  `yaml:"source"`
	Type        string  `yaml:"type"`
	Default     *string `yaml:"default"`
	AllowInvert *bool   `yaml:"allow_invert"`
	Invert      bool    `yaml:"invert"`
	Rotate      string  `yaml:"rotate"`
	Scale       string  `yaml:"scale"`
	ZOffset     string  `yaml:"zoff"`
}

// Keys accepted in instance and value entries. Node.Decode does not inherit
// the decoder's KnownFields setting, so entries are checked by hand.
var (
	instanceKeys = []string{"name", "origin", "angles", "fixups"}
	valueKeys    = []string{"name", "source", "type", "default", "allow_invert", "invert", "rotate", "scale", "zoff"}
)

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load finds every .yaml and .yml file under the given paths and translates
// them into one model, in file order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	files, err := fsutil.FindAll(paths, ".yaml", ".yml")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered YAML files.", "count", len(files))

	model := &config.Model{}
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read YAML file %s: %w", file, err)
		}
		fileModel, err := l.Parse(ctx, src, file)
		if err != nil {
			return nil, err
		}
		model.Merge(fileModel)
	}

	logger.Debug("YAML loading complete.",
		"operations", len(model.Operations),
		"instances", len(model.Instances),
		"values", len(model.Values),
	)
	return model, nil
}

// Parse translates YAML source held in memory. The filename is only used in
// messages.
func (l *Loader) Parse(ctx context.Context, src []byte, filename string) (*config.Model, error) {
	var root fileRoot
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&root); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML file %s: %w", filename, err)
	}

	model := &config.Model{}
	for i := range root.Operations {
		op, err := translateOperation(&root.Operations[i], filename)
		if err != nil {
			return nil, err
		}
		model.Operations = append(model.Operations, op)
	}
	for i := range root.Instances {
		inst, err := translateInstance(&root.Instances[i], filename)
		if err != nil {
			return nil, err
		}
		model.Instances = append(model.Instances, inst)
	}
	for i := range root.Values {
		val, err := translateValue(&root.Values[i], filename)
		if err != nil {
			return nil, err
		}
		model.Values = append(model.Values, val)
	}
	ctxlog.FromContext(ctx).Debug("Translated YAML file.", "file", filename)
	return model, nil
}

func errorAt(filename string, node *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", filename, node.Line, fmt.Sprintf(format, args...))
}

// translateOperation keeps every key except "name", in order, as a property.
// Entries of a "vars" mapping become "$name" declarations.
func translateOperation(node *yaml.Node, filename string) (*config.Block, error) {
	if node.Kind != yaml.MappingNode {
		return nil, errorAt(filename, node, "an operation must be a mapping")
	}
	out := &config.Block{Source: fmt.Sprintf("%s:%d", filename, node.Line)}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "name":
			out.Name = value.Value
		case "vars":
			vars, err := mappingPairs(value, filename)
			if err != nil {
				return nil, err
			}
			for _, v := range vars {
				out.Add("$"+v.Key, v.Value)
			}
		default:
			text, err := scalarText(value, filename)
			if err != nil {
				return nil, err
			}
			out.Add(key.Value, text)
		}
	}
	if out.Name == "" {
		return nil, errorAt(filename, node, "operation is missing a name")
	}
	return out, nil
}

// checkKeys rejects a node that is not a mapping or that has a key outside
// allowed.
func checkKeys(node *yaml.Node, filename, what string, allowed []string) error {
	if node.Kind != yaml.MappingNode {
		return errorAt(filename, node, "%s must be a mapping", what)
	}
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i]
		if !slices.Contains(allowed, key.Value) {
			return errorAt(filename, key, "unknown field %q in %s", key.Value, what)
		}
	}
	return nil
}

func translateInstance(node *yaml.Node, filename string) (*config.Instance, error) {
	if err := checkKeys(node, filename, "an instance", instanceKeys); err != nil {
		return nil, err
	}
	var entry instanceEntry
	if err := node.Decode(&entry); err != nil {
		return nil, fmt.Errorf("%s:%d: %w", filename, node.Line, err)
	}
	if entry.Name == "" {
		return nil, errorAt(filename, node, "instance is missing a name")
	}

	out := &config.Instance{Name: entry.Name, Source: fmt.Sprintf("%s:%d", filename, node.Line)}
	var err error
	if out.Origin, err = scalarText(&entry.Origin, filename); err != nil {
		return nil, err
	}
	if out.Angles, err = scalarText(&entry.Angles, filename); err != nil {
		return nil, err
	}
	if entry.Fixups.Kind != 0 {
		if out.Fixups, err = mappingPairs(&entry.Fixups, filename); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func translateValue(node *yaml.Node, filename string) (*config.Value, error) {
	if err := checkKeys(node, filename, "a value", valueKeys); err != nil {
		return nil, err
	}
	var entry valueEntry
	if err := node.Decode(&entry); err != nil {
		return nil, fmt.Errorf("%s:%d: %w", filename, node.Line, err)
	}
	source := fmt.Sprintf("%s:%d", filename, node.Line)
	if entry.Name == "" {
		return nil, fmt.Errorf("%s: value is missing a name", source)
	}
	if entry.Source == "" {
		return nil, fmt.Errorf("%s: value %q is missing a source", source, entry.Name)
	}
	out := &config.Value{
		Name:        entry.Name,
		Source:      source,
		Text:        entry.Source,
		Type:        entry.Type,
		Default:     entry.Default,
		AllowInvert: true,
		Invert:      entry.Invert,
		Rotate:      entry.Rotate,
		Scale:       entry.Scale,
		ZOffset:     entry.ZOffset,
	}
	if out.Type == "" {
		out.Type = "string"
	}
	if entry.AllowInvert != nil {
		out.AllowInvert = *entry.AllowInvert
	}
	return out, nil
}

// mappingPairs reads a mapping as ordered key/value text.
func mappingPairs(node *yaml.Node, filename string) ([]config.Property, error) {
	if node.Kind != yaml.MappingNode {
		return nil, errorAt(filename, node, "expected a mapping")
	}
	out := make([]config.Property, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		value, err := scalarText(node.Content[i+1], filename)
		if err != nil {
			return nil, err
		}
		out = append(out, config.Property{Key: node.Content[i].Value, Value: value})
	}
	return out, nil
}

// scalarText converts a node to fixup text. Booleans become "1" or "0" and a
// sequence of scalars is joined with spaces, so [0, 0, 64] reads as a vector.
func scalarText(node *yaml.Node, filename string) (string, error) {
	switch node.Kind {
	case 0:
		return "", nil
	case yaml.AliasNode:
		return scalarText(node.Alias, filename)
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!null":
			return "", nil
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return "", errorAt(filename, node, "%v", err)
			}
			return conv.FormatBool(b), nil
		}
		return node.Value, nil
	case yaml.SequenceNode:
		parts := make([]string, 0, len(node.Content))
		for _, child := range node.Content {
			if child.Kind != yaml.ScalarNode {
				return "", errorAt(filename, child, "a list may only contain scalars")
			}
			s, err := scalarText(child, filename)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, " "), nil
	}
	return "", errorAt(filename, node, "expected a scalar value")
}
