package config

import (
	"fmt"
	"strings"
)

// Model is the unified representation of every loaded file.
type Model struct {
	Operations []*Block
	Instances  []*Instance
	Values     []*Value
}

// Merge appends the contents of other, keeping file order.
func (m *Model) Merge(other *Model) {
	m.Operations = append(m.Operations, other.Operations...)
	m.Instances = append(m.Instances, other.Instances...)
	m.Values = append(m.Values, other.Values...)
}

// Property is a single key/value pair inside a block. Keys keep the spelling
// used in the source file.
type Property struct {
	Key   string
	Value string
}

// Block is an ordered list of properties, such as the body of an operation.
// Order matters: declared variables are read in the order they appear.
type Block struct {
	Name       string
	Source     string // "file:line", for messages
	Properties []Property
}

// Add appends a property.
func (b *Block) Add(key, value string) {
	b.Properties = append(b.Properties, Property{Key: key, Value: value})
}

// Get returns the value of the first property matching key, ignoring case.
func (b *Block) Get(key string) (string, bool) {
	for _, p := range b.Properties {
		if strings.EqualFold(p.Key, key) {
			return p.Value, true
		}
	}
	return "", false
}

func (b *Block) String() string {
	if b.Source != "" {
		return fmt.Sprintf("%q (%s)", b.Name, b.Source)
	}
	return fmt.Sprintf("%q", b.Name)
}

// Instance is a placed instance: its location and its initial fixups.
type Instance struct {
	Name   string
	Source string
	Origin string
	Angles string
	Fixups []Property
}

// Value describes a lazy value to resolve against every instance.
type Value struct {
	Name   string
	Source string

	// Text is the source text; it may reference fixups with $name.
	Text string
	// Type selects the conversion: string, int, float, bool, vec, angle,
	// matrix, casefold or offset.
	Type        string
	Default     *string
	AllowInvert bool

	// Invert negates a bool value.
	Invert bool
	// Rotate is angle text used to rotate a vec value.
	Rotate string
	// Scale and ZOffset apply to offset values.
	Scale   string
	ZOffset string
}
