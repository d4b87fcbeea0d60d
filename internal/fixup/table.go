// Package fixup implements the per-instance variable table ("fixups") that
// map-compile logic reads and writes.
//
// Variable names are case-insensitive and may be written with or without the
// leading '$'. Values are always text.
package fixup

import (
	"iter"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Holder is anything carrying a fixup table, normally a placed instance.
type Holder interface {
	Fixups() *Table
}

type entry struct {
	name  string
	value string
}

// Table is an ordered, case-insensitive map of variable names to values.
// It is not safe for concurrent mutation; each instance owns its own table.
type Table struct {
	order []string
	vars  map[string]entry
}

// New creates a table, optionally seeded with name/value pairs in order.
func New(pairs ...[2]string) *Table {
	t := &Table{vars: make(map[string]entry, len(pairs))}
	for _, p := range pairs {
		t.Set(p[0], p[1])
	}
	return t
}

// FoldName normalises a variable name for lookups.
func FoldName(name string) string {
	name = strings.TrimPrefix(name, "$")
	if isASCII(name) {
		return strings.ToLower(name)
	}
	// Casers carry state, so one is built per call.
	return cases.Fold().String(name)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Get returns the value of a variable, or def if it is not set.
func (t *Table) Get(name, def string) string {
	if t == nil {
		return def
	}
	if e, ok := t.vars[FoldName(name)]; ok {
		return e.value
	}
	return def
}

// Has reports whether a variable is set.
func (t *Table) Has(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.vars[FoldName(name)]
	return ok
}

// Set assigns a variable, keeping its original position if it already exists.
func (t *Table) Set(name, value string) {
	if t.vars == nil {
		t.vars = make(map[string]entry)
	}
	key := FoldName(name)
	if e, ok := t.vars[key]; ok {
		e.value = value
		t.vars[key] = e
		return
	}
	t.order = append(t.order, key)
	t.vars[key] = entry{name: strings.TrimPrefix(name, "$"), value: value}
}

// Delete removes a variable if present.
func (t *Table) Delete(name string) {
	if t == nil {
		return
	}
	key := FoldName(name)
	if _, ok := t.vars[key]; !ok {
		return
	}
	delete(t.vars, key)
	for i, k := range t.order {
		if k == key {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of variables.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Keys returns the variable names, in their original spelling and order.
func (t *Table) Keys() []string {
	if t == nil {
		return nil
	}
	keys := make([]string, 0, len(t.order))
	for _, k := range t.order {
		keys = append(keys, t.vars[k].name)
	}
	return keys
}

// All iterates over name/value pairs in insertion order.
func (t *Table) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if t == nil {
			return
		}
		for _, k := range t.order {
			e := t.vars[k]
			if !yield(e.name, e.value) {
				return
			}
		}
	}
}

// Copy returns an independent copy of the table. A nil table copies to an
// empty one.
func (t *Table) Copy() *Table {
	if t == nil {
		return New()
	}
	out := &Table{
		order: make([]string, len(t.order)),
		vars:  make(map[string]entry, len(t.vars)),
	}
	copy(out.order, t.order)
	for k, v := range t.vars {
		out.vars[k] = v
	}
	return out
}
