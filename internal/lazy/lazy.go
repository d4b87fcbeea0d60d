// Package lazy describes values read from configuration which may depend on
// the fixups of an instance that is not known yet.
//
// A Value is built once while configuration is parsed and resolved later,
// once per instance. Values are immutable and may be shared between
// goroutines; resolving never mutates the graph.
package lazy

import (
	"fmt"
	"strings"

	"github.com/vk/precomp/internal/fixup"
)

// Value is a deferred computation producing a T.
type Value[T any] interface {
	// Resolve computes the value for an instance.
	Resolve(inst fixup.Holder) T
	// HasFixups reports whether the value may depend on the instance. When
	// false, Resolve can be called with a nil instance.
	HasFixups() bool
	fmt.Stringer

	repr() string
	sealed()
}

// Copier is implemented by mutable results that must be duplicated before
// they are handed to a caller.
type Copier[T any] interface {
	Copy() T
}

func finish[T any](v T) T {
	if c, ok := any(v).(Copier[T]); ok {
		return c.Copy()
	}
	return v
}

// Parse reads a configuration string. Text referencing a fixup variable is
// looked up per instance; anything else is a constant.
func Parse(text string, def *string, allowInvert bool) Value[string] {
	if strings.Contains(text, "$") {
		return &instValue{variable: text, def: def, allowInvert: allowInvert}
	}
	return &constValue[string]{value: text}
}

// Const wraps a known value.
func Const[T any](v T) Value[T] {
	return &constValue[T]{value: v}
}

// Make returns v unchanged if it is already a Value[T], otherwise wraps a T
// as a constant. Any other type is a programming error and panics.
func Make[T any](v any) Value[T] {
	switch x := v.(type) {
	case Value[T]:
		return x
	case T:
		return Const(x)
	}
	var zero T
	panic(fmt.Sprintf("lazy.Make: %T is neither %T nor a lazy value of it", v, zero))
}

// Map applies a named pure function to the value. Constants fold
// immediately.
func Map[U, T any](parent Value[U], fn func(U) T, name string) Value[T] {
	if c, ok := parent.(*constValue[U]); ok {
		return &constValue[T]{value: fn(c.value)}
	}
	return &unaryMap[U, T]{parent: parent, fn: fn, name: name}
}

// Map2 combines two values with a named pure function. If both are
// constants, the result is folded immediately.
func Map2[U, V, T any](a Value[U], b Value[V], fn func(U, V) T, name string) Value[T] {
	ca, okA := a.(*constValue[U])
	cb, okB := b.(*constValue[V])
	if okA && okB {
		return &constValue[T]{value: fn(ca.value, cb.value)}
	}
	return &binaryMap[U, V, T]{a: a, b: b, fn: fn, name: name}
}

type constValue[T any] struct {
	value T
}

func (c *constValue[T]) Resolve(fixup.Holder) T { return finish(c.value) }
func (c *constValue[T]) HasFixups() bool        { return false }
func (c *constValue[T]) repr() string           { return fmt.Sprintf("%#v", c.value) }
func (c *constValue[T]) String() string         { return "<Value: " + c.repr() + ">" }
func (c *constValue[T]) sealed()                {}

// instValue reads a fixup variable from the instance.
type instValue struct {
	variable    string
	def         *string
	allowInvert bool
}

func (v *instValue) Resolve(inst fixup.Holder) string {
	var tbl *fixup.Table
	if inst != nil {
		tbl = inst.Fixups()
	}
	out, err := tbl.Substitute(v.variable, v.def, v.allowInvert)
	if err != nil {
		// Cyclic or too deeply nested references fall back to the default,
		// or to empty text, which every converter treats as "use the default".
		if v.def != nil {
			return *v.def
		}
		return ""
	}
	return out
}

func (v *instValue) HasFixups() bool { return true }
func (v *instValue) repr() string    { return fmt.Sprintf("%q", v.variable) }
func (v *instValue) String() string  { return "<Value: " + v.repr() + ">" }
func (v *instValue) sealed()         {}

type unaryMap[U, T any] struct {
	parent Value[U]
	fn     func(U) T
	name   string
}

func (m *unaryMap[U, T]) Resolve(inst fixup.Holder) T {
	return finish(m.fn(m.parent.Resolve(inst)))
}

func (m *unaryMap[U, T]) HasFixups() bool { return m.parent.HasFixups() }
func (m *unaryMap[U, T]) repr() string    { return m.name + "(" + m.parent.repr() + ")" }
func (m *unaryMap[U, T]) String() string  { return "<Value: " + m.repr() + ">" }
func (m *unaryMap[U, T]) sealed()         {}

type binaryMap[U, V, T any] struct {
	a    Value[U]
	b    Value[V]
	fn   func(U, V) T
	name string
}

func (m *binaryMap[U, V, T]) Resolve(inst fixup.Holder) T {
	return finish(m.fn(m.a.Resolve(inst), m.b.Resolve(inst)))
}

func (m *binaryMap[U, V, T]) HasFixups() bool { return m.a.HasFixups() || m.b.HasFixups() }
func (m *binaryMap[U, V, T]) repr() string {
	return m.name + "(" + m.a.repr() + ", " + m.b.repr() + ")"
}
func (m *binaryMap[U, V, T]) String() string { return "<Value: " + m.repr() + ">" }
func (m *binaryMap[U, V, T]) sealed()        {}
