package lazy

import (
	"github.com/vk/precomp/internal/conv"
	"github.com/vk/precomp/internal/fixup"
	"github.com/vk/precomp/internal/geom"
	"golang.org/x/text/cases"
)

// AsInt converts text to an integer, using def for invalid text.
func AsInt(v Value[string], def int64) Value[int64] {
	return Map(v, func(s string) int64 { return conv.Int(s, def) }, "conv_int")
}

// AsFloat converts text to a float, using def for invalid text.
func AsFloat(v Value[string], def float64) Value[float64] {
	return Map(v, func(s string) float64 { return conv.Float(s, def) }, "conv_float")
}

// AsBool converts text to a boolean, using def for invalid text.
func AsBool(v Value[string], def bool) Value[bool] {
	return Map(v, func(s string) bool { return conv.Bool(s, def) }, "conv_bool")
}

// AsVec parses a vector, falling back to (x, y, z).
func AsVec(v Value[string], x, y, z float64) Value[geom.Vec] {
	return Map(v, func(s string) geom.Vec { return geom.ParseVec(s, x, y, z) }, "Vec")
}

// AsAngle parses an angle, falling back to (pitch, yaw, roll).
func AsAngle(v Value[string], pitch, yaw, roll float64) Value[geom.Angle] {
	return Map(v, func(s string) geom.Angle { return geom.ParseAngle(s, pitch, yaw, roll) }, "Angle")
}

// AsMatrix parses an angle string into a rotation matrix.
func AsMatrix(v Value[string]) Value[geom.Matrix] {
	return Map(v, geom.ParseMatrix, "Matrix")
}

// Casefold applies Unicode case folding.
func Casefold(v Value[string]) Value[string] {
	return Map(v, func(s string) string { return cases.Fold().String(s) }, "str.casefold")
}

// Not inverts a boolean.
func Not(v Value[bool]) Value[bool] {
	return Map(v, func(b bool) bool { return !b }, "not")
}

// Rotate rotates a vector by an angle or matrix.
func Rotate[R geom.Rotator](vec Value[geom.Vec], rot Value[R]) Value[geom.Vec] {
	return Map2(vec, rot, func(v geom.Vec, r R) geom.Vec { return v.Rotate(r) }, "@")
}

// OffsetFunc converts an offset local to an instance into world space. It is
// provided by the code that knows where instances are placed.
type OffsetFunc func(inst fixup.Holder, local string, scale, zoff float64) geom.Vec

// AsOffset resolves the text as an offset relative to the instance, after
// multiplying by scale and raising by zoff.
func AsOffset(v Value[string], scale, zoff Value[float64], resolve OffsetFunc) Value[geom.Vec] {
	return &offsetValue{parent: v, scale: scale, zoff: zoff, resolve: resolve}
}

type offsetValue struct {
	parent  Value[string]
	scale   Value[float64]
	zoff    Value[float64]
	resolve OffsetFunc
}

func (o *offsetValue) Resolve(inst fixup.Holder) geom.Vec {
	return o.resolve(inst, o.parent.Resolve(inst), o.scale.Resolve(inst), o.zoff.Resolve(inst))
}

// HasFixups is always true: the instance placement is read even when every
// input is constant.
func (o *offsetValue) HasFixups() bool { return true }
func (o *offsetValue) repr() string    { return "resolve_offset(" + o.parent.repr() + ")" }
func (o *offsetValue) String() string  { return "<Value: " + o.repr() + ">" }
func (o *offsetValue) sealed()         {}
