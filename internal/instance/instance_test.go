package instance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/precomp/internal/config"
	"github.com/vk/precomp/internal/fixup"
	"github.com/vk/precomp/internal/geom"
	"github.com/vk/precomp/internal/lazy"
)

type bareHolder struct{ table *fixup.Table }

func (b bareHolder) Fixups() *fixup.Table { return b.table }

func TestFromConfig(t *testing.T) {
	// --- Arrange ---
	def := &config.Instance{
		Name:   "door_1",
		Origin: "(0 0 64)",
		Angles: "0 450 0",
		Fixups: []config.Property{{Key: "$Height", Value: "5"}, {Key: "raised", Value: "1"}},
	}

	// --- Act ---
	inst := FromConfig(def)

	// --- Assert ---
	assert.Equal(t, "door_1", inst.String())
	assert.Equal(t, geom.Vec{Z: 64}, inst.Origin)
	assert.Equal(t, geom.Angle{Yaw: 90}, inst.Angles)
	assert.Equal(t, "5", inst.Fixups().Get("height", ""))
	assert.Equal(t, []string{"Height", "raised"}, inst.Fixups().Keys())
}

func TestFromConfig_BadPlacementFallsBack(t *testing.T) {
	inst := FromConfig(&config.Instance{Name: "x", Origin: "nowhere", Angles: "1 2"})
	assert.Equal(t, geom.Vec{}, inst.Origin)
	assert.Equal(t, geom.Angle{}, inst.Angles)
	assert.Equal(t, 0, inst.Fixups().Len())
}

func TestNew_NilTable(t *testing.T) {
	inst := New("a", geom.Vec{}, geom.Angle{}, nil)
	require.NotNil(t, inst.Fixups())
	inst.Fixups().Set("k", "v")
	assert.Equal(t, "v", inst.Fixups().Get("k", ""))
}

func TestResolveOffset(t *testing.T) {
	// --- Arrange ---
	inst := New("a", geom.Vec{X: 100}, geom.NewAngle(0, 90, 0), fixup.New([2]string{"off", "1 0 0"}))

	// --- Act ---
	got := ResolveOffset(inst, "$off", 2, 5)

	// --- Assert ---
	assert.Equal(t, geom.Vec{X: 100, Y: 2, Z: 5}, got)
}

func TestResolveOffset_WithoutPlacement(t *testing.T) {
	holder := bareHolder{table: fixup.New()}
	assert.Equal(t, geom.Vec{X: 1, Y: 2, Z: 4}, ResolveOffset(holder, "1 2 3", 1, 1))
}

func TestResolveOffset_MissingFixupIsZero(t *testing.T) {
	inst := New("a", geom.Vec{X: 1, Y: 1, Z: 1}, geom.Angle{}, nil)
	assert.Equal(t, geom.Vec{X: 1, Y: 1, Z: 1}, ResolveOffset(inst, "$nope", 3, 0))
}

func TestResolveOffset_AsLazyValue(t *testing.T) {
	// --- Arrange ---
	v := lazy.AsOffset(
		lazy.Parse("$pos", nil, true),
		lazy.AsFloat(lazy.Parse("$scale", nil, true), 1),
		lazy.Const(0.0),
		ResolveOffset,
	)
	a := New("a", geom.Vec{Z: 10}, geom.Angle{}, fixup.New([2]string{"pos", "1 2 3"}, [2]string{"scale", "2"}))
	b := New("b", geom.Vec{}, geom.NewAngle(0, 180, 0), fixup.New([2]string{"pos", "1 0 0"}))

	// --- Act & Assert ---
	assert.Equal(t, geom.Vec{X: 2, Y: 4, Z: 16}, v.Resolve(a))
	assert.Equal(t, geom.Vec{X: -1}, v.Resolve(b))
}
