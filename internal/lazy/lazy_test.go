package lazy

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/precomp/internal/fixup"
	"github.com/vk/precomp/internal/geom"
)

type testInst struct {
	fixups *fixup.Table
}

func (i *testInst) Fixups() *fixup.Table { return i.fixups }

func newInst(pairs ...[2]string) *testInst {
	return &testInst{fixups: fixup.New(pairs...)}
}

func strPtr(s string) *string { return &s }

func TestParse_Constant(t *testing.T) {
	for _, text := range []string{"", "hello", "1 2 3", "!not a var"} {
		t.Run(text, func(t *testing.T) {
			v := Parse(text, nil, true)
			assert.False(t, v.HasFixups())
			assert.Equal(t, text, v.Resolve(newInst([2]string{"x", "y"})))
			assert.Equal(t, text, v.Resolve(nil))
		})
	}
}

func TestParse_Variable(t *testing.T) {
	inst := newInst([2]string{"dist", "64"}, [2]string{"on", "1"}, [2]string{"loop", "$loop"})

	testCases := []struct {
		text string
		def  *string
		want string
	}{
		{"$dist", nil, "64"},
		{"0 0 $dist", nil, "0 0 64"},
		{"!$on", nil, "0"},
		{"$missing", strPtr("8"), "8"},
		{"$missing", nil, ""},
		{"$loop", strPtr("5"), "5"},
		{"$loop", nil, ""},
		{"at $loop", strPtr("5"), "5"},
	}
	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			v := Parse(tc.text, tc.def, true)
			assert.True(t, v.HasFixups())
			assert.Equal(t, tc.want, v.Resolve(inst))
		})
	}
}

func TestParse_InvertDisabled(t *testing.T) {
	v := Parse("!$on", nil, false)
	assert.Equal(t, "!1", v.Resolve(newInst([2]string{"on", "1"})))
}

func TestMake(t *testing.T) {
	lv := AsFloat(Parse("$scale", nil, true), 1)
	require.Same(t, lv, Make[float64](lv))

	c := Make[float64](2.5)
	assert.False(t, c.HasFixups())
	assert.Equal(t, 2.5, c.Resolve(nil))

	assert.Panics(t, func() { Make[float64]("text") })
}

func TestConverters(t *testing.T) {
	inst := newInst(
		[2]string{"n", "12"},
		[2]string{"f", "2.5"},
		[2]string{"b", "yes"},
		[2]string{"v", "1 2 3"},
		[2]string{"a", "0 90 0"},
		[2]string{"s", "MiXeD"},
	)

	assert.Equal(t, int64(12), AsInt(Parse("$n", nil, true), 0).Resolve(inst))
	assert.Equal(t, int64(-1), AsInt(Parse("$s", nil, true), -1).Resolve(inst))
	assert.Equal(t, 2.5, AsFloat(Parse("$f", nil, true), 0).Resolve(inst))
	assert.True(t, AsBool(Parse("$b", nil, true), false).Resolve(inst))
	assert.False(t, Not(AsBool(Parse("$b", nil, true), false)).Resolve(inst))
	assert.Equal(t, geom.Vec{X: 1, Y: 2, Z: 3}, AsVec(Parse("$v", nil, true), 0, 0, 0).Resolve(inst))
	assert.Equal(t, geom.Angle{Yaw: 90}, AsAngle(Parse("$a", nil, true), 0, 0, 0).Resolve(inst))
	assert.Equal(t, geom.NewAngle(0, 90, 0).RotationMatrix(), AsMatrix(Parse("$a", nil, true)).Resolve(inst))
	assert.Equal(t, "mixed", Casefold(Parse("$s", nil, true)).Resolve(inst))
}

func TestHasFixups_Conservative(t *testing.T) {
	constVec := AsVec(Parse("1 0 0", nil, true), 0, 0, 0)
	varAng := AsAngle(Parse("$ang", nil, true), 0, 0, 0)

	assert.False(t, constVec.HasFixups())
	assert.True(t, varAng.HasFixups())
	assert.True(t, Rotate(constVec, varAng).HasFixups())
	assert.False(t, Rotate(constVec, Const(geom.NewAngle(0, 90, 0))).HasFixups())
	assert.True(t, Not(AsBool(Parse("$x", nil, true), false)).HasFixups())
}

func TestConstantFolding_MatchesDeferred(t *testing.T) {
	inst := newInst([2]string{"ang", "0 90 0"}, [2]string{"v", "1 0 0"})

	folded := Rotate(AsVec(Parse("1 0 0", nil, true), 0, 0, 0), AsAngle(Parse("0 90 0", nil, true), 0, 0, 0))
	deferred := Rotate(AsVec(Parse("$v", nil, true), 0, 0, 0), AsAngle(Parse("$ang", nil, true), 0, 0, 0))

	_, isConst := folded.(*constValue[geom.Vec])
	require.True(t, isConst, "rotating constants should fold")
	assert.Equal(t, deferred.Resolve(inst), folded.Resolve(inst))
	assert.Equal(t, geom.Vec{X: 0, Y: 1, Z: 0}, folded.Resolve(nil))
}

func TestRotate_ByMatrix(t *testing.T) {
	inst := newInst([2]string{"ang", "0 180 0"})
	v := Rotate(AsVec(Parse("1 2 0", nil, true), 0, 0, 0), AsMatrix(Parse("$ang", nil, true)))
	assert.Equal(t, geom.Vec{X: -1, Y: -2, Z: 0}, v.Resolve(inst))
}

func TestResolve_MutableResultsAreCopies(t *testing.T) {
	inst := newInst([2]string{"v", "1 2 3"}, [2]string{"a", "10 20 30"})

	t.Run("vector", func(t *testing.T) {
		for _, v := range []Value[geom.Vec]{
			AsVec(Parse("$v", nil, true), 0, 0, 0),
			AsVec(Parse("4 5 6", nil, true), 0, 0, 0),
		} {
			first := v.Resolve(inst)
			second := v.Resolve(inst)
			first.X = 999
			assert.NotEqual(t, first, second)
			assert.NotEqual(t, 999.0, v.Resolve(inst).X)
		}
	})

	t.Run("angle", func(t *testing.T) {
		v := AsAngle(Parse("$a", nil, true), 0, 0, 0)
		first := v.Resolve(inst)
		first.Yaw = 1
		assert.Equal(t, 20.0, v.Resolve(inst).Yaw)
	})

	t.Run("matrix", func(t *testing.T) {
		v := AsMatrix(Parse("10 20 30", nil, true))
		first := v.Resolve(inst)
		want := v.Resolve(inst)
		first[0][0] = 42
		assert.Equal(t, want, v.Resolve(inst))
	})
}

func TestAsOffset_UsesResolver(t *testing.T) {
	// --- Arrange ---
	type call struct {
		local       string
		scale, zoff float64
		inst        fixup.Holder
	}
	var calls []call
	stub := func(inst fixup.Holder, local string, scale, zoff float64) geom.Vec {
		calls = append(calls, call{local, scale, zoff, inst})
		return geom.Vec{X: 10, Y: 20, Z: 30}
	}
	inst := newInst()

	// --- Act ---
	v := AsOffset(Parse("1 2 3", nil, true), Const(2.0), Const(5.0), stub)
	got := v.Resolve(inst)

	// --- Assert ---
	assert.True(t, v.HasFixups(), "offsets always depend on the instance")
	assert.Equal(t, geom.Vec{X: 10, Y: 20, Z: 30}, got)
	require.Len(t, calls, 1)
	assert.Equal(t, "1 2 3", calls[0].local)
	assert.Equal(t, 2.0, calls[0].scale)
	assert.Equal(t, 5.0, calls[0].zoff)
	assert.Same(t, inst, calls[0].inst)
}

func TestAsOffset_LazyScale(t *testing.T) {
	var gotScale float64
	stub := func(_ fixup.Holder, _ string, scale, _ float64) geom.Vec {
		gotScale = scale
		return geom.Vec{}
	}
	v := AsOffset(Parse("$off", nil, true), AsFloat(Parse("$scale", nil, true), 1), Const(0.0), stub)
	v.Resolve(newInst([2]string{"scale", "0.5"}))
	assert.Equal(t, 0.5, gotScale)
}

func TestString(t *testing.T) {
	v := AsInt(Parse("$var", nil, true), 0)
	assert.Equal(t, `<Value: conv_int("$var")>`, v.String())

	r := Rotate(AsVec(Parse("$v", nil, true), 0, 0, 0), AsAngle(Parse("$a", nil, true), 0, 0, 0))
	assert.True(t, strings.HasPrefix(r.String(), "<Value: @(Vec("))

	assert.Equal(t, `<Value: "text">`, Parse("text", nil, true).String())
}

func TestResolve_Concurrent(t *testing.T) {
	v := AsInt(Parse("$n", nil, true), 0)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inst := newInst([2]string{"n", "7"})
			assert.Equal(t, int64(7), v.Resolve(inst))
		}()
	}
	wg.Wait()
}
