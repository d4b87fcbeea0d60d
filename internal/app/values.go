package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vk/precomp/internal/config"
	"github.com/vk/precomp/internal/conv"
	"github.com/vk/precomp/internal/geom"
	"github.com/vk/precomp/internal/instance"
	"github.com/vk/precomp/internal/lazy"
)

// buildValue turns a value definition into a lazy value rendered as text.
func buildValue(def *config.Value) (lazy.Value[string], error) {
	kind := strings.ToLower(strings.TrimSpace(def.Type))
	if kind == "" {
		kind = "string"
	}
	if def.Invert && kind != "bool" {
		return nil, fmt.Errorf("value %q: invert only applies to bool values", def.Name)
	}
	if def.Rotate != "" && kind != "vec" {
		return nil, fmt.Errorf("value %q: rotate only applies to vec values", def.Name)
	}
	if (def.Scale != "" || def.ZOffset != "") && kind != "offset" {
		return nil, fmt.Errorf("value %q: scale and zoff only apply to offset values", def.Name)
	}

	src := lazy.Parse(def.Text, def.Default, def.AllowInvert)

	switch kind {
	case "string":
		return src, nil
	case "casefold":
		return lazy.Casefold(src), nil
	case "int":
		return lazy.Map(lazy.AsInt(src, 0), func(i int64) string { return strconv.FormatInt(i, 10) }, "str"), nil
	case "float":
		return lazy.Map(lazy.AsFloat(src, 0), geom.FormatFloat, "str"), nil
	case "bool":
		b := lazy.AsBool(src, false)
		if def.Invert {
			b = lazy.Not(b)
		}
		return lazy.Map(b, conv.FormatBool, "str"), nil
	case "vec":
		vec := lazy.AsVec(src, 0, 0, 0)
		if def.Rotate != "" {
			vec = lazy.Rotate(vec, lazy.AsAngle(lazy.Parse(def.Rotate, nil, def.AllowInvert), 0, 0, 0))
		}
		return stringify(vec), nil
	case "angle":
		return stringify(lazy.AsAngle(src, 0, 0, 0)), nil
	case "matrix":
		return stringify(lazy.AsMatrix(src)), nil
	case "offset":
		scale := lazy.AsFloat(lazy.Parse(orDefault(def.Scale, "1"), nil, def.AllowInvert), 1)
		zoff := lazy.AsFloat(lazy.Parse(orDefault(def.ZOffset, "0"), nil, def.AllowInvert), 0)
		return stringify(lazy.AsOffset(src, scale, zoff, instance.ResolveOffset)), nil
	}
	return nil, fmt.Errorf("value %q: unknown type %q", def.Name, def.Type)
}

func stringify[T fmt.Stringer](v lazy.Value[T]) lazy.Value[string] {
	return lazy.Map(v, func(t T) string { return t.String() }, "str")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
