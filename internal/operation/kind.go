package operation

import (
	"fmt"
	"strings"

	"github.com/vk/precomp/internal/conv"
	"github.com/vk/precomp/internal/geom"
)

// Kind is the type a declared variable is converted to before evaluation.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindString
	KindFloat
	KindVector
)

var kindNames = map[string]Kind{
	"int":     KindInt,
	"bool":    KindBool,
	"boolean": KindBool,
	"string":  KindString,
	"str":     KindString,
	"float":   KindFloat,
	"vector":  KindVector,
	"vec":     KindVector,
}

// ParseKind maps a type name, ignoring case, to a Kind.
func ParseKind(name string) (Kind, error) {
	if k, ok := kindNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("%w (%s)", ErrInvalidType, name)
}

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindVector:
		return "vector"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// convert turns raw fixup text into an expression value.
func (k Kind) convert(text string) any {
	switch k {
	case KindInt:
		return conv.Int(text, 0)
	case KindBool:
		return conv.Bool(text, false)
	case KindFloat:
		return conv.Float(text, 0)
	case KindVector:
		return geom.ParseVec(text, 0, 0, 0)
	}
	return text
}
