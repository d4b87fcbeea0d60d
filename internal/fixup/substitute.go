package fixup

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/vk/precomp/internal/conv"
)

// ErrMissingVariable is returned by Substitute when a referenced variable is
// not set and no default was given.
var ErrMissingVariable = errors.New("fixup variable is not set")

// maxSubstituteDepth bounds nested references so that cycles terminate.
const maxSubstituteDepth = 16

var varPattern = regexp.MustCompile(`(!)?\$([A-Za-z0-9_]+)`)

// Substitute replaces every $variable reference in text with its value.
//
// Missing variables use def if it is non-nil. With allowInvert, a reference
// written as !$variable is replaced by the inverse of the value read as a
// boolean ("0" or "1"). Values which themselves contain references are
// substituted recursively.
func (t *Table) Substitute(text string, def *string, allowInvert bool) (string, error) {
	return t.substitute(text, def, allowInvert, 0)
}

func (t *Table) substitute(text string, def *string, allowInvert bool, depth int) (string, error) {
	if !strings.Contains(text, "$") {
		return text, nil
	}
	if depth >= maxSubstituteDepth {
		return "", fmt.Errorf("fixup reference nested too deeply in %q", text)
	}

	var b strings.Builder
	last := 0
	for _, m := range varPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		inverted := m[2] >= 0
		name := text[m[4]:m[5]]
		if inverted && !allowInvert {
			// Keep the '!' as literal text.
			start = m[4] - 1
			inverted = false
		}
		b.WriteString(text[last:start])
		last = end

		value, ok := "", t.Has(name)
		switch {
		case ok:
			value = t.Get(name, "")
		case def != nil:
			value = *def
		default:
			return "", fmt.Errorf("%w: $%s", ErrMissingVariable, name)
		}
		if strings.Contains(value, "$") {
			var err error
			value, err = t.substitute(value, def, allowInvert, depth+1)
			if err != nil {
				return "", err
			}
		}
		if inverted {
			value = conv.FormatBool(!conv.Bool(value, false))
		}
		b.WriteString(value)
	}
	b.WriteString(text[last:])
	return b.String(), nil
}
