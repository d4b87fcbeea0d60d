package opexpr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokName
	tokInt
	tokFloat
	tokString
	tokOp
)

type token struct {
	kind  tokenKind
	text  string
	pos   int
	value any // decoded literal for numbers and strings
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of expression"
	}
	return fmt.Sprintf("%q", t.text)
}

// Operators, longest first so that "**" wins over "*".
var operators = []string{
	"**", "//", "<<", ">>", "<=", ">=", "==", "!=", ":=",
	"+", "-", "*", "/", "%", "@", "&", "|", "^", "~", "<", ">",
	"(", ")", "[", "]", "{", "}", ",", ":", ".", "=", ";",
}

// keywords may not be used as variable names.
var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

type lexer struct {
	src    string
	pos    int
	tokens []token
}

func tokenize(src string) ([]token, error) {
	l := &lexer{src: src}
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			l.tokens = append(l.tokens, token{kind: tokEOF, pos: l.pos})
			return l.tokens, nil
		}
		if err := l.next(); err != nil {
			return nil, err
		}
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\n', '\r', '\f':
			l.pos++
		default:
			return
		}
	}
}

func (l *lexer) errorf(pos int, format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, pos, fmt.Sprintf(format, args...))
}

func (l *lexer) next() error {
	c := l.src[l.pos]
	switch {
	case c == '\'' || c == '"':
		return l.lexString()
	case isDigit(c) || (c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		return l.lexNumber()
	case c == '_' || c >= utf8.RuneSelf || unicode.IsLetter(rune(c)):
		return l.lexName()
	}
	for _, op := range operators {
		if strings.HasPrefix(l.src[l.pos:], op) {
			l.tokens = append(l.tokens, token{kind: tokOp, text: op, pos: l.pos})
			l.pos += len(op)
			return nil
		}
	}
	return l.errorf(l.pos, "unexpected character %q", c)
}

func (l *lexer) lexName() error {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		l.pos += size
	}
	if l.pos == start {
		r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
		return l.errorf(start, "unexpected character %q", r)
	}
	l.tokens = append(l.tokens, token{kind: tokName, text: l.src[start:l.pos], pos: start})
	return nil
}

func (l *lexer) lexNumber() error {
	start := l.pos
	if l.src[l.pos] == '0' && l.pos+1 < len(l.src) {
		base := 0
		switch l.src[l.pos+1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			l.pos += 2
			for l.pos < len(l.src) && (isHexDigit(l.src[l.pos]) || l.src[l.pos] == '_') {
				l.pos++
			}
			return l.finishInt(start, l.src[start+2:l.pos], base)
		}
	}

	isFloat := false
	for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '_') {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		isFloat = true
		l.pos++
		for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '_') {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		isFloat = true
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '_') {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == '_' || unicode.IsLetter(rune(l.src[l.pos]))) {
		return l.errorf(start, "invalid number literal %q", l.src[start:l.pos+1])
	}

	text := l.src[start:l.pos]
	if !isFloat {
		return l.finishInt(start, text, 10)
	}
	if !digitsAroundUnderscores(text) {
		return l.errorf(start, "invalid number literal %q", text)
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil && !math.IsInf(f, 0) {
		return l.errorf(start, "invalid number literal %q", text)
	}
	l.tokens = append(l.tokens, token{kind: tokFloat, text: text, pos: start, value: f})
	return nil
}

// digitsAroundUnderscores reports whether every '_' in a decimal literal sits
// between two digits.
func digitsAroundUnderscores(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] != '_' {
			continue
		}
		if i == 0 || i == len(text)-1 || !isDigit(text[i-1]) || !isDigit(text[i+1]) {
			return false
		}
	}
	return true
}

func (l *lexer) finishInt(start int, digits string, base int) error {
	text := l.src[start:l.pos]
	if digits == "" || strings.Contains(digits, "__") || strings.HasSuffix(digits, "_") {
		return l.errorf(start, "invalid number literal %q", text)
	}
	if base == 10 && len(digits) > 1 && digits[0] == '0' && strings.Trim(digits, "0_") != "" {
		return l.errorf(start, "leading zeros are not allowed in %q", text)
	}
	i, err := strconv.ParseInt(strings.ReplaceAll(digits, "_", ""), base, 64)
	if errors.Is(err, strconv.ErrRange) {
		return l.errorf(start, "integer literal %q is out of range", text)
	}
	if err != nil {
		return l.errorf(start, "invalid number literal %q", text)
	}
	l.tokens = append(l.tokens, token{kind: tokInt, text: text, pos: start, value: i})
	return nil
}

func (l *lexer) lexString() error {
	start := l.pos
	quote := l.src[l.pos]
	l.pos++
	var b strings.Builder
	for {
		if l.pos >= len(l.src) || l.src[l.pos] == '\n' {
			return l.errorf(start, "unterminated string literal")
		}
		c := l.src[l.pos]
		if c == quote {
			l.pos++
			break
		}
		if c != '\\' {
			b.WriteByte(c)
			l.pos++
			continue
		}
		if l.pos+1 >= len(l.src) {
			return l.errorf(start, "unterminated string literal")
		}
		esc := l.src[l.pos+1]
		l.pos += 2
		switch esc {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case '\\', '\'', '"':
			b.WriteByte(esc)
		case 'x', 'u':
			n := 2
			if esc == 'u' {
				n = 4
			}
			if l.pos+n > len(l.src) {
				return l.errorf(l.pos-2, "truncated \\%c escape", esc)
			}
			code, err := strconv.ParseUint(l.src[l.pos:l.pos+n], 16, 32)
			if err != nil {
				return l.errorf(l.pos-2, "invalid \\%c escape", esc)
			}
			b.WriteRune(rune(code))
			l.pos += n
		default:
			// Unknown escapes are kept verbatim.
			b.WriteByte('\\')
			b.WriteByte(esc)
		}
	}
	l.tokens = append(l.tokens, token{kind: tokString, text: l.src[start:l.pos], pos: start, value: b.String()})
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
