package opexpr

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vk/precomp/internal/geom"
)

// maxStringLen bounds string repetition so an accepted expression cannot
// allocate without limit.
const maxStringLen = 1 << 20

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case geom.Vec:
		return "Vec"
	}
	return fmt.Sprintf("%T", v)
}

func evalErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrEval, fmt.Sprintf(format, args...))
}

// Truthy reports the truth value of v.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case geom.Vec:
		return !x.IsZero()
	}
	return true
}

// Str formats a value the way it is written into a fixup.
func Str(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case string:
		return x
	case geom.Vec:
		return x.String()
	}
	return fmt.Sprint(v)
}

// formatFloat produces the shortest text that round-trips, switching to
// exponent notation outside [1e-4, 1e16).
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	sign := ""
	if s[0] == '-' {
		sign, s = "-", s[1:]
	}
	mant, expText, _ := strings.Cut(s, "e")
	exp, _ := strconv.Atoi(expText)
	digits := strings.Replace(mant, ".", "", 1)

	if exp >= -4 && exp < 16 {
		if exp < 0 {
			return sign + "0." + strings.Repeat("0", -exp-1) + digits
		}
		if len(digits) <= exp+1 {
			return sign + digits + strings.Repeat("0", exp+1-len(digits)) + ".0"
		}
		return sign + digits[:exp+1] + "." + digits[exp+1:]
	}
	m := digits[:1]
	if len(digits) > 1 {
		m += "." + digits[1:]
	}
	return fmt.Sprintf("%s%se%+03d", sign, m, exp)
}

// number is an int or float operand. Booleans count as ints.
type number struct {
	i       int64
	f       float64
	isFloat bool
}

func toNumber(v any) (number, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return number{i: 1}, true
		}
		return number{}, true
	case int64:
		return number{i: x}, true
	case float64:
		return number{f: x, isFloat: true}, true
	}
	return number{}, false
}

func (n number) float() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

func valuesEqual(a, b any) bool {
	if na, ok := toNumber(a); ok {
		nb, ok := toNumber(b)
		if !ok {
			return false
		}
		if !na.isFloat && !nb.isFloat {
			return na.i == nb.i
		}
		return na.float() == nb.float()
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case geom.Vec:
		y, ok := b.(geom.Vec)
		return ok && x == y
	}
	return false
}

// order compares a and b, returning -1, 0 or 1.
func order(op CmpOperator, a, b any) (int, error) {
	if na, ok := toNumber(a); ok {
		if nb, ok := toNumber(b); ok {
			if !na.isFloat && !nb.isFloat {
				return cmpOrdered(na.i, nb.i), nil
			}
			x, y := na.float(), nb.float()
			if math.IsNaN(x) || math.IsNaN(y) {
				return 0, errNaN
			}
			return cmpOrdered(x, y), nil
		}
	}
	if x, ok := a.(string); ok {
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	}
	return 0, evalErrorf("'%s' not supported between instances of '%s' and '%s'", op, typeName(a), typeName(b))
}

// errNaN marks an ordering involving NaN, which is always false.
var errNaN = fmt.Errorf("nan comparison")

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// vecOrder compares every component, so a < b only if all of a's components
// are less than b's.
func vecOrder(op CmpOperator, a, b any) (bool, bool) {
	va, aVec := a.(geom.Vec)
	vb, bVec := b.(geom.Vec)
	if !aVec && !bVec {
		return false, false
	}
	if !aVec {
		n, ok := toNumber(a)
		if !ok {
			return false, false
		}
		f := n.float()
		va = geom.Vec{X: f, Y: f, Z: f}
	}
	if !bVec {
		n, ok := toNumber(b)
		if !ok {
			return false, false
		}
		f := n.float()
		vb = geom.Vec{X: f, Y: f, Z: f}
	}
	test := func(x, y float64) bool {
		switch op {
		case Lt:
			return x < y
		case LtE:
			return x <= y
		case Gt:
			return x > y
		default:
			return x >= y
		}
	}
	return test(va.X, vb.X) && test(va.Y, vb.Y) && test(va.Z, vb.Z), true
}

func compare(op CmpOperator, a, b any) (bool, error) {
	switch op {
	case Eq:
		return valuesEqual(a, b), nil
	case NotEq:
		return !valuesEqual(a, b), nil
	case Lt, LtE, Gt, GtE:
		if res, ok := vecOrder(op, a, b); ok {
			return res, nil
		}
		c, err := order(op, a, b)
		if err == errNaN {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		switch op {
		case Lt:
			return c < 0, nil
		case LtE:
			return c <= 0, nil
		case Gt:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	}
	return false, fmt.Errorf("%w: the %q operator is not allowed", ErrBannedComparison, op.String())
}

func unary(op UnaryOperator, v any) (any, error) {
	if op == Not {
		return !Truthy(v), nil
	}
	if vec, ok := v.(geom.Vec); ok {
		switch op {
		case USub:
			return vec.Neg(), nil
		case UAdd:
			return vec, nil
		}
	}
	n, ok := toNumber(v)
	if !ok || (op == Invert && n.isFloat) {
		return nil, evalErrorf("bad operand type for unary %s: '%s'", op, typeName(v))
	}
	switch op {
	case USub:
		if n.isFloat {
			return -n.f, nil
		}
		if n.i == math.MinInt64 {
			return nil, errOverflow
		}
		return -n.i, nil
	case UAdd:
		if n.isFloat {
			return n.f, nil
		}
		return n.i, nil
	default:
		return ^n.i, nil
	}
}

var (
	errOverflow = evalErrorf("integer overflow")
	errDivZero  = evalErrorf("division by zero")
)

func binary(op BinOperator, a, b any) (any, error) {
	_, aVec := a.(geom.Vec)
	_, bVec := b.(geom.Vec)
	if aVec || bVec {
		return vecBinary(op, a, b)
	}

	if res, ok, err := stringBinary(op, a, b); ok {
		return res, err
	}

	na, okA := toNumber(a)
	nb, okB := toNumber(b)
	if !okA || !okB {
		return nil, unsupported(op, a, b)
	}
	if na.isFloat || nb.isFloat {
		return floatBinary(op, na.float(), nb.float(), a, b)
	}
	ba, aBool := a.(bool)
	bb, bBool := b.(bool)
	if aBool && bBool {
		switch op {
		case BitAnd:
			return ba && bb, nil
		case BitOr:
			return ba || bb, nil
		case BitXor:
			return ba != bb, nil
		}
	}
	return intBinary(op, na.i, nb.i, a, b)
}

func unsupported(op BinOperator, a, b any) error {
	return evalErrorf("unsupported operand type(s) for %s: '%s' and '%s'", op, typeName(a), typeName(b))
}

func stringBinary(op BinOperator, a, b any) (any, bool, error) {
	sa, aStr := a.(string)
	sb, bStr := b.(string)
	switch {
	case aStr && bStr:
		if op != Add {
			return nil, true, unsupported(op, a, b)
		}
		if len(sa)+len(sb) > maxStringLen {
			return nil, true, evalErrorf("string result too long")
		}
		return sa + sb, true, nil
	case aStr || bStr:
		s, other := sa, b
		if bStr {
			s, other = sb, a
		}
		n, ok := toNumber(other)
		if op != Mult || !ok || n.isFloat {
			return nil, true, unsupported(op, a, b)
		}
		if n.i <= 0 || s == "" {
			return "", true, nil
		}
		if n.i > maxStringLen/int64(len(s)) {
			return nil, true, evalErrorf("string result too long")
		}
		return strings.Repeat(s, int(n.i)), true, nil
	}
	return nil, false, nil
}

func intBinary(op BinOperator, x, y int64, a, b any) (any, error) {
	switch op {
	case Add:
		r := x + y
		if (r > x) != (y > 0) {
			return nil, errOverflow
		}
		return r, nil
	case Sub:
		r := x - y
		if (r < x) != (y > 0) {
			return nil, errOverflow
		}
		return r, nil
	case Mult:
		if x == 0 || y == 0 {
			return int64(0), nil
		}
		r := x * y
		if r/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
			return nil, errOverflow
		}
		return r, nil
	case Div:
		if y == 0 {
			return nil, errDivZero
		}
		return float64(x) / float64(y), nil
	case FloorDiv:
		if y == 0 {
			return nil, errDivZero
		}
		if x == math.MinInt64 && y == -1 {
			return nil, errOverflow
		}
		q := x / y
		if (x%y != 0) && ((x < 0) != (y < 0)) {
			q--
		}
		return q, nil
	case Mod:
		if y == 0 {
			return nil, errDivZero
		}
		if y == -1 {
			return int64(0), nil
		}
		r := x % y
		if r != 0 && ((r < 0) != (y < 0)) {
			r += y
		}
		return r, nil
	case Pow:
		if y < 0 {
			if x == 0 {
				return nil, evalErrorf("0 cannot be raised to a negative power")
			}
			return math.Pow(float64(x), float64(y)), nil
		}
		return intPow(x, y)
	case LShift:
		if y < 0 {
			return nil, evalErrorf("negative shift count")
		}
		if x == 0 {
			return int64(0), nil
		}
		if y >= 63 {
			return nil, errOverflow
		}
		r := x << uint(y)
		if r>>uint(y) != x {
			return nil, errOverflow
		}
		return r, nil
	case RShift:
		if y < 0 {
			return nil, evalErrorf("negative shift count")
		}
		if y >= 63 {
			y = 63
		}
		return x >> uint(y), nil
	case BitAnd:
		return x & y, nil
	case BitOr:
		return x | y, nil
	case BitXor:
		return x ^ y, nil
	}
	return nil, unsupported(op, a, b)
}

func intPow(base, exp int64) (any, error) {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			r, err := intBinary(Mult, result, base, nil, nil)
			if err != nil {
				return nil, err
			}
			result = r.(int64)
		}
		exp >>= 1
		if exp > 0 {
			sq, err := intBinary(Mult, base, base, nil, nil)
			if err != nil {
				return nil, err
			}
			base = sq.(int64)
		}
	}
	return result, nil
}

func floatBinary(op BinOperator, x, y float64, a, b any) (any, error) {
	switch op {
	case Add:
		return x + y, nil
	case Sub:
		return x - y, nil
	case Mult:
		return x * y, nil
	case Div:
		if y == 0 {
			return nil, errDivZero
		}
		return x / y, nil
	case FloorDiv:
		if y == 0 {
			return nil, errDivZero
		}
		return math.Floor(x / y), nil
	case Mod:
		if y == 0 {
			return nil, errDivZero
		}
		return floatMod(x, y), nil
	case Pow:
		if x == 0 && y < 0 {
			return nil, evalErrorf("0.0 cannot be raised to a negative power")
		}
		if x < 0 && y != math.Trunc(y) {
			return nil, evalErrorf("negative number cannot be raised to a fractional power")
		}
		return math.Pow(x, y), nil
	}
	return nil, unsupported(op, a, b)
}

func floatMod(x, y float64) float64 {
	r := math.Mod(x, y)
	if r != 0 && (r < 0) != (y < 0) {
		r += y
	}
	return r
}

func vecBinary(op BinOperator, a, b any) (any, error) {
	va, aVec := a.(geom.Vec)
	vb, bVec := b.(geom.Vec)
	if aVec && bVec {
		switch op {
		case Add:
			return va.Add(vb), nil
		case Sub:
			return va.Sub(vb), nil
		}
		return nil, unsupported(op, a, b)
	}

	// One side is a scalar, applied to each component.
	scalar := b
	if bVec {
		scalar = a
	}
	n, ok := toNumber(scalar)
	if !ok {
		return nil, unsupported(op, a, b)
	}
	s := n.float()
	vec := va
	if bVec {
		vec = vb
	}
	apply := func(f func(x float64) (float64, error)) (any, error) {
		var out [3]float64
		for i, c := range [3]float64{vec.X, vec.Y, vec.Z} {
			r, err := f(c)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return geom.Vec{X: out[0], Y: out[1], Z: out[2]}, nil
	}

	switch op {
	case Add:
		return apply(func(c float64) (float64, error) { return c + s, nil })
	case Mult:
		return vec.Scale(s), nil
	case Sub:
		if aVec {
			return apply(func(c float64) (float64, error) { return c - s, nil })
		}
		return apply(func(c float64) (float64, error) { return s - c, nil })
	case Div, FloorDiv, Mod:
		if !aVec {
			return nil, unsupported(op, a, b)
		}
		if s == 0 {
			return nil, errDivZero
		}
		return apply(func(c float64) (float64, error) {
			switch op {
			case Div:
				return c / s, nil
			case FloorDiv:
				return math.Floor(c / s), nil
			}
			return floatMod(c, s), nil
		})
	}
	return nil, unsupported(op, a, b)
}

func subscript(v, index any) (any, error) {
	switch x := v.(type) {
	case string:
		n, ok := index.(int64)
		if b, isBool := index.(bool); isBool {
			n, ok = 0, true
			if b {
				n = 1
			}
		}
		if !ok {
			return nil, evalErrorf("string indices must be integers, not '%s'", typeName(index))
		}
		runes := []rune(x)
		if n < 0 {
			n += int64(len(runes))
		}
		if n < 0 || n >= int64(len(runes)) {
			return nil, evalErrorf("string index out of range")
		}
		return string(runes[n]), nil
	case geom.Vec:
		switch i := index.(type) {
		case int64:
			if c, ok := x.Index(int(i)); ok && i >= 0 {
				return c, nil
			}
			return nil, evalErrorf("vector index %d out of range", i)
		case string:
			if c, ok := x.Axis(i); ok {
				return c, nil
			}
			return nil, evalErrorf("invalid vector axis %q", i)
		}
		return nil, evalErrorf("invalid vector index type '%s'", typeName(index))
	}
	return nil, evalErrorf("'%s' object is not subscriptable", typeName(v))
}

// sliceString slices the code points of s, clamping out-of-range bounds and
// allowing negative indexes and steps.
func sliceString(s string, lower, upper, step any) (any, error) {
	runes := []rune(s)
	length := int64(len(runes))

	st := int64(1)
	if step != nil {
		n, ok := sliceIndex(step)
		if !ok {
			return nil, evalErrorf("slice indices must be integers or None")
		}
		if n == 0 {
			return nil, evalErrorf("slice step cannot be zero")
		}
		st = n
	}

	clamp := func(v any, def int64) (int64, error) {
		if v == nil {
			return def, nil
		}
		n, ok := sliceIndex(v)
		if !ok {
			return 0, evalErrorf("slice indices must be integers or None")
		}
		if n < 0 {
			n += length
			if n < 0 {
				if st < 0 {
					return -1, nil
				}
				return 0, nil
			}
		}
		if n >= length {
			if st < 0 {
				return length - 1, nil
			}
			return length, nil
		}
		return n, nil
	}

	var start, stop int64
	var err error
	if st > 0 {
		if start, err = clamp(lower, 0); err != nil {
			return nil, err
		}
		if stop, err = clamp(upper, length); err != nil {
			return nil, err
		}
	} else {
		if start, err = clamp(lower, length-1); err != nil {
			return nil, err
		}
		if stop, err = clamp(upper, -1); err != nil {
			return nil, err
		}
	}

	var b strings.Builder
	for i := start; (st > 0 && i < stop) || (st < 0 && i > stop); i += st {
		b.WriteRune(runes[i])
	}
	return b.String(), nil
}

func sliceIndex(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
