// Package geom holds the small value types used to place instances in a map:
// vectors, Euler angles and rotation matrices.
//
// All types are plain values. Copying a Vec, Angle or Matrix produces an
// independent value, so results handed out by lazy values cannot alias each
// other.
package geom

import (
	"math"
	"strconv"
	"strings"
)

// Vec is a 3D vector using the map's axis convention (Z is up).
type Vec struct {
	X, Y, Z float64
}

// ParseVec parses a vector from "x y z" text. The components may be wrapped
// in matching (), [], {} or <> brackets. If the text is not a valid vector,
// the fallback components are returned instead.
func ParseVec(s string, x, y, z float64) Vec {
	parts, ok := splitTriple(s)
	if !ok {
		return Vec{x, y, z}
	}
	return Vec{parts[0], parts[1], parts[2]}
}

// splitTriple parses three whitespace-separated floats.
func splitTriple(s string) ([3]float64, bool) {
	var out [3]float64
	s = stripBrackets(strings.TrimSpace(s))
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return out, false
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return out, false
		}
		out[i] = v
	}
	return out, true
}

var bracketPairs = map[byte]byte{'(': ')', '[': ']', '{': '}', '<': '>'}

func stripBrackets(s string) string {
	if len(s) < 2 {
		return s
	}
	if closing, ok := bracketPairs[s[0]]; ok && s[len(s)-1] == closing {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// Add returns v + o.
func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale multiplies every component by s.
func (v Vec) Scale(s float64) Vec { return Vec{v.X * s, v.Y * s, v.Z * s} }

// Neg returns -v.
func (v Vec) Neg() Vec { return Vec{-v.X, -v.Y, -v.Z} }

// IsZero reports whether all components are zero.
func (v Vec) IsZero() bool { return v.X == 0 && v.Y == 0 && v.Z == 0 }

// Index returns the component at position 0, 1 or 2.
func (v Vec) Index(i int) (float64, bool) {
	switch i {
	case 0:
		return v.X, true
	case 1:
		return v.Y, true
	case 2:
		return v.Z, true
	}
	return 0, false
}

// Axis returns the component named "x", "y" or "z".
func (v Vec) Axis(name string) (float64, bool) {
	switch strings.ToLower(name) {
	case "x":
		return v.X, true
	case "y":
		return v.Y, true
	case "z":
		return v.Z, true
	}
	return 0, false
}

// Rotate applies a rotation to the vector. The vector is treated as a row
// vector multiplied by the rotation matrix. Results are rounded to six
// decimal places to hide floating point noise from the trig functions.
func (v Vec) Rotate(r Rotator) Vec {
	m := r.RotationMatrix()
	return Vec{
		round6(v.X*m[0][0] + v.Y*m[1][0] + v.Z*m[2][0]),
		round6(v.X*m[0][1] + v.Y*m[1][1] + v.Z*m[2][1]),
		round6(v.X*m[0][2] + v.Y*m[1][2] + v.Z*m[2][2]),
	}
}

// Localise converts a vector relative to an object at origin with the given
// rotation into world space.
func (v Vec) Localise(origin Vec, r Rotator) Vec {
	return v.Rotate(r).Add(origin)
}

// String formats the vector as "x y z".
func (v Vec) String() string {
	return FormatFloat(v.X) + " " + FormatFloat(v.Y) + " " + FormatFloat(v.Z)
}

// FormatFloat formats a float with at most six decimal places, dropping
// trailing zeros and the decimal point where possible.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func round6(f float64) float64 {
	r := math.Round(f*1e6) / 1e6
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}
