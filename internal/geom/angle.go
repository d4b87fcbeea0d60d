package geom

import "math"

// Rotator is implemented by types that describe an orientation.
type Rotator interface {
	RotationMatrix() Matrix
}

// Angle is a set of Euler angles in degrees, normalised to [0, 360).
type Angle struct {
	Pitch, Yaw, Roll float64
}

// NewAngle builds a normalised angle.
func NewAngle(pitch, yaw, roll float64) Angle {
	return Angle{normDeg(pitch), normDeg(yaw), normDeg(roll)}
}

// ParseAngle parses "pitch yaw roll" text, with the same bracket rules as
// ParseVec. Invalid text yields the fallback angle.
func ParseAngle(s string, pitch, yaw, roll float64) Angle {
	parts, ok := splitTriple(s)
	if !ok {
		return NewAngle(pitch, yaw, roll)
	}
	return NewAngle(parts[0], parts[1], parts[2])
}

// RotationMatrix implements Rotator.
func (a Angle) RotationMatrix() Matrix {
	sinP, cosP := math.Sincos(a.Pitch * math.Pi / 180)
	sinY, cosY := math.Sincos(a.Yaw * math.Pi / 180)
	sinR, cosR := math.Sincos(a.Roll * math.Pi / 180)

	var m Matrix
	m[0][0] = cosP * cosY
	m[0][1] = cosP * sinY
	m[0][2] = -sinP

	m[1][0] = sinP*sinR*cosY - cosR*sinY
	m[1][1] = sinP*sinR*sinY + cosR*cosY
	m[1][2] = sinR * cosP

	m[2][0] = sinP*cosR*cosY + sinR*sinY
	m[2][1] = sinP*cosR*sinY - sinR*cosY
	m[2][2] = cosR * cosP
	return m
}

// String formats the angle as "pitch yaw roll".
func (a Angle) String() string {
	return FormatFloat(a.Pitch) + " " + FormatFloat(a.Yaw) + " " + FormatFloat(a.Roll)
}

func normDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	// Rounding keeps 359.9999999 style noise from drifting.
	d = math.Round(d*1e6) / 1e6
	if d >= 360 {
		d -= 360
	}
	return d
}
