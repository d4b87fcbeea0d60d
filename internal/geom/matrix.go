package geom

import "math"

// Matrix is a 3x3 rotation matrix, stored row-major. Being an array, it is
// copied on assignment.
type Matrix [3][3]float64

// Identity returns the identity rotation.
func Identity() Matrix {
	return Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// ParseMatrix parses an angle string and converts it to a matrix.
// Invalid text yields the identity rotation.
func ParseMatrix(s string) Matrix {
	return ParseAngle(s, 0, 0, 0).RotationMatrix()
}

// RotationMatrix implements Rotator.
func (m Matrix) RotationMatrix() Matrix { return m }

// Mul composes two rotations: applying the result equals applying m, then o.
func (m Matrix) Mul(o Matrix) Matrix {
	var out Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j] + m[i][2]*o[2][j]
		}
	}
	return out
}

// Angle converts the rotation back into Euler angles.
func (m Matrix) Angle() Angle {
	forX, forY, forZ := m[0][0], m[0][1], m[0][2]
	leftX, leftY, leftZ := m[1][0], m[1][1], m[1][2]
	upZ := m[2][2]

	horiz := math.Hypot(forX, forY)
	if horiz > 0.001 {
		return NewAngle(
			deg(math.Atan2(-forZ, horiz)),
			deg(math.Atan2(forY, forX)),
			deg(math.Atan2(leftZ, upZ)),
		)
	}
	// Gimbal lock, pointing straight up or down.
	return NewAngle(
		deg(math.Atan2(-forZ, horiz)),
		deg(math.Atan2(-leftX, leftY)),
		0,
	)
}

// String formats the matrix as the equivalent angle.
func (m Matrix) String() string {
	return m.Angle().String()
}

func deg(rad float64) float64 { return rad * 180 / math.Pi }
