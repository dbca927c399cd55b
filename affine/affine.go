// Package affine provides 4x4 affine transform matrices for index-space
// and world-space coordinate mapping, plus decomposition of an affine
// matrix into independent scale, rotation and translation components.
//
// Matrices are stored row-major as [16]float64 and applied to column
// vectors: p' = M * p. The translation lives in elements 3, 7 and 11 and
// the bottom row of a well-formed affine matrix is (0, 0, 0, 1).
package affine

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mat4 is a 4x4 matrix in row-major order: m00,m01,m02,m03, m10,...
// It is applied to column vectors, so composition reads right to left:
// (A.Mul(B)).Apply(p) applies B first, then A.
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns the matrix translating by t.
func Translate(t r3.Vec) Mat4 {
	return Mat4{
		1, 0, 0, t.X,
		0, 1, 0, t.Y,
		0, 0, 1, t.Z,
		0, 0, 0, 1,
	}
}

// Scale returns the matrix scaling each axis by the corresponding
// component of s. Components may be negative (reflection) or zero.
func Scale(s r3.Vec) Mat4 {
	return Mat4{
		s.X, 0, 0, 0,
		0, s.Y, 0, 0,
		0, 0, s.Z, 0,
		0, 0, 0, 1,
	}
}

// RotateX returns the matrix rotating by angle radians about the X axis.
func RotateX(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	}
}

// RotateY returns the matrix rotating by angle radians about the Y axis.
func RotateY(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// RotateZ returns the matrix rotating by angle radians about the Z axis.
func RotateZ(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Rotate returns the combined rotation Rz * Ry * Rx for the Euler angles
// in r (radians). Applied to a point, the X rotation acts first.
func Rotate(r r3.Vec) Mat4 {
	return RotateZ(r.Z).Mul(RotateY(r.Y)).Mul(RotateX(r.X))
}

// Compose builds the transform
//
//	Translate(translate) * Translate(pivot) * Rotate(rotate) *
//	Scale(scale) * Translate(-pivot)
//
// i.e. scale and rotation applied about the pivot point, followed by the
// translation.
func Compose(pivot, scale, rotate, translate r3.Vec) Mat4 {
	m := Translate(translate)
	m = m.Mul(Translate(pivot))
	m = m.Mul(Rotate(rotate))
	m = m.Mul(Scale(scale))
	m = m.Mul(Translate(r3.Vec{X: -pivot.X, Y: -pivot.Y, Z: -pivot.Z}))
	return m
}

// Mul returns the matrix product m * n.
func (m Mat4) Mul(n Mat4) Mat4 {
	var out Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[row*4+k] * n[k*4+col]
			}
			out[row*4+col] = sum
		}
	}
	return out
}

// Apply transforms the point p by m, including translation.
func (m Mat4) Apply(p r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3],
		Y: m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7],
		Z: m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11],
	}
}

// Translation returns the translation component of m.
func (m Mat4) Translation() r3.Vec {
	return r3.Vec{X: m[3], Y: m[7], Z: m[11]}
}

// Inverse returns the inverse of m. ok is false if m is singular, in
// which case the returned matrix must not be used.
func (m Mat4) Inverse() (Mat4, bool) {
	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(4, 4, m[:])); err != nil {
		return Mat4{}, false
	}
	var out Mat4
	copy(out[:], inv.RawMatrix().Data)
	return out, true
}

// Det3 returns the determinant of the 3x3 linear block of m.
func (m Mat4) Det3() float64 {
	return mat.Det(mat.NewDense(3, 3, []float64{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}))
}

// IsAffine reports whether the bottom row of m is exactly (0, 0, 0, 1),
// i.e. m carries no perspective component.
func (m Mat4) IsAffine() bool {
	return m[12] == 0 && m[13] == 0 && m[14] == 0 && m[15] == 1
}

// Eq reports whether m and n are equal within tol, compared per element
// with a relative-absolute hybrid: |a-b| <= tol*max(1, |b|).
func (m Mat4) Eq(n Mat4, tol float64) bool {
	for i := range m {
		if math.Abs(m[i]-n[i]) > tol*math.Max(1, math.Abs(n[i])) {
			return false
		}
	}
	return true
}
