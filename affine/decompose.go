package affine

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// decomposeTolerance bounds the per-element error allowed between the
// input matrix and the matrix recomposed from a candidate decomposition.
const decomposeTolerance = 1e-8

// singularEpsilon is the determinant magnitude below which the 3x3
// linear block is treated as singular.
const singularEpsilon = 1e-15

// Components is the result of a successful affine decomposition.
// Rotate holds Euler angles in radians for the fixed order Rz*Ry*Rx
// (the X rotation is applied first).
type Components struct {
	Scale     r3.Vec
	Rotate    r3.Vec
	Translate r3.Vec
}

// Decompose splits the affine matrix m into scale, rotation and
// translation such that
//
//	Translate(Translate) * Rotate(Rotate) * Scale(Scale)
//
// reproduces m within floating tolerance. ok is false when no such split
// exists: the bottom row is not exactly (0,0,0,1), the 3x3 linear block
// is singular, or the block carries shear that scale and rotation alone
// cannot express. Failure is an expected outcome, not an error; callers
// fall back to applying m directly.
//
// A successful result need not reproduce the scale and rotation values
// that originally built m (angles wrap, reflections are absorbed into
// the scale), only the matrix itself.
func Decompose(m Mat4) (c Components, ok bool) {
	if !m.IsAffine() {
		return Components{}, false
	}
	if math.Abs(m.Det3()) < singularEpsilon {
		return Components{}, false
	}

	c.Translate = m.Translation()

	// The 3x3 linear block, row-major.
	l := [3][3]float64{
		{m[0], m[1], m[2]},
		{m[4], m[5], m[6]},
		{m[8], m[9], m[10]},
	}

	// Per-axis scale magnitudes from row norms.
	var scale [3]float64
	for i := 0; i < 3; i++ {
		scale[i] = math.Sqrt(l[i][0]*l[i][0] + l[i][1]*l[i][1] + l[i][2]*l[i][2])
		if scale[i] < singularEpsilon {
			return Components{}, false
		}
	}

	// Candidate rotation: rows normalised by the extracted scale.
	var r [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = l[i][j] / scale[i]
		}
	}

	// Resolve sign so the candidate rotation is proper (det +1),
	// absorbing any net reflection into the Z scale.
	det := r[0][0]*(r[1][1]*r[2][2]-r[1][2]*r[2][1]) -
		r[0][1]*(r[1][0]*r[2][2]-r[1][2]*r[2][0]) +
		r[0][2]*(r[1][0]*r[2][1]-r[1][1]*r[2][0])
	if det < 0 {
		scale[2] = -scale[2]
		for j := 0; j < 3; j++ {
			r[2][j] = -r[2][j]
		}
	}

	c.Scale = r3.Vec{X: scale[0], Y: scale[1], Z: scale[2]}
	c.Rotate = eulerZYX(r)

	// Accept the candidate only if it rebuilds the original matrix.
	// This is what rejects shear and any case where the row-norm scale
	// estimate does not commute with the rotation.
	rebuilt := Translate(c.Translate).Mul(Rotate(c.Rotate)).Mul(Scale(c.Scale))
	if !rebuilt.Eq(m, decomposeTolerance) {
		return Components{}, false
	}
	return c, true
}

// eulerZYX extracts Euler angles (rx, ry, rz) from a candidate rotation
// matrix r assumed to be of the form Rz(rz)*Ry(ry)*Rx(rx):
//
//	r20 = -sin(ry)
//	r21 = cos(ry)*sin(rx),  r22 = cos(ry)*cos(rx)
//	r10 = sin(rz)*cos(ry),  r00 = cos(rz)*cos(ry)
//
// Near the gimbal singularity (|r20| ~ 1) rx is pinned to zero and rz
// absorbs the remaining in-plane rotation. The caller's recomposition
// check rejects any extraction the input matrix cannot support.
func eulerZYX(r [3][3]float64) r3.Vec {
	sy := -r[2][0]
	if sy > 1 {
		sy = 1
	} else if sy < -1 {
		sy = -1
	}
	ry := math.Asin(sy)

	if math.Abs(r[2][0]) > 1-1e-12 {
		// cos(ry) ~ 0: rx and rz rotate about the same axis.
		return r3.Vec{X: 0, Y: ry, Z: math.Atan2(-r[0][1], r[1][1])}
	}
	return r3.Vec{
		X: math.Atan2(r[2][1], r[2][2]),
		Y: ry,
		Z: math.Atan2(r[1][0], r[0][0]),
	}
}
