package affine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestDecomposeIdentity(t *testing.T) {
	c, ok := Decompose(Identity())
	require.True(t, ok)
	require.Equal(t, r3.Vec{X: 1, Y: 1, Z: 1}, c.Scale)
	require.Equal(t, r3.Vec{}, c.Rotate)
	require.Equal(t, r3.Vec{}, c.Translate)
}

func TestDecomposeTranslation(t *testing.T) {
	want := r3.Vec{X: -5, Y: 0, Z: 10}
	c, ok := Decompose(Translate(want))
	require.True(t, ok)
	require.Equal(t, want, c.Translate)
	require.Equal(t, r3.Vec{X: 1, Y: 1, Z: 1}, c.Scale)
}

func TestDecomposePureRotation(t *testing.T) {
	angles := r3.Vec{X: 30 * math.Pi / 180, Y: 230 * math.Pi / 180, Z: -190 * math.Pi / 180}
	m := Rotate(angles)
	c, ok := Decompose(m)
	require.True(t, ok)

	rebuilt := Translate(c.Translate).Mul(Rotate(c.Rotate)).Mul(Scale(c.Scale))
	require.True(t, rebuilt.Eq(m, 1e-8), "recomposition mismatch")
}

func TestDecomposePerspectiveFails(t *testing.T) {
	for _, i := range []int{12, 13, 14} {
		m := Identity()
		m[i] = 0.1
		if _, ok := Decompose(m); ok {
			t.Errorf("element %d: perspective matrix decomposed", i)
		}
	}
	m := Identity()
	m[15] = 2
	if _, ok := Decompose(m); ok {
		t.Error("scaled homogeneous row decomposed")
	}
}

func TestDecomposeSingularFails(t *testing.T) {
	if _, ok := Decompose(Scale(r3.Vec{X: 0, Y: 1, Z: 1})); ok {
		t.Error("zero-scale matrix decomposed")
	}
	if _, ok := Decompose(Mat4{15: 1}); ok {
		t.Error("zero linear block decomposed")
	}
}

func TestDecomposeShearFails(t *testing.T) {
	m := Identity()
	m[1] = 0.5 // x += 0.5*y
	if _, ok := Decompose(m); ok {
		t.Error("shear matrix decomposed")
	}
}

func TestDecomposeUniformReflection(t *testing.T) {
	m := Scale(r3.Vec{X: -1, Y: -1, Z: -1})
	c, ok := Decompose(m)
	require.True(t, ok)
	rebuilt := Translate(c.Translate).Mul(Rotate(c.Rotate)).Mul(Scale(c.Scale))
	require.True(t, rebuilt.Eq(m, 1e-8), "recomposition mismatch")
}

// A successful decomposition must reproduce the input matrix when its
// components are recomposed, and across a broad sweep of inputs both
// outcomes must occur: many scale/rotation combinations carry an
// effective shear that no scale-rotation-translation triple can express,
// and those must be rejected rather than mis-decomposed.
func TestDecomposeSweep(t *testing.T) {
	translations := []r3.Vec{
		{},
		{X: -5, Y: 0, Z: 10},
		{X: 0.5, Y: 4, Z: -3.3},
	}
	scales := []float64{1, 0.25, -0.25, -1, 10, -10}
	var angles []float64
	for deg := 0.0; deg <= 360; deg += 45 {
		angles = append(angles, deg*math.Pi/180)
	}

	succeeded, failed := 0, 0
	for _, tr := range translations {
		for _, sx := range scales {
			for _, sy := range scales {
				for _, sz := range scales {
					for _, rx := range angles {
						for _, ry := range angles {
							for _, rz := range angles {
								s := r3.Vec{X: sx, Y: sy, Z: sz}
								r := r3.Vec{X: rx, Y: ry, Z: rz}
								m := Translate(tr).Mul(Rotate(r)).Mul(Scale(s))
								c, ok := Decompose(m)
								if !ok {
									failed++
									continue
								}
								succeeded++
								rebuilt := Translate(c.Translate).Mul(Rotate(c.Rotate)).Mul(Scale(c.Scale))
								if !rebuilt.Eq(m, 1e-6) {
									t.Fatalf("scale %v rotate %v translate %v: recomposed matrix %v does not match %v",
										s, r, tr, rebuilt, m)
								}
							}
						}
					}
				}
			}
		}
	}

	if succeeded == 0 {
		t.Error("no combination decomposed")
	}
	if failed == 0 {
		t.Error("every combination decomposed; expected shear-like rejects")
	}
}
