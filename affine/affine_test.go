package affine

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func vecNear(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

func TestIdentityApply(t *testing.T) {
	p := r3.Vec{X: 1.5, Y: -2, Z: 3.25}
	if got := Identity().Apply(p); got != p {
		t.Errorf("Identity().Apply(%v) = %v", p, got)
	}
}

func TestTranslateScaleApply(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		p    r3.Vec
		want r3.Vec
	}{
		{"translate", Translate(r3.Vec{X: 1, Y: -2, Z: 3}), r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{X: 2, Y: -1, Z: 4}},
		{"scale", Scale(r3.Vec{X: 2, Y: 3, Z: -1}), r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{X: 2, Y: 3, Z: -1}},
		{"scale origin fixed", Scale(r3.Vec{X: 10, Y: 4, Z: 7.5}), r3.Vec{}, r3.Vec{}},
	}
	for _, tc := range tests {
		if got := tc.m.Apply(tc.p); !vecNear(got, tc.want, 1e-14) {
			t.Errorf("%s: Apply(%v) = %v, want %v", tc.name, tc.p, got, tc.want)
		}
	}
}

func TestRotateAxes(t *testing.T) {
	const q = math.Pi / 2
	tests := []struct {
		name string
		m    Mat4
		p    r3.Vec
		want r3.Vec
	}{
		{"x quarter", RotateX(q), r3.Vec{Y: 1}, r3.Vec{Z: 1}},
		{"y quarter", RotateY(q), r3.Vec{Z: 1}, r3.Vec{X: 1}},
		{"z quarter", RotateZ(q), r3.Vec{X: 1}, r3.Vec{Y: 1}},
		{"z half", RotateZ(math.Pi), r3.Vec{X: 1}, r3.Vec{X: -1}},
	}
	for _, tc := range tests {
		if got := tc.m.Apply(tc.p); !vecNear(got, tc.want, 1e-14) {
			t.Errorf("%s: Apply(%v) = %v, want %v", tc.name, tc.p, got, tc.want)
		}
	}
}

// Rotate applies the X rotation first: a quarter turn about X sends +Y to
// +Z, and the following quarter turn about Z leaves +Z alone.
func TestRotateOrder(t *testing.T) {
	const q = math.Pi / 2
	m := Rotate(r3.Vec{X: q, Z: q})
	got := m.Apply(r3.Vec{Y: 1})
	if want := (r3.Vec{Z: 1}); !vecNear(got, want, 1e-14) {
		t.Errorf("Rotate order: got %v, want %v", got, want)
	}
}

func TestMulRightToLeft(t *testing.T) {
	// Scale first, then translate.
	m := Translate(r3.Vec{X: 5}).Mul(Scale(r3.Vec{X: 2, Y: 2, Z: 2}))
	got := m.Apply(r3.Vec{X: 1, Y: 1, Z: 1})
	if want := (r3.Vec{X: 7, Y: 2, Z: 2}); !vecNear(got, want, 1e-14) {
		t.Errorf("T*S apply = %v, want %v", got, want)
	}
	// The other order translates inside the scale.
	m = Scale(r3.Vec{X: 2, Y: 2, Z: 2}).Mul(Translate(r3.Vec{X: 5}))
	got = m.Apply(r3.Vec{X: 1, Y: 1, Z: 1})
	if want := (r3.Vec{X: 12, Y: 2, Z: 2}); !vecNear(got, want, 1e-14) {
		t.Errorf("S*T apply = %v, want %v", got, want)
	}
}

func TestComposePivot(t *testing.T) {
	pivot := r3.Vec{X: 1}
	m := Compose(pivot, r3.Vec{X: 2, Y: 2, Z: 2}, r3.Vec{}, r3.Vec{})

	// The pivot itself is a fixed point of a pure pivot scale.
	if got := m.Apply(pivot); !vecNear(got, pivot, 1e-14) {
		t.Errorf("pivot moved: %v", got)
	}
	got := m.Apply(r3.Vec{X: 2})
	if want := (r3.Vec{X: 3}); !vecNear(got, want, 1e-14) {
		t.Errorf("pivot scale: got %v, want %v", got, want)
	}
}

func TestComposeTranslateLast(t *testing.T) {
	m := Compose(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{Z: math.Pi / 2}, r3.Vec{X: 5})
	got := m.Apply(r3.Vec{X: 1})
	if want := (r3.Vec{X: 5, Y: 1}); !vecNear(got, want, 1e-13) {
		t.Errorf("rotate then translate: got %v, want %v", got, want)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	m := Compose(
		r3.Vec{X: 0.5, Y: 4, Z: -3.3},
		r3.Vec{X: 10, Y: 4, Z: 7.5},
		r3.Vec{X: 0.4, Y: -1.1, Z: 2.0},
		r3.Vec{X: -5, Y: 0, Z: 10},
	)
	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("Inverse reported singular for an invertible matrix")
	}
	if got := m.Mul(inv); !got.Eq(Identity(), 1e-10) {
		t.Errorf("m * m^-1 = %v", got)
	}
	if got := inv.Mul(m); !got.Eq(Identity(), 1e-10) {
		t.Errorf("m^-1 * m = %v", got)
	}
}

func TestInverseSingular(t *testing.T) {
	if _, ok := Scale(r3.Vec{X: 0, Y: 1, Z: 1}).Inverse(); ok {
		t.Error("Inverse accepted a zero-scale matrix")
	}
	if _, ok := (Mat4{}).Inverse(); ok {
		t.Error("Inverse accepted the zero matrix")
	}
}

func TestDet3(t *testing.T) {
	if got := Identity().Det3(); math.Abs(got-1) > 1e-14 {
		t.Errorf("Det3(I) = %v", got)
	}
	if got := Scale(r3.Vec{X: 2, Y: 3, Z: -1}).Det3(); math.Abs(got+6) > 1e-12 {
		t.Errorf("Det3(scale) = %v, want -6", got)
	}
	if got := Rotate(r3.Vec{X: 0.3, Y: 0.7, Z: -0.2}).Det3(); math.Abs(got-1) > 1e-12 {
		t.Errorf("Det3(rotation) = %v, want 1", got)
	}
}

func TestIsAffine(t *testing.T) {
	if !Identity().IsAffine() {
		t.Error("identity not affine")
	}
	for _, i := range []int{12, 13, 14} {
		m := Identity()
		m[i] = 0.25
		if m.IsAffine() {
			t.Errorf("perspective element %d accepted", i)
		}
	}
	m := Identity()
	m[15] = 2
	if m.IsAffine() {
		t.Error("scaled homogeneous row accepted")
	}
}

func TestEqHybridTolerance(t *testing.T) {
	a := Identity()
	b := a
	b[0] += 5e-9
	if !a.Eq(b, 1e-8) {
		t.Error("within tolerance rejected")
	}
	b[0] = 1 + 1e-6
	if a.Eq(b, 1e-8) {
		t.Error("outside tolerance accepted")
	}
	// Relative comparison for large elements.
	a = Scale(r3.Vec{X: 1e6, Y: 1, Z: 1})
	b = a
	b[0] += 5e-3
	if !a.Eq(b, 1e-8) {
		t.Error("relative tolerance rejected a large element")
	}
}

func TestTranslation(t *testing.T) {
	want := r3.Vec{X: -5, Y: 0, Z: 10}
	if got := Translate(want).Translation(); got != want {
		t.Errorf("Translation() = %v, want %v", got, want)
	}
}
