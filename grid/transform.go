package grid

import "github.com/banshee-data/voxremap/affine"

// transformEqTolerance is the per-element tolerance used when comparing
// two index-to-world transforms.
const transformEqTolerance = 1e-12

// Transform maps grid index coordinates to and from world coordinates.
// It is restricted to invertible affine maps.
type Transform struct {
	fwd affine.Mat4 // index -> world
	inv affine.Mat4 // world -> index
}

// NewLinearTransform returns the identity transform: index coordinates
// and world coordinates coincide (unit voxels at the origin).
func NewLinearTransform() *Transform {
	return &Transform{fwd: affine.Identity(), inv: affine.Identity()}
}

// NewTransform returns the transform whose index-to-world map is
// indexToWorld. ok is false if the matrix is not invertible.
func NewTransform(indexToWorld affine.Mat4) (*Transform, bool) {
	inv, ok := indexToWorld.Inverse()
	if !ok {
		return nil, false
	}
	return &Transform{fwd: indexToWorld, inv: inv}, true
}

// PreScale returns a copy of t whose index space is scaled by s before
// the existing map applies: indexToWorld' = indexToWorld * Scale(s).
// A pre-scale of (0.5, 0.5, 1) halves the voxel size in x and y.
func (t *Transform) PreScale(s Vec3d) *Transform {
	fwd := t.fwd.Mul(affine.Scale(s))
	inv, ok := fwd.Inverse()
	if !ok {
		// Zero scale components collapse the map; keep the forward
		// matrix so callers can still observe the degenerate transform.
		return &Transform{fwd: fwd, inv: affine.Mat4{}}
	}
	return &Transform{fwd: fwd, inv: inv}
}

// IndexToWorld maps the continuous index coordinate p into world space.
func (t *Transform) IndexToWorld(p Vec3d) Vec3d {
	return t.fwd.Apply(p)
}

// WorldToIndex maps the world coordinate p into continuous index space.
func (t *Transform) WorldToIndex(p Vec3d) Vec3d {
	return t.inv.Apply(p)
}

// Matrix returns the index-to-world matrix.
func (t *Transform) Matrix() affine.Mat4 {
	return t.fwd
}

// InverseMatrix returns the world-to-index matrix.
func (t *Transform) InverseMatrix() affine.Mat4 {
	return t.inv
}

// Equal reports whether t and o describe the same index-to-world map
// within floating tolerance.
func (t *Transform) Equal(o *Transform) bool {
	return t.fwd.Eq(o.fwd, transformEqTolerance)
}
