// Package grid owns the sparse volumetric grid contract used by the
// resampling layer.
//
// Responsibilities: integer coordinate geometry (Coord, BBox), the grid
// value-type set, the Grid capability interface, the index-to-world
// Transform, and Sparse, a tiled in-memory reference implementation.
//
// The resampling layer depends only on the Grid interface, so any
// hierarchical store that satisfies the contract can be substituted for
// Sparse.
package grid

import "gonum.org/v1/gonum/spatial/r3"

// Vec3d is a 3-component double-precision vector, used both as a grid
// value type and as a continuous (fractional) coordinate.
type Vec3d = r3.Vec

// Vec3f is a 3-component single-precision vector grid value.
type Vec3f struct {
	X, Y, Z float32
}

// Value is the set of voxel value types a Grid may carry.
type Value interface {
	bool | int32 | int64 | float32 | float64 | Vec3f | Vec3d
}

// Grid is the sparse volumetric grid capability. It maps integer
// coordinates to values of type T with a background default and a
// per-voxel active flag.
//
// Implementations must support any number of concurrent readers (Value,
// Active, Probe, ActiveBBox); mutating calls require external
// serialisation.
type Grid[T Value] interface {
	// Background returns the default value of unset voxels.
	Background() T

	// Value returns the value at ijk, or the background if unset.
	Value(ijk Coord) T

	// Active reports whether the voxel at ijk is active.
	Active(ijk Coord) bool

	// Probe returns the value and active state at ijk in one lookup.
	Probe(ijk Coord) (T, bool)

	// SetValue sets the value at ijk and marks the voxel active.
	SetValue(ijk Coord, v T)

	// SetValueOff sets the value at ijk and marks the voxel inactive.
	SetValueOff(ijk Coord, v T)

	// SetActive sets the active state at ijk without changing its value.
	SetActive(ijk Coord, on bool)

	// Fill sets every voxel in b (inclusive bounds) to v with the given
	// active state.
	Fill(b BBox, v T, active bool)

	// Clear resets the grid to all-background, all-inactive. The grid's
	// transform is untouched.
	Clear()

	// ActiveVoxelCount returns the number of active voxels.
	ActiveVoxelCount() int64

	// ActiveBBox returns the tight bounding box of all active voxels.
	// ok is false when the grid has no active voxels.
	ActiveBBox() (b BBox, ok bool)

	// VisitActive calls fn for every active voxel. Order is unspecified.
	VisitActive(fn func(ijk Coord, v T))

	// IndexTransform returns the grid's index-to-world transform.
	IndexTransform() *Transform
}

// TileProber is an optional Grid capability that exposes the store's
// tiling so the resampler can classify whole regions at once. A grid
// that does not implement it is resampled voxel by voxel.
type TileProber[T Value] interface {
	// TileDim returns the edge length of the store's tiles in voxels.
	TileDim() int

	// ProbeUniform reports whether every voxel in b (inclusive bounds)
	// carries the same value and active state. When uniform is true, v
	// and active describe the whole box. Unset regions are uniform with
	// the background value, inactive.
	ProbeUniform(b BBox) (v T, active bool, uniform bool)
}
