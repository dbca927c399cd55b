// Package resample moves sparse volumetric grids between coordinate
// frames. It provides interpolation samplers (point, box, quadratic),
// the affine grid Transformer, and ResampleToMatch, which resamples one
// grid into another grid's own index space.
//
// The sparse grid is consumed purely through the grid.Grid capability
// interface; no storage implementation is assumed.
package resample

import (
	"math"

	"github.com/banshee-data/voxremap/grid"
)

// Sampler interpolates a grid at a continuous index-space coordinate.
// Radius is the number of source voxels in each direction the sampler
// reads around the coordinate; it pads every candidate-region bound.
type Sampler[T grid.Value] interface {
	Radius() int

	// Sample returns the interpolated value at p and whether the result
	// is active. Activity is derived from the contributing source
	// voxels: a result is active if any contributor with nonzero weight
	// is active.
	Sample(g grid.Grid[T], p grid.Vec3d) (T, bool)
}

// roundCoord rounds a continuous coordinate to its nearest lattice
// point, rounding halves away from zero per axis.
func roundCoord(p grid.Vec3d) grid.Coord {
	return grid.Coord{
		X: int32(math.Round(p.X)),
		Y: int32(math.Round(p.Y)),
		Z: int32(math.Round(p.Z)),
	}
}

// floorCoord returns the lattice point at or below p per axis, plus the
// fractional offsets of p within that cell.
func floorCoord(p grid.Vec3d) (ijk grid.Coord, fx, fy, fz float64) {
	x, y, z := math.Floor(p.X), math.Floor(p.Y), math.Floor(p.Z)
	return grid.Coord{X: int32(x), Y: int32(y), Z: int32(z)}, p.X - x, p.Y - y, p.Z - z
}

// pointSampler returns the nearest voxel's stored value and activity
// verbatim.
type pointSampler[T grid.Value] struct{}

// PointSampler returns the nearest-neighbour sampler (radius 0).
func PointSampler[T grid.Value]() Sampler[T] {
	return pointSampler[T]{}
}

func (pointSampler[T]) Radius() int { return 0 }

func (pointSampler[T]) Sample(g grid.Grid[T], p grid.Vec3d) (T, bool) {
	return g.Probe(roundCoord(p))
}

// boxSampler blends the 8 lattice points enclosing the coordinate with
// trilinear weights.
type boxSampler[T grid.Value] struct {
	codec valueCodec[T]
}

// BoxSampler returns the trilinear sampler (radius 1).
func BoxSampler[T grid.Value]() Sampler[T] {
	return boxSampler[T]{codec: codecFor[T]()}
}

func (boxSampler[T]) Radius() int { return 1 }

func (s boxSampler[T]) Sample(g grid.Grid[T], p grid.Vec3d) (T, bool) {
	base, fx, fy, fz := floorCoord(p)
	wx := [2]float64{1 - fx, fx}
	wy := [2]float64{1 - fy, fy}
	wz := [2]float64{1 - fz, fz}

	var acc, lanes [3]float64
	active := false
	for dx := int32(0); dx < 2; dx++ {
		for dy := int32(0); dy < 2; dy++ {
			for dz := int32(0); dz < 2; dz++ {
				w := wx[dx] * wy[dy] * wz[dz]
				if w == 0 {
					// A zero-weight corner contributes neither value
					// nor activity; an exact lattice hit therefore
					// reduces to the single-voxel rule.
					continue
				}
				v, on := g.Probe(base.Add(grid.Coord{X: dx, Y: dy, Z: dz}))
				s.codec.encode(v, &lanes)
				for i := 0; i < s.codec.lanes; i++ {
					acc[i] += w * lanes[i]
				}
				active = active || on
			}
		}
	}
	return s.codec.decode(&acc), active
}

// quadraticSampler blends a 27-point stencil with per-axis 3-point
// quadratic weights for smoother results on floating-point grids.
type quadraticSampler[T grid.Value] struct {
	codec valueCodec[T]
}

// QuadraticSampler returns the triquadratic sampler (radius 2).
func QuadraticSampler[T grid.Value]() Sampler[T] {
	return quadraticSampler[T]{codec: codecFor[T]()}
}

func (quadraticSampler[T]) Radius() int { return 2 }

// quadWeights returns the weights of the lattice points at offsets
// -1, 0, +1 for a fractional position x in [0, 1): the quadratic
// through the three samples evaluated at x. The side weights change
// sign, so contributors are tested for w != 0 rather than w > 0.
func quadWeights(x float64) [3]float64 {
	return [3]float64{0.5 * x * (x - 1), 1 - x*x, 0.5 * x * (x + 1)}
}

func (s quadraticSampler[T]) Sample(g grid.Grid[T], p grid.Vec3d) (T, bool) {
	base, fx, fy, fz := floorCoord(p)
	wx := quadWeights(fx)
	wy := quadWeights(fy)
	wz := quadWeights(fz)

	var acc, lanes [3]float64
	active := false
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dz := int32(-1); dz <= 1; dz++ {
				w := wx[dx+1] * wy[dy+1] * wz[dz+1]
				if w == 0 {
					continue
				}
				v, on := g.Probe(base.Add(grid.Coord{X: dx, Y: dy, Z: dz}))
				s.codec.encode(v, &lanes)
				for i := 0; i < s.codec.lanes; i++ {
					acc[i] += w * lanes[i]
				}
				active = active || on
			}
		}
	}
	return s.codec.decode(&acc), active
}
