package resample

import (
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/banshee-data/voxremap/affine"
	"github.com/banshee-data/voxremap/grid"
)

// candidateSlack is the extra padding, in output voxels, applied to the
// candidate output region beyond the sampler radius. It covers the half
// voxel a rounding sampler can reach past the projected input bounds.
const candidateSlack = 1

// defaultBlockDim is the traversal granularity used when the input grid
// does not expose its own tiling.
const defaultBlockDim = 8

// Transformer resamples a sparse grid under an affine index-to-index
// map built from a pivot point, per-axis scales, Euler rotation angles
// (radians, X applied first) and a translation.
//
// The tile fast path is enabled by default: output regions whose
// inverse image lies inside one constant source tile are bulk-filled
// with the tile's value and activity instead of being resampled voxel
// by voxel.
type Transformer struct {
	fwd   affine.Mat4 // input index -> output index
	inv   affine.Mat4 // output index -> input index
	invOK bool

	transformTiles bool
	workers        int
}

// NewTransformer returns a Transformer for the map
//
//	Translate(translate) * Translate(pivot) * Rotate(rotate) *
//	Scale(scale) * Translate(-pivot)
//
// applied to input index coordinates. A degenerate map (zero scale
// component) is accepted; transforming through it yields a collapsed,
// empty output rather than an error.
func NewTransformer(pivot, scale, rotate, translate grid.Vec3d) *Transformer {
	return newTransformer(affine.Compose(pivot, scale, rotate, translate))
}

// NewMatrixTransformer returns a Transformer that applies m directly as
// the input-to-output index map. It is the dense path used when m does
// not decompose into scale, rotation and translation (e.g. shear).
func NewMatrixTransformer(m affine.Mat4) *Transformer {
	return newTransformer(m)
}

func newTransformer(m affine.Mat4) *Transformer {
	inv, ok := m.Inverse()
	return &Transformer{
		fwd:            m,
		inv:            inv,
		invOK:          ok,
		transformTiles: true,
		workers:        runtime.GOMAXPROCS(0),
	}
}

// Matrix returns the forward (input index to output index) matrix.
func (t *Transformer) Matrix() affine.Mat4 { return t.fwd }

// SetTransformTiles enables or disables the constant-tile fast path.
// When disabled, every voxel of a would-be-constant region is resampled
// individually and inactive source values never reach the output.
func (t *Transformer) SetTransformTiles(on bool) { t.transformTiles = on }

// TransformTiles reports whether the constant-tile fast path is enabled.
func (t *Transformer) TransformTiles() bool { return t.transformTiles }

// TransformGrid resamples in through t into out using the given
// sampler. Voxels outside the candidate output region (the projected
// input active bounding box padded by the sampler radius) are left at
// out's background. An input with no active region leaves out
// untouched.
//
// With a radius-0 sampler the gather over output voxels is completed by
// a scatter of the input active set, so isolated input voxels stay
// represented even when no output voxel rounds back to them.
//
// Output sub-regions are disjoint and the input is only read, so
// per-voxel regions are sampled in parallel; each worker buffers its
// writes and the buffers are applied on the calling goroutine, so grid
// implementations only need to tolerate concurrent readers.
func TransformGrid[T grid.Value](t *Transformer, sampler Sampler[T], in, out grid.Grid[T]) {
	if !t.invOK {
		// Degenerate map: geometrically collapsed, nothing to write.
		return
	}
	inBBox, ok := in.ActiveBBox()
	if !ok {
		return
	}

	radius := sampler.Radius()
	candidate := projectBBox(t.fwd, inBBox, int32(radius+candidateSlack))

	w := &walker[T]{
		xform:   t,
		sampler: sampler,
		in:      in,
		out:     out,
		radius:  int32(radius),
	}
	w.prober, _ = in.(grid.TileProber[T])
	w.blockDim = int32(defaultBlockDim)
	if w.prober != nil {
		w.blockDim = int32(w.prober.TileDim())
	}

	w.walk(candidate)
	w.sampleBlocks()

	if radius == 0 {
		scatterActive(t, in, out)
	}
}

// scatterWrite is one active input voxel's forward image, kept with its
// source coordinate so colliding writes resolve in a fixed order.
type scatterWrite[T grid.Value] struct {
	src, dst grid.Coord
	value    T
}

// scatterActive maps every active input voxel forward onto its nearest
// output voxel. A radius-0 gather alone can drop isolated input voxels:
// under a rotation, the forward image of a voxel's unit cell need not
// contain any output lattice point, so no output voxel rounds back to
// it. Targets the gather already activated are left alone; the rest are
// written with the source voxel's value, in source-coordinate order so
// collisions resolve deterministically.
func scatterActive[T grid.Value](t *Transformer, in, out grid.Grid[T]) {
	var writes []scatterWrite[T]
	in.VisitActive(func(ijk grid.Coord, v T) {
		dst := roundCoord(t.fwd.Apply(ijk.Vec3()))
		if !out.Active(dst) {
			writes = append(writes, scatterWrite[T]{src: ijk, dst: dst, value: v})
		}
	})
	sort.Slice(writes, func(i, j int) bool {
		a, b := writes[i].src, writes[j].src
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	for _, wr := range writes {
		if !out.Active(wr.dst) {
			out.SetValue(wr.dst, wr.value)
		}
	}
}

// projectBBox maps the corners of b (as voxel centres) through m, takes
// the enclosing axis-aligned box, rounds outward and expands by pad.
func projectBBox(m affine.Mat4, b grid.BBox, pad int32) grid.BBox {
	lo, hi := mapCorners(m, b)
	return floorCeilBBox(lo, hi).Expand(pad)
}

// mapCorners transforms the 8 corners of b through m and returns the
// componentwise bounds of the images.
func mapCorners(m affine.Mat4, b grid.BBox) (lo, hi grid.Vec3d) {
	lo = m.Apply(b.Min.Vec3())
	hi = lo
	for i := 1; i < 8; i++ {
		p := m.Apply(b.Corner(i).Vec3())
		lo.X, hi.X = math.Min(lo.X, p.X), math.Max(hi.X, p.X)
		lo.Y, hi.Y = math.Min(lo.Y, p.Y), math.Max(hi.Y, p.Y)
		lo.Z, hi.Z = math.Min(lo.Z, p.Z), math.Max(hi.Z, p.Z)
	}
	return lo, hi
}

// voxelWrite is one buffered output voxel produced by a worker.
type voxelWrite[T grid.Value] struct {
	ijk    grid.Coord
	value  T
	active bool
}

// walker classifies output regions by divide and conquer and queues the
// regions that need per-voxel sampling.
type walker[T grid.Value] struct {
	xform    *Transformer
	sampler  Sampler[T]
	in       grid.Grid[T]
	out      grid.Grid[T]
	prober   grid.TileProber[T]
	radius   int32
	blockDim int32

	perVoxel []grid.BBox
}

// walk classifies the output region b: regions whose inverse image is
// uniformly inactive background are skipped, regions inside one
// constant source tile are bulk-filled (fast path), and everything
// else is split down to the input tiling granularity and queued for
// per-voxel sampling.
func (w *walker[T]) walk(b grid.BBox) {
	if b.Empty() {
		return
	}
	if w.prober != nil {
		lo, hi := mapCorners(w.xform.inv, b)
		padded := floorCeilBBox(lo, hi).Expand(w.radius)
		v, active, uniform := w.prober.ProbeUniform(padded)
		if uniform {
			if !active && v == w.in.Background() {
				return
			}
			if w.xform.transformTiles {
				w.out.Fill(b, v, active)
				return
			}
		} else if w.xform.transformTiles && w.radius > 0 {
			// The padded image straddles a tile edge but the image
			// itself may not: tile copies are verbatim, so the sampler
			// footprint does not matter here.
			v, active, uniform = w.prober.ProbeUniform(floorCeilBBox(lo, hi))
			if uniform && (active || v != w.in.Background()) {
				w.out.Fill(b, v, active)
				return
			}
		}
	}

	d := b.Dim()
	if d.X <= w.blockDim && d.Y <= w.blockDim && d.Z <= w.blockDim {
		w.perVoxel = append(w.perVoxel, b)
		return
	}
	left, right := splitBBox(b, d)
	w.walk(left)
	w.walk(right)
}

// floorCeilBBox rounds the continuous bounds lo..hi outward to voxels.
func floorCeilBBox(lo, hi grid.Vec3d) grid.BBox {
	return grid.BBox{
		Min: grid.Coord{X: int32(math.Floor(lo.X)), Y: int32(math.Floor(lo.Y)), Z: int32(math.Floor(lo.Z))},
		Max: grid.Coord{X: int32(math.Ceil(hi.X)), Y: int32(math.Ceil(hi.Y)), Z: int32(math.Ceil(hi.Z))},
	}
}

// splitBBox halves b along its longest axis.
func splitBBox(b grid.BBox, d grid.Coord) (left, right grid.BBox) {
	left, right = b, b
	switch {
	case d.X >= d.Y && d.X >= d.Z:
		mid := b.Min.X + d.X/2
		left.Max.X, right.Min.X = mid-1, mid
	case d.Y >= d.Z:
		mid := b.Min.Y + d.Y/2
		left.Max.Y, right.Min.Y = mid-1, mid
	default:
		mid := b.Min.Z + d.Z/2
		left.Max.Z, right.Min.Z = mid-1, mid
	}
	return left, right
}

// sampleBlocks resamples the queued per-voxel regions across a worker
// pool, then applies the buffered writes on the calling goroutine.
func (w *walker[T]) sampleBlocks() {
	if len(w.perVoxel) == 0 {
		return
	}
	results := make([][]voxelWrite[T], len(w.perVoxel))
	blocks := make(chan int)
	var wg sync.WaitGroup
	for n := 0; n < w.xform.workers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range blocks {
				results[i] = w.sampleBlock(w.perVoxel[i])
			}
		}()
	}
	for i := range w.perVoxel {
		blocks <- i
	}
	close(blocks)
	wg.Wait()

	for _, writes := range results {
		for _, wr := range writes {
			if wr.active {
				w.out.SetValue(wr.ijk, wr.value)
			} else {
				w.out.SetValueOff(wr.ijk, wr.value)
			}
		}
	}
}

// tileState caches the uniformity of one input tile during per-voxel
// sampling of a block.
type tileState[T grid.Value] struct {
	value   T
	carries bool // uniform, inactive and not background
}

// sampleBlock maps every voxel centre of the output region b through
// the inverse transform, samples the input and buffers the results.
// Active samples are written as active voxels. Inactive samples write
// nothing unless the tile fast path is enabled, the input exposes its
// tiling, and the inverse-mapped point lands in a constant inactive
// non-background source tile, whose value is then carried verbatim with
// activity off.
func (w *walker[T]) sampleBlock(b grid.BBox) []voxelWrite[T] {
	background := w.in.Background()
	var writes []voxelWrite[T]
	var tiles map[grid.Coord]tileState[T]

	for x := b.Min.X; x <= b.Max.X; x++ {
		for y := b.Min.Y; y <= b.Max.Y; y++ {
			for z := b.Min.Z; z <= b.Max.Z; z++ {
				ijk := grid.Coord{X: x, Y: y, Z: z}
				p := w.xform.inv.Apply(ijk.Vec3())
				v, active := w.sampler.Sample(w.in, p)
				if active {
					writes = append(writes, voxelWrite[T]{ijk: ijk, value: v, active: true})
					continue
				}
				if !w.xform.transformTiles || w.prober == nil {
					continue
				}
				src := roundCoord(p)
				sv, on := w.in.Probe(src)
				if on || sv == background {
					continue
				}
				if tiles == nil {
					tiles = make(map[grid.Coord]tileState[T])
				}
				origin := tileOrigin(src, w.blockDim)
				st, seen := tiles[origin]
				if !seen {
					tb := grid.BBox{Min: origin, Max: origin.Add(grid.Coord{X: w.blockDim - 1, Y: w.blockDim - 1, Z: w.blockDim - 1})}
					tv, ta, uniform := w.prober.ProbeUniform(tb)
					st = tileState[T]{value: tv, carries: uniform && !ta && tv != background}
					tiles[origin] = st
				}
				if !st.carries {
					continue
				}
				writes = append(writes, voxelWrite[T]{ijk: ijk, value: st.value})
			}
		}
	}
	return writes
}

// tileOrigin returns the origin of the dim-sized tile containing ijk.
func tileOrigin(ijk grid.Coord, dim int32) grid.Coord {
	return grid.Coord{
		X: floorDiv(ijk.X, dim) * dim,
		Y: floorDiv(ijk.Y, dim) * dim,
		Z: floorDiv(ijk.Z, dim) * dim,
	}
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
