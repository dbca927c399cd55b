package grid

import "math/bits"

// Tile geometry of the Sparse store. Tiles are 8x8x8 voxel cubes, the
// leaf granularity used across VDB-style stores.
const (
	TileLog2 = 3
	TileDim  = 1 << TileLog2               // 8
	tileMask = TileDim - 1                 // 7
	tileSize = TileDim * TileDim * TileDim // 512
)

// tile is one 8^3 block of a Sparse grid. A tile is either uniform (one
// value and one active state for all 512 voxels) or dense (per-voxel
// values plus an activity bitmask).
type tile[T Value] struct {
	uniform bool
	value   T    // uniform value
	active  bool // uniform active state
	vals    *[tileSize]T
	mask    *[tileSize / 64]uint64
}

// Sparse is a tiled in-memory sparse grid. It implements Grid and
// TileProber. Unset regions read as the background value, inactive, and
// occupy no memory; Fill over tile-aligned boxes stores constant tiles.
//
// Reads are safe for concurrent use; writes are not.
type Sparse[T Value] struct {
	background T
	xform      *Transform
	tiles      map[Coord]*tile[T]
}

// NewSparse returns an empty grid with the given background value and an
// identity index-to-world transform.
func NewSparse[T Value](background T) *Sparse[T] {
	return &Sparse[T]{
		background: background,
		xform:      NewLinearTransform(),
		tiles:      make(map[Coord]*tile[T]),
	}
}

// SetIndexTransform replaces the grid's index-to-world transform.
func (g *Sparse[T]) SetIndexTransform(t *Transform) { g.xform = t }

// IndexTransform returns the grid's index-to-world transform.
func (g *Sparse[T]) IndexTransform() *Transform { return g.xform }

// Background returns the grid's background value.
func (g *Sparse[T]) Background() T { return g.background }

// tileOrigin returns the origin of the tile containing ijk. Arithmetic
// shifts keep the mapping correct for negative coordinates.
func tileOrigin(ijk Coord) Coord {
	return Coord{ijk.X >> TileLog2 << TileLog2, ijk.Y >> TileLog2 << TileLog2, ijk.Z >> TileLog2 << TileLog2}
}

// tileIndex returns the linear index of ijk within its tile.
func tileIndex(ijk Coord) int {
	return int(ijk.X&tileMask)<<(2*TileLog2) | int(ijk.Y&tileMask)<<TileLog2 | int(ijk.Z&tileMask)
}

// tileCoord is the inverse of tileIndex, relative to the tile origin.
func tileCoord(origin Coord, idx int) Coord {
	return Coord{
		origin.X + int32(idx>>(2*TileLog2)),
		origin.Y + int32(idx>>TileLog2&tileMask),
		origin.Z + int32(idx&tileMask),
	}
}

// Value returns the value at ijk, or the background if unset.
func (g *Sparse[T]) Value(ijk Coord) T {
	v, _ := g.Probe(ijk)
	return v
}

// Active reports whether the voxel at ijk is active.
func (g *Sparse[T]) Active(ijk Coord) bool {
	_, on := g.Probe(ijk)
	return on
}

// Probe returns the value and active state at ijk in one lookup.
func (g *Sparse[T]) Probe(ijk Coord) (T, bool) {
	t, found := g.tiles[tileOrigin(ijk)]
	if !found {
		return g.background, false
	}
	if t.uniform {
		return t.value, t.active
	}
	idx := tileIndex(ijk)
	return t.vals[idx], t.mask[idx>>6]&(1<<(idx&63)) != 0
}

// densify converts a uniform tile into per-voxel storage.
func (t *tile[T]) densify() {
	if !t.uniform {
		return
	}
	t.vals = new([tileSize]T)
	t.mask = new([tileSize / 64]uint64)
	for i := range t.vals {
		t.vals[i] = t.value
	}
	if t.active {
		for i := range t.mask {
			t.mask[i] = ^uint64(0)
		}
	}
	t.uniform = false
}

// editable returns the dense tile containing ijk, creating it from the
// background if absent.
func (g *Sparse[T]) editable(ijk Coord) *tile[T] {
	origin := tileOrigin(ijk)
	t, found := g.tiles[origin]
	if !found {
		t = &tile[T]{uniform: true, value: g.background}
		g.tiles[origin] = t
	}
	t.densify()
	return t
}

// SetValue sets the value at ijk and marks the voxel active.
func (g *Sparse[T]) SetValue(ijk Coord, v T) {
	t := g.editable(ijk)
	idx := tileIndex(ijk)
	t.vals[idx] = v
	t.mask[idx>>6] |= 1 << (idx & 63)
}

// SetValueOff sets the value at ijk and marks the voxel inactive.
func (g *Sparse[T]) SetValueOff(ijk Coord, v T) {
	t := g.editable(ijk)
	idx := tileIndex(ijk)
	t.vals[idx] = v
	t.mask[idx>>6] &^= 1 << (idx & 63)
}

// SetActive sets the active state at ijk without changing its value.
func (g *Sparse[T]) SetActive(ijk Coord, on bool) {
	t := g.editable(ijk)
	idx := tileIndex(ijk)
	if on {
		t.mask[idx>>6] |= 1 << (idx & 63)
	} else {
		t.mask[idx>>6] &^= 1 << (idx & 63)
	}
}

// Fill sets every voxel in b to v with the given active state. Tiles
// fully covered by b become constant tiles; filling with the inactive
// background releases them.
func (g *Sparse[T]) Fill(b BBox, v T, active bool) {
	if b.Empty() {
		return
	}
	min, max := tileOrigin(b.Min), tileOrigin(b.Max)
	for tx := min.X; tx <= max.X; tx += TileDim {
		for ty := min.Y; ty <= max.Y; ty += TileDim {
			for tz := min.Z; tz <= max.Z; tz += TileDim {
				origin := Coord{tx, ty, tz}
				tbox := BBox{Min: origin, Max: origin.Add(Coord{tileMask, tileMask, tileMask})}
				if b.ContainsBox(tbox) {
					if v == g.background && !active {
						delete(g.tiles, origin)
					} else {
						g.tiles[origin] = &tile[T]{uniform: true, value: v, active: active}
					}
					continue
				}
				sub := b.Intersect(tbox)
				t := g.editable(sub.Min)
				for x := sub.Min.X; x <= sub.Max.X; x++ {
					for y := sub.Min.Y; y <= sub.Max.Y; y++ {
						for z := sub.Min.Z; z <= sub.Max.Z; z++ {
							idx := tileIndex(Coord{x, y, z})
							t.vals[idx] = v
							if active {
								t.mask[idx>>6] |= 1 << (idx & 63)
							} else {
								t.mask[idx>>6] &^= 1 << (idx & 63)
							}
						}
					}
				}
			}
		}
	}
}

// Clear resets the grid to all-background, all-inactive.
func (g *Sparse[T]) Clear() {
	g.tiles = make(map[Coord]*tile[T])
}

// ActiveVoxelCount returns the number of active voxels.
func (g *Sparse[T]) ActiveVoxelCount() int64 {
	var n int64
	for _, t := range g.tiles {
		if t.uniform {
			if t.active {
				n += tileSize
			}
			continue
		}
		for _, w := range t.mask {
			n += int64(bits.OnesCount64(w))
		}
	}
	return n
}

// ActiveBBox returns the tight bounding box of all active voxels.
func (g *Sparse[T]) ActiveBBox() (BBox, bool) {
	var box BBox
	found := false
	for origin, t := range g.tiles {
		if t.uniform {
			if !t.active {
				continue
			}
			tb := BBox{Min: origin, Max: origin.Add(Coord{tileMask, tileMask, tileMask})}
			if !found {
				box, found = tb, true
			} else {
				box = box.ExtendBox(tb)
			}
			continue
		}
		for idx := 0; idx < tileSize; idx++ {
			if t.mask[idx>>6]&(1<<(idx&63)) == 0 {
				continue
			}
			ijk := tileCoord(origin, idx)
			if !found {
				box, found = BBox{Min: ijk, Max: ijk}, true
			} else {
				box = box.ExtendCoord(ijk)
			}
		}
	}
	return box, found
}

// VisitActive calls fn for every active voxel in unspecified order.
func (g *Sparse[T]) VisitActive(fn func(ijk Coord, v T)) {
	for origin, t := range g.tiles {
		if t.uniform {
			if !t.active {
				continue
			}
			for idx := 0; idx < tileSize; idx++ {
				fn(tileCoord(origin, idx), t.value)
			}
			continue
		}
		for idx := 0; idx < tileSize; idx++ {
			if t.mask[idx>>6]&(1<<(idx&63)) != 0 {
				fn(tileCoord(origin, idx), t.vals[idx])
			}
		}
	}
}

// TileDim returns the Sparse tile edge length in voxels.
func (g *Sparse[T]) TileDim() int { return TileDim }

// ProbeUniform reports whether every voxel in b carries one value and
// one active state. Unset regions are uniform background, inactive.
func (g *Sparse[T]) ProbeUniform(b BBox) (T, bool, bool) {
	if b.Empty() {
		return g.background, false, true
	}
	value, active := g.background, false
	first := true
	min, max := tileOrigin(b.Min), tileOrigin(b.Max)
	for tx := min.X; tx <= max.X; tx += TileDim {
		for ty := min.Y; ty <= max.Y; ty += TileDim {
			for tz := min.Z; tz <= max.Z; tz += TileDim {
				origin := Coord{tx, ty, tz}
				tbox := BBox{Min: origin, Max: origin.Add(Coord{tileMask, tileMask, tileMask})}
				sub := b.Intersect(tbox)
				t, found := g.tiles[origin]
				switch {
				case !found:
					if !g.mergeUniform(&value, &active, &first, g.background, false) {
						return g.background, false, false
					}
				case t.uniform:
					if !g.mergeUniform(&value, &active, &first, t.value, t.active) {
						return g.background, false, false
					}
				default:
					for x := sub.Min.X; x <= sub.Max.X; x++ {
						for y := sub.Min.Y; y <= sub.Max.Y; y++ {
							for z := sub.Min.Z; z <= sub.Max.Z; z++ {
								idx := tileIndex(Coord{x, y, z})
								on := t.mask[idx>>6]&(1<<(idx&63)) != 0
								if !g.mergeUniform(&value, &active, &first, t.vals[idx], on) {
									return g.background, false, false
								}
							}
						}
					}
				}
			}
		}
	}
	return value, active, true
}

// mergeUniform folds one observation into the running uniform state,
// reporting false on the first disagreement.
func (g *Sparse[T]) mergeUniform(value *T, active *bool, first *bool, v T, on bool) bool {
	if *first {
		*value, *active, *first = v, on, false
		return true
	}
	return *value == v && *active == on
}
