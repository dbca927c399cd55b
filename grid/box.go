package grid

// Coord is a 3D integer voxel coordinate.
type Coord struct {
	X, Y, Z int32
}

// Add returns c offset by d.
func (c Coord) Add(d Coord) Coord {
	return Coord{c.X + d.X, c.Y + d.Y, c.Z + d.Z}
}

// Vec3 returns c as a continuous coordinate at the voxel centre.
func (c Coord) Vec3() Vec3d {
	return Vec3d{X: float64(c.X), Y: float64(c.Y), Z: float64(c.Z)}
}

// BBox is an axis-aligned box of voxel coordinates with inclusive
// bounds. A box with any Min component greater than the corresponding
// Max component is empty.
type BBox struct {
	Min, Max Coord
}

// NewBBox returns the box spanning min to max inclusive.
func NewBBox(min, max Coord) BBox {
	return BBox{Min: min, Max: max}
}

// Empty reports whether b contains no voxels.
func (b BBox) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Contains reports whether ijk lies inside b.
func (b BBox) Contains(ijk Coord) bool {
	return ijk.X >= b.Min.X && ijk.X <= b.Max.X &&
		ijk.Y >= b.Min.Y && ijk.Y <= b.Max.Y &&
		ijk.Z >= b.Min.Z && ijk.Z <= b.Max.Z
}

// ContainsBox reports whether every voxel of o lies inside b.
func (b BBox) ContainsBox(o BBox) bool {
	return o.Min.X >= b.Min.X && o.Max.X <= b.Max.X &&
		o.Min.Y >= b.Min.Y && o.Max.Y <= b.Max.Y &&
		o.Min.Z >= b.Min.Z && o.Max.Z <= b.Max.Z
}

// Intersect returns the overlap of b and o, which may be empty.
func (b BBox) Intersect(o BBox) BBox {
	return BBox{
		Min: Coord{maxi32(b.Min.X, o.Min.X), maxi32(b.Min.Y, o.Min.Y), maxi32(b.Min.Z, o.Min.Z)},
		Max: Coord{mini32(b.Max.X, o.Max.X), mini32(b.Max.Y, o.Max.Y), mini32(b.Max.Z, o.Max.Z)},
	}
}

// ExtendCoord grows b to include ijk.
func (b BBox) ExtendCoord(ijk Coord) BBox {
	if b.Empty() {
		return BBox{Min: ijk, Max: ijk}
	}
	return BBox{
		Min: Coord{mini32(b.Min.X, ijk.X), mini32(b.Min.Y, ijk.Y), mini32(b.Min.Z, ijk.Z)},
		Max: Coord{maxi32(b.Max.X, ijk.X), maxi32(b.Max.Y, ijk.Y), maxi32(b.Max.Z, ijk.Z)},
	}
}

// ExtendBox grows b to include all of o.
func (b BBox) ExtendBox(o BBox) BBox {
	if o.Empty() {
		return b
	}
	return b.ExtendCoord(o.Min).ExtendCoord(o.Max)
}

// Expand grows b outward by r voxels on every face.
func (b BBox) Expand(r int32) BBox {
	return BBox{
		Min: Coord{b.Min.X - r, b.Min.Y - r, b.Min.Z - r},
		Max: Coord{b.Max.X + r, b.Max.Y + r, b.Max.Z + r},
	}
}

// Dim returns the box extents in voxels per axis.
func (b BBox) Dim() Coord {
	if b.Empty() {
		return Coord{}
	}
	return Coord{b.Max.X - b.Min.X + 1, b.Max.Y - b.Min.Y + 1, b.Max.Z - b.Min.Z + 1}
}

// Volume returns the number of voxels in b.
func (b BBox) Volume() int64 {
	if b.Empty() {
		return 0
	}
	d := b.Dim()
	return int64(d.X) * int64(d.Y) * int64(d.Z)
}

// Corner returns the i-th (0..7) corner of b, with bit 0 selecting Max.X,
// bit 1 Max.Y and bit 2 Max.Z.
func (b BBox) Corner(i int) Coord {
	c := b.Min
	if i&1 != 0 {
		c.X = b.Max.X
	}
	if i&2 != 0 {
		c.Y = b.Max.Y
	}
	if i&4 != 0 {
		c.Z = b.Max.Z
	}
	return c
}

func mini32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func maxi32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
