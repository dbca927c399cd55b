package resample

import (
	"github.com/banshee-data/voxremap/affine"
	"github.com/banshee-data/voxremap/grid"
)

// ResampleToMatch resamples in into out's own index space, replacing
// out's contents. Both grids keep their index-to-world transforms; only
// out's values and topology change.
//
// The relative map sends input index coordinates through input world
// space into output index space. When it decomposes into scale,
// rotation and translation the resampling runs through a component
// Transformer with the constant-tile fast path enabled; otherwise the
// matrix is applied directly as a dense per-voxel map, so correctness
// never depends on decomposability (e.g. a shear between the two
// transforms).
func ResampleToMatch[T grid.Value](sampler Sampler[T], in, out grid.Grid[T]) {
	out.Clear()

	// input index -> world -> output index.
	rel := out.IndexTransform().InverseMatrix().Mul(in.IndexTransform().Matrix())

	var t *Transformer
	if c, ok := affine.Decompose(rel); ok {
		t = NewTransformer(grid.Vec3d{}, c.Scale, c.Rotate, c.Translate)
	} else {
		t = NewMatrixTransformer(rel)
		t.SetTransformTiles(false)
	}
	TransformGrid(t, sampler, in, out)
}
