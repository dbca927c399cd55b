package resample

import (
	"math"

	"github.com/banshee-data/voxremap/grid"
)

// valueCodec moves grid values in and out of float64 lanes so the box
// and quadratic samplers can blend every supported value type with one
// accumulation loop. The codec for a value type is selected once when a
// sampler is constructed, never per voxel.
type valueCodec[T grid.Value] struct {
	lanes  int
	encode func(T, *[3]float64)
	decode func(*[3]float64) T
}

// codecFor returns the lane codec for T. Integer types round to nearest
// on decode; bool decodes as a majority vote of the blended weight.
func codecFor[T grid.Value]() valueCodec[T] {
	var zero T
	switch any(zero).(type) {
	case bool:
		return valueCodec[T]{
			lanes: 1,
			encode: func(v T, l *[3]float64) {
				if any(v).(bool) {
					l[0] = 1
				} else {
					l[0] = 0
				}
			},
			decode: func(l *[3]float64) T { return any(l[0] >= 0.5).(T) },
		}
	case int32:
		return valueCodec[T]{
			lanes:  1,
			encode: func(v T, l *[3]float64) { l[0] = float64(any(v).(int32)) },
			decode: func(l *[3]float64) T { return any(int32(math.Round(l[0]))).(T) },
		}
	case int64:
		return valueCodec[T]{
			lanes:  1,
			encode: func(v T, l *[3]float64) { l[0] = float64(any(v).(int64)) },
			decode: func(l *[3]float64) T { return any(int64(math.Round(l[0]))).(T) },
		}
	case float32:
		return valueCodec[T]{
			lanes:  1,
			encode: func(v T, l *[3]float64) { l[0] = float64(any(v).(float32)) },
			decode: func(l *[3]float64) T { return any(float32(l[0])).(T) },
		}
	case float64:
		return valueCodec[T]{
			lanes:  1,
			encode: func(v T, l *[3]float64) { l[0] = any(v).(float64) },
			decode: func(l *[3]float64) T { return any(l[0]).(T) },
		}
	case grid.Vec3f:
		return valueCodec[T]{
			lanes: 3,
			encode: func(v T, l *[3]float64) {
				u := any(v).(grid.Vec3f)
				l[0], l[1], l[2] = float64(u.X), float64(u.Y), float64(u.Z)
			},
			decode: func(l *[3]float64) T {
				return any(grid.Vec3f{X: float32(l[0]), Y: float32(l[1]), Z: float32(l[2])}).(T)
			},
		}
	case grid.Vec3d:
		return valueCodec[T]{
			lanes: 3,
			encode: func(v T, l *[3]float64) {
				u := any(v).(grid.Vec3d)
				l[0], l[1], l[2] = u.X, u.Y, u.Z
			},
			decode: func(l *[3]float64) T {
				return any(grid.Vec3d{X: l[0], Y: l[1], Z: l[2]}).(T)
			},
		}
	}
	panic("resample: unsupported value type")
}
