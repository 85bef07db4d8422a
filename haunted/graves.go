package haunted

import (
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Rand is the uniform [0, 1) source used for placement. *math/rand.Rand
// satisfies it.
type Rand interface {
	Float64() float64
}

// Grave ring and jitter.
const (
	DefaultGraveCount = 30

	graveInnerRadius = 3.0
	graveRingWidth   = 4.0
	graveMaxSink     = 0.4
	graveMaxTilt     = 0.4
)

// GravePlacement is the transform of one grave.
type GravePlacement struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3 // Euler XYZ, radians
}

// PlaceGraves scatters n graves in a ring around the house: radius in [3, 7),
// height in [0, 0.4) and a tilt in [-0.2, 0.2) on every axis.
func PlaceGraves(rng Rand, n int) []GravePlacement {
	out := make([]GravePlacement, 0, n)
	for i := 0; i < n; i++ {
		angle := rng.Float64() * stdmath.Pi * 2
		r := graveInnerRadius + rng.Float64()*graveRingWidth

		p := GravePlacement{
			Position: mgl32.Vec3{
				float32(stdmath.Sin(angle) * r),
				below(float32(rng.Float64()*graveMaxSink), graveMaxSink),
				float32(stdmath.Cos(angle) * r),
			},
		}
		for axis := 0; axis < 3; axis++ {
			p.Rotation[axis] = below(float32((rng.Float64()-0.5)*graveMaxTilt), graveMaxTilt/2)
		}
		out = append(out, p)
	}
	return out
}

// below keeps v under bound. Rounding a float64 just under bound to float32
// can land on bound itself.
func below(v, bound float32) float32 {
	if v >= bound {
		return stdmath.Nextafter32(bound, 0)
	}
	return v
}
