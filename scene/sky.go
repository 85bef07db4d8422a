package scene

import "github.com/go-gl/mathgl/mgl32"

// Sky holds the parameters of the analytic daylight sky drawn behind the
// scene. SunPosition is a direction; only its orientation matters.
type Sky struct {
	Scale           float32
	Turbidity       float32
	Rayleigh        float32
	MieCoefficient  float32
	MieDirectionalG float32
	SunPosition     mgl32.Vec3
	// Exposure scales the final colour before tone mapping.
	Exposure float32
}

// NewSky returns a clear midday sky.
func NewSky() *Sky {
	return &Sky{
		Scale:           1,
		Turbidity:       2,
		Rayleigh:        1,
		MieCoefficient:  0.005,
		MieDirectionalG: 0.8,
		SunPosition:     mgl32.Vec3{0, 1, 0},
		Exposure:        1,
	}
}

// SunDirection is the normalised sun position, or straight up when unset.
func (s *Sky) SunDirection() mgl32.Vec3 {
	if s.SunPosition.Dot(s.SunPosition) == 0 {
		return mgl32.Vec3{0, 1, 0}
	}
	return s.SunPosition.Normalize()
}
