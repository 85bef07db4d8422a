package haunted

import (
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Ghost1Position is the purple ghost: radius 4, counter-clockwise seen from
// above, bobbing through the floor now and then.
func Ghost1Position(elapsed float64) mgl32.Vec3 {
	a := elapsed * 0.5
	return mgl32.Vec3{
		float32(stdmath.Cos(a) * 4),
		float32(stdmath.Sin(a) * stdmath.Sin(a*2.34) * stdmath.Sin(a*3.45)),
		float32(stdmath.Sin(a) * 4),
	}
}

// Ghost2Position is the pink ghost: radius 5, turning the other way.
func Ghost2Position(elapsed float64) mgl32.Vec3 {
	a := elapsed * -0.38
	return mgl32.Vec3{
		float32(stdmath.Cos(a) * 5),
		float32(stdmath.Sin(a) * stdmath.Sin(a*1.8) * stdmath.Sin(a*5.6)),
		float32(stdmath.Sin(a) * 5),
	}
}

// animateGhosts moves the ghost lights to their positions at elapsed seconds.
// The third ghost never moves.
func (w *World) animateGhosts(elapsed float64) {
	w.Ghosts[0].SetPosition(Ghost1Position(elapsed))
	w.Ghosts[1].SetPosition(Ghost2Position(elapsed))
}
