package controls

import (
	stdmath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"haunted-house/scene"
)

func newTestOrbit(damping bool) *Orbit {
	cam := scene.NewCamera(75, 16.0/9.0, 0.1, 100)
	cam.SetPosition(mgl32.Vec3{4, 2, 5})
	cam.LookAt(mgl32.Vec3{})
	o := NewOrbit(cam)
	o.EnableDamping = damping
	o.SetViewport(1280, 720)
	return o
}

func TestUpdateAtRestDoesNotMove(t *testing.T) {
	o := newTestOrbit(true)
	start := o.Camera.Position
	for i := 0; i < 100; i++ {
		assert.False(t, o.Update())
	}
	assert.True(t, o.Camera.Position.ApproxEqualThreshold(start, 1e-4), "drifted to %v", o.Camera.Position)
}

func TestDampedRotationConverges(t *testing.T) {
	o := newTestOrbit(true)
	start := toSpherical(o.Camera.Position)
	o.RotateLeft(0.5)

	first := o.Camera.Position
	assert.True(t, o.Update())
	step1 := o.Camera.Position.Sub(first).Len()

	prev := o.Camera.Position
	o.Update()
	step2 := o.Camera.Position.Sub(prev).Len()
	assert.Less(t, step2, step1, "motion should decelerate")

	for i := 0; i < 1000; i++ {
		o.Update()
	}
	end := toSpherical(o.Camera.Position)
	assert.InDelta(t, start.theta-0.5, end.theta, 1e-3)
	assert.InDelta(t, start.radius, end.radius, 1e-4)
	assert.False(t, o.Update())
}

func TestUndampedRotationIsImmediate(t *testing.T) {
	o := newTestOrbit(false)
	start := toSpherical(o.Camera.Position)
	o.RotateLeft(0.25)
	o.Update()
	assert.InDelta(t, start.theta-0.25, toSpherical(o.Camera.Position).theta, 1e-5)
}

func TestPolarAngleIsClamped(t *testing.T) {
	o := newTestOrbit(false)
	o.RotateUp(10)
	o.Update()
	s := toSpherical(o.Camera.Position)
	assert.GreaterOrEqual(t, s.phi, float32(0))
	assert.Greater(t, o.Camera.Position.Y(), float32(0))

	o.RotateUp(-20)
	o.Update()
	assert.Less(t, o.Camera.Position.Y(), float32(0))
	assert.LessOrEqual(t, toSpherical(o.Camera.Position).phi, float32(stdmath.Pi))
}

func TestWheelDolliesTowardsTarget(t *testing.T) {
	o := newTestOrbit(false)
	r0 := o.Camera.Position.Len()
	o.Wheel(1)
	o.Update()
	assert.InDelta(t, r0*0.95, o.Camera.Position.Len(), 1e-4)

	o.Wheel(-1)
	o.Update()
	assert.InDelta(t, r0, o.Camera.Position.Len(), 1e-4)
}

func TestDistanceIsClamped(t *testing.T) {
	o := newTestOrbit(false)
	o.MaxDistance = 8
	o.Dolly(10)
	o.Update()
	assert.InDelta(t, 8, o.Camera.Position.Len(), 1e-4)
}

func TestDragRotatesAndPans(t *testing.T) {
	o := newTestOrbit(false)
	start := toSpherical(o.Camera.Position)

	o.PointerDown(ButtonLeft, 100, 100)
	assert.True(t, o.Dragging())
	o.PointerMove(172, 100)
	o.PointerUp(ButtonLeft)
	assert.False(t, o.Dragging())
	o.Update()
	assert.InDelta(t, start.theta-2*stdmath.Pi*72/720, toSpherical(o.Camera.Position).theta, 1e-4)

	o.PointerDown(ButtonRight, 0, 0)
	o.PointerMove(50, 0)
	o.PointerUp(ButtonRight)
	o.Update()
	assert.NotEqual(t, mgl32.Vec3{}, o.Target)
	assert.InDelta(t, 0, o.Target.Y(), 1e-4)
}
