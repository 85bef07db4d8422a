package controls

import (
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"

	"haunted-house/scene"
)

// Mouse buttons, numbered like GLFW's.
const (
	ButtonLeft   = 0
	ButtonRight  = 1
	ButtonMiddle = 2
)

const epsilon = 1e-6

type dragState int

const (
	dragNone dragState = iota
	dragRotate
	dragDolly
	dragPan
)

type spherical struct {
	radius, theta, phi float32
}

// Orbit keeps a camera looking at Target while the user rotates around it,
// dollies towards it and pans it. Input only accumulates deltas; Update moves
// the camera. With damping on, the deltas bleed off over several frames.
type Orbit struct {
	Camera *scene.Camera
	Target mgl32.Vec3

	EnableDamping bool
	DampingFactor float32

	RotateSpeed float32
	ZoomSpeed   float32
	PanSpeed    float32

	MinDistance, MaxDistance     float32
	MinPolarAngle, MaxPolarAngle float32

	viewWidth, viewHeight float32

	delta     spherical // theta and phi only
	scale     float32
	panOffset mgl32.Vec3

	state        dragState
	lastX, lastY float64

	lastPosition mgl32.Vec3
}

// NewOrbit attaches controls to cam, orbiting its current target.
func NewOrbit(cam *scene.Camera) *Orbit {
	o := &Orbit{
		Camera:        cam,
		Target:        cam.Target,
		DampingFactor: 0.05,
		RotateSpeed:   1,
		ZoomSpeed:     1,
		PanSpeed:      1,
		MinDistance:   0,
		MaxDistance:   float32(stdmath.Inf(1)),
		MinPolarAngle: 0,
		MaxPolarAngle: stdmath.Pi,
		viewWidth:     1,
		viewHeight:    1,
		scale:         1,
		lastPosition:  cam.Position,
	}
	return o
}

// SetViewport records the client area size used to scale pointer drags.
func (o *Orbit) SetViewport(width, height float32) {
	if width > 0 && height > 0 {
		o.viewWidth, o.viewHeight = width, height
	}
}

// RotateLeft queues a rotation about the vertical axis, radians.
func (o *Orbit) RotateLeft(angle float32) {
	o.delta.theta -= angle
}

// RotateUp queues a change of polar angle, radians.
func (o *Orbit) RotateUp(angle float32) {
	o.delta.phi -= angle
}

// Dolly scales the camera distance by factor on the next update. Factors
// below 1 move the camera closer.
func (o *Orbit) Dolly(factor float32) {
	if factor > 0 {
		o.scale *= factor
	}
}

// Pan queues a target move of dx, dy pixels in screen space.
func (o *Orbit) Pan(dx, dy float32) {
	offset := o.Camera.Position.Sub(o.Target)
	targetDistance := offset.Len() * float32(stdmath.Tan(float64(mgl32.DegToRad(o.Camera.FOV)/2)))

	forward := o.Target.Sub(o.Camera.Position)
	if forward.Dot(forward) < epsilon {
		return
	}
	forward = forward.Normalize()
	right := forward.Cross(o.Camera.Up)
	if right.Dot(right) < epsilon {
		return
	}
	right = right.Normalize()
	up := right.Cross(forward)

	left := right.Mul(-2 * dx * targetDistance / o.viewHeight)
	upMove := up.Mul(2 * dy * targetDistance / o.viewHeight)
	o.panOffset = o.panOffset.Add(left).Add(upMove)
}

func (o *Orbit) zoomScale() float32 {
	return float32(stdmath.Pow(0.95, float64(o.ZoomSpeed)))
}

// PointerDown starts a drag: left rotates, middle dollies, right pans.
func (o *Orbit) PointerDown(button int, x, y float64) {
	switch button {
	case ButtonLeft:
		o.state = dragRotate
	case ButtonMiddle:
		o.state = dragDolly
	case ButtonRight:
		o.state = dragPan
	default:
		return
	}
	o.lastX, o.lastY = x, y
}

// PointerMove continues the active drag.
func (o *Orbit) PointerMove(x, y float64) {
	dx := float32(x - o.lastX)
	dy := float32(y - o.lastY)
	o.lastX, o.lastY = x, y

	switch o.state {
	case dragRotate:
		o.RotateLeft(2 * stdmath.Pi * dx / o.viewHeight * o.RotateSpeed)
		o.RotateUp(2 * stdmath.Pi * dy / o.viewHeight * o.RotateSpeed)
	case dragDolly:
		if dy > 0 {
			o.Dolly(1 / o.zoomScale())
		} else if dy < 0 {
			o.Dolly(o.zoomScale())
		}
	case dragPan:
		o.Pan(dx*o.PanSpeed, dy*o.PanSpeed)
	}
}

// PointerUp ends any drag.
func (o *Orbit) PointerUp(button int) {
	o.state = dragNone
}

// Dragging reports whether a drag is in progress.
func (o *Orbit) Dragging() bool {
	return o.state != dragNone
}

// Wheel dollies: positive yoff (wheel away from the user) moves closer.
func (o *Orbit) Wheel(yoff float64) {
	switch {
	case yoff > 0:
		o.Dolly(o.zoomScale())
	case yoff < 0:
		o.Dolly(1 / o.zoomScale())
	}
}

// Update applies the queued deltas to the camera and reports whether it moved.
func (o *Orbit) Update() bool {
	cam := o.Camera
	offset := cam.Position.Sub(o.Target)
	s := toSpherical(offset)

	if o.EnableDamping {
		s.theta += o.delta.theta * o.DampingFactor
		s.phi += o.delta.phi * o.DampingFactor
	} else {
		s.theta += o.delta.theta
		s.phi += o.delta.phi
	}

	minPhi := maxf(o.MinPolarAngle, epsilon)
	maxPhi := minf(o.MaxPolarAngle, stdmath.Pi-epsilon)
	s.phi = clampf(s.phi, minPhi, maxPhi)

	s.radius = clampf(s.radius*o.scale, o.MinDistance, o.MaxDistance)

	if o.EnableDamping {
		o.Target = o.Target.Add(o.panOffset.Mul(o.DampingFactor))
	} else {
		o.Target = o.Target.Add(o.panOffset)
	}

	cam.SetPosition(o.Target.Add(s.vec()))
	cam.LookAt(o.Target)

	if o.EnableDamping {
		keep := 1 - o.DampingFactor
		o.delta.theta *= keep
		o.delta.phi *= keep
		o.panOffset = o.panOffset.Mul(keep)
	} else {
		o.delta = spherical{}
		o.panOffset = mgl32.Vec3{}
	}
	o.scale = 1

	moved := cam.Position.Sub(o.lastPosition)
	if moved.Dot(moved) > epsilon {
		o.lastPosition = cam.Position
		return true
	}
	return false
}

func toSpherical(v mgl32.Vec3) spherical {
	r := v.Len()
	if r == 0 {
		return spherical{}
	}
	return spherical{
		radius: r,
		theta:  float32(stdmath.Atan2(float64(v.X()), float64(v.Z()))),
		phi:    float32(stdmath.Acos(float64(clampf(v.Y()/r, -1, 1)))),
	}
}

func (s spherical) vec() mgl32.Vec3 {
	sinPhi := float32(stdmath.Sin(float64(s.phi)))
	return mgl32.Vec3{
		s.radius * sinPhi * float32(stdmath.Sin(float64(s.theta))),
		s.radius * float32(stdmath.Cos(float64(s.phi))),
		s.radius * sinPhi * float32(stdmath.Cos(float64(s.theta))),
	}
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
