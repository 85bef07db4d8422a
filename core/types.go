package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
)

// ColorHex converts a 0xRRGGBB literal into an opaque Color.
func ColorHex(hex uint32) Color {
	return Color{
		R: float32((hex>>16)&0xff) / 255,
		G: float32((hex>>8)&0xff) / 255,
		B: float32(hex&0xff) / 255,
		A: 1,
	}
}

// Scale multiplies the RGB channels by s and leaves alpha untouched.
func (c Color) Scale(s float32) Color {
	return Color{R: c.R * s, G: c.G * s, B: c.B * s, A: c.A}
}

func (c Color) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{c.R, c.G, c.B}
}

// Vertex is the interleaved layout uploaded to the GPU as-is.
type Vertex struct {
	Position  mgl32.Vec3
	Normal    mgl32.Vec3
	UV        mgl32.Vec2
	Color     Color
	Tangent   mgl32.Vec3
	Bitangent mgl32.Vec3
}

// Transform is a local TRS transform. Rotation holds Euler angles in radians
// applied in X, Y, Z order.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{
		Scale: mgl32.Vec3{1, 1, 1},
	}
}

// Quat returns the orientation as a quaternion.
func (t Transform) Quat() mgl32.Quat {
	return EulerXYZ(t.Rotation)
}

// GetMatrix returns T * R * S.
func (t Transform) GetMatrix() mgl32.Mat4 {
	translation := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotation := t.Quat().Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
	return translation.Mul4(rotation).Mul4(scale)
}

// EulerXYZ builds the quaternion Rx * Ry * Rz from angles in radians.
func EulerXYZ(r mgl32.Vec3) mgl32.Quat {
	qx := mgl32.QuatRotate(r.X(), mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(r.Y(), mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(r.Z(), mgl32.Vec3{0, 0, 1})
	return qx.Mul(qy).Mul(qz)
}

type Rect struct {
	X, Y, Width, Height float32
}

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// DevicePixelRatio is framebuffer pixels per logical window unit along X.
// It is 1 where the window size is already in pixels, and the backing scale
// on displays that report sizes in points.
func DevicePixelRatio(framebufferWidth, windowWidth int) float32 {
	if framebufferWidth <= 0 || windowWidth <= 0 {
		return 1
	}
	return float32(framebufferWidth) / float32(windowWidth)
}
