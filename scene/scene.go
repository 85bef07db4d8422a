package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"haunted-house/core"
)

// LightType selects how a light contributes to shading.
type LightType int

// Light types
const (
	LightTypeAmbient LightType = iota
	LightTypeDirectional
	LightTypePoint
)

// ShadowConfig describes the shadow camera of a light. Directional lights use
// the orthographic bounds; point lights only use MapSize, Near and Far.
type ShadowConfig struct {
	MapSize                  int
	Left, Right, Bottom, Top float32
	Near, Far                float32
	Bias                     float32
}

// DefaultShadowConfig mirrors common engine defaults: 512 map, ±5 ortho, [0.5, 500].
func DefaultShadowConfig() ShadowConfig {
	return ShadowConfig{
		MapSize: 512,
		Left:    -5, Right: 5, Bottom: -5, Top: 5,
		Near: 0.5, Far: 500,
	}
}

// Light is a node payload. Its position comes from the owning node.
type Light struct {
	Type      LightType
	Color     core.Color
	Intensity float32
	// Range limits a point light; 0 means unlimited with inverse-square falloff.
	Range float32
	// Target is the world-space point a directional light shines toward.
	Target mgl32.Vec3

	CastShadow bool
	Shadow     ShadowConfig
}

func NewAmbientLight(color core.Color, intensity float32) *Light {
	return &Light{Type: LightTypeAmbient, Color: color, Intensity: intensity, Shadow: DefaultShadowConfig()}
}

func NewDirectionalLight(color core.Color, intensity float32) *Light {
	return &Light{Type: LightTypeDirectional, Color: color, Intensity: intensity, Shadow: DefaultShadowConfig()}
}

func NewPointLight(color core.Color, intensity float32) *Light {
	return &Light{Type: LightTypePoint, Color: color, Intensity: intensity, Shadow: DefaultShadowConfig()}
}

// Radiance is colour scaled by intensity.
func (l *Light) Radiance() core.Color {
	return l.Color.Scale(l.Intensity)
}

// Scene manages a collection of nodes and the active camera
type Scene struct {
	Root       *Node
	Camera     *Camera
	Background core.Color
	// Sky, when set, replaces the background colour.
	Sky *Sky
}

func NewScene() *Scene {
	return &Scene{
		Root:       NewNode("Root"),
		Background: core.ColorBlack,
	}
}

func (s *Scene) SetCamera(camera *Camera) {
	s.Camera = camera
}

// Add attaches nodes to the scene root.
func (s *Scene) Add(nodes ...*Node) {
	s.Root.AddChild(nodes...)
}

// VisibleMeshes returns all visible nodes that carry a mesh, in graph order.
func (s *Scene) VisibleMeshes() []*Node {
	var visible []*Node
	s.Root.TraverseVisible(func(node *Node) {
		if node.Mesh != nil {
			visible = append(visible, node)
		}
	})
	return visible
}

// LightNodes returns all visible nodes that carry a light, in graph order.
func (s *Scene) LightNodes() []*Node {
	var lights []*Node
	s.Root.TraverseVisible(func(node *Node) {
		if node.Light != nil {
			lights = append(lights, node)
		}
	})
	return lights
}

// AmbientColor sums every ambient light's radiance.
func (s *Scene) AmbientColor() core.Color {
	sum := core.Color{A: 1}
	for _, n := range s.LightNodes() {
		if n.Light.Type != LightTypeAmbient {
			continue
		}
		r := n.Light.Radiance()
		sum.R += r.R
		sum.G += r.G
		sum.B += r.B
	}
	return sum
}

// Materials returns every distinct material referenced by a mesh.
func (s *Scene) Materials() []*Material {
	var out []*Material
	seen := make(map[*Material]bool)
	s.Root.Traverse(func(n *Node) {
		if n.Mesh == nil || n.Mesh.Material == nil || seen[n.Mesh.Material] {
			return
		}
		seen[n.Mesh.Material] = true
		out = append(out, n.Mesh.Material)
	})
	return out
}

// Direction is the unit vector a directional light placed at pos shines along.
func (l *Light) Direction(pos mgl32.Vec3) mgl32.Vec3 {
	d := l.Target.Sub(pos)
	if d.Len() == 0 {
		return mgl32.Vec3{0, -1, 0}
	}
	return d.Normalize()
}

// ShadowViewProjection is the light-space transform used to render and sample
// the shadow map of a directional light at pos: a look-at toward Target and
// the orthographic Shadow bounds.
func (l *Light) ShadowViewProjection(pos mgl32.Vec3) mgl32.Mat4 {
	up := mgl32.Vec3{0, 1, 0}
	if d := l.Direction(pos); d.Dot(up) > 0.999 || d.Dot(up) < -0.999 {
		up = mgl32.Vec3{0, 0, 1}
	}
	view := mgl32.LookAtV(pos, l.Target, up)
	s := l.Shadow
	proj := mgl32.Ortho(s.Left, s.Right, s.Bottom, s.Top, s.Near, s.Far)
	return proj.Mul4(view)
}
