package scene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// DrawItem is a mesh node resolved for one frame.
type DrawItem struct {
	Node  *Node
	Model mgl32.Mat4
	// Z is the node origin in normalised device depth; smaller is nearer.
	Z float32
}

// DrawList is the per-frame draw order: opaque meshes front to back, then
// transparent meshes back to front. Casters holds every shadow caster,
// culled or not.
type DrawList struct {
	Opaque      []DrawItem
	Transparent []DrawItem
	Casters     []DrawItem
	Culled      int
}

// BuildDrawList collects the visible meshes of s as seen from cam, dropping
// those whose bounds fall outside the view frustum.
func BuildDrawList(s *Scene, cam *Camera) DrawList {
	vp := cam.GetViewProjectionMatrix()
	frustum := FrustumFromVP(vp)

	var dl DrawList
	for _, n := range s.VisibleMeshes() {
		if n.Mesh.Geometry == nil {
			continue
		}
		model := n.GetWorldMatrix()
		item := DrawItem{Node: n, Model: model}
		if n.CastShadow {
			dl.Casters = append(dl.Casters, item)
		}

		box := n.Mesh.Geometry.LocalAABB
		mat := n.Mesh.Material
		if mat != nil && mat.DisplacementMap != nil {
			box = box.Expand(abs32(mat.DisplacementScale) + abs32(mat.DisplacementBias))
		}
		if !frustum.Intersects(box.Transform(model)) {
			dl.Culled++
			continue
		}

		clip := vp.Mul4x1(model.Col(3))
		if clip.W() != 0 {
			item.Z = clip.Z() / clip.W()
		}
		if mat != nil && mat.Transparent {
			dl.Transparent = append(dl.Transparent, item)
		} else {
			dl.Opaque = append(dl.Opaque, item)
		}
	}

	sort.SliceStable(dl.Opaque, func(i, j int) bool { return dl.Opaque[i].Z < dl.Opaque[j].Z })
	sort.SliceStable(dl.Transparent, func(i, j int) bool { return dl.Transparent[i].Z > dl.Transparent[j].Z })
	return dl
}

// Len is the number of meshes that will be drawn.
func (dl DrawList) Len() int {
	return len(dl.Opaque) + len(dl.Transparent)
}
