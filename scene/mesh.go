package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"haunted-house/core"
)

// Geometry holds CPU-side vertex/index data. It is shared by every mesh that
// references it; GPU upload is managed by the renderer backend.
type Geometry struct {
	Name     string
	Vertices []core.Vertex
	Indices  []uint32

	// Cached local-space AABB (computed by NewGeometry).
	LocalAABB AABB

	// GPUData is set by the renderer backend (e.g. *opengl.GPUMesh).
	GPUData interface{}
}

// NewGeometry builds a Geometry and pre-computes its local-space AABB.
func NewGeometry(name string, vertices []core.Vertex, indices []uint32) *Geometry {
	g := &Geometry{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
	}
	if len(vertices) > 0 {
		g.LocalAABB = computeLocalAABB(vertices)
	}
	return g
}

// TriangleCount returns the number of indexed triangles.
func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// computeLocalAABB returns the tight AABB of the given vertex positions.
func computeLocalAABB(vertices []core.Vertex) AABB {
	min := vertices[0].Position
	max := vertices[0].Position
	for i := 1; i < len(vertices); i++ {
		p := vertices[i].Position
		for a := 0; a < 3; a++ {
			if p[a] < min[a] {
				min[a] = p[a]
			}
			if p[a] > max[a] {
				max[a] = p[a]
			}
		}
	}
	return AABB{Min: min, Max: max}
}

// Mesh pairs a geometry with a material. Both are references and may be
// shared with other meshes.
type Mesh struct {
	Name     string
	Geometry *Geometry
	Material *Material
}

func NewMesh(name string, geometry *Geometry, material *Material) *Mesh {
	return &Mesh{Name: name, Geometry: geometry, Material: material}
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

// Transform returns the world-space AABB enclosing the eight transformed corners.
func (b AABB) Transform(m mgl32.Mat4) AABB {
	corners := [8]mgl32.Vec3{
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
	}
	out := AABB{}
	for i, c := range corners {
		p := m.Mul4x1(c.Vec4(1)).Vec3()
		if i == 0 {
			out.Min, out.Max = p, p
			continue
		}
		for a := 0; a < 3; a++ {
			if p[a] < out.Min[a] {
				out.Min[a] = p[a]
			}
			if p[a] > out.Max[a] {
				out.Max[a] = p[a]
			}
		}
	}
	return out
}
