// Package export writes a built scene graph to glTF 2.0.
package export

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"haunted-house/core"
	"haunted-house/scene"
)

// Only geometry, base colour factors and the node hierarchy are written.
// Textures, lights and the sky stay behind; light nodes become empty nodes so
// the hierarchy keeps its shape.

type meshKey struct {
	geometry *scene.Geometry
	material *scene.Material
}

type writer struct {
	doc       *gltf.Document
	materials map[*scene.Material]int
	meshes    map[meshKey]int
}

// Build converts s into a glTF document. The scene root becomes the single
// root node of the default scene. Geometry shared by several nodes is written
// once.
func Build(s *scene.Scene) (*gltf.Document, error) {
	if s == nil || s.Root == nil {
		return nil, fmt.Errorf("no scene to export")
	}
	w := &writer{
		doc:       gltf.NewDocument(),
		materials: make(map[*scene.Material]int),
		meshes:    make(map[meshKey]int),
	}
	root := w.node(s.Root)
	w.doc.Scenes[0].Nodes = append(w.doc.Scenes[0].Nodes, root)
	return w.doc, nil
}

// WriteGLB exports s as a binary .glb file at path.
func WriteGLB(path string, s *scene.Scene) error {
	doc, err := Build(s)
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("save %q: %w", path, err)
	}
	core.Log.Info("Scene exported",
		zap.String("path", path),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("meshes", len(doc.Meshes)),
		zap.Int("materials", len(doc.Materials)))
	return nil
}

// node appends n and its subtree, returning n's index.
func (w *writer) node(n *scene.Node) int {
	t := n.Transform
	q := t.Quat()
	gn := &gltf.Node{
		Name:        n.Name,
		Translation: [3]float64{float64(t.Position.X()), float64(t.Position.Y()), float64(t.Position.Z())},
		Rotation:    [4]float64{float64(q.V.X()), float64(q.V.Y()), float64(q.V.Z()), float64(q.W)},
		Scale:       [3]float64{float64(t.Scale.X()), float64(t.Scale.Y()), float64(t.Scale.Z())},
	}
	if n.Mesh != nil && n.Mesh.Geometry != nil && len(n.Mesh.Geometry.Vertices) > 0 {
		gn.Mesh = gltf.Index(w.mesh(n.Mesh))
	}

	idx := len(w.doc.Nodes)
	w.doc.Nodes = append(w.doc.Nodes, gn)
	for _, c := range n.Children {
		gn.Children = append(gn.Children, w.node(c))
	}
	return idx
}

func (w *writer) mesh(m *scene.Mesh) int {
	key := meshKey{m.Geometry, m.Material}
	if idx, ok := w.meshes[key]; ok {
		return idx
	}

	g := m.Geometry
	positions := make([][3]float32, len(g.Vertices))
	normals := make([][3]float32, len(g.Vertices))
	uvs := make([][2]float32, len(g.Vertices))
	for i, v := range g.Vertices {
		positions[i] = v.Position
		normals[i] = v.Normal
		uvs[i] = v.UV
	}

	prim := &gltf.Primitive{
		Mode: gltf.PrimitiveTriangles,
		Attributes: map[string]int{
			"POSITION":   modeler.WritePosition(w.doc, positions),
			"NORMAL":     modeler.WriteNormal(w.doc, normals),
			"TEXCOORD_0": modeler.WriteTextureCoord(w.doc, uvs),
		},
	}
	if len(g.Indices) > 0 {
		prim.Indices = gltf.Index(modeler.WriteIndices(w.doc, g.Indices))
	}
	if m.Material != nil {
		prim.Material = gltf.Index(w.material(m.Material))
	}

	idx := len(w.doc.Meshes)
	w.doc.Meshes = append(w.doc.Meshes, &gltf.Mesh{Name: m.Name, Primitives: []*gltf.Primitive{prim}})
	w.meshes[key] = idx
	return idx
}

func (w *writer) material(m *scene.Material) int {
	if idx, ok := w.materials[m]; ok {
		return idx
	}
	alpha := m.Color.A
	mode := gltf.AlphaOpaque
	if m.Transparent {
		alpha *= m.Opacity
		mode = gltf.AlphaBlend
	}
	gm := &gltf.Material{
		Name:      m.Name,
		AlphaMode: mode,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{float64(m.Color.R), float64(m.Color.G), float64(m.Color.B), float64(alpha)},
			MetallicFactor:  gltf.Float(float64(m.Metalness)),
			RoughnessFactor: gltf.Float(float64(m.Roughness)),
		},
	}
	if e := m.Emissive; e.R > 0 || e.G > 0 || e.B > 0 {
		gm.EmissiveFactor = [3]float64{float64(e.R), float64(e.G), float64(e.B)}
	}

	idx := len(w.doc.Materials)
	w.doc.Materials = append(w.doc.Materials, gm)
	w.materials[m] = idx
	return idx
}
