package scene

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haunted-house/core"
)

func TestGroupMovesChildren(t *testing.T) {
	group := NewGroup("house")
	a := NewMeshNode("walls", nil)
	a.SetPosition(mgl32.Vec3{0, 1.25, 0})
	b := NewLightNode("doorLight", NewPointLight(core.ColorWhite, 1))
	b.SetPosition(mgl32.Vec3{0, 2.2, 2.5})
	group.AddChild(a, b)

	before := []mgl32.Vec3{a.WorldPosition(), b.WorldPosition()}
	group.SetPosition(mgl32.Vec3{3, 0, -2})

	offset := mgl32.Vec3{3, 0, -2}
	assert.True(t, a.WorldPosition().ApproxEqualThreshold(before[0].Add(offset), 1e-5))
	assert.True(t, b.WorldPosition().ApproxEqualThreshold(before[1].Add(offset), 1e-5))

	group.SetRotation(mgl32.Vec3{0, math.Pi, 0})
	assert.True(t, b.WorldPosition().ApproxEqualThreshold(mgl32.Vec3{3, 2.2, -4.5}, 1e-5), "got %v", b.WorldPosition())
}

func TestAddChildReparents(t *testing.T) {
	p1, p2 := NewGroup("p1"), NewGroup("p2")
	c := NewNode("c")
	p1.AddChild(c)
	p2.AddChild(c)

	assert.Empty(t, p1.Children)
	assert.Equal(t, p2, c.Parent)
	assert.True(t, p2.IsGroup())
	assert.NotEqual(t, p1.ID, p2.ID)
}

func TestSceneCollectsLightsAndMeshes(t *testing.T) {
	s := NewScene()
	geo := CreateBox(1, 1, 1)
	mat := DefaultMaterial()
	hidden := NewMeshNode("hidden", NewMesh("m", geo, mat))
	hidden.Visible = false
	s.Add(
		NewMeshNode("a", NewMesh("m", geo, mat)),
		hidden,
		NewLightNode("amb1", NewAmbientLight(core.Color{R: 1, G: 0, B: 0, A: 1}, 0.5)),
		NewLightNode("amb2", NewAmbientLight(core.Color{R: 0, G: 1, B: 0, A: 1}, 0.25)),
	)

	assert.Len(t, s.VisibleMeshes(), 1)
	assert.Len(t, s.LightNodes(), 2)
	assert.Len(t, s.Materials(), 1)

	amb := s.AmbientColor()
	assert.InDelta(t, 0.5, amb.R, 1e-6)
	assert.InDelta(t, 0.25, amb.G, 1e-6)
}

func TestCreateBoxDimensions(t *testing.T) {
	g := CreateBox(0.6, 0.8, 0.2)
	assert.Len(t, g.Vertices, 24)
	assert.Equal(t, 12, g.TriangleCount())
	assert.True(t, g.LocalAABB.Min.ApproxEqual(mgl32.Vec3{-0.3, -0.4, -0.1}))
	assert.True(t, g.LocalAABB.Max.ApproxEqual(mgl32.Vec3{0.3, 0.4, 0.1}))
}

func TestCreateBoxOutwardWinding(t *testing.T) {
	g := CreateBox(4, 2.5, 4)
	for i := 0; i < len(g.Indices); i += 3 {
		v0 := g.Vertices[g.Indices[i]]
		v1 := g.Vertices[g.Indices[i+1]]
		v2 := g.Vertices[g.Indices[i+2]]
		n := v1.Position.Sub(v0.Position).Cross(v2.Position.Sub(v0.Position))
		assert.Greater(t, n.Dot(v0.Normal), float32(0), "triangle %d faces inward", i/3)
	}
}

func TestCreatePlaneSegments(t *testing.T) {
	g := CreatePlane(20, 20, 100, 100)
	assert.Len(t, g.Vertices, 101*101)
	assert.Equal(t, 100*100*2, g.TriangleCount())
	assert.InDelta(t, -10, g.LocalAABB.Min.X(), 1e-4)
	assert.InDelta(t, 10, g.LocalAABB.Max.Y(), 1e-4)
	assert.Equal(t, float32(0), g.LocalAABB.Max.Z())
	// Top-left corner samples the top of the image.
	assert.Equal(t, mgl32.Vec2{0, 1}, g.Vertices[0].UV)
}

func TestCreateConeShape(t *testing.T) {
	g := CreateCone(3.5, 1.5, 4)
	assert.InDelta(t, 0.75, g.LocalAABB.Max.Y(), 1e-5)
	assert.InDelta(t, -0.75, g.LocalAABB.Min.Y(), 1e-5)
	assert.InDelta(t, 3.5, g.LocalAABB.Max.Z(), 1e-5)
	assert.Equal(t, 4+4, g.TriangleCount())
}

func TestCreateSphereRadius(t *testing.T) {
	g := CreateSphere(1, 16, 16)
	for _, v := range g.Vertices {
		assert.InDelta(t, 1, v.Position.Len(), 1e-5)
	}
	assert.Equal(t, 16*16*2-2*16, g.TriangleCount())
}

func TestAABBTransform(t *testing.T) {
	b := AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	m := mgl32.Translate3D(5, 0, 0).Mul4(mgl32.Scale3D(2, 1, 1))
	w := b.Transform(m)
	assert.True(t, w.Min.ApproxEqual(mgl32.Vec3{3, -1, -1}))
	assert.True(t, w.Max.ApproxEqual(mgl32.Vec3{7, 1, 1}))
}

func TestFrustumCulling(t *testing.T) {
	cam := NewCamera(75, 1, 0.1, 100)
	cam.SetPosition(mgl32.Vec3{0, 0, 5})
	cam.LookAt(mgl32.Vec3{})
	f := FrustumFromVP(cam.GetViewProjectionMatrix())

	inView := AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	behind := AABB{Min: mgl32.Vec3{-1, -1, 10}, Max: mgl32.Vec3{1, 1, 12}}
	assert.True(t, f.Intersects(inView))
	assert.False(t, f.Intersects(behind))
}

func TestCameraAspect(t *testing.T) {
	cam := NewCamera(75, 1, 0.1, 100)
	cam.UpdateAspectRatio(1920, 1080)
	assert.InDelta(t, 1920.0/1080.0, cam.AspectRatio, 1e-6)
	cam.UpdateAspectRatio(800, 0)
	assert.InDelta(t, 1920.0/1080.0, cam.AspectRatio, 1e-6)

	p := cam.GetProjectionMatrix()
	assert.InDelta(t, 1/math.Tan(75*math.Pi/360)/(1920.0/1080.0), p.At(0, 0), 1e-4)
}

func TestTextureLifecycle(t *testing.T) {
	tex := NewTexture("x", DefaultTextureParams().Repeating(8, 8).SRGB())
	assert.False(t, tex.Ready())
	assert.Equal(t, WrapRepeat, tex.Params.WrapS)
	assert.Equal(t, ColorSpaceSRGB, tex.Params.ColorSpace)

	tex.Resolve(&Image{Width: 1, Height: 1, Pixels: []byte{1, 2, 3, 4}})
	assert.True(t, tex.Ready())
	assert.Equal(t, 1, tex.Revision)
	assert.Equal(t, "ready", tex.State.String())

	var nilTex *Texture
	assert.False(t, nilTex.Ready())
}

func TestDecodeImageFlipsRows(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 2))
	src.Set(0, 0, color.RGBA{R: 255, A: 255}) // top
	src.Set(0, 1, color.RGBA{B: 255, A: 255}) // bottom
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	img, err := DecodeImage(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 255, 255, 255, 0, 0, 255}, img.Pixels)
}

func TestMaterialARMAndTextures(t *testing.T) {
	m := NewStandardMaterial("walls", core.ColorWhite)
	arm := NewTexture("arm", DefaultTextureParams())
	m.SetARM(arm)
	m.Map = NewTexture("diff", DefaultTextureParams())
	assert.Same(t, arm, m.RoughnessMap)
	assert.Len(t, m.Textures(), 2)
	assert.Equal(t, float32(1), m.DisplacementScale)
}

func TestShadowViewProjection(t *testing.T) {
	l := NewDirectionalLight(core.ColorWhite, 1)
	l.Shadow = ShadowConfig{MapSize: 256, Left: -8, Right: 8, Bottom: -8, Top: 8, Near: 1, Far: 20}
	pos := mgl32.Vec3{3, 2, -8}

	assert.True(t, l.Direction(pos).ApproxEqualThreshold(mgl32.Vec3{-3, -2, 8}.Normalize(), 1e-6))

	vp := l.ShadowViewProjection(pos)
	origin := vp.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, origin.X(), 1e-5)
	assert.InDelta(t, 0, origin.Y(), 1e-5)
	dist := pos.Len()
	assert.InDelta(t, (2*dist-21)/19, origin.Z(), 1e-4)

	beyond := pos.Add(l.Direction(pos).Mul(25))
	assert.Greater(t, vp.Mul4x1(beyond.Vec4(1)).Z(), float32(1))

	corner := vp.Mul4x1(mgl32.Vec4{0, 7.9, 0, 1})
	assert.Less(t, corner.Y(), float32(1))
}

func TestDrawListOrdersAndCulls(t *testing.T) {
	s := NewScene()
	cam := NewCamera(75, 1, 0.1, 100)
	cam.SetPosition(mgl32.Vec3{0, 0, 5})

	geo := CreateBox(1, 1, 1)
	opaque := DefaultMaterial()
	glass := DefaultMaterial()
	glass.Transparent = true

	add := func(name string, mat *Material, z float32) *Node {
		n := NewMeshNode(name, NewMesh(name, geo, mat))
		n.SetPosition(mgl32.Vec3{0, 0, z})
		s.Add(n)
		return n
	}
	add("opaqueFar", opaque, -5)
	add("opaqueNear", opaque, 2)
	add("glassNear", glass, 1)
	add("glassFar", glass, -3)
	behind := add("behind", opaque, 10)
	behind.CastShadow = true

	dl := BuildDrawList(s, cam)
	names := func(items []DrawItem) []string {
		var out []string
		for _, it := range items {
			out = append(out, it.Node.Name)
		}
		return out
	}
	assert.Equal(t, []string{"opaqueNear", "opaqueFar"}, names(dl.Opaque))
	assert.Equal(t, []string{"glassFar", "glassNear"}, names(dl.Transparent))
	assert.Equal(t, []string{"behind"}, names(dl.Casters))
	assert.Equal(t, 1, dl.Culled)
	assert.Equal(t, 4, dl.Len())
}

func TestDrawListKeepsDisplacedEdges(t *testing.T) {
	s := NewScene()
	cam := NewCamera(75, 1, 0.1, 100)
	cam.SetPosition(mgl32.Vec3{0, 0, 5})

	mat := DefaultMaterial()
	mat.DisplacementMap = NewTexture("disp", DefaultTextureParams())
	mat.DisplacementScale = 0
	mat.DisplacementBias = 10
	plane := NewMeshNode("plane", NewMesh("plane", CreatePlane(1, 1, 1, 1), mat))
	plane.SetPosition(mgl32.Vec3{0, 0, -100})
	s.Add(plane)

	assert.Equal(t, 0, BuildDrawList(s, cam).Culled)

	mat.DisplacementMap = nil
	assert.Equal(t, 1, BuildDrawList(s, cam).Culled)
}
