package haunted

import (
	"context"
	"errors"
	"image"
	stdmath "math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haunted-house/assets"
	"haunted-house/config"
	"haunted-house/controls"
	"haunted-house/core"
	"haunted-house/scene"
)

type fakeTextures struct {
	loaded map[string]scene.TextureParams
}

func newFakeTextures() *fakeTextures {
	return &fakeTextures{loaded: make(map[string]scene.TextureParams)}
}

func (f *fakeTextures) Load(rel string, params scene.TextureParams) *scene.Texture {
	f.loaded[rel] = params
	return scene.NewTexture(rel, params)
}

type fakeRenderer struct {
	rendered  int
	presented int
	overlays  int
	width     int
	height    int
	ratio     float32
	err       error
	uploads   int
}

func (r *fakeRenderer) UploadTexture(*scene.Texture) error { r.uploads++; return nil }
func (r *fakeRenderer) Render(*scene.Scene) error          { r.rendered++; return r.err }
func (r *fakeRenderer) DrawOverlay(*image.RGBA)            { r.overlays++ }
func (r *fakeRenderer) Present()                           { r.presented++ }
func (r *fakeRenderer) Resize(w, h int, ratio float32) {
	r.width, r.height, r.ratio = w, h, ratio
}

type fakePoller struct {
	polls int
}

func (p *fakePoller) Poll(upload func(*scene.Texture) error) int {
	p.polls++
	if upload != nil {
		_ = upload(scene.NewTexture("x", scene.DefaultTextureParams()))
	}
	return 1
}

func (p *fakePoller) Stats() assets.Stats { return assets.Stats{Ready: 3, Pending: 1} }

func TestPlaceGravesBounds(t *testing.T) {
	graves := PlaceGraves(rand.New(rand.NewSource(1)), DefaultGraveCount)
	require.Len(t, graves, 30)
	for _, g := range graves {
		horizontal := mgl32.Vec2{g.Position.X(), g.Position.Z()}.Len()
		assert.GreaterOrEqual(t, horizontal, float32(3)-1e-4)
		assert.Less(t, horizontal, float32(7)+1e-4)
		assert.GreaterOrEqual(t, g.Position.Y(), float32(0))
		assert.Less(t, g.Position.Y(), float32(0.4))
		for axis := 0; axis < 3; axis++ {
			assert.GreaterOrEqual(t, g.Rotation[axis], float32(-0.2))
			assert.Less(t, g.Rotation[axis], float32(0.2))
		}
	}
}

type constRand float64

func (c constRand) Float64() float64 { return float64(c) }

func TestPlaceGravesFormula(t *testing.T) {
	g := PlaceGraves(constRand(0.25), 1)[0]
	// angle = π/2, r = 4: on the +X axis.
	assert.InDelta(t, 4, g.Position.X(), 1e-5)
	assert.InDelta(t, 0.1, g.Position.Y(), 1e-6)
	assert.InDelta(t, 0, g.Position.Z(), 1e-5)
	assert.InDelta(t, -0.1, g.Rotation.X(), 1e-6)
}

func TestPlaceGravesKeepsUpperBoundsOpen(t *testing.T) {
	g := PlaceGraves(constRand(stdmath.Nextafter(1, 0)), 1)[0]
	assert.Less(t, g.Position.Y(), float32(0.4))
	for axis := 0; axis < 3; axis++ {
		assert.Less(t, g.Rotation[axis], float32(0.2))
	}
}

func TestGhostPositions(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{4, 0, 0}, Ghost1Position(0))
	assert.Equal(t, mgl32.Vec3{5, 0, 0}, Ghost2Position(0))

	p := Ghost1Position(stdmath.Pi)
	a := stdmath.Pi / 2
	assert.InDelta(t, 0, p.X(), 1e-5)
	assert.InDelta(t, 4, p.Z(), 1e-5)
	assert.InDelta(t, stdmath.Sin(a*2.34)*stdmath.Sin(a*3.45), p.Y(), 1e-5)

	for _, tm := range []float64{0.3, 1, 17.5, 200} {
		assert.InDelta(t, 4, mgl32.Vec2{Ghost1Position(tm).X(), Ghost1Position(tm).Z()}.Len(), 1e-4)
		assert.InDelta(t, 5, mgl32.Vec2{Ghost2Position(tm).X(), Ghost2Position(tm).Z()}.Len(), 1e-4)
		assert.LessOrEqual(t, stdmath.Abs(float64(Ghost1Position(tm).Y())), 1.0)
	}

	// Ghost 2 turns clockwise seen from above: z goes negative first.
	assert.Less(t, Ghost2Position(1).Z(), float32(0))
}

func TestGhostOrbitsAtKnownTimes(t *testing.T) {
	cases := []struct {
		name   string
		pos    func(float64) mgl32.Vec3
		at     float64
		expect [3]float64
	}{
		{"ghost1 t=0", Ghost1Position, 0, [3]float64{4, 0, 0}},
		{"ghost1 t=1", Ghost1Position, 1, [3]float64{3.5103302, 0.4361934, 1.9177022}},
		{"ghost1 t=pi", Ghost1Position, stdmath.Pi, [3]float64{0, 0.3870781, 4}},
		{"ghost2 t=0", Ghost2Position, 0, [3]float64{5, 0, 0}},
		{"ghost2 t=1", Ghost2Position, 1, [3]float64{4.6433232, -0.1989304, -1.8546023}},
		{"ghost2 t=pi", Ghost2Position, stdmath.Pi, [3]float64{1.8406228, -0.3047681, -4.6488824}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.pos(tc.at)
			for i := 0; i < 3; i++ {
				assert.InDelta(t, tc.expect[i], got[i], 1e-5, "axis %d", i)
			}
		})
	}
}

func TestBuildHouseComposition(t *testing.T) {
	w := Build(DefaultConfig(), newFakeTextures(), rand.New(rand.NewSource(7)))

	assert.True(t, w.House.IsGroup())
	// walls, roof, door, four bushes, door light
	assert.Len(t, w.House.Children, 8)
	assert.Same(t, w.House, w.DoorLight.Parent)
	assert.Len(t, w.Bushes, 4)
	assert.Same(t, w.Bushes[0].Mesh.Geometry, w.Bushes[3].Mesh.Geometry)
	assert.Same(t, w.Bushes[0].Mesh.Material, w.Bushes[3].Mesh.Material)

	assert.True(t, w.Walls.WorldPosition().ApproxEqual(mgl32.Vec3{0, 1.25, 0}))
	assert.True(t, w.Roof.WorldPosition().ApproxEqual(mgl32.Vec3{0, 3.25, 0}))
	assert.True(t, w.Door.WorldPosition().ApproxEqual(mgl32.Vec3{0, 1, 2.01}))
	assert.InDelta(t, 0.4, w.Bushes[2].Transform.Scale.X(), 1e-6)

	// Moving the house moves the door light with it.
	before := w.DoorLight.WorldPosition()
	w.House.Translate(mgl32.Vec3{1, 0, 0})
	assert.True(t, w.DoorLight.WorldPosition().ApproxEqual(before.Add(mgl32.Vec3{1, 0, 0})))
}

func TestBuildGravesShareResources(t *testing.T) {
	w := Build(DefaultConfig(), newFakeTextures(), rand.New(rand.NewSource(3)))
	require.Len(t, w.Graves.Children, 30)
	first := w.Graves.Children[0]
	for _, g := range w.Graves.Children {
		assert.Same(t, first.Mesh.Geometry, g.Mesh.Geometry)
		assert.Same(t, first.Mesh.Material, g.Mesh.Material)
		assert.True(t, g.CastShadow)
		assert.True(t, g.ReceiveShadow)
	}
}

func TestBuildLights(t *testing.T) {
	w := Build(DefaultConfig(), newFakeTextures(), rand.New(rand.NewSource(3)))

	sun := w.Directional.Light
	assert.Equal(t, scene.LightTypeDirectional, sun.Type)
	assert.True(t, sun.CastShadow)
	assert.Equal(t, 256, sun.Shadow.MapSize)
	assert.Equal(t, float32(-8), sun.Shadow.Left)
	assert.Equal(t, float32(20), sun.Shadow.Far)
	assert.True(t, w.Directional.WorldPosition().ApproxEqual(mgl32.Vec3{3, 2, -8}))

	amb := w.Scene.AmbientColor()
	assert.InDelta(t, float32(0x86)/255*0.275, amb.R, 1e-5)

	for _, g := range w.Ghosts {
		assert.Equal(t, float32(6), g.Light.Intensity)
		assert.Equal(t, 256, g.Light.Shadow.MapSize)
		assert.Equal(t, float32(10), g.Light.Shadow.Far)
		assert.Same(t, w.Scene.Root, g.Parent)
	}
	assert.Equal(t, mgl32.Vec3{}, w.Ghosts[2].WorldPosition())
	// ambient, directional, door light, three ghosts
	assert.Len(t, w.Scene.LightNodes(), 6)
}

func TestBuildTexturedLoadsTable(t *testing.T) {
	tex := newFakeTextures()
	w := Build(DefaultConfig(), tex, rand.New(rand.NewSource(3)))

	floor := tex.loaded["coast_sand_rocks_02_1k/textures/coast_sand_rocks_02_diff_1k.jpg"]
	assert.Equal(t, scene.ColorSpaceSRGB, floor.ColorSpace)
	assert.Equal(t, scene.WrapRepeat, floor.WrapS)
	assert.Equal(t, mgl32.Vec2{8, 8}, floor.Repeat)

	arm := tex.loaded["roof_09_1k/roof_09_arm_1k.jpg"]
	assert.Equal(t, scene.ColorSpaceLinear, arm.ColorSpace)
	assert.Equal(t, mgl32.Vec2{5, 3}, arm.Repeat)

	grave := tex.loaded["plastered_stone_wall_1k/plastered_stone_wall_nor_gl_1k.jpg"]
	assert.Equal(t, scene.WrapClamp, grave.WrapS)
	assert.Equal(t, mgl32.Vec2{0.3, 0.4}, grave.Repeat)

	assert.Contains(t, tex.loaded, "floor/alpha.jpg")
	assert.Contains(t, tex.loaded, "door/ambientOcclusion.jpg")
	// five surfaces of three or four maps, seven door maps, floor alpha
	assert.Len(t, tex.loaded, 4+3+3+3+3+7+1)

	door := w.Door.Mesh.Material
	assert.True(t, door.Transparent)
	assert.Equal(t, float32(0.15), door.DisplacementScale)
	assert.Equal(t, float32(-0.04), door.DisplacementBias)
	assert.NotSame(t, door.AOMap, door.RoughnessMap)

	walls := w.Walls.Mesh.Material
	assert.Same(t, walls.AOMap, walls.MetalnessMap)

	assert.Equal(t, float32(0.3), w.FloorMaterial.DisplacementScale)
	assert.True(t, w.FloorMaterial.Transparent)
	require.NotNil(t, w.Scene.Sky)
	assert.Equal(t, float32(10), w.Scene.Sky.Turbidity)
	assert.Equal(t, float32(1), w.Scene.Sky.Exposure)
	assert.Equal(t, float32(100), w.Scene.Sky.Scale)
}

func TestBuildFlatVariant(t *testing.T) {
	cfg := ConfigFrom(config.Scene{Variant: config.VariantFlat, Graves: 5})
	w := Build(cfg, nil, rand.New(rand.NewSource(3)))

	assert.Len(t, w.Graves.Children, 5)
	assert.Nil(t, w.Scene.Sky)
	for _, m := range w.Scene.Materials() {
		assert.Empty(t, m.Textures(), m.Name)
		assert.False(t, m.Transparent, m.Name)
	}
	assert.Equal(t, flatRoofColor, w.Roof.Mesh.Material.Color)
	assert.False(t, w.Directional.Light.CastShadow)
}

func newTestApp(t *testing.T) (*App, *fakeRenderer) {
	t.Helper()
	r := &fakeRenderer{}
	w := Build(DefaultConfig(), newFakeTextures(), rand.New(rand.NewSource(1)))
	a := NewApp(w, r, &fakePoller{})
	a.Resize(1280, 720, 1)
	return a, r
}

func TestResizeClampsPixelRatio(t *testing.T) {
	a, r := newTestApp(t)

	a.Resize(1920, 1080, 3)
	assert.Equal(t, float32(2), r.ratio)
	assert.Equal(t, 1920, r.width)
	assert.InDelta(t, 1920.0/1080.0, a.World.Camera.AspectRatio, 1e-6)

	a.Resize(800, 600, 1.5)
	assert.Equal(t, float32(1.5), r.ratio)
	w, h, ratio := a.Size()
	assert.Equal(t, []interface{}{800, 600, float32(1.5)}, []interface{}{w, h, ratio})

	// Minimised windows are ignored.
	a.Resize(0, 0, 1)
	assert.Equal(t, 800, r.width)
}

func TestStepAnimatesGhostsAndRenders(t *testing.T) {
	a, r := newTestApp(t)

	require.NoError(t, a.Step(stdmath.Pi))
	assert.InDelta(t, stdmath.Pi, a.Elapsed(), 1e-12)
	assert.True(t, a.World.Ghosts[0].WorldPosition().ApproxEqualThreshold(Ghost1Position(stdmath.Pi), 1e-5))
	assert.True(t, a.World.Ghosts[1].WorldPosition().ApproxEqualThreshold(Ghost2Position(stdmath.Pi), 1e-5))
	assert.Equal(t, mgl32.Vec3{}, a.World.Ghosts[2].WorldPosition())

	assert.Equal(t, 1, r.rendered)
	assert.Equal(t, 1, r.overlays)
	assert.Equal(t, 1, r.presented)
	assert.Equal(t, 1, r.uploads)
	assert.True(t, strings.HasPrefix(a.Panel.Lines()[0], "FPS:"))
	assert.Equal(t, "Textures: 3 ready  1 pending  0 failed", a.Panel.Lines()[1])
}

type statsRenderer struct {
	fakeRenderer
}

func (r *statsRenderer) DrawStats() (int, int, int) { return 40, 1200, 3 }

func TestHUDShowsDrawStats(t *testing.T) {
	w := Build(DefaultConfig(), nil, rand.New(rand.NewSource(1)))
	a := NewApp(w, &statsRenderer{}, nil)
	a.Resize(800, 600, 1)

	require.NoError(t, a.Step(0.016))
	lines := a.Panel.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "Draw: 40 objects  1200 tris  3 culled", lines[1])
}

func TestTickAdvancesWithoutStart(t *testing.T) {
	a, _ := newTestApp(t)
	base := time.Unix(0, 0)
	now := base
	a.Clock = core.NewClockWithSource(func() time.Time { return now })

	require.NoError(t, a.Tick(context.Background()))
	now = base.Add(2 * time.Second)
	require.NoError(t, a.Tick(context.Background()))

	assert.InDelta(t, 2.0, a.Elapsed(), 1e-9)
	assert.True(t, a.World.Ghosts[0].WorldPosition().ApproxEqualThreshold(Ghost1Position(2), 1e-5))
}

func TestStepWrapsRenderError(t *testing.T) {
	a, r := newTestApp(t)
	r.err = errors.New("lost context")
	err := a.Step(0.016)
	assert.ErrorIs(t, err, r.err)
	assert.Equal(t, 0, r.presented)
}

func TestTickHonoursCancelledContext(t *testing.T) {
	a, r := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, a.Tick(ctx), context.Canceled)
	assert.Equal(t, 0, r.rendered)
}

func TestSlidersDriveFloorMaterial(t *testing.T) {
	a, _ := newTestApp(t)
	scale := a.Panel.Slider("floorDisplacementScale")
	bias := a.Panel.Slider("floorDisplacementBias")
	require.NotNil(t, scale)
	require.NotNil(t, bias)

	assert.InDelta(t, 0.3, scale.Value(), 1e-6)
	scale.SetValue(0.5)
	bias.SetValue(-2)
	assert.Equal(t, float32(0.5), a.World.FloorMaterial.DisplacementScale)
	assert.Equal(t, float32(-1), a.World.FloorMaterial.DisplacementBias)
}

func TestPointerRoutingPrefersPanel(t *testing.T) {
	a, _ := newTestApp(t)
	b := a.Panel.Bounds()

	// A press on the panel never reaches the controls.
	a.HandlePointerButton(controls.ButtonLeft, true, float64(b.X+10), float64(b.Y+30))
	assert.False(t, a.Orbit.Dragging())
	a.HandlePointerButton(controls.ButtonLeft, false, float64(b.X+10), float64(b.Y+30))

	// A press elsewhere starts an orbit drag.
	a.HandlePointerButton(controls.ButtonLeft, true, 100, 400)
	assert.True(t, a.Orbit.Dragging())
	start := a.World.Camera.Position
	a.HandlePointerMove(300, 400, true)
	a.HandlePointerButton(controls.ButtonLeft, false, 300, 400)
	assert.False(t, a.Orbit.Dragging())

	for i := 0; i < 10; i++ {
		require.NoError(t, a.Step(0.016))
	}
	assert.False(t, a.World.Camera.Position.ApproxEqualThreshold(start, 1e-3))
}

func TestWheelDollies(t *testing.T) {
	a, _ := newTestApp(t)
	r0 := a.World.Camera.Position.Len()
	a.HandleWheel(1)
	require.NoError(t, a.Step(0.016))
	assert.Less(t, a.World.Camera.Position.Len(), r0)
}
