package haunted

import (
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"haunted-house/config"
	"haunted-house/core"
	"haunted-house/scene"
)

// Config selects how the diorama is built.
type Config struct {
	Flat    bool // plain colours, no textures
	Graves  int
	Shadows bool
	Sky     bool
}

// ConfigFrom maps the file settings onto a build config.
func ConfigFrom(c config.Scene) Config {
	return Config{
		Flat:    c.Variant == config.VariantFlat,
		Graves:  c.Graves,
		Shadows: c.Shadows,
		Sky:     c.Sky,
	}
}

// DefaultConfig is the textured scene with shadows and sky.
func DefaultConfig() Config {
	return Config{Graves: DefaultGraveCount, Shadows: true, Sky: true}
}

// World is the built diorama with handles to the parts that change at runtime.
type World struct {
	Scene  *scene.Scene
	Camera *scene.Camera

	House  *scene.Node
	Walls  *scene.Node
	Roof   *scene.Node
	Door   *scene.Node
	Bushes []*scene.Node
	Graves *scene.Node
	Floor  *scene.Node

	Ambient     *scene.Node
	Directional *scene.Node
	DoorLight   *scene.Node
	Ghosts      [3]*scene.Node

	FloorMaterial *scene.Material
}

type bushSpec struct {
	scale    float32
	position mgl32.Vec3
}

var bushes = []bushSpec{
	{0.5, mgl32.Vec3{0.8, 0.2, 2.2}},
	{0.25, mgl32.Vec3{1.4, 0.1, 2.1}},
	{0.4, mgl32.Vec3{-0.8, 0.1, 2.2}},
	{0.15, mgl32.Vec3{-1, 0.05, 2.6}},
}

// Build assembles the scene: house, graves, floor, lights, ghosts, sky and
// camera. tex may be nil for the flat variant.
func Build(cfg Config, tex TextureSource, rng Rand) *World {
	if tex == nil {
		cfg.Flat = true
	}

	w := &World{Scene: scene.NewScene()}

	w.Camera = scene.NewCamera(75, 1, 0.1, 100)
	w.Camera.SetPosition(mgl32.Vec3{4, 2, 5})
	w.Camera.LookAt(mgl32.Vec3{})
	w.Scene.SetCamera(w.Camera)

	w.buildHouse(cfg, tex)
	w.buildGraves(cfg, tex, rng)
	w.buildFloor(cfg, tex)
	w.buildLights(cfg)

	if cfg.Sky {
		// Sun just below the horizon for a dusk glow.
		sky := scene.NewSky()
		sky.Scale = 100
		sky.Turbidity = 10
		sky.Rayleigh = 3
		sky.MieCoefficient = 0.1
		sky.MieDirectionalG = 0.95
		sky.SunPosition = mgl32.Vec3{0.3, -0.038, -0.95}
		w.Scene.Sky = sky
	}

	core.Log.Info("Scene built",
		zap.Bool("flat", cfg.Flat),
		zap.Int("graves", len(w.Graves.Children)),
		zap.Bool("shadows", cfg.Shadows),
		zap.Bool("sky", cfg.Sky))
	return w
}

func material(name string, cfg Config, flat core.Color, surface surfaceSet, tex TextureSource) *scene.Material {
	if cfg.Flat {
		return scene.NewStandardMaterial(name, flat)
	}
	m := scene.NewStandardMaterial(name, core.ColorWhite)
	surface.apply(m, tex)
	return m
}

func (w *World) buildHouse(cfg Config, tex TextureSource) {
	w.House = scene.NewGroup("house")

	w.Walls = scene.NewMeshNode("walls", scene.NewMesh("walls",
		scene.CreateBox(4, 2.5, 4),
		material("walls", cfg, flatWallColor, wallSurface, tex)))
	w.Walls.SetPosition(mgl32.Vec3{0, 1.25, 0})
	w.Walls.CastShadow = true
	w.Walls.ReceiveShadow = true

	w.Roof = scene.NewMeshNode("roof", scene.NewMesh("roof",
		scene.CreateCone(3.5, 1.5, 4),
		material("roof", cfg, flatRoofColor, roofSurface, tex)))
	w.Roof.SetPosition(mgl32.Vec3{0, 2.5 + 0.75, 0})
	w.Roof.SetRotation(mgl32.Vec3{0, stdmath.Pi * 0.25, 0})
	w.Roof.CastShadow = true

	doorMat := material("door", cfg, flatDoorColor, doorSurface, tex)
	if !cfg.Flat {
		doorMat.Transparent = true
		doorMat.DisplacementScale = 0.15
		doorMat.DisplacementBias = -0.04
	}
	w.Door = scene.NewMeshNode("door", scene.NewMesh("door", scene.CreatePlane(2.2, 2.2, 100, 100), doorMat))
	w.Door.SetPosition(mgl32.Vec3{0, 1, 2 + 0.01})

	w.House.AddChild(w.Walls, w.Roof, w.Door)

	bushGeometry := scene.CreateSphere(1, 16, 16)
	var bushMat *scene.Material
	if cfg.Flat {
		bushMat = scene.NewStandardMaterial("bush", flatBushColor)
	} else {
		bushMat = scene.NewStandardMaterial("bush", core.ColorHex(0xccffcc))
		bushSurface.apply(bushMat, tex)
	}
	for i, b := range bushes {
		n := scene.NewMeshNode(bushName(i), scene.NewMesh("bush", bushGeometry, bushMat))
		n.SetUniformScale(b.scale)
		n.SetPosition(b.position)
		n.SetRotation(mgl32.Vec3{-0.75, 0, 0})
		w.Bushes = append(w.Bushes, n)
		w.House.AddChild(n)
	}

	w.Scene.Add(w.House)
}

func bushName(i int) string {
	return "bush" + string(rune('1'+i))
}

func (w *World) buildGraves(cfg Config, tex TextureSource, rng Rand) {
	w.Graves = scene.NewGroup("graves")

	geometry := scene.CreateBox(0.6, 0.8, 0.2)
	mat := material("grave", cfg, flatGraveColor, graveSurface, tex)
	for _, p := range PlaceGraves(rng, cfg.Graves) {
		n := scene.NewMeshNode("grave", scene.NewMesh("grave", geometry, mat))
		n.SetPosition(p.Position)
		n.SetRotation(p.Rotation)
		n.CastShadow = true
		n.ReceiveShadow = true
		w.Graves.AddChild(n)
	}
	w.Scene.Add(w.Graves)
}

func (w *World) buildFloor(cfg Config, tex TextureSource) {
	mat := material("floor", cfg, flatFloorColor, floorSurface, tex)
	if !cfg.Flat {
		mat.AlphaMap = tex.Load(floorAlpha, scene.DefaultTextureParams())
		mat.Transparent = true
		mat.DisplacementScale = 0.3
		mat.DisplacementBias = -0.2
	}
	w.FloorMaterial = mat

	w.Floor = scene.NewMeshNode("floor", scene.NewMesh("floor", scene.CreatePlane(20, 20, 100, 100), mat))
	w.Floor.SetRotation(mgl32.Vec3{-stdmath.Pi * 0.5, 0, 0})
	w.Floor.ReceiveShadow = true
	w.Scene.Add(w.Floor)
}

func (w *World) buildLights(cfg Config) {
	moonlight := core.ColorHex(0x86cdff)

	w.Ambient = scene.NewLightNode("ambient", scene.NewAmbientLight(moonlight, 0.275))

	sun := scene.NewDirectionalLight(moonlight, 1)
	sun.Target = mgl32.Vec3{}
	sun.CastShadow = cfg.Shadows
	sun.Shadow = scene.ShadowConfig{
		MapSize: 256,
		Left:    -8, Right: 8, Bottom: -8, Top: 8,
		Near: 1, Far: 20,
	}
	w.Directional = scene.NewLightNode("directional", sun)
	w.Directional.SetPosition(mgl32.Vec3{3, 2, -8})

	w.Scene.Add(w.Ambient, w.Directional)

	w.DoorLight = scene.NewLightNode("doorLight", scene.NewPointLight(core.ColorHex(0xff7d46), 5))
	w.DoorLight.SetPosition(mgl32.Vec3{0, 2.2, 2.5})
	w.House.AddChild(w.DoorLight)

	ghostColors := [3]uint32{0x8800ff, 0xff0088, 0xff0088}
	for i, c := range ghostColors {
		l := scene.NewPointLight(core.ColorHex(c), 6)
		l.CastShadow = cfg.Shadows
		l.Shadow.MapSize = 256
		l.Shadow.Far = 10
		w.Ghosts[i] = scene.NewLightNode("ghost"+string(rune('1'+i)), l)
		w.Scene.Add(w.Ghosts[i])
	}
	w.animateGhosts(0)
}
