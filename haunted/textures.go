package haunted

import (
	"haunted-house/core"
	"haunted-house/scene"
)

// TextureSource hands out texture handles. Handles may still be pending when
// returned; the renderer treats anything not ready as an unset slot.
type TextureSource interface {
	Load(rel string, params scene.TextureParams) *scene.Texture
}

// surfaceSet names the files of one PBR surface. Empty paths are skipped.
type surfaceSet struct {
	color        string
	arm          string // packed AO / roughness / metalness
	normal       string
	displacement string
	alpha        string
	ao           string
	roughness    string
	metalness    string

	repeatU, repeatV float32
	wrap             bool
}

// Surface file sets, relative to the texture root.
var (
	floorSurface = surfaceSet{
		color:        "coast_sand_rocks_02_1k/textures/coast_sand_rocks_02_diff_1k.jpg",
		arm:          "coast_sand_rocks_02_1k/textures/coast_sand_rocks_02_arm_1k.jpg",
		normal:       "coast_sand_rocks_02_1k/textures/coast_sand_rocks_02_nor_gl_1k.jpg",
		displacement: "coast_sand_rocks_02_1k/textures/coast_sand_rocks_02_disp_1k.jpg",
		repeatU:      8, repeatV: 8, wrap: true,
	}
	floorAlpha = "floor/alpha.jpg"

	wallSurface = surfaceSet{
		color:   "castle_brick_broken_06_1k/textures/castle_brick_broken_06_diff_1k.jpg",
		arm:     "castle_brick_broken_06_1k/textures/castle_brick_broken_06_arm_1k.jpg",
		normal:  "castle_brick_broken_06_1k/textures/castle_brick_broken_06_nor_gl_1k.jpg",
		repeatU: 1, repeatV: 1,
	}

	roofSurface = surfaceSet{
		color:   "roof_09_1k/roof_09_diff_1k.jpg",
		arm:     "roof_09_1k/roof_09_arm_1k.jpg",
		normal:  "roof_09_1k/roof_09_nor_gl_1k.jpg",
		repeatU: 5, repeatV: 3, wrap: true,
	}

	bushSurface = surfaceSet{
		color:   "leaves_forest_ground_1k/leaves_forest_ground_diff_1k.jpg",
		arm:     "leaves_forest_ground_1k/leaves_forest_ground_arm_1k.jpg",
		normal:  "leaves_forest_ground_1k/leaves_forest_ground_nor_gl_1k.jpg",
		repeatU: 2, repeatV: 1, wrap: true,
	}

	// Graves shrink the texture without wrapping, so only a corner shows.
	graveSurface = surfaceSet{
		color:   "plastered_stone_wall_1k/plastered_stone_wall_diff_1k.jpg",
		arm:     "plastered_stone_wall_1k/plastered_stone_wall_arm_1k.jpg",
		normal:  "plastered_stone_wall_1k/plastered_stone_wall_nor_gl_1k.jpg",
		repeatU: 0.3, repeatV: 0.4,
	}

	doorSurface = surfaceSet{
		color:        "door/color.jpg",
		alpha:        "door/alpha.jpg",
		ao:           "door/ambientOcclusion.jpg",
		displacement: "door/height.jpg",
		normal:       "door/normal.jpg",
		metalness:    "door/metalness.jpg",
		roughness:    "door/roughness.jpg",
		repeatU:      1, repeatV: 1,
	}
)

// Flat variant colours.
var (
	flatWallColor  = core.ColorHex(0xac8e82)
	flatRoofColor  = core.ColorHex(0xb35f45)
	flatDoorColor  = core.ColorHex(0xaa7b7b)
	flatBushColor  = core.ColorHex(0x89c854)
	flatGraveColor = core.ColorHex(0xb2b6b1)
	flatFloorColor = core.ColorHex(0xa9c388)
)

func (s surfaceSet) params() scene.TextureParams {
	p := scene.DefaultTextureParams()
	if s.wrap {
		p.WrapS, p.WrapT = scene.WrapRepeat, scene.WrapRepeat
	}
	p.Repeat[0], p.Repeat[1] = s.repeatU, s.repeatV
	return p
}

// apply loads every file of the set into m. Colour maps are sRGB, data maps
// linear.
func (s surfaceSet) apply(m *scene.Material, src TextureSource) {
	p := s.params()
	load := func(rel string, params scene.TextureParams) *scene.Texture {
		if rel == "" {
			return nil
		}
		return src.Load(rel, params)
	}

	m.Map = load(s.color, p.SRGB())
	if s.arm != "" {
		m.SetARM(load(s.arm, p))
	}
	if s.ao != "" {
		m.AOMap = load(s.ao, p)
	}
	if s.roughness != "" {
		m.RoughnessMap = load(s.roughness, p)
	}
	if s.metalness != "" {
		m.MetalnessMap = load(s.metalness, p)
	}
	m.NormalMap = load(s.normal, p)
	m.DisplacementMap = load(s.displacement, p)
	m.AlphaMap = load(s.alpha, p)
}
