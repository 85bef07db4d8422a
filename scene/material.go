package scene

import "haunted-house/core"

// Material is a metallic-roughness surface description. Texture slots follow
// the usual channel conventions: AOMap reads R, RoughnessMap reads G,
// MetalnessMap reads B, AlphaMap reads G. A combined ARM texture can therefore
// be assigned to all three of AO, roughness and metalness.
type Material struct {
	Name      string
	Color     core.Color // multiplied with Map when set
	Roughness float32    // multiplied with RoughnessMap.G
	Metalness float32    // multiplied with MetalnessMap.B
	Emissive  core.Color

	Map             *Texture
	AOMap           *Texture
	AOMapIntensity  float32
	RoughnessMap    *Texture
	MetalnessMap    *Texture
	NormalMap       *Texture
	DisplacementMap *Texture
	AlphaMap        *Texture

	// Vertex displacement along the normal: sample*DisplacementScale + DisplacementBias.
	DisplacementScale float32
	DisplacementBias  float32

	// Transparent materials are blended and drawn after opaque ones.
	Transparent bool
	Opacity     float32

	// Unlit skips lighting and outputs Color (* Map).
	Unlit bool
}

// NewStandardMaterial returns a rough, non-metallic material of the given colour.
func NewStandardMaterial(name string, color core.Color) *Material {
	return &Material{
		Name:              name,
		Color:             color,
		Roughness:         1,
		Metalness:         0,
		AOMapIntensity:    1,
		DisplacementScale: 1,
		Opacity:           1,
	}
}

// DefaultMaterial returns a plain white standard material.
func DefaultMaterial() *Material {
	return NewStandardMaterial("Default", core.ColorWhite)
}

// SetARM assigns one packed ambient-occlusion/roughness/metalness texture to
// the three slots that read it.
func (m *Material) SetARM(t *Texture) {
	m.AOMap = t
	m.RoughnessMap = t
	m.MetalnessMap = t
}

// Textures lists every non-nil slot, without duplicates.
func (m *Material) Textures() []*Texture {
	var out []*Texture
	seen := make(map[*Texture]bool)
	for _, t := range []*Texture{m.Map, m.AOMap, m.RoughnessMap, m.MetalnessMap, m.NormalMap, m.DisplacementMap, m.AlphaMap} {
		if t != nil && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
