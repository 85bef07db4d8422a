package opengl

import (
	"fmt"
	"image"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"haunted-house/core"
	"haunted-house/scene"
)

// MaxPointLights is the number of point lights the main shader evaluates.
const MaxPointLights = 8

// Texture units used by the main shader.
const (
	unitMap uint32 = iota
	unitShadow
	unitNormal
	unitAO
	unitRoughness
	unitMetalness
	unitDisplacement
	unitAlpha
)

const defaultShadowBias = 0.002

// GPUMesh holds the OpenGL buffer objects for an uploaded geometry.
type GPUMesh struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	IndexCount int32
	HasIndices bool
}

// textureSlot is the uniform set of one sampled material map.
type textureSlot struct {
	unit       uint32
	samplerLoc int32
	hasLoc     int32
	repeatLoc  int32
}

// PointLight is a point light resolved to world space for one frame.
type PointLight struct {
	Light    *scene.Light
	Position mgl32.Vec3
}

// FrameLights is the lighting state of one frame.
type FrameLights struct {
	Ambient core.Color

	// Directional is nil when the scene has no directional light.
	Directional    *scene.Light
	DirectionalPos mgl32.Vec3

	Points []PointLight

	// LightViewProj maps world space into the shadow map; Shadows reports
	// whether the shadow map was rendered this frame.
	LightViewProj mgl32.Mat4
	Shadows       bool
}

// Renderer is the OpenGL rendering backend.
type Renderer struct {
	program uint32

	// Vertex transform uniforms
	viewProjLoc      int32
	modelLoc         int32
	normalMatrixLoc  int32
	lightViewProjLoc int32

	// Displacement (vertex stage)
	displacement         textureSlot
	displacementScaleLoc int32
	displacementBiasLoc  int32

	// Lighting uniforms: directional
	lightDirLoc     int32
	lightColorLoc   int32
	ambientColorLoc int32

	// Lighting uniforms: point lights
	pointLightCountLoc int32
	pointLightPosLoc   [MaxPointLights]int32
	pointLightColorLoc [MaxPointLights]int32
	pointLightRangeLoc [MaxPointLights]int32

	cameraPosLoc int32

	// Material uniforms
	matColorLoc      int32
	matOpacityLoc    int32
	matRoughnessLoc  int32
	matMetalnessLoc  int32
	matEmissiveLoc   int32
	aoIntensityLoc   int32
	unlitLoc         int32
	receiveShadowLoc int32

	// Fragment-stage maps
	colorMap     textureSlot
	normalMap    textureSlot
	aoMap        textureSlot
	roughnessMap textureSlot
	metalnessMap textureSlot
	alphaMap     textureSlot

	// Shadow map uniforms (main shader)
	shadowMapLoc   int32
	hasShadowsLoc  int32
	shadowTexelLoc int32
	shadowBiasLoc  int32

	// Shadow depth shader
	shadowProg              uint32
	shadowLightVPLoc        int32
	shadowModelLoc          int32
	shadowDisplacement      textureSlot
	shadowDisplacementScale int32
	shadowDisplacementBias  int32

	shadowMap *ShadowMap

	viewportW int32
	viewportH int32

	// Offscreen target at drawing-buffer resolution (nil until SetDrawingBuffer)
	target *FrameTarget

	sky     *Sky
	overlay *Overlay

	gpuMeshes map[*scene.Geometry]*GPUMesh
}

// ── Shaders ───────────────────────────────────────────────────────────────────

// vertex shader: optional displacement along the normal, world-space outputs
// and the light-space position for the shadow lookup.
const vertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec2 inUV;
layout(location = 3) in vec4 inColor;
layout(location = 4) in vec3 inTangent;
layout(location = 5) in vec3 inBitangent;

uniform mat4 viewProj;
uniform mat4 model;
uniform mat3 normalMatrix;
uniform mat4 lightViewProj;

// Displacement map (unit 6): red channel * scale + bias along the normal
uniform sampler2D displacementTex;
uniform bool      hasDisplacementTex;
uniform vec2      displacementRepeat;
uniform float     displacementScale;
uniform float     displacementBias;

out vec4 fragColor;
out vec3 fragNormal;
out vec2 fragUV;
out vec3 fragWorldPos;
out vec4 fragLightSpacePos;
out vec3 fragTangent;
out vec3 fragBitangent;

void main() {
    vec3 pos = inPosition;
    if (hasDisplacementTex) {
        float h = textureLod(displacementTex, inUV * displacementRepeat, 0.0).r;
        pos += normalize(inNormal) * (h * displacementScale + displacementBias);
    }

    vec4 worldPos     = model * vec4(pos, 1.0);
    gl_Position       = viewProj * worldPos;
    fragLightSpacePos = lightViewProj * worldPos;
    fragWorldPos      = worldPos.xyz;
    fragColor         = inColor;
    fragNormal        = normalMatrix * inNormal;
    fragTangent       = normalMatrix * inTangent;
    fragBitangent     = normalMatrix * inBitangent;
    fragUV            = inUV;
}
` + "\x00"

// fragment shader: metallic-roughness Cook-Torrance with one directional light
// (PCF shadowed), up to 8 point lights and an ambient term. Every map has its
// own UV repeat.
const fragSrc = `
#version 410 core
in vec4 fragColor;
in vec3 fragNormal;
in vec2 fragUV;
in vec3 fragWorldPos;
in vec4 fragLightSpacePos;
in vec3 fragTangent;
in vec3 fragBitangent;

out vec4 outColor;

// Directional light (lightColor is colour * intensity, zero when absent)
uniform vec3 lightDir;
uniform vec3 lightColor;
uniform vec3 ambientColor;

// Point lights (colour * intensity; range 0 = inverse-square only)
#define MAX_POINT_LIGHTS 8
uniform int   pointLightCount;
uniform vec3  pointLightPos[MAX_POINT_LIGHTS];
uniform vec3  pointLightColor[MAX_POINT_LIGHTS];
uniform float pointLightRange[MAX_POINT_LIGHTS];

uniform vec3 cameraPos;

// Material
uniform vec3  matColor;
uniform float matOpacity;
uniform float matRoughness;
uniform float matMetalness;
uniform vec3  matEmissive;
uniform float aoMapIntensity;
uniform bool  unlit;
uniform bool  receiveShadow;

// Maps: colour=0, normal=2, ao(R)=3, roughness(G)=4, metalness(B)=5, alpha(G)=7
uniform sampler2D colorTex;
uniform bool      hasColorTex;
uniform vec2      colorRepeat;
uniform sampler2D normalTex;
uniform bool      hasNormalTex;
uniform vec2      normalRepeat;
uniform sampler2D aoTex;
uniform bool      hasAoTex;
uniform vec2      aoRepeat;
uniform sampler2D roughnessTex;
uniform bool      hasRoughnessTex;
uniform vec2      roughnessRepeat;
uniform sampler2D metalnessTex;
uniform bool      hasMetalnessTex;
uniform vec2      metalnessRepeat;
uniform sampler2D alphaTex;
uniform bool      hasAlphaTex;
uniform vec2      alphaRepeat;

// Shadow map (unit 1), hardware depth comparison
uniform sampler2DShadow shadowMap;
uniform bool            hasShadows;
uniform float           shadowTexel;
uniform float           shadowBias;

// ── Shadow ───────────────────────────────────────────────────────────────────

float calcShadow() {
    vec3 p = fragLightSpacePos.xyz / fragLightSpacePos.w;
    p = p * 0.5 + 0.5;
    if (p.z > 1.0) return 1.0;
    float shadow = 0.0;
    for (int x = -1; x <= 1; x++) {
        for (int y = -1; y <= 1; y++) {
            shadow += texture(shadowMap, vec3(p.xy + vec2(float(x), float(y)) * shadowTexel, p.z - shadowBias));
        }
    }
    return shadow / 9.0;
}

// ── PBR helpers (Cook-Torrance BRDF) ─────────────────────────────────────────

const float PI = 3.14159265359;

float DistributionGGX(vec3 N, vec3 H, float roughness) {
    float a  = roughness * roughness;
    float a2 = a * a;
    float NdH = max(dot(N, H), 0.0);
    float d   = NdH * NdH * (a2 - 1.0) + 1.0;
    return a2 / (PI * d * d);
}

float GeometrySchlickGGX(float cosTheta, float roughness) {
    float r = roughness + 1.0;
    float k = (r * r) / 8.0;
    return cosTheta / (cosTheta * (1.0 - k) + k);
}

float GeometrySmith(float NdV, float NdL, float roughness) {
    return GeometrySchlickGGX(NdV, roughness) * GeometrySchlickGGX(NdL, roughness);
}

vec3 FresnelSchlick(float cosTheta, vec3 F0) {
    return F0 + (1.0 - F0) * pow(clamp(1.0 - cosTheta, 0.0, 1.0), 5.0);
}

// Evaluate one Cook-Torrance lobe. L = unit vector toward light, rad = light radiance.
vec3 evalPBR(vec3 N, vec3 V, vec3 L, vec3 rad, vec3 albedo, float metallic, float roughness, vec3 F0) {
    float NdL = max(dot(N, L), 0.0);
    if (NdL <= 0.0) return vec3(0.0);

    vec3  H   = normalize(V + L);
    float NdV = max(dot(N, V), 0.0);

    float D  = DistributionGGX(N, H, roughness);
    float G  = GeometrySmith(NdV, NdL, roughness);
    vec3  F  = FresnelSchlick(max(dot(H, V), 0.0), F0);

    vec3 kD       = (vec3(1.0) - F) * (1.0 - metallic);
    vec3 specular = D * G * F / max(4.0 * NdV * NdL, 0.001);

    return (kD * albedo / PI + specular) * rad * NdL;
}

float pointFalloff(float dist, float range) {
    float f = 1.0 / max(dist * dist, 0.01);
    if (range > 0.0) {
        float r = clamp(1.0 - pow(dist / range, 4.0), 0.0, 1.0);
        f *= r * r;
    }
    return f;
}

// ── Main ─────────────────────────────────────────────────────────────────────

void main() {
    vec4 baseColor = fragColor * vec4(matColor, matOpacity);
    if (hasColorTex) {
        baseColor *= texture(colorTex, fragUV * colorRepeat);
    }
    if (hasAlphaTex) {
        baseColor.a *= texture(alphaTex, fragUV * alphaRepeat).g;
    }

    if (unlit) {
        outColor = baseColor;
        return;
    }

    vec3 N = normalize(fragNormal);
    if (!gl_FrontFacing) N = -N;
    if (hasNormalTex) {
        vec3 T = normalize(fragTangent);
        vec3 B = normalize(fragBitangent);
        mat3 TBN = mat3(T, B, N);
        N = normalize(TBN * (texture(normalTex, fragUV * normalRepeat).rgb * 2.0 - 1.0));
    }
    vec3 V = normalize(cameraPos - fragWorldPos);

    float roughness = matRoughness;
    if (hasRoughnessTex) {
        roughness *= texture(roughnessTex, fragUV * roughnessRepeat).g;
    }
    roughness = clamp(roughness, 0.04, 1.0);
    float metallic = matMetalness;
    if (hasMetalnessTex) {
        metallic *= texture(metalnessTex, fragUV * metalnessRepeat).b;
    }
    float ao = 1.0;
    if (hasAoTex) {
        ao = (texture(aoTex, fragUV * aoRepeat).r - 1.0) * aoMapIntensity + 1.0;
    }

    vec3 albedo = baseColor.rgb;
    vec3 F0     = mix(vec3(0.04), albedo, metallic);

    vec3 color = ambientColor * albedo * (1.0 - metallic) / PI * ao;

    float shadowFactor = (hasShadows && receiveShadow) ? calcShadow() : 1.0;
    color += evalPBR(N, V, normalize(-lightDir), lightColor * shadowFactor, albedo, metallic, roughness, F0);

    for (int i = 0; i < pointLightCount && i < MAX_POINT_LIGHTS; i++) {
        vec3  toLight = pointLightPos[i] - fragWorldPos;
        float dist    = length(toLight);
        vec3  ptRad   = pointLightColor[i] * pointFalloff(dist, pointLightRange[i]);
        color += evalPBR(N, V, toLight / max(dist, 0.0001), ptRad, albedo, metallic, roughness, F0);
    }

    color += matEmissive;
    outColor = vec4(color, baseColor.a);
}
` + "\x00"

// depth-only vertex shader for the shadow map pass; displaced surfaces cast
// displaced shadows.
const depthVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec2 inUV;

uniform mat4 lightViewProj;
uniform mat4 model;

uniform sampler2D displacementTex;
uniform bool      hasDisplacementTex;
uniform vec2      displacementRepeat;
uniform float     displacementScale;
uniform float     displacementBias;

void main() {
    vec3 pos = inPosition;
    if (hasDisplacementTex) {
        float h = textureLod(displacementTex, inUV * displacementRepeat, 0.0).r;
        pos += normalize(inNormal) * (h * displacementScale + displacementBias);
    }
    gl_Position = lightViewProj * model * vec4(pos, 1.0);
}
` + "\x00"

// depth-only fragment shader (OpenGL writes depth implicitly)
const depthFragSrc = `
#version 410 core
void main() {}
` + "\x00"

// ── NewRenderer ───────────────────────────────────────────────────────────────

// NewRenderer initialises OpenGL.
// Must be called after the GLFW window context is made current.
func NewRenderer() (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	core.Log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))

	prog, err := newProgram(vertSrc, fragSrc)
	if err != nil {
		return nil, fmt.Errorf("main shader compile: %w", err)
	}

	shadowProg, err := newProgram(depthVertSrc, depthFragSrc)
	if err != nil {
		return nil, fmt.Errorf("depth shader compile: %w", err)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	loc := func(name string) int32 { return uniformLocation(prog, name) }
	r := &Renderer{
		program:    prog,
		shadowProg: shadowProg,

		viewProjLoc:      loc("viewProj"),
		modelLoc:         loc("model"),
		normalMatrixLoc:  loc("normalMatrix"),
		lightViewProjLoc: loc("lightViewProj"),

		displacement:         newTextureSlot(prog, unitDisplacement, "displacement"),
		displacementScaleLoc: loc("displacementScale"),
		displacementBiasLoc:  loc("displacementBias"),

		lightDirLoc:     loc("lightDir"),
		lightColorLoc:   loc("lightColor"),
		ambientColorLoc: loc("ambientColor"),

		pointLightCountLoc: loc("pointLightCount"),
		cameraPosLoc:       loc("cameraPos"),

		matColorLoc:      loc("matColor"),
		matOpacityLoc:    loc("matOpacity"),
		matRoughnessLoc:  loc("matRoughness"),
		matMetalnessLoc:  loc("matMetalness"),
		matEmissiveLoc:   loc("matEmissive"),
		aoIntensityLoc:   loc("aoMapIntensity"),
		unlitLoc:         loc("unlit"),
		receiveShadowLoc: loc("receiveShadow"),

		colorMap:     newTextureSlot(prog, unitMap, "color"),
		normalMap:    newTextureSlot(prog, unitNormal, "normal"),
		aoMap:        newTextureSlot(prog, unitAO, "ao"),
		roughnessMap: newTextureSlot(prog, unitRoughness, "roughness"),
		metalnessMap: newTextureSlot(prog, unitMetalness, "metalness"),
		alphaMap:     newTextureSlot(prog, unitAlpha, "alpha"),

		shadowMapLoc:   loc("shadowMap"),
		hasShadowsLoc:  loc("hasShadows"),
		shadowTexelLoc: loc("shadowTexel"),
		shadowBiasLoc:  loc("shadowBias"),

		shadowLightVPLoc:        uniformLocation(shadowProg, "lightViewProj"),
		shadowModelLoc:          uniformLocation(shadowProg, "model"),
		shadowDisplacement:      newTextureSlot(shadowProg, unitDisplacement, "displacement"),
		shadowDisplacementScale: uniformLocation(shadowProg, "displacementScale"),
		shadowDisplacementBias:  uniformLocation(shadowProg, "displacementBias"),

		gpuMeshes: make(map[*scene.Geometry]*GPUMesh),
	}

	for i := 0; i < MaxPointLights; i++ {
		r.pointLightPosLoc[i] = loc(fmt.Sprintf("pointLightPos[%d]", i))
		r.pointLightColorLoc[i] = loc(fmt.Sprintf("pointLightColor[%d]", i))
		r.pointLightRangeLoc[i] = loc(fmt.Sprintf("pointLightRange[%d]", i))
	}

	gl.UseProgram(prog)
	for _, s := range []textureSlot{r.colorMap, r.normalMap, r.aoMap, r.roughnessMap, r.metalnessMap, r.displacement, r.alphaMap} {
		gl.Uniform1i(s.samplerLoc, int32(s.unit))
	}
	gl.Uniform1i(r.shadowMapLoc, int32(unitShadow))

	// Identity so the shadow lookup is safe while shadows are off
	ident := mgl32.Ident4()
	gl.UniformMatrix4fv(r.lightViewProjLoc, 1, false, &ident[0])

	gl.UseProgram(shadowProg)
	gl.Uniform1i(r.shadowDisplacement.samplerLoc, int32(unitDisplacement))

	return r, nil
}

func newTextureSlot(prog, unit uint32, name string) textureSlot {
	return textureSlot{
		unit:       unit,
		samplerLoc: uniformLocation(prog, name+"Tex"),
		hasLoc:     uniformLocation(prog, "has"+strings.ToUpper(name[:1])+name[1:]+"Tex"),
		repeatLoc:  uniformLocation(prog, name+"Repeat"),
	}
}

func uniformLocation(prog uint32, name string) int32 {
	return gl.GetUniformLocation(prog, gl.Str(name+"\x00"))
}

// ── Viewport ──────────────────────────────────────────────────────────────────

// SetViewport stores the window framebuffer size the final image is shown at.
func (r *Renderer) SetViewport(width, height int) {
	r.viewportW = int32(width)
	r.viewportH = int32(height)
	gl.Viewport(0, 0, int32(width), int32(height))
}

// SetDrawingBuffer (re)creates the offscreen colour target at the given pixel
// size. The scene is rendered there and scaled onto the window in Present.
func (r *Renderer) SetDrawingBuffer(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if r.target == nil {
		t, err := NewFrameTarget(width, height)
		if err != nil {
			return fmt.Errorf("frame target: %w", err)
		}
		r.target = t
		return nil
	}
	if int(r.target.Width) != width || int(r.target.Height) != height {
		r.target.Resize(width, height)
	}
	return nil
}

// ── Shadow map ────────────────────────────────────────────────────────────────

// EnableShadows creates (or resizes) the depth FBO.
func (r *Renderer) EnableShadows(size int) error {
	if r.shadowMap != nil {
		if int(r.shadowMap.Size) == size {
			return nil
		}
		r.shadowMap.Destroy()
		r.shadowMap = nil
	}
	sm, err := NewShadowMap(size)
	if err != nil {
		return err
	}
	r.shadowMap = sm
	return nil
}

// BeginShadowPass binds the depth FBO and the depth-only program.
func (r *Renderer) BeginShadowPass(lightViewProj mgl32.Mat4) {
	if r.shadowMap == nil {
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, r.shadowMap.FBO)
	gl.Viewport(0, 0, r.shadowMap.Size, r.shadowMap.Size)
	gl.Clear(gl.DEPTH_BUFFER_BIT)
	gl.UseProgram(r.shadowProg)
	gl.UniformMatrix4fv(r.shadowLightVPLoc, 1, false, &lightViewProj[0])
}

// DrawMeshShadow draws a mesh into the depth buffer.
func (r *Renderer) DrawMeshShadow(mesh *scene.Mesh, model mgl32.Mat4) {
	if r.shadowMap == nil {
		return
	}
	gpu := r.ensureUploaded(mesh.Geometry)
	if gpu == nil {
		return
	}
	gl.UniformMatrix4fv(r.shadowModelLoc, 1, false, &model[0])

	mat := mesh.Material
	if mat == nil {
		mat = scene.DefaultMaterial()
	}
	r.bindSlot(r.shadowDisplacement, mat.DisplacementMap)
	gl.Uniform1f(r.shadowDisplacementScale, mat.DisplacementScale)
	gl.Uniform1f(r.shadowDisplacementBias, mat.DisplacementBias)

	drawGeometry(gpu)
}

// EndShadowPass restores the default framebuffer and viewport.
func (r *Renderer) EndShadowPass() {
	if r.shadowMap == nil {
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, r.viewportW, r.viewportH)
}

// ── BeginFrame ────────────────────────────────────────────────────────────────

// BeginFrame binds the drawing buffer, clears it and sets per-frame camera and
// lighting uniforms.
func (r *Renderer) BeginFrame(clear core.Color, viewProj mgl32.Mat4, camPos mgl32.Vec3, lights FrameLights) {
	if r.target != nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, r.target.FBO)
		gl.Viewport(0, 0, r.target.Width, r.target.Height)
	} else {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.Viewport(0, 0, r.viewportW, r.viewportH)
	}
	gl.DepthMask(true)
	gl.ClearColor(clear.R, clear.G, clear.B, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.viewProjLoc, 1, false, &viewProj[0])
	gl.Uniform3f(r.cameraPosLoc, camPos.X(), camPos.Y(), camPos.Z())
	gl.Uniform3f(r.ambientColorLoc, lights.Ambient.R, lights.Ambient.G, lights.Ambient.B)

	gl.UniformMatrix4fv(r.lightViewProjLoc, 1, false, &lights.LightViewProj[0])
	if lights.Shadows && r.shadowMap != nil {
		gl.ActiveTexture(gl.TEXTURE0 + unitShadow)
		gl.BindTexture(gl.TEXTURE_2D, r.shadowMap.DepthTex)
		gl.Uniform1i(r.hasShadowsLoc, 1)
		gl.Uniform1f(r.shadowTexelLoc, 1/float32(r.shadowMap.Size))
		bias := float32(defaultShadowBias)
		if lights.Directional != nil && lights.Directional.Shadow.Bias != 0 {
			bias = lights.Directional.Shadow.Bias
		}
		gl.Uniform1f(r.shadowBiasLoc, bias)
	} else {
		gl.Uniform1i(r.hasShadowsLoc, 0)
	}

	if l := lights.Directional; l != nil {
		dir := l.Direction(lights.DirectionalPos)
		rad := l.Radiance()
		gl.Uniform3f(r.lightDirLoc, dir.X(), dir.Y(), dir.Z())
		gl.Uniform3f(r.lightColorLoc, rad.R, rad.G, rad.B)
	} else {
		gl.Uniform3f(r.lightDirLoc, 0, -1, 0)
		gl.Uniform3f(r.lightColorLoc, 0, 0, 0)
	}

	count := 0
	for _, p := range lights.Points {
		if count == MaxPointLights {
			core.Log.Debug("Point light limit reached", zap.Int("lights", len(lights.Points)))
			break
		}
		rad := p.Light.Radiance()
		gl.Uniform3f(r.pointLightPosLoc[count], p.Position.X(), p.Position.Y(), p.Position.Z())
		gl.Uniform3f(r.pointLightColorLoc[count], rad.R, rad.G, rad.B)
		gl.Uniform1f(r.pointLightRangeLoc[count], p.Light.Range)
		count++
	}
	gl.Uniform1i(r.pointLightCountLoc, int32(count))
}

// ── DrawMesh ──────────────────────────────────────────────────────────────────

// DrawMesh draws a mesh with its material. Transparent materials are alpha
// blended; the caller orders them back to front.
func (r *Renderer) DrawMesh(mesh *scene.Mesh, model mgl32.Mat4, receiveShadow bool) {
	gpu := r.ensureUploaded(mesh.Geometry)
	if gpu == nil {
		return
	}

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.modelLoc, 1, false, &model[0])
	normal := model.Mat3().Inv().Transpose()
	gl.UniformMatrix3fv(r.normalMatrixLoc, 1, false, &normal[0])
	gl.Uniform1i(r.receiveShadowLoc, boolToInt32(receiveShadow))

	mat := mesh.Material
	if mat == nil {
		mat = scene.DefaultMaterial()
	}
	r.applyMaterial(mat)

	if mat.Transparent {
		gl.Enable(gl.BLEND)
		gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA, gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	}
	drawGeometry(gpu)
	if mat.Transparent {
		gl.Disable(gl.BLEND)
	}
}

// applyMaterial sets all material-related shader uniforms and binds textures.
// Must be called while r.program is active.
func (r *Renderer) applyMaterial(mat *scene.Material) {
	gl.Uniform3f(r.matColorLoc, mat.Color.R, mat.Color.G, mat.Color.B)
	gl.Uniform1f(r.matOpacityLoc, mat.Opacity)
	gl.Uniform1f(r.matRoughnessLoc, mat.Roughness)
	gl.Uniform1f(r.matMetalnessLoc, mat.Metalness)
	gl.Uniform3f(r.matEmissiveLoc, mat.Emissive.R, mat.Emissive.G, mat.Emissive.B)
	gl.Uniform1f(r.aoIntensityLoc, mat.AOMapIntensity)
	gl.Uniform1i(r.unlitLoc, boolToInt32(mat.Unlit))

	r.bindSlot(r.colorMap, mat.Map)
	r.bindSlot(r.normalMap, mat.NormalMap)
	r.bindSlot(r.aoMap, mat.AOMap)
	r.bindSlot(r.roughnessMap, mat.RoughnessMap)
	r.bindSlot(r.metalnessMap, mat.MetalnessMap)
	r.bindSlot(r.alphaMap, mat.AlphaMap)

	r.bindSlot(r.displacement, mat.DisplacementMap)
	gl.Uniform1f(r.displacementScaleLoc, mat.DisplacementScale)
	gl.Uniform1f(r.displacementBiasLoc, mat.DisplacementBias)
}

// bindSlot binds tex to the slot's unit. Textures that are not ready or not
// uploaded leave the slot unset.
func (r *Renderer) bindSlot(s textureSlot, tex *scene.Texture) {
	if !tex.Ready() || tex.GLID == 0 {
		gl.Uniform1i(s.hasLoc, 0)
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + s.unit)
	gl.BindTexture(gl.TEXTURE_2D, tex.GLID)
	gl.Uniform1i(s.hasLoc, 1)
	gl.Uniform2f(s.repeatLoc, tex.Params.Repeat.X(), tex.Params.Repeat.Y())
}

// ── Sky ───────────────────────────────────────────────────────────────────────

// DrawSky renders the analytic sky behind everything drawn so far. The sky
// program is compiled on first use.
func (r *Renderer) DrawSky(sky *scene.Sky, viewProj mgl32.Mat4, camPos mgl32.Vec3) {
	if sky == nil {
		return
	}
	if r.sky == nil {
		s, err := NewSky()
		if err != nil {
			core.Log.Error("Sky disabled", zap.Error(err))
			return
		}
		r.sky = s
	}
	r.sky.Draw(sky, viewProj, camPos)
}

// ── Present ───────────────────────────────────────────────────────────────────

// Present scales the drawing buffer onto the window framebuffer with sRGB
// encoding, then composites img (if any) on top.
func (r *Renderer) Present(img *image.RGBA) {
	if r.target != nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.Viewport(0, 0, r.viewportW, r.viewportH)
		r.target.Blit()
	}
	if img == nil {
		return
	}
	if r.overlay == nil {
		o, err := NewOverlay()
		if err != nil {
			core.Log.Error("Overlay disabled", zap.Error(err))
			return
		}
		r.overlay = o
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, r.viewportW, r.viewportH)
	r.overlay.Draw(img)
}

// ── Resource management ───────────────────────────────────────────────────────

// ReleaseGeometry frees GPU buffers for the given geometry.
func (r *Renderer) ReleaseGeometry(g *scene.Geometry) {
	if gpu, ok := r.gpuMeshes[g]; ok {
		gl.DeleteVertexArrays(1, &gpu.VAO)
		gl.DeleteBuffers(1, &gpu.VBO)
		if gpu.HasIndices {
			gl.DeleteBuffers(1, &gpu.EBO)
		}
		delete(r.gpuMeshes, g)
		g.GPUData = nil
	}
}

// Destroy releases all GPU resources.
func (r *Renderer) Destroy() {
	for g := range r.gpuMeshes {
		r.ReleaseGeometry(g)
	}
	if r.shadowMap != nil {
		r.shadowMap.Destroy()
	}
	if r.target != nil {
		r.target.Destroy()
	}
	if r.sky != nil {
		r.sky.Destroy()
	}
	if r.overlay != nil {
		r.overlay.Destroy()
	}
	gl.DeleteProgram(r.shadowProg)
	gl.DeleteProgram(r.program)
}

// ── Internal helpers ──────────────────────────────────────────────────────────

// ensureUploaded uploads vertex/index data if not already done. Shared
// geometries are uploaded once.
func (r *Renderer) ensureUploaded(g *scene.Geometry) *GPUMesh {
	if g == nil {
		return nil
	}
	if gpu, ok := r.gpuMeshes[g]; ok {
		return gpu
	}
	if len(g.Vertices) == 0 {
		return nil
	}

	stride := int32(unsafe.Sizeof(core.Vertex{}))

	gpu := &GPUMesh{
		IndexCount: int32(len(g.Indices)),
		HasIndices: len(g.Indices) > 0,
	}
	if !gpu.HasIndices {
		gpu.IndexCount = int32(len(g.Vertices))
	}

	gl.GenVertexArrays(1, &gpu.VAO)
	gl.GenBuffers(1, &gpu.VBO)
	gl.BindVertexArray(gpu.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, gpu.VBO)
	gl.BufferData(gl.ARRAY_BUFFER,
		len(g.Vertices)*int(stride),
		gl.Ptr(g.Vertices),
		gl.STATIC_DRAW)

	var v core.Vertex
	posOff := int(unsafe.Offsetof(v.Position))
	normOff := int(unsafe.Offsetof(v.Normal))
	uvOff := int(unsafe.Offsetof(v.UV))
	colorOff := int(unsafe.Offsetof(v.Color))
	tangentOff := int(unsafe.Offsetof(v.Tangent))
	bitangentOff := int(unsafe.Offsetof(v.Bitangent))

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(posOff))

	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(normOff))

	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, stride, gl.PtrOffset(uvOff))

	gl.EnableVertexAttribArray(3)
	gl.VertexAttribPointer(3, 4, gl.FLOAT, false, stride, gl.PtrOffset(colorOff))

	gl.EnableVertexAttribArray(4)
	gl.VertexAttribPointer(4, 3, gl.FLOAT, false, stride, gl.PtrOffset(tangentOff))

	gl.EnableVertexAttribArray(5)
	gl.VertexAttribPointer(5, 3, gl.FLOAT, false, stride, gl.PtrOffset(bitangentOff))

	if gpu.HasIndices {
		gl.GenBuffers(1, &gpu.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gpu.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER,
			len(g.Indices)*4,
			gl.Ptr(g.Indices),
			gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)

	r.gpuMeshes[g] = gpu
	g.GPUData = gpu
	return gpu
}

func drawGeometry(gpu *GPUMesh) {
	gl.BindVertexArray(gpu.VAO)
	if gpu.HasIndices {
		gl.DrawElements(gl.TRIANGLES, gpu.IndexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, gpu.IndexCount)
	}
	gl.BindVertexArray(0)
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// ── Shader helpers ────────────────────────────────────────────────────────────

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		return 0, fmt.Errorf("link failed: %v", log)
	}

	gl.DeleteShader(vert)
	gl.DeleteShader(frag)
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}
