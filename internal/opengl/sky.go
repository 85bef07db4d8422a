package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"haunted-house/scene"
)

// Sky renders the Preetham daylight model on the inside of a cube centred on
// the world origin. The vertex shader uses the xyww trick so every fragment
// lands on the far plane, behind scene geometry.
type Sky struct {
	vao  uint32
	vbo  uint32
	prog uint32

	vpLoc        int32
	modelLoc     int32
	cameraPosLoc int32
	sunLoc       int32
	upLoc        int32
	turbidityLoc int32
	rayleighLoc  int32
	mieCoeffLoc  int32
	mieDirGLoc   int32
	exposureLoc  int32
}

// ── Shaders ───────────────────────────────────────────────────────────────────

// skyVertSrc computes the per-vertex scattering coefficients: sun intensity
// from its zenith angle, Rayleigh and Mie extinction.
const skyVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;

uniform mat4  viewProj;
uniform mat4  model;
uniform vec3  sunPosition;
uniform vec3  up;
uniform float rayleigh;
uniform float turbidity;
uniform float mieCoefficient;

out vec3  vWorldPosition;
out vec3  vSunDirection;
out float vSunfade;
out vec3  vBetaR;
out vec3  vBetaM;
out float vSunE;

const float e = 2.71828182845904523536028747135266249775724709369995957;

// Rayleigh total scattering for the 680/550/450 nm primaries
const vec3 totalRayleigh = vec3(5.804542996261093E-6, 1.3562911419845635E-5, 3.0265902468824876E-5);
// pi * ((2 pi) / lambda)^(v - 2) * K, v = 4
const vec3 MieConst = vec3(1.8399918514433978E14, 2.7798023919660528E14, 4.0790479543861094E14);

// earth shadow: pi / 1.95
const float cutoffAngle = 1.6110731556870734;
const float steepness   = 1.5;
const float EE          = 1000.0;

float sunIntensity(float zenithAngleCos) {
    zenithAngleCos = clamp(zenithAngleCos, -1.0, 1.0);
    return EE * max(0.0, 1.0 - pow(e, -((cutoffAngle - acos(zenithAngleCos)) / steepness)));
}

vec3 totalMie(float T) {
    float c = (0.2 * T) * 10E-18;
    return 0.434 * c * MieConst;
}

void main() {
    vec4 worldPosition = model * vec4(inPosition, 1.0);
    vWorldPosition = worldPosition.xyz;

    vec4 pos = viewProj * worldPosition;
    gl_Position = pos.xyww;

    vSunDirection = normalize(sunPosition);
    vSunE = sunIntensity(dot(vSunDirection, up));
    vSunfade = 1.0 - clamp(1.0 - exp(sunPosition.y / 450000.0), 0.0, 1.0);

    float rayleighCoefficient = rayleigh - (1.0 * (1.0 - vSunfade));
    vBetaR = totalRayleigh * rayleighCoefficient;
    vBetaM = totalMie(turbidity) * mieCoefficient;
}
` + "\x00"

// skyFragSrc integrates in-scattering along the view ray and adds the solar
// disc. Output is linear.
const skyFragSrc = `
#version 410 core
in vec3  vWorldPosition;
in vec3  vSunDirection;
in float vSunfade;
in vec3  vBetaR;
in vec3  vBetaM;
in float vSunE;

out vec4 outColor;

uniform vec3  cameraPos;
uniform vec3  up;
uniform float mieDirectionalG;
uniform float exposure;

const float pi = 3.141592653589793238462643383279502884197169;

// optical length at zenith for molecules
const float rayleighZenithLength = 8.4E3;
const float mieZenithLength      = 1.25E3;
// 66 arc seconds
const float sunAngularDiameterCos = 0.999956676946448443553574619906976478926848692873900859324;

const float THREE_OVER_SIXTEENPI = 0.05968310365946075;
const float ONE_OVER_FOURPI      = 0.07957747154594767;

float rayleighPhase(float cosTheta) {
    return THREE_OVER_SIXTEENPI * (1.0 + pow(cosTheta, 2.0));
}

float hgPhase(float cosTheta, float g) {
    float g2 = pow(g, 2.0);
    float inverse = 1.0 / pow(1.0 - 2.0 * g * cosTheta + g2, 1.5);
    return ONE_OVER_FOURPI * ((1.0 - g2) * inverse);
}

void main() {
    vec3 direction = normalize(vWorldPosition - cameraPos);

    // cutoff at 90 degrees avoids the singularity below
    float zenithAngle = acos(max(0.0, dot(up, direction)));
    float inverse = 1.0 / (cos(zenithAngle) + 0.15 * pow(93.885 - ((zenithAngle * 180.0) / pi), -1.253));
    float sR = rayleighZenithLength * inverse;
    float sM = mieZenithLength * inverse;

    vec3 Fex = exp(-(vBetaR * sR + vBetaM * sM));

    float cosTheta = dot(direction, vSunDirection);
    vec3 betaRTheta = vBetaR * rayleighPhase(cosTheta * 0.5 + 0.5);
    vec3 betaMTheta = vBetaM * hgPhase(cosTheta, mieDirectionalG);

    vec3 scatter = vSunE * ((betaRTheta + betaMTheta) / (vBetaR + vBetaM));
    vec3 Lin = pow(scatter * (1.0 - Fex), vec3(1.5));
    Lin *= mix(vec3(1.0), pow(scatter * Fex, vec3(0.5)), clamp(pow(1.0 - dot(up, vSunDirection), 5.0), 0.0, 1.0));

    vec3 L0 = vec3(0.1) * Fex;
    float sundisk = smoothstep(sunAngularDiameterCos, sunAngularDiameterCos + 0.00002, cosTheta);
    L0 += (vSunE * 19000.0 * Fex) * sundisk;

    vec3 texColor = (Lin + L0) * 0.04 + vec3(0.0, 0.0003, 0.00075);
    vec3 retColor = pow(texColor, vec3(1.0 / (1.2 + (1.2 * vSunfade))));

    outColor = vec4(retColor * exposure, 1.0);
}
` + "\x00"

// ── Cube geometry ─────────────────────────────────────────────────────────────

// 36 positions (xyz) for a unit cube, CCW from the outside. Face culling is
// off while drawing so the inside faces show.
var skyCubeVerts = []float32{
	// -Z face
	-1, -1, -1, 1, 1, -1, 1, -1, -1,
	1, 1, -1, -1, -1, -1, -1, 1, -1,
	// +Z face
	-1, -1, 1, 1, -1, 1, 1, 1, 1,
	1, 1, 1, -1, 1, 1, -1, -1, 1,
	// -X face
	-1, 1, 1, -1, 1, -1, -1, -1, -1,
	-1, -1, -1, -1, -1, 1, -1, 1, 1,
	// +X face
	1, 1, 1, 1, -1, -1, 1, 1, -1,
	1, -1, -1, 1, 1, 1, 1, -1, 1,
	// -Y face
	-1, -1, -1, 1, -1, -1, 1, -1, 1,
	1, -1, 1, -1, -1, 1, -1, -1, -1,
	// +Y face
	-1, 1, -1, 1, 1, 1, 1, 1, -1,
	1, 1, 1, -1, 1, -1, -1, 1, 1,
}

// ── Constructor ───────────────────────────────────────────────────────────────

// NewSky compiles the sky shader and uploads the cube.
func NewSky() (*Sky, error) {
	prog, err := newProgram(skyVertSrc, skyFragSrc)
	if err != nil {
		return nil, fmt.Errorf("sky shader: %w", err)
	}

	s := &Sky{
		prog:         prog,
		vpLoc:        uniformLocation(prog, "viewProj"),
		modelLoc:     uniformLocation(prog, "model"),
		cameraPosLoc: uniformLocation(prog, "cameraPos"),
		sunLoc:       uniformLocation(prog, "sunPosition"),
		upLoc:        uniformLocation(prog, "up"),
		turbidityLoc: uniformLocation(prog, "turbidity"),
		rayleighLoc:  uniformLocation(prog, "rayleigh"),
		mieCoeffLoc:  uniformLocation(prog, "mieCoefficient"),
		mieDirGLoc:   uniformLocation(prog, "mieDirectionalG"),
		exposureLoc:  uniformLocation(prog, "exposure"),
	}

	gl.GenVertexArrays(1, &s.vao)
	gl.GenBuffers(1, &s.vbo)
	gl.BindVertexArray(s.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(skyCubeVerts)*4, gl.Ptr(skyCubeVerts), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 12, gl.PtrOffset(0))
	gl.BindVertexArray(0)

	return s, nil
}

// ── Draw ──────────────────────────────────────────────────────────────────────

// Draw renders params with the scene camera. The cube spans Scale world
// units on each side.
func (s *Sky) Draw(params *scene.Sky, viewProj mgl32.Mat4, camPos mgl32.Vec3) {
	// LEQUAL lets depth=1.0 fragments pass against the cleared depth; the mask
	// keeps the far plane free for transparent geometry drawn afterwards.
	gl.DepthFunc(gl.LEQUAL)
	gl.DepthMask(false)

	half := params.Scale * 0.5
	if half <= 0 {
		half = 0.5
	}
	model := mgl32.Scale3D(half, half, half)
	exposure := params.Exposure
	if exposure <= 0 {
		exposure = 1
	}

	gl.UseProgram(s.prog)
	gl.UniformMatrix4fv(s.vpLoc, 1, false, &viewProj[0])
	gl.UniformMatrix4fv(s.modelLoc, 1, false, &model[0])
	gl.Uniform3f(s.cameraPosLoc, camPos.X(), camPos.Y(), camPos.Z())
	gl.Uniform3f(s.sunLoc, params.SunPosition.X(), params.SunPosition.Y(), params.SunPosition.Z())
	gl.Uniform3f(s.upLoc, 0, 1, 0)
	gl.Uniform1f(s.turbidityLoc, params.Turbidity)
	gl.Uniform1f(s.rayleighLoc, params.Rayleigh)
	gl.Uniform1f(s.mieCoeffLoc, params.MieCoefficient)
	gl.Uniform1f(s.mieDirGLoc, params.MieDirectionalG)
	gl.Uniform1f(s.exposureLoc, exposure)

	gl.BindVertexArray(s.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 36)
	gl.BindVertexArray(0)

	gl.DepthMask(true)
	gl.DepthFunc(gl.LESS)
}

// Destroy frees all GPU resources owned by the sky.
func (s *Sky) Destroy() {
	gl.DeleteVertexArrays(1, &s.vao)
	gl.DeleteBuffers(1, &s.vbo)
	gl.DeleteProgram(s.prog)
}
