package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"haunted-house/core"
)

// FrameTarget is the linear off-screen colour buffer the scene renders into,
// sized to the drawing buffer (logical size × pixel ratio). Blit resolves it
// to the window with sRGB encoding, scaling when the sizes differ.
type FrameTarget struct {
	FBO      uint32
	ColorTex uint32 // RGBA16F, linear
	DepthRB  uint32
	Width    int32
	Height   int32

	prog    uint32
	srcLoc  int32
	quadVAO uint32 // empty VAO for the fullscreen triangle
}

// ── Shaders ───────────────────────────────────────────────────────────────────

// fullscreenVertSrc is a fullscreen triangle via gl_VertexID (no VBO needed).
const fullscreenVertSrc = `
#version 410 core
out vec2 fragUV;
void main() {
    const vec2 pos[3] = vec2[3](
        vec2(-1.0, -1.0),
        vec2( 3.0, -1.0),
        vec2(-1.0,  3.0)
    );
    gl_Position = vec4(pos[gl_VertexID], 0.0, 1.0);
    fragUV      = pos[gl_VertexID] * 0.5 + 0.5;
}
` + "\x00"

// encodeFragSrc converts linear colour to sRGB with the piecewise transfer
// function. No tone mapping: values above 1 clip.
const encodeFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D src;

vec3 linearToSRGB(vec3 c) {
    c = clamp(c, 0.0, 1.0);
    vec3 lo = c * 12.92;
    vec3 hi = pow(c, vec3(0.41666)) * 1.055 - vec3(0.055);
    return mix(hi, lo, vec3(lessThanEqual(c, vec3(0.0031308))));
}

void main() {
    outColor = vec4(linearToSRGB(texture(src, fragUV).rgb), 1.0);
}
` + "\x00"

// ── Constructor ───────────────────────────────────────────────────────────────

// NewFrameTarget compiles the resolve shader and allocates the buffers.
func NewFrameTarget(width, height int) (*FrameTarget, error) {
	prog, err := newProgram(fullscreenVertSrc, encodeFragSrc)
	if err != nil {
		return nil, fmt.Errorf("resolve shader: %w", err)
	}
	ft := &FrameTarget{
		prog:   prog,
		srcLoc: uniformLocation(prog, "src"),
	}
	gl.UseProgram(prog)
	gl.Uniform1i(ft.srcLoc, 0)

	gl.GenVertexArrays(1, &ft.quadVAO)

	if err := ft.allocFBO(width, height); err != nil {
		ft.Destroy()
		return nil, err
	}
	return ft, nil
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

func (ft *FrameTarget) allocFBO(width, height int) error {
	ft.Width = int32(width)
	ft.Height = int32(height)

	gl.GenTextures(1, &ft.ColorTex)
	gl.BindTexture(gl.TEXTURE_2D, ft.ColorTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA16F,
		ft.Width, ft.Height, 0, gl.RGBA, gl.HALF_FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenRenderbuffers(1, &ft.DepthRB)
	gl.BindRenderbuffer(gl.RENDERBUFFER, ft.DepthRB)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, ft.Width, ft.Height)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	gl.GenFramebuffers(1, &ft.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, ft.FBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, ft.ColorTex, 0)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, ft.DepthRB)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("frame target incomplete: status=0x%X", status)
	}
	core.Log.Debug("Drawing buffer allocated", zap.Int32("width", ft.Width), zap.Int32("height", ft.Height))
	return nil
}

func (ft *FrameTarget) freeFBO() {
	if ft.FBO != 0 {
		gl.DeleteFramebuffers(1, &ft.FBO)
		ft.FBO = 0
	}
	if ft.ColorTex != 0 {
		gl.DeleteTextures(1, &ft.ColorTex)
		ft.ColorTex = 0
	}
	if ft.DepthRB != 0 {
		gl.DeleteRenderbuffers(1, &ft.DepthRB)
		ft.DepthRB = 0
	}
}

// Resize recreates the buffers at the new pixel size. An incomplete buffer
// is logged and rendering continues into it.
func (ft *FrameTarget) Resize(width, height int) {
	ft.freeFBO()
	if err := ft.allocFBO(width, height); err != nil {
		core.Log.Error("Drawing buffer resize", zap.Error(err))
	}
}

// Destroy frees all GPU resources owned by the target.
func (ft *FrameTarget) Destroy() {
	ft.freeFBO()
	if ft.prog != 0 {
		gl.DeleteProgram(ft.prog)
		ft.prog = 0
	}
	if ft.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &ft.quadVAO)
		ft.quadVAO = 0
	}
}

// ── Blit ──────────────────────────────────────────────────────────────────────

// Blit draws the colour buffer over the currently bound framebuffer and
// viewport.
func (ft *FrameTarget) Blit() {
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)
	gl.UseProgram(ft.prog)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, ft.ColorTex)
	gl.BindVertexArray(ft.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.Enable(gl.DEPTH_TEST)
}
