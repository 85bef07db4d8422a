package opengl

import (
	"fmt"
	"image"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// Overlay composites a CPU-drawn RGBA image over the window. It replaces
// glyph-by-glyph text drawing: the debug panel and HUD rasterise into the
// image and the GPU only sees one texture per frame.
type Overlay struct {
	prog    uint32
	srcLoc  int32
	quadVAO uint32

	tex        uint32
	texW, texH int
}

// overlayFragSrc samples the image top row first. image.RGBA holds
// premultiplied alpha, which the blend function expects.
const overlayFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D src;

void main() {
    outColor = texture(src, vec2(fragUV.x, 1.0 - fragUV.y));
}
` + "\x00"

// NewOverlay compiles the overlay shader.
func NewOverlay() (*Overlay, error) {
	prog, err := newProgram(fullscreenVertSrc, overlayFragSrc)
	if err != nil {
		return nil, fmt.Errorf("overlay shader: %w", err)
	}
	o := &Overlay{prog: prog, srcLoc: uniformLocation(prog, "src")}
	gl.UseProgram(prog)
	gl.Uniform1i(o.srcLoc, 0)
	gl.GenVertexArrays(1, &o.quadVAO)
	gl.GenTextures(1, &o.tex)
	return o, nil
}

// Draw uploads img and blends it over the bound framebuffer.
func (o *Overlay) Draw(img *image.RGBA) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return
	}

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, o.tex)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	if w != o.texW || h != o.texH {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0,
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
		o.texW, o.texH = w, h
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(w), int32(h),
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	}
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)

	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)

	gl.UseProgram(o.prog)
	gl.BindVertexArray(o.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)

	gl.Disable(gl.BLEND)
	gl.Enable(gl.DEPTH_TEST)
}

// Destroy frees the overlay's GPU resources.
func (o *Overlay) Destroy() {
	gl.DeleteTextures(1, &o.tex)
	gl.DeleteVertexArrays(1, &o.quadVAO)
	gl.DeleteProgram(o.prog)
}
