package scene

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// WrapMode selects how UVs outside [0,1] are sampled.
type WrapMode int

const (
	WrapClamp WrapMode = iota
	WrapRepeat
)

// ColorSpace tags how texel values are encoded.
type ColorSpace int

const (
	ColorSpaceLinear ColorSpace = iota
	ColorSpaceSRGB
)

// TextureState is the load state of a texture handle.
type TextureState int

const (
	TexturePending TextureState = iota
	TextureReady
	TextureFailed
)

func (s TextureState) String() string {
	switch s {
	case TexturePending:
		return "pending"
	case TextureReady:
		return "ready"
	case TextureFailed:
		return "failed"
	}
	return fmt.Sprintf("TextureState(%d)", int(s))
}

// TextureParams are the sampling parameters configured at load time.
type TextureParams struct {
	WrapS, WrapT WrapMode
	Repeat       mgl32.Vec2
	ColorSpace   ColorSpace
}

// DefaultTextureParams returns clamp wrapping, no repeat and linear data.
func DefaultTextureParams() TextureParams {
	return TextureParams{Repeat: mgl32.Vec2{1, 1}}
}

// Repeating returns params with repeat wrapping on both axes.
func (p TextureParams) Repeating(u, v float32) TextureParams {
	p.WrapS, p.WrapT = WrapRepeat, WrapRepeat
	p.Repeat = mgl32.Vec2{u, v}
	return p
}

// SRGB returns params tagged as sRGB colour data.
func (p TextureParams) SRGB() TextureParams {
	p.ColorSpace = ColorSpaceSRGB
	return p
}

// Texture is a handle to image data that may still be loading. Materials hold
// the handle from the start; the renderer samples it only once it is Ready.
type Texture struct {
	Name   string
	Params TextureParams
	State  TextureState
	Err    error

	Width  int
	Height int
	// Pixels in RGBA8 format (4 bytes per pixel, row-major, bottom-to-top).
	Pixels []byte

	// GLID is the OpenGL texture object ID, set by opengl.UploadTexture.
	GLID uint32
	// Revision increments every time new pixels arrive (hot reload).
	Revision int
}

// NewTexture returns a pending handle.
func NewTexture(name string, params TextureParams) *Texture {
	return &Texture{Name: name, Params: params, State: TexturePending}
}

// Ready reports whether the texture can be sampled.
func (t *Texture) Ready() bool {
	return t != nil && t.State == TextureReady
}

// Resolve stores decoded pixels and marks the handle Ready.
func (t *Texture) Resolve(img *Image) {
	t.Width = img.Width
	t.Height = img.Height
	t.Pixels = img.Pixels
	t.State = TextureReady
	t.Err = nil
	t.Revision++
}

// Fail marks the handle Failed. A failed texture behaves like an unset slot.
func (t *Texture) Fail(err error) {
	t.State = TextureFailed
	t.Err = err
}

// Image is decoded RGBA8 pixel data, flipped so row 0 is the bottom row.
type Image struct {
	Width, Height int
	Pixels        []byte
}

// DecodeImageFile reads a PNG, JPEG or WebP file from disk.
func DecodeImageFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	defer f.Close()

	img, err := DecodeImage(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", path, err)
	}
	return img, nil
}

// DecodeImage decodes any registered image format into flipped RGBA8.
func DecodeImage(r io.Reader) (*Image, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return FromImage(src), nil
}

// FromImage converts img to RGBA8 with the first row at the bottom, which is
// what OpenGL expects for UVs with v pointing up.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	stride := w * 4
	flipped := make([]byte, len(rgba.Pix))
	for y := 0; y < h; y++ {
		copy(flipped[(h-1-y)*stride:(h-y)*stride], rgba.Pix[y*rgba.Stride:y*rgba.Stride+stride])
	}
	return &Image{Width: w, Height: h, Pixels: flipped}
}
