package renderer

import (
	"fmt"
	"image"
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"haunted-house/core"
	"haunted-house/internal/opengl"
	"haunted-house/platform"
	"haunted-house/scene"
)

const fallbackShadowMapSize = 512

// RenderEngine is the high-level renderer that drives the OpenGL backend.
type RenderEngine struct {
	gl     *opengl.Renderer
	window *platform.Window

	// ShadowsEnabled lets shadow-casting directional lights render their
	// shadow map. Turned off for good if the map cannot be created.
	ShadowsEnabled bool

	// Overlay queued by DrawOverlay, composited in Present
	overlay *image.RGBA

	// Per-frame stats (populated during Render)
	lastObjects   int
	lastTriangles int
	lastCulled    int
}

func NewRenderEngine(window *platform.Window) (*RenderEngine, error) {
	glRenderer, err := opengl.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenGL renderer: %w", err)
	}

	fbw, fbh := window.GetFramebufferSize()
	glRenderer.SetViewport(fbw, fbh)

	core.Log.Info("Render engine initialized",
		zap.String("backend", "opengl"),
		zap.Int("framebufferWidth", fbw),
		zap.Int("framebufferHeight", fbh))
	return &RenderEngine{
		gl:             glRenderer,
		window:         window,
		ShadowsEnabled: true,
	}, nil
}

// Render draws s from s.Camera into the drawing buffer: shadow pass, opaque
// meshes, sky, then transparent meshes back to front.
func (re *RenderEngine) Render(s *scene.Scene) error {
	if s == nil || s.Camera == nil {
		return fmt.Errorf("no scene or camera")
	}
	cam := s.Camera

	dl := scene.BuildDrawList(s, cam)
	lights := collectLights(s)

	// ── Shadow pass ───────────────────────────────────────────────────────────
	if re.ShadowsEnabled && lights.Directional != nil && lights.Directional.CastShadow {
		size := lights.Directional.Shadow.MapSize
		if size <= 0 {
			size = fallbackShadowMapSize
		}
		if err := re.gl.EnableShadows(size); err != nil {
			core.Log.Warn("Shadows disabled", zap.Error(err))
			re.ShadowsEnabled = false
		} else {
			lights.LightViewProj = lights.Directional.ShadowViewProjection(lights.DirectionalPos)
			lights.Shadows = true

			re.gl.BeginShadowPass(lights.LightViewProj)
			for _, it := range dl.Casters {
				re.gl.DrawMeshShadow(it.Node.Mesh, it.Model)
			}
			re.gl.EndShadowPass()
		}
	}

	// ── Main render pass ──────────────────────────────────────────────────────
	vp := cam.GetViewProjectionMatrix()
	re.gl.BeginFrame(s.Background, vp, cam.Position, lights)

	triangles := 0
	for _, it := range dl.Opaque {
		re.gl.DrawMesh(it.Node.Mesh, it.Model, it.Node.ReceiveShadow)
		triangles += it.Node.Mesh.Geometry.TriangleCount()
	}

	// Sky after opaque geometry so it only fills uncovered pixels, and before
	// transparent geometry so the floor's faded edge blends over it.
	re.gl.DrawSky(s.Sky, vp, cam.Position)

	for _, it := range dl.Transparent {
		re.gl.DrawMesh(it.Node.Mesh, it.Model, it.Node.ReceiveShadow)
		triangles += it.Node.Mesh.Geometry.TriangleCount()
	}

	re.lastObjects = dl.Len()
	re.lastTriangles = triangles
	re.lastCulled = dl.Culled
	return nil
}

// collectLights resolves the light nodes of s to world space. The first
// directional light wins; ambient lights are summed.
func collectLights(s *scene.Scene) opengl.FrameLights {
	fl := opengl.FrameLights{
		Ambient:       s.AmbientColor(),
		LightViewProj: mgl32.Ident4(),
	}
	for _, n := range s.LightNodes() {
		switch n.Light.Type {
		case scene.LightTypeDirectional:
			if fl.Directional == nil {
				fl.Directional = n.Light
				fl.DirectionalPos = n.WorldPosition()
			}
		case scene.LightTypePoint:
			fl.Points = append(fl.Points, opengl.PointLight{Light: n.Light, Position: n.WorldPosition()})
		}
	}
	return fl
}

// DrawOverlay queues img to be composited over the next Present. img is read
// during Present and must not change before then.
func (re *RenderEngine) DrawOverlay(img *image.RGBA) {
	re.overlay = img
}

// Present resolves the drawing buffer to the window, composites the queued
// overlay and swaps buffers.
func (re *RenderEngine) Present() {
	re.gl.Present(re.overlay)
	re.overlay = nil
	re.window.SwapBuffers()
}

// Resize follows a window resize. width and height are logical; the drawing
// buffer is their product with pixelRatio.
func (re *RenderEngine) Resize(width, height int, pixelRatio float32) {
	fbw, fbh := re.window.GetFramebufferSize()
	re.gl.SetViewport(fbw, fbh)

	dw := int(gomath.Round(float64(float32(width) * pixelRatio)))
	dh := int(gomath.Round(float64(float32(height) * pixelRatio)))
	if err := re.gl.SetDrawingBuffer(dw, dh); err != nil {
		core.Log.Error("Drawing buffer", zap.Error(err))
	}
}

// UploadTexture uploads a texture to the GPU. Must be called from the main thread.
func (re *RenderEngine) UploadTexture(tex *scene.Texture) error {
	return opengl.UploadTexture(tex)
}

func (re *RenderEngine) Destroy() {
	re.gl.Destroy()
}

// DrawStats returns stats from the most recent Render call.
func (re *RenderEngine) DrawStats() (objects, triangles, culled int) {
	return re.lastObjects, re.lastTriangles, re.lastCulled
}
