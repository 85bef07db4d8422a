package haunted

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"haunted-house/assets"
	"haunted-house/controls"
	"haunted-house/core"
	"haunted-house/debug"
	"haunted-house/loop"
	"haunted-house/scene"
)

// MaxPixelRatio caps the render resolution on dense displays.
const MaxPixelRatio = 2

// Renderer is the drawing backend the app drives once per frame.
type Renderer interface {
	UploadTexture(tex *scene.Texture) error
	Render(s *scene.Scene) error
	DrawOverlay(img *image.RGBA)
	Present()
	Resize(width, height int, pixelRatio float32)
}

// StatsReporter is implemented by renderers that count their draw calls.
type StatsReporter interface {
	DrawStats() (objects, triangles, culled int)
}

// TexturePoller delivers finished texture decodes on the render thread.
type TexturePoller interface {
	Poll(upload func(*scene.Texture) error) int
	Stats() assets.Stats
}

// App ties the world to the clock, the controls, the debug panel and the
// renderer.
type App struct {
	World    *World
	Clock    *core.Clock
	Orbit    *controls.Orbit
	Panel    *debug.Panel
	Renderer Renderer
	Textures TexturePoller

	width, height int
	pixelRatio    float32
	elapsed       float64

	overlay *image.RGBA
	fps     loop.FPSCounter
	now     func() time.Time
}

// NewApp wires controls and the debug panel to w. r and textures may be nil,
// in which case nothing is drawn or polled.
func NewApp(w *World, r Renderer, textures TexturePoller) *App {
	orbit := controls.NewOrbit(w.Camera)
	orbit.EnableDamping = true
	orbit.DampingFactor = 0.05

	a := &App{
		World:      w,
		Clock:      core.NewClock(),
		Orbit:      orbit,
		Panel:      debug.NewPanel("Debug"),
		Renderer:   r,
		Textures:   textures,
		pixelRatio: 1,
		now:        time.Now,
	}
	a.bindPanel()
	return a
}

func (a *App) bindPanel() {
	m := a.World.FloorMaterial
	a.Panel.Add(
		&debug.Slider{
			Label: "floorDisplacementScale",
			Min:   0, Max: 1, Step: 0.001,
			Get: func() float64 { return float64(m.DisplacementScale) },
			Set: func(v float64) { m.DisplacementScale = float32(v) },
		},
		&debug.Slider{
			Label: "floorDisplacementBias",
			Min:   -1, Max: 1, Step: 0.001,
			Get: func() float64 { return float64(m.DisplacementBias) },
			Set: func(v float64) { m.DisplacementBias = float32(v) },
		},
	)
}

// Start begins timing. Call right before the first Tick.
func (a *App) Start() {
	a.Clock.Start()
}

// Elapsed is the scene time of the last frame, seconds.
func (a *App) Elapsed() float64 {
	return a.elapsed
}

// Size returns the logical size and pixel ratio of the last Resize.
func (a *App) Size() (width, height int, pixelRatio float32) {
	return a.width, a.height, a.pixelRatio
}

// Resize follows the window: camera aspect, control and panel layout, and the
// drawing buffer at min(devicePixelRatio, 2).
func (a *App) Resize(width, height int, devicePixelRatio float32) {
	if width <= 0 || height <= 0 {
		return
	}
	ratio := devicePixelRatio
	if ratio > MaxPixelRatio {
		ratio = MaxPixelRatio
	}
	if ratio <= 0 {
		ratio = 1
	}

	a.width, a.height, a.pixelRatio = width, height, ratio
	a.World.Camera.UpdateAspectRatio(float32(width), float32(height))
	a.Orbit.SetViewport(float32(width), float32(height))
	a.Panel.SetViewport(width, height)
	a.overlay = image.NewRGBA(image.Rect(0, 0, width, height))

	if a.Renderer != nil {
		a.Renderer.Resize(width, height, ratio)
	}
	core.Log.Debug("Resized",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Float32("pixelRatio", ratio))
}

// HandlePointerButton routes a button press or release to the panel first and
// to the orbit controls when the panel does not want it.
func (a *App) HandlePointerButton(button int, pressed bool, x, y float64) {
	if button == controls.ButtonLeft && a.Panel.HandlePointer(x, y, pressed) {
		return
	}
	if pressed {
		a.Orbit.PointerDown(button, x, y)
	} else {
		a.Orbit.PointerUp(button)
	}
}

// HandlePointerMove routes cursor motion like HandlePointerButton.
func (a *App) HandlePointerMove(x, y float64, leftDown bool) {
	if !a.Orbit.Dragging() && a.Panel.HandlePointer(x, y, leftDown) {
		return
	}
	a.Orbit.PointerMove(x, y)
}

// HandleWheel dollies the camera.
func (a *App) HandleWheel(yoff float64) {
	a.Orbit.Wheel(yoff)
}

// Tick renders one frame at wall-clock time.
func (a *App) Tick(ctx context.Context) error {
	a.Clock.Update()
	return a.frame(ctx, a.Clock.Elapsed())
}

// Step advances scene time by dt seconds and renders, independent of the
// wall clock.
func (a *App) Step(dt float64) error {
	return a.frame(context.Background(), a.elapsed+dt)
}

func (a *App) frame(ctx context.Context, elapsed float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.elapsed = elapsed

	if a.Textures != nil {
		var upload func(*scene.Texture) error
		if a.Renderer != nil {
			upload = a.Renderer.UploadTexture
		}
		a.Textures.Poll(upload)
	}

	a.World.animateGhosts(elapsed)
	a.Orbit.Update()

	if a.Renderer == nil {
		return nil
	}
	if err := a.Renderer.Render(a.World.Scene); err != nil {
		return fmt.Errorf("render frame: %w", err)
	}
	a.drawOverlay()
	a.Renderer.Present()
	return nil
}

func (a *App) drawOverlay() {
	if a.overlay == nil {
		return
	}
	a.fps.Frame(a.now())

	a.Panel.ClearLines()
	if a.Panel.ShowHUD {
		cam := a.World.Camera.Position
		a.Panel.AddLine("FPS: %d   t=%.1fs   Cam: %.1f %.1f %.1f", a.fps.FPS(), a.elapsed, cam.X(), cam.Y(), cam.Z())
		if a.Textures != nil {
			s := a.Textures.Stats()
			a.Panel.AddLine("Textures: %d ready  %d pending  %d failed", s.Ready, s.Pending, s.Failed)
		}
		if sr, ok := a.Renderer.(StatsReporter); ok {
			objects, triangles, culled := sr.DrawStats()
			a.Panel.AddLine("Draw: %d objects  %d tris  %d culled", objects, triangles, culled)
		}
	}

	clear(a.overlay.Pix)
	a.Panel.Draw(a.overlay)
	a.Renderer.DrawOverlay(a.overlay)
}
