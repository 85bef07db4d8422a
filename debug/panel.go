package debug

import (
	"fmt"
	"image"
	"image/color"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"haunted-house/core"
)

// Panel layout, in logical pixels.
const (
	PanelWidth  = 320
	RowHeight   = 24
	labelWidth  = 168
	valueWidth  = 48
	trackInset  = 6
	hudLineGap  = 16
)

var (
	panelBackground = color.RGBA{R: 0x1f, G: 0x1f, B: 0x1f, A: 0xee}
	titleBackground = color.RGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff}
	trackBackground = color.RGBA{R: 0x42, G: 0x42, B: 0x42, A: 0xff}
	trackFill       = color.RGBA{R: 0x2c, G: 0xc9, B: 0xff, A: 0xff}
	textColor       = color.RGBA{R: 0xeb, G: 0xeb, B: 0xeb, A: 0xff}
	hudShadow       = color.RGBA{A: 0xaa}
)

// Panel is a minimal tweak panel docked to the top-right corner plus a
// free-form HUD in the top-left.
type Panel struct {
	Title   string
	Visible bool
	ShowHUD bool

	sliders  []*Slider
	hudLines []string

	viewWidth  int
	viewHeight int

	active   int // slider being dragged, -1 if none
	wasDown  bool
	captured bool // a press that started on the panel is in progress
}

func NewPanel(title string) *Panel {
	return &Panel{
		Title:      title,
		Visible:    true,
		ShowHUD:    true,
		viewWidth:  1,
		viewHeight: 1,
		active:     -1,
	}
}

// Add appends sliders in display order.
func (p *Panel) Add(sliders ...*Slider) {
	p.sliders = append(p.sliders, sliders...)
}

// Slider finds a slider by label.
func (p *Panel) Slider(label string) *Slider {
	for _, s := range p.sliders {
		if s.Label == label {
			return s
		}
	}
	return nil
}

// SetViewport sets the logical window size the panel is laid out in.
func (p *Panel) SetViewport(width, height int) {
	if width > 0 && height > 0 {
		p.viewWidth, p.viewHeight = width, height
	}
}

// Bounds is the screen rectangle covered by the panel.
func (p *Panel) Bounds() core.Rect {
	return core.Rect{
		X:      float32(p.viewWidth - PanelWidth),
		Width:  PanelWidth,
		Height: float32(RowHeight * (len(p.sliders) + 1)),
	}
}

func (p *Panel) rowRect(i int) core.Rect {
	b := p.Bounds()
	return core.Rect{X: b.X, Y: b.Y + float32(RowHeight*(i+1)), Width: b.Width, Height: RowHeight}
}

func (p *Panel) trackRect(i int) core.Rect {
	row := p.rowRect(i)
	return core.Rect{
		X:      row.X + labelWidth,
		Y:      row.Y + trackInset,
		Width:  row.Width - labelWidth - valueWidth,
		Height: RowHeight - 2*trackInset,
	}
}

// HandlePointer feeds a pointer sample in logical pixels. down is the primary
// button state. It reports whether the panel consumed the event, in which case
// it must not reach the camera controls.
func (p *Panel) HandlePointer(x, y float64, down bool) bool {
	pressed := down && !p.wasDown
	p.wasDown = down

	if !p.Visible {
		return false
	}

	if p.captured {
		if p.active >= 0 && down {
			p.dragTo(p.active, x)
		}
		if !down {
			p.captured = false
			p.active = -1
		}
		return true
	}

	if !pressed || !p.Bounds().Contains(float32(x), float32(y)) {
		return false
	}

	p.captured = true
	for i := range p.sliders {
		if p.rowRect(i).Contains(float32(x), float32(y)) {
			p.active = i
			p.dragTo(i, x)
			break
		}
	}
	return true
}

func (p *Panel) dragTo(i int, x float64) {
	track := p.trackRect(i)
	f := (x - float64(track.X)) / float64(track.Width)
	v := p.sliders[i].SetFraction(f)
	core.Log.Debug("Slider changed", zap.String("slider", p.sliders[i].Label), zap.Float64("value", v))
}

// AddLine appends a formatted HUD line.
func (p *Panel) AddLine(format string, args ...interface{}) {
	p.hudLines = append(p.hudLines, fmt.Sprintf(format, args...))
}

// ClearLines empties the HUD.
func (p *Panel) ClearLines() {
	p.hudLines = p.hudLines[:0]
}

// Lines returns the current HUD text.
func (p *Panel) Lines() []string {
	return p.hudLines
}

// Draw rasterises the HUD and the panel into dst, which should cover the
// logical viewport and start out transparent.
func (p *Panel) Draw(dst *image.RGBA) {
	if p.ShowHUD {
		for i, line := range p.hudLines {
			y := 10 + (i+1)*hudLineGap
			drawText(dst, line, 11, y+1, hudShadow)
			drawText(dst, line, 10, y, textColor)
		}
	}
	if !p.Visible {
		return
	}

	b := p.Bounds()
	fillRect(dst, rectOf(b), panelBackground)

	title := rectOf(core.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: RowHeight})
	fillRect(dst, title, titleBackground)
	drawText(dst, p.Title, title.Min.X+8, title.Min.Y+17, textColor)

	for i, s := range p.sliders {
		row := rectOf(p.rowRect(i))
		drawText(dst, clip(s.Label, (labelWidth-8)/7), row.Min.X+8, row.Min.Y+17, textColor)

		track := rectOf(p.trackRect(i))
		fillRect(dst, track, trackBackground)
		fill := track
		fill.Max.X = track.Min.X + int(s.Fraction()*float64(track.Dx()))
		fillRect(dst, fill, trackFill)

		drawText(dst, s.Text(), track.Max.X+6, row.Min.Y+17, textColor)
	}
}

func rectOf(r core.Rect) image.Rectangle {
	return image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height))
}

func fillRect(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

func drawText(dst *image.RGBA, s string, x, y int, c color.RGBA) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// clip shortens s to n glyphs.
func clip(s string, n int) string {
	if len(s) <= n || n < 2 {
		return s
	}
	return s[:n-1] + "~"
}
