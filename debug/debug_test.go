package debug

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boundSlider(label string, min, max, step float64) (*Slider, *float64) {
	v := new(float64)
	return &Slider{
		Label: label,
		Min:   min,
		Max:   max,
		Step:  step,
		Get:   func() float64 { return *v },
		Set:   func(x float64) { *v = x },
	}, v
}

func TestSetValueClampsAndSnaps(t *testing.T) {
	s, v := boundSlider("floorDisplacementBias", -1, 1, 0.001)

	assert.Equal(t, 1.0, s.SetValue(3))
	assert.Equal(t, 1.0, *v)

	assert.Equal(t, -1.0, s.SetValue(-7))

	assert.InDelta(t, -0.2, s.SetValue(-0.20004), 1e-12)
	assert.Equal(t, "-0.200", s.Text())

	assert.InDelta(t, 0.124, s.SetValue(0.1236), 1e-12)
}

func TestFraction(t *testing.T) {
	s, _ := boundSlider("floorDisplacementScale", 0, 1, 0.001)
	s.SetValue(0.3)
	assert.InDelta(t, 0.3, s.Fraction(), 1e-9)

	s.SetFraction(2)
	assert.Equal(t, 1.0, s.Value())
}

func TestPanelDragEditsSlider(t *testing.T) {
	p := NewPanel("Debug")
	p.SetViewport(1280, 720)
	scale, v := boundSlider("floorDisplacementScale", 0, 1, 0.001)
	p.Add(scale)

	track := p.trackRect(0)
	y := float64(track.Y + track.Height/2)

	// Press at the track midpoint.
	mid := float64(track.X + track.Width/2)
	assert.True(t, p.HandlePointer(mid, y, true))
	assert.InDelta(t, 0.5, *v, 0.01)

	// Drag past the right end, even off the panel.
	assert.True(t, p.HandlePointer(5000, 5000, true))
	assert.Equal(t, 1.0, *v)

	// Release is still consumed; the next move is not.
	assert.True(t, p.HandlePointer(5000, 5000, false))
	assert.False(t, p.HandlePointer(5000, 5000, false))
}

func TestPanelIgnoresPressesElsewhere(t *testing.T) {
	p := NewPanel("Debug")
	p.SetViewport(1280, 720)
	s, v := boundSlider("x", 0, 1, 0.1)
	p.Add(s)

	assert.False(t, p.HandlePointer(10, 10, true))
	// A drag that started outside never gets captured.
	track := p.trackRect(0)
	assert.False(t, p.HandlePointer(float64(track.X+1), float64(track.Y+1), true))
	assert.False(t, p.HandlePointer(10, 10, false))
	assert.Equal(t, 0.0, *v)
}

func TestHiddenPanelPassesEverything(t *testing.T) {
	p := NewPanel("Debug")
	p.SetViewport(1280, 720)
	p.Visible = false
	b := p.Bounds()
	assert.False(t, p.HandlePointer(float64(b.X+5), 5, true))
}

func TestPanelLayout(t *testing.T) {
	p := NewPanel("Debug")
	p.SetViewport(1280, 720)
	a, _ := boundSlider("a", 0, 1, 0.1)
	b, _ := boundSlider("b", 0, 1, 0.1)
	p.Add(a, b)

	bounds := p.Bounds()
	assert.Equal(t, float32(1280-PanelWidth), bounds.X)
	assert.Equal(t, float32(3*RowHeight), bounds.Height)
	assert.Same(t, b, p.Slider("b"))
	assert.Nil(t, p.Slider("c"))
}

func TestDrawPaintsPanelAndHUD(t *testing.T) {
	p := NewPanel("Debug")
	p.SetViewport(640, 360)
	s, _ := boundSlider("floorDisplacementScale", 0, 1, 0.001)
	s.SetValue(1)
	p.Add(s)
	p.AddLine("FPS: %d", 60)
	require.Equal(t, []string{"FPS: 60"}, p.Lines())

	dst := image.NewRGBA(image.Rect(0, 0, 640, 360))
	p.Draw(dst)

	track := rectOf(p.trackRect(0))
	c := dst.RGBAAt(track.Max.X-2, track.Min.Y+2)
	assert.Equal(t, trackFill, c)

	b := rectOf(p.Bounds())
	assert.NotZero(t, dst.RGBAAt(b.Min.X+2, b.Max.Y-2).A)

	hudPainted := false
	for y := 10; y < 40 && !hudPainted; y++ {
		for x := 10; x < 80; x++ {
			if dst.RGBAAt(x, y).A != 0 {
				hudPainted = true
				break
			}
		}
	}
	assert.True(t, hudPainted)

	p.ClearLines()
	assert.Empty(t, p.Lines())
}
