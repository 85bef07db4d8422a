package debug

import (
	stdmath "math"
	"strconv"
)

// Slider binds a numeric property to a draggable control.
type Slider struct {
	Label string
	Min   float64
	Max   float64
	Step  float64
	Get   func() float64
	Set   func(float64)
}

// Value reads the bound property.
func (s *Slider) Value() float64 {
	if s.Get == nil {
		return s.Min
	}
	return s.Get()
}

// SetValue clamps v to [Min, Max], snaps it to Step and writes it through.
// It returns the value actually stored.
func (s *Slider) SetValue(v float64) float64 {
	v = clamp(v, s.Min, s.Max)
	if s.Step > 0 {
		v = s.Min + stdmath.Round((v-s.Min)/s.Step)*s.Step
		// Trim float noise such as 0.30000000000000004.
		v, _ = strconv.ParseFloat(strconv.FormatFloat(v, 'f', s.decimals(), 64), 64)
		v = clamp(v, s.Min, s.Max)
	}
	if s.Set != nil {
		s.Set(v)
	}
	return v
}

// Fraction is the value's position along the track, 0 to 1.
func (s *Slider) Fraction() float64 {
	if s.Max <= s.Min {
		return 0
	}
	return clamp((s.Value()-s.Min)/(s.Max-s.Min), 0, 1)
}

// SetFraction sets the value from a track position.
func (s *Slider) SetFraction(f float64) float64 {
	return s.SetValue(s.Min + clamp(f, 0, 1)*(s.Max-s.Min))
}

// Text formats the current value with as many decimals as Step needs.
func (s *Slider) Text() string {
	return strconv.FormatFloat(s.Value(), 'f', s.decimals(), 64)
}

func (s *Slider) decimals() int {
	if s.Step <= 0 {
		return 2
	}
	if s.Step >= 1 {
		return 0
	}
	d := int(stdmath.Ceil(-stdmath.Log10(s.Step) - 1e-9))
	if d > 6 {
		d = 6
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
