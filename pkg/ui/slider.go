package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Slider picks a value in [Min, Max] by dragging across it.
type Slider struct {
	Label    string
	Value    float64
	Min, Max float64
	X, Y     float64
	W, H     float64
	OnChange func(v float64)
}

func NewSlider(x, y, w float64, label string, min, max, value float64) *Slider {
	return &Slider{Label: label, Value: value, Min: min, Max: max, X: x, Y: y, W: w, H: 10}
}

func (s *Slider) Update() { s.Handle(ReadInput()) }

// Handle moves the value to the pointer while the button is held over the slider.
func (s *Slider) Handle(in Input) {
	if !in.Pressed || !inside(in, s.X, s.Y, s.W, s.H) || s.W <= 0 {
		return
	}
	v := s.Min + (in.X-s.X)/s.W*(s.Max-s.Min)
	v = max(s.Min, min(s.Max, v))
	if v != s.Value {
		s.Value = v
		if s.OnChange != nil {
			s.OnChange(v)
		}
	}
}

func (s *Slider) Draw(screen *ebiten.Image) {
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W), float32(s.H), color.RGBA{R: 80, G: 80, B: 80, A: 255}, true)
	ratio := 0.0
	if s.Max > s.Min {
		ratio = (s.Value - s.Min) / (s.Max - s.Min)
	}
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W*ratio), float32(s.H), color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%.2f", s.Value), int(s.X+s.W-40), int(s.Y-15))
}

func (s *Slider) GetHeight() float64 { return s.H + 25 }

func (s *Slider) setY(y float64) { s.Y = y }
