package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Checkbox is an on/off toggle.
type Checkbox struct {
	Label    string
	Value    bool
	X, Y     float64
	Size     float64
	OnChange func(v bool)
	held     bool // button still down since the last toggle
}

func NewCheckbox(x, y float64, label string, value bool) *Checkbox {
	return &Checkbox{Label: label, Value: value, X: x, Y: y, Size: 16}
}

func (c *Checkbox) Update() { c.Handle(ReadInput()) }

// Handle toggles once per press over the box.
func (c *Checkbox) Handle(in Input) {
	if in.Pressed && inside(in, c.X, c.Y, c.Size, c.Size) {
		if !c.held {
			c.Value = !c.Value
			c.held = true
			if c.OnChange != nil {
				c.OnChange(c.Value)
			}
		}
		return
	}
	c.held = false
}

func (c *Checkbox) Draw(screen *ebiten.Image) {
	vector.StrokeRect(screen, float32(c.X), float32(c.Y), float32(c.Size), float32(c.Size),
		2, color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
	if c.Value {
		vector.FillRect(screen, float32(c.X+2), float32(c.Y+2), float32(c.Size-4), float32(c.Size-4),
			color.RGBA{R: 100, G: 200, B: 100, A: 255}, true)
	}
}

func (c *Checkbox) GetHeight() float64 { return c.Size + 20 }

func (c *Checkbox) setY(y float64) { c.Y = y }
