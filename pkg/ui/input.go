package ui

import "github.com/hajimehoshi/ebiten/v2"

// Input is the pointer state widgets react to during one update.
type Input struct {
	X, Y    float64
	Pressed bool    // left button held
	Wheel   float64 // vertical wheel delta
}

// ReadInput samples the mouse.
func ReadInput() Input {
	mx, my := ebiten.CursorPosition()
	_, dy := ebiten.Wheel()
	return Input{
		X:       float64(mx),
		Y:       float64(my),
		Pressed: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		Wheel:   dy,
	}
}

func inside(in Input, x, y, w, h float64) bool {
	return in.X >= x && in.X <= x+w && in.Y >= y && in.Y <= y+h
}
