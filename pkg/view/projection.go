package view

import (
	"math"

	"github.com/lao-tseu-is-alive/go-murmurations/pkg/geometry"
)

// Rect is a screen area.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// Zoom scales r around its centre.
func (r Rect) Zoom(z float64) Rect {
	if z <= 0 {
		return r
	}
	w, h := r.W*z, r.H*z
	return Rect{X: r.X + (r.W-w)/2, Y: r.Y + (r.H-h)/2, W: w, H: h}
}

func axisRatio(ratios geometry.Vector, axis int) float64 {
	if axis < 0 || axis >= len(ratios) || math.IsNaN(ratios[axis]) {
		return 0.5
	}
	return ratios[axis]
}

// Project maps cube ratios to screen coordinates, axes[0] left to right and
// axes[1] bottom to top.
func Project(ratios geometry.Vector, axes [2]int, r Rect) (x, y float64) {
	x = r.X + axisRatio(ratios, axes[0])*r.W
	y = r.Y + (1-axisRatio(ratios, axes[1]))*r.H
	return x, y
}

// Unproject is the inverse of Project for a swarm of dims dimensions. The
// axes not shown sit in the middle of the cube.
func Unproject(x, y float64, axes [2]int, dims int, r Rect) geometry.Vector {
	ratios := geometry.Filled(dims, 0.5)
	if r.W <= 0 || r.H <= 0 {
		return ratios
	}
	clamp := func(v float64) float64 { return math.Max(0, math.Min(1, v)) }
	if axes[0] >= 0 && axes[0] < dims {
		ratios[axes[0]] = clamp((x - r.X) / r.W)
	}
	if axes[1] >= 0 && axes[1] < dims {
		ratios[axes[1]] = clamp(1 - (y-r.Y)/r.H)
	}
	return ratios
}
