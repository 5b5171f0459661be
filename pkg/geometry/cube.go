package geometry

import (
	"errors"
	"fmt"
	"math"
)

// RatioCeiling is the largest per-axis ratio Cube.Ratios reports.
// Ratios are used as list indices downstream (ratio * len), so they must stay
// strictly below 1.
const RatioCeiling = 0.99

// ErrDegenerateCube is returned when a cube is created with a non-positive edge.
var ErrDegenerateCube = errors.New("cube edge length must be positive")

// Cube is an axis-aligned hyper-cube: the bounding volume a swarm lives in.
// Every position in a swarm is expressed in world space, the cube supplies the
// local frame (origin at Min) used to turn positions into 0..1 ratios.
// A Cube never changes after creation.
type Cube struct {
	min    Vector
	edge   float64
	centre Vector
}

// NewCube builds a cube from its minimum corner and edge length.
func NewCube(min Vector, edge float64) (Cube, error) {
	if len(min) == 0 {
		return Cube{}, errors.New("cube needs at least one dimension")
	}
	if !(edge > 0) || math.IsInf(edge, 0) {
		return Cube{}, fmt.Errorf("%w: got %v", ErrDegenerateCube, edge)
	}
	return Cube{
		min:    min.Clone(),
		edge:   edge,
		centre: min.Add(Filled(len(min), edge/2)),
	}, nil
}

// Min is the minimum corner (origin of the local frame).
func (c Cube) Min() Vector { return c.min.Clone() }

// Edge is the edge length shared by every axis.
func (c Cube) Edge() float64 { return c.edge }

// Centre is Min + Edge/2 on every axis.
func (c Cube) Centre() Vector { return c.centre.Clone() }

// Dims is the dimensionality of the cube.
func (c Cube) Dims() int { return len(c.min) }

// String implements the fmt.Stringer interface.
func (c Cube) String() string {
	return fmt.Sprintf("Cube from %s with edge length %.2f", c.min, c.edge)
}

// Local expresses loc relative to the minimum corner.
func (c Cube) Local(loc Vector) Vector {
	return loc.Sub(c.min)
}

// Ratios reports how far along each axis loc lies, as a fraction of the edge.
// Values are clamped to [0, RatioCeiling] even when loc is outside the cube.
func (c Cube) Ratios(loc Vector) Vector {
	local := c.Local(loc)
	for i, d := range local {
		local[i] = ClampRatio(d / c.edge)
	}
	return local
}

// Point converts per-axis ratios into an absolute position inside the cube.
// Ratios are clamped to [0, 1]; missing axes default to the middle of the cube
// and extra ratios are ignored.
func (c Cube) Point(ratios Vector) Vector {
	p := make(Vector, len(c.min))
	for i := range p {
		r := 0.5
		if i < len(ratios) && !math.IsNaN(ratios[i]) {
			r = math.Max(0, math.Min(1, ratios[i]))
		}
		p[i] = c.min[i] + r*c.edge
	}
	return p
}

// DistanceFromCentre is the Euclidean distance between loc and the centre.
func (c Cube) DistanceFromCentre(loc Vector) float64 {
	return loc.DistanceTo(c.centre)
}

// ClampRatio clamps r into [0, RatioCeiling], mapping NaN to 0.
func ClampRatio(r float64) float64 {
	if math.IsNaN(r) || r < 0 {
		return 0
	}
	if r > RatioCeiling {
		return RatioCeiling
	}
	return r
}
