package behavior

import (
	"github.com/lao-tseu-is-alive/go-murmurations/pkg/geometry"
)

// Params controls the physics constants for the simulation.
// Neighbourhoods are ratios of the cube edge length (0.5 sees boids up to half
// the cube away).
type Params struct {
	Flocking       bool    `json:"flocking"`       // flocks use Alignment, swarms do not
	MaxSpeed       float64 `json:"maxSpeed"`       // recommended max of 1.0
	MotionConstant float64 `json:"motionConstant"` // upper bound of the random idle boost

	CohesionNeighbourhood   float64 `json:"cohesionNeighbourhood"`
	AlignmentNeighbourhood  float64 `json:"alignmentNeighbourhood"`
	SeparationNeighbourhood float64 `json:"separationNeighbourhood"`

	CohesionMultiplier   float64 `json:"cohesionMultiplier"`
	AlignmentMultiplier  float64 `json:"alignmentMultiplier"`
	SeparationMultiplier float64 `json:"separationMultiplier"`
	AttractionMultiplier float64 `json:"attractionMultiplier"` // larger means more clumping
	ConstraintMultiplier float64 `json:"constraintMultiplier"`

	TurningRatio   float64 `json:"turningRatio"`   // turning beyond TurningRatio * edge/2 from the centre
	BoundingSphere bool    `json:"boundingSphere"` // false uses a per-axis box check

	FeedDist          float64         `json:"feedDist"`
	AttractorsNoticed int             `json:"attractorsNoticed"`
	Repulsion         RepulsionPolicy `json:"repulsion"`
}

// RepulsionPolicy flips the sign of the attraction multiplier for boids whose
// position ratio along Axis is below Threshold: they flee attractors instead
// of feeding on them.
type RepulsionPolicy struct {
	Enabled   bool    `json:"enabled"`
	Axis      int     `json:"axis"`
	Threshold float64 `json:"threshold"`
}

// DefaultParams returns the tuned defaults of the original murmurations patch.
func DefaultParams() Params {
	return Params{
		Flocking:                false,
		MaxSpeed:                0.7,
		MotionConstant:          0.03,
		CohesionNeighbourhood:   0.5,
		AlignmentNeighbourhood:  0.5,
		SeparationNeighbourhood: 0.1,
		CohesionMultiplier:      0.0006,
		AlignmentMultiplier:     0.03,
		SeparationMultiplier:    0.09,
		AttractionMultiplier:    0.005,
		ConstraintMultiplier:    0.001,
		TurningRatio:            0.8,
		BoundingSphere:          true,
		FeedDist:                1.0,
		AttractorsNoticed:       1,
		Repulsion: RepulsionPolicy{
			Enabled:   false,
			Axis:      4,
			Threshold: 0.3,
		},
	}
}

// Distances resolves the distance between two boids during a velocity pass.
// Implementations may cache pairs for the duration of a single tick.
type Distances interface {
	Distance(a, b *Boid) float64
}

// Environment is everything a boid needs to compute its next velocity:
// the bounding volume, the current attractor positions and the rule constants.
type Environment struct {
	Cube       geometry.Cube
	Attractors []geometry.Vector
	Params     Params
	Distances  Distances // nil computes every distance directly
}

func (e *Environment) distance(a, b *Boid) float64 {
	if e.Distances != nil {
		return e.Distances.Distance(a, b)
	}
	return a.DistanceTo(b)
}

// IsTurning reports whether loc has strayed far enough from the cube centre
// for the Constraint rule to start pulling it back.
func (e *Environment) IsTurning(loc geometry.Vector) bool {
	limit := e.Cube.Edge() * e.Params.TurningRatio / 2
	centre := e.Cube.Centre()
	if e.Params.BoundingSphere {
		return loc.DistanceTo(centre) >= limit
	}
	for i := range loc {
		d := loc[i] - centre[i]
		if d >= limit || -d >= limit {
			return true
		}
	}
	return false
}
