package behavior

import (
	"sort"

	"github.com/lao-tseu-is-alive/go-murmurations/pkg/geometry"
	"gonum.org/v1/gonum/floats"
)

// Rule computes a velocity correction for one boid.
// Rules are built fresh for every boid on every tick, so the aggregator state
// never leaks between boids or ticks.
type Rule interface {
	// Accumulate folds another boid, distance away from self, into the rule.
	Accumulate(self, other *Boid, distance float64)
	// Finalize turns the accumulated state into a velocity correction.
	Finalize(self *Boid) geometry.Vector
}

// NeighbourRule is a Rule that only looks at boids within a neighbourhood,
// expressed as a ratio of the cube edge length.
type NeighbourRule interface {
	Rule
	Neighbourhood() float64
}

// neighbourRules builds the radius-bounded rules for one boid.
func neighbourRules(p Params, dims int) []NeighbourRule {
	rules := []NeighbourRule{
		NewSeparation(p, dims),
		NewCohesion(p, dims),
	}
	if p.Flocking {
		rules = append(rules, NewAlignment(p, dims))
	}
	return rules
}

// ============================================================================
// Cohesion: fly towards the centre of mass of neighbouring boids
// ============================================================================

type Cohesion struct {
	neighbourhood float64
	multiplier    float64
	sum           []float64
	num           int
}

func NewCohesion(p Params, dims int) *Cohesion {
	return &Cohesion{
		neighbourhood: p.CohesionNeighbourhood,
		multiplier:    p.CohesionMultiplier,
		sum:           make([]float64, dims),
	}
}

func (c *Cohesion) Neighbourhood() float64 { return c.neighbourhood }

func (c *Cohesion) Accumulate(self, other *Boid, _ float64) {
	if other == self {
		return
	}
	floats.Add(c.sum, other.location)
	c.num++
}

func (c *Cohesion) Finalize(self *Boid) geometry.Vector {
	if c.num == 0 {
		return geometry.Zero(len(c.sum))
	}
	centroid := geometry.Vector(c.sum).Mul(1 / float64(c.num))
	desired := centroid.Sub(self.location)
	return desired.Sub(self.velocity).Mul(c.multiplier)
}

// ============================================================================
// Alignment: match velocity with near boids
// ============================================================================

type Alignment struct {
	neighbourhood float64
	multiplier    float64
	sum           []float64
	num           int
}

func NewAlignment(p Params, dims int) *Alignment {
	return &Alignment{
		neighbourhood: p.AlignmentNeighbourhood,
		multiplier:    p.AlignmentMultiplier,
		sum:           make([]float64, dims),
	}
}

func (a *Alignment) Neighbourhood() float64 { return a.neighbourhood }

func (a *Alignment) Accumulate(self, other *Boid, _ float64) {
	if other == self {
		return
	}
	floats.Add(a.sum, other.velocity)
	a.num++
}

func (a *Alignment) Finalize(self *Boid) geometry.Vector {
	if a.num == 0 {
		return geometry.Zero(len(a.sum))
	}
	groupVelocity := geometry.Vector(a.sum).Mul(1 / float64(a.num))
	return groupVelocity.Sub(self.velocity).Mul(a.multiplier)
}

// ============================================================================
// Separation: keep a small distance away from other boids
// ============================================================================

type Separation struct {
	neighbourhood float64
	multiplier    float64
	sum           []float64
	num           int
}

func NewSeparation(p Params, dims int) *Separation {
	return &Separation{
		neighbourhood: p.SeparationNeighbourhood,
		multiplier:    p.SeparationMultiplier,
		sum:           make([]float64, dims),
	}
}

func (s *Separation) Neighbourhood() float64 { return s.neighbourhood }

// Accumulate adds an inverse-square repulsion away from other.
// Coincident boids (distance 0) have no direction and are skipped.
func (s *Separation) Accumulate(self, other *Boid, distance float64) {
	if other == self || !(distance > 0) {
		return
	}
	repulsion := self.location.Sub(other.location).Mul(1 / (distance * distance))
	if !repulsion.IsFinite() {
		return
	}
	floats.Add(s.sum, repulsion)
	s.num++
}

func (s *Separation) Finalize(self *Boid) geometry.Vector {
	if s.num == 0 {
		return geometry.Zero(len(s.sum))
	}
	groupSeparation := geometry.Vector(s.sum).Mul(1 / float64(s.num))
	return groupSeparation.Sub(self.velocity).Mul(s.multiplier)
}

// ============================================================================
// Attraction: fly towards the nearest attractor(s)
// ============================================================================

// Attraction has no accumulate phase, it only looks at the attractors.
type Attraction struct {
	attractors []geometry.Vector
	cube       geometry.Cube
	multiplier float64
	noticed    int
	feedDist   float64
	repulsion  RepulsionPolicy

	// Feeding is set by Finalize when an attractor lies within feedDist.
	Feeding bool
}

func NewAttraction(env *Environment) *Attraction {
	return &Attraction{
		attractors: env.Attractors,
		cube:       env.Cube,
		multiplier: env.Params.AttractionMultiplier,
		noticed:    env.Params.AttractorsNoticed,
		feedDist:   env.Params.FeedDist,
		repulsion:  env.Params.Repulsion,
	}
}

func (a *Attraction) Accumulate(_, _ *Boid, _ float64) {}

// Multiplier returns the attraction multiplier that applies at loc, taking
// the repulsion policy into account.
func (a *Attraction) Multiplier(loc geometry.Vector) float64 {
	if !a.repulsion.Enabled || a.repulsion.Axis < 0 || a.repulsion.Axis >= len(loc) {
		return a.multiplier
	}
	if a.cube.Ratios(loc)[a.repulsion.Axis] < a.repulsion.Threshold {
		return -a.multiplier
	}
	return a.multiplier
}

func (a *Attraction) Finalize(self *Boid) geometry.Vector {
	dims := len(self.location)
	a.Feeding = false
	if len(a.attractors) == 0 || a.noticed <= 0 {
		return geometry.Zero(dims)
	}

	type pull struct {
		dist   float64
		change geometry.Vector
	}
	mul := a.Multiplier(self.location)
	pulls := make([]pull, 0, len(a.attractors))
	for _, attr := range a.attractors {
		toAttractor := attr.Sub(self.location)
		dist := toAttractor.Len()
		if dist < a.feedDist {
			a.Feeding = true
		}
		if dist < geometry.Epsilon {
			continue // sitting on it, no direction to pull in
		}
		// 1/dist makes attraction stronger for closer attractors
		change := toAttractor.Sub(self.velocity).Mul(mul / dist)
		pulls = append(pulls, pull{dist: dist, change: change})
	}
	sort.SliceStable(pulls, func(i, j int) bool { return pulls[i].dist < pulls[j].dist })

	total := geometry.Zero(dims)
	for i := 0; i < len(pulls) && i < a.noticed; i++ {
		total = total.Add(pulls[i].change)
	}
	return total
}

// ============================================================================
// Constraint: stay within the bounding cube
// ============================================================================

type Constraint struct {
	centre     geometry.Vector
	multiplier float64
}

func NewConstraint(env *Environment) *Constraint {
	return &Constraint{
		centre:     env.Cube.Centre(),
		multiplier: env.Params.ConstraintMultiplier,
	}
}

func (c *Constraint) Accumulate(_, _ *Boid, _ float64) {}

// Finalize pulls turning boids back towards the centre. The turning flag is
// computed by the boid's integration step, not here.
func (c *Constraint) Finalize(self *Boid) geometry.Vector {
	if !self.turning {
		return geometry.Zero(len(self.location))
	}
	return c.centre.Sub(self.location).Mul(c.multiplier)
}
