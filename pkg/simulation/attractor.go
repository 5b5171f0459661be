package simulation

import (
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-murmurations/pkg/geometry"
)

// Attractor pulls boids towards it through the Attraction rule.
// It is owned by a single Swarm; boids only ever see copies of its location.
type Attractor struct {
	location geometry.Vector

	// parametric path state, used in AttractorPath mode
	t     float64
	step  float64
	freqs []int
}

// newAttractor creates an attractor at location, a random way along a
// random parametric path travelled at a random speed.
func newAttractor(location geometry.Vector, rng *rand.Rand) *Attractor {
	freqs := make([]int, len(location))
	for i := range freqs {
		freqs[i] = 1 + rng.IntN(8)
	}
	return &Attractor{
		location: location.Clone(),
		t:        rng.Float64(),
		step:     float64(50+rng.IntN(150)) / 100000,
		freqs:    freqs,
	}
}

func (a *Attractor) Location() geometry.Vector { return a.location.Clone() }

// stepPath advances the attractor along its orbit: cos on even axes, sin on
// odd axes, spanning 0.4 edge around the cube centre.
func (a *Attractor) stepPath(cube geometry.Cube) {
	centre := cube.Centre()
	radius := 0.4 * cube.Edge()
	loc := make(geometry.Vector, len(centre))
	for i := range loc {
		phase := float64(a.freqs[i]) * math.Pi * a.t
		if i%2 == 0 {
			loc[i] = math.Cos(phase)*radius + centre[i]
		} else {
			loc[i] = math.Sin(phase)*radius + centre[i]
		}
	}
	a.t += a.step
	a.location = loc
}

// RandomPoint samples a point inside the cube, Gaussian around its centre
// with standard deviation edge/sd on every axis. Samples falling on or
// outside the cube faces are redrawn.
func RandomPoint(cube geometry.Cube, sd float64, rng *rand.Rand) geometry.Vector {
	edge := cube.Edge()
	min := cube.Min()
	deviation := edge / sd
	p := make(geometry.Vector, len(min))
	for i := range p {
		for {
			x := edge/2 + rng.NormFloat64()*deviation
			if x > 0 && x < edge {
				p[i] = min[i] + x
				break
			}
		}
	}
	return p
}

// randomVelocity draws every component uniformly in [-1, 1).
func randomVelocity(dims int, rng *rand.Rand) geometry.Vector {
	v := make(geometry.Vector, dims)
	for i := range v {
		v[i] = rng.Float64()*2 - 1
	}
	return v
}
