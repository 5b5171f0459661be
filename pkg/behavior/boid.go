package behavior

import (
	"math/rand/v2"
	"sync"

	"github.com/lao-tseu-is-alive/go-murmurations/pkg/geometry"
)

// Boid represents a single entity in the swarm.
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds, and related group motion.
// The name "boid" corresponds to a shortened version of "bird-oid object".
// https://en.wikipedia.org/wiki/Boids
//
// Here a boid lives in n dimensions, every axis later mapped to a musical
// parameter. Only the swarm's tick goroutine writes a boid; readers on other
// goroutines go through Snapshot.
type Boid struct {
	id int

	mu       sync.RWMutex
	location geometry.Vector
	velocity geometry.Vector
	turning  bool
	feeding  bool

	// adjustment is the result of the velocity pass, consumed by Integrate.
	adjustment geometry.Vector
}

// Snapshot is a consistent copy of a boid's state.
type Snapshot struct {
	ID       int
	Location geometry.Vector
	Velocity geometry.Vector
	Turning  bool
	Feeding  bool
}

// New creates a boid at location moving with velocity.
func New(id int, location, velocity geometry.Vector) *Boid {
	return &Boid{
		id:         id,
		location:   location.Clone(),
		velocity:   velocity.Clone(),
		adjustment: geometry.Zero(len(location)),
	}
}

func (b *Boid) ID() int { return b.id }

// Snapshot returns a copy of the boid state, safe to use from any goroutine.
func (b *Boid) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Snapshot{
		ID:       b.id,
		Location: b.location.Clone(),
		Velocity: b.velocity.Clone(),
		Turning:  b.turning,
		Feeding:  b.feeding,
	}
}

// Location returns a copy of the current position.
func (b *Boid) Location() geometry.Vector {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.location.Clone()
}

// DistanceTo is the Euclidean distance to other. It reads both positions
// without locking and is only meant for the goroutine that ticks the swarm.
func (b *Boid) DistanceTo(other *Boid) float64 {
	return b.location.DistanceTo(other.location)
}

// Adjustment returns the velocity correction computed by the last CalcVelocity.
func (b *Boid) Adjustment() geometry.Vector {
	return b.adjustment.Clone()
}

// Place moves the boid, replacing its position and velocity.
func (b *Boid) Place(location, velocity geometry.Vector) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.location = location.Clone()
	b.velocity = velocity.Clone()
}

// CalcVelocity is the first phase of a tick: it looks at the whole flock and
// the attractors and stores the resulting velocity adjustment. It does not
// move the boid, so every boid of a tick sees the same positions.
func (b *Boid) CalcVelocity(flock []*Boid, env *Environment) {
	dims := len(b.location)
	edge := env.Cube.Edge()
	rules := neighbourRules(env.Params, dims)

	for _, other := range flock {
		if other == b {
			continue
		}
		d := env.distance(b, other)
		for _, r := range rules {
			if d < r.Neighbourhood()*edge {
				r.Accumulate(b, other, d)
			}
		}
	}

	adjustment := geometry.Zero(dims)
	for _, r := range rules {
		adjustment = adjustment.Add(r.Finalize(b))
	}
	adjustment = adjustment.Add(NewConstraint(env).Finalize(b))
	attraction := NewAttraction(env)
	adjustment = adjustment.Add(attraction.Finalize(b))

	if !adjustment.IsFinite() {
		adjustment = geometry.Zero(dims)
	}
	b.adjustment = adjustment

	b.mu.Lock()
	b.feeding = attraction.Feeding
	b.mu.Unlock()
}

// Integrate is the second phase of a tick: apply the adjustment, give idle
// boids a small random push, clamp to MaxSpeed and move.
func (b *Boid) Integrate(env *Environment, rng *rand.Rand) {
	p := env.Params
	velocity := b.velocity.Add(b.adjustment)

	if p.MotionConstant > 0 && velocity.Len() > geometry.Epsilon {
		boost := rng.Float64() * p.MotionConstant
		velocity = velocity.Add(velocity.Normalize().Mul(boost))
	}
	velocity = velocity.ClampLen(p.MaxSpeed)
	if !velocity.IsFinite() {
		velocity = geometry.Zero(len(velocity))
	}

	location := b.location.Add(velocity)
	turning := env.IsTurning(location)

	b.mu.Lock()
	b.velocity = velocity
	b.location = location
	b.turning = turning
	b.mu.Unlock()
}
