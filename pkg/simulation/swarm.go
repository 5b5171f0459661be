package simulation

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lao-tseu-is-alive/go-murmurations/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-murmurations/pkg/geometry"
	golog "github.com/tochemey/goakt/v3/log"
	"gonum.org/v1/gonum/floats"
)

// Swarm is a fixed population of boids living in a cube, chasing attractors.
//
// Tick is called by a single driver at a fixed rate. Every other exported
// method may be called from any goroutine: boid state is read through
// per-boid snapshots, attractors and the centre of mass have their own locks.
type Swarm struct {
	name   string
	cfg    Config
	cube   geometry.Cube
	seed   uint64
	logger golog.Logger

	// owned by the tick loop
	tickMu sync.Mutex
	boids  []*behavior.Boid
	rng    *rand.Rand
	cache  *DistanceCache
	env    behavior.Environment

	attrMu     sync.RWMutex
	attractors []*Attractor
	attIndex   int // next attractor PlaceAttractor overwrites

	comMu  sync.RWMutex
	comLoc geometry.Vector
	comVel geometry.Vector

	ticks    atomic.Uint64
	tickTime atomic.Int64 // nanoseconds spent in Tick, cumulative
}

// New builds a swarm from cfg. Boids start at Gaussian random points around
// the cube centre with uniform random velocities. A nil logger discards.
func New(cfg *Config, logger golog.Logger) (*Swarm, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = golog.DiscardLogger
	}
	cube, err := geometry.NewCube(geometry.NewVector(cfg.CubeMin...), cfg.EdgeLength)
	if err != nil {
		return nil, fmt.Errorf("swarm %q: %w", cfg.Name, err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	s := &Swarm{
		name:   cfg.Name,
		cfg:    *cfg,
		cube:   cube,
		seed:   seed,
		logger: logger,
		rng:    rng,
		cache:  NewDistanceCache(cfg.NumBoids),
		comLoc: cube.Centre(),
		comVel: geometry.Zero(cube.Dims()),
	}
	s.cfg.CubeMin = append([]float64(nil), cfg.CubeMin...)
	s.env = behavior.Environment{Cube: cube, Params: cfg.Params, Distances: s.cache}

	s.attractors = make([]*Attractor, cfg.NumAttractors)
	for i := range s.attractors {
		s.attractors[i] = newAttractor(RandomPoint(cube, cfg.RandPointSD, rng), rng)
	}
	s.boids = make([]*behavior.Boid, cfg.NumBoids)
	for i := range s.boids {
		s.boids[i] = behavior.New(i, RandomPoint(cube, cfg.RandPointSD, rng), randomVelocity(cube.Dims(), rng))
	}

	logger.Infof("swarm %q: %d boids, %d attractors (%s), %s, seed %d",
		s.name, cfg.NumBoids, cfg.NumAttractors, cfg.AttractorMode, cube, seed)
	return s, nil
}

func (s *Swarm) Name() string        { return s.name }
func (s *Swarm) Cube() geometry.Cube { return s.cube }
func (s *Swarm) Dims() int           { return s.cube.Dims() }
func (s *Swarm) NumBoids() int       { return len(s.boids) }
func (s *Swarm) Seed() uint64        { return s.seed }
func (s *Swarm) Mode() AttractorMode { return s.cfg.AttractorMode }

// Ticks is the number of completed ticks.
func (s *Swarm) Ticks() uint64 { return s.ticks.Load() }

// TickTime is the cumulative time spent inside Tick.
func (s *Swarm) TickTime() time.Duration { return time.Duration(s.tickTime.Load()) }

// Tick advances the simulation by one step:
// every boid computes its adjustment against the same positions, then every
// boid integrates, then the centre of mass and the attractors are updated.
func (s *Swarm) Tick() {
	start := time.Now()
	s.tickMu.Lock()
	defer func() {
		s.tickMu.Unlock()
		s.tickTime.Add(int64(time.Since(start)))
		s.ticks.Add(1)
	}()

	s.cache.Reset()
	s.env.Attractors = s.Attractors()

	for _, b := range s.boids {
		b.CalcVelocity(s.boids, &s.env)
	}

	dims := s.cube.Dims()
	posSum := make([]float64, dims)
	velSum := make([]float64, dims)
	for _, b := range s.boids {
		b.Integrate(&s.env, s.rng)
		snap := b.Snapshot()
		floats.Add(posSum, snap.Location)
		floats.Add(velSum, snap.Velocity)
	}
	n := 1 / float64(len(s.boids))
	s.comMu.Lock()
	s.comLoc = geometry.Vector(posSum).Mul(n)
	s.comVel = geometry.Vector(velSum).Mul(n)
	s.comMu.Unlock()

	s.updateAttractors()
}

func (s *Swarm) updateAttractors() {
	switch s.cfg.AttractorMode {
	case AttractorRandom:
		for i := range s.attractors {
			if s.rng.Float64() < s.cfg.RandAttractorChange {
				a := newAttractor(RandomPoint(s.cube, s.cfg.RandPointSD, s.rng), s.rng)
				s.attrMu.Lock()
				s.attractors[i] = a
				s.attrMu.Unlock()
			}
		}
	case AttractorPath:
		s.attrMu.Lock()
		for _, a := range s.attractors {
			a.stepPath(s.cube)
		}
		s.attrMu.Unlock()
	case AttractorExternal:
		// moved by PlaceAttractor only
	}
}

// PlaceAttractor converts per-axis 0..1 ratios into a position inside the
// cube and moves the attractor that has been still the longest there.
// It returns the index of the attractor moved, or -1 when there is none.
func (s *Swarm) PlaceAttractor(ratios geometry.Vector) int {
	loc := s.cube.Point(ratios)
	s.attrMu.Lock()
	defer s.attrMu.Unlock()
	if len(s.attractors) == 0 {
		return -1
	}
	i := s.attIndex
	s.attractors[i].location = loc
	s.attIndex = (s.attIndex + 1) % len(s.attractors)
	return i
}

// Attractors returns a copy of every attractor location.
func (s *Swarm) Attractors() []geometry.Vector {
	s.attrMu.RLock()
	defer s.attrMu.RUnlock()
	locs := make([]geometry.Vector, len(s.attractors))
	for i, a := range s.attractors {
		locs[i] = a.Location()
	}
	return locs
}

// BoidSnapshot returns a consistent copy of boid id's state.
func (s *Swarm) BoidSnapshot(id int) (behavior.Snapshot, bool) {
	if id < 0 || id >= len(s.boids) {
		return behavior.Snapshot{}, false
	}
	return s.boids[id].Snapshot(), true
}

// Snapshots copies every boid, in id order.
func (s *Swarm) Snapshots() []behavior.Snapshot {
	out := make([]behavior.Snapshot, len(s.boids))
	for i, b := range s.boids {
		out[i] = b.Snapshot()
	}
	return out
}

// CentreOfMass returns the mean boid location and velocity of the last tick.
func (s *Swarm) CentreOfMass() (location, velocity geometry.Vector) {
	s.comMu.RLock()
	defer s.comMu.RUnlock()
	return s.comLoc.Clone(), s.comVel.Clone()
}

// Boids exposes the population for the tick-side tooling (benchmarks, tests).
// Callers must not mutate boids concurrently with Tick.
func (s *Swarm) Boids() []*behavior.Boid { return s.boids }
