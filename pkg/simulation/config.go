package simulation

import (
	"fmt"
	"math"
	"strings"

	"github.com/lao-tseu-is-alive/go-murmurations/pkg/behavior"
)

// AttractorMode selects how a swarm moves its attractors, once, at construction.
type AttractorMode int

const (
	// AttractorRandom teleports each attractor with probability RandAttractorChange per tick.
	AttractorRandom AttractorMode = iota
	// AttractorPath moves attractors along a smooth parametric orbit.
	AttractorPath
	// AttractorExternal only moves attractors through Swarm.PlaceAttractor.
	AttractorExternal
)

var attractorModeNames = [...]string{"random", "path", "external"}

func (m AttractorMode) String() string {
	if m < 0 || int(m) >= len(attractorModeNames) {
		return fmt.Sprintf("AttractorMode(%d)", int(m))
	}
	return attractorModeNames[m]
}

func (m AttractorMode) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(attractorModeNames) {
		return nil, fmt.Errorf("unknown attractor mode %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *AttractorMode) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i, name := range attractorModeNames {
		if s == name {
			*m = AttractorMode(i)
			return nil
		}
	}
	return &ConfigError{Key: "attractorMode", Reason: fmt.Sprintf("unknown mode %q", s)}
}

// ConfigError reports an invalid swarm tunable.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid swarm config %q: %s", e.Key, e.Reason)
}

// Config holds everything needed to build a Swarm.
// The behaviour constants are inlined in the JSON document.
type Config struct {
	Name          string    `json:"name"`
	NumBoids      int       `json:"numBoids"`
	NumAttractors int       `json:"numAttractors"`
	CubeMin       []float64 `json:"cubeMin"` // its length is the number of dimensions
	EdgeLength    float64   `json:"edgeLength"`
	Seed          uint64    `json:"seed"` // 0 picks a random seed, logged at startup

	AttractorMode       AttractorMode `json:"attractorMode"`
	RandAttractorChange float64       `json:"randAttractorChange"`
	RandPointSD         float64       `json:"randPointSD"` // edge/RandPointSD is the spawn standard deviation

	behavior.Params
}

func DefaultConfig() *Config {
	return &Config{
		Name:                "swarm",
		NumBoids:            15,
		NumAttractors:       2,
		CubeMin:             []float64{10, 50, 7, 0, 0},
		EdgeLength:          40,
		AttractorMode:       AttractorRandom,
		RandAttractorChange: 0.035,
		RandPointSD:         7.5,
		Params:              behavior.DefaultParams(),
	}
}

// Dims is the dimensionality of the swarm.
func (c *Config) Dims() int { return len(c.CubeMin) }

// Validate checks every tunable, reporting the first offending key.
func (c *Config) Validate() error {
	invalid := func(key, format string, args ...any) error {
		return &ConfigError{Key: key, Reason: fmt.Sprintf(format, args...)}
	}
	positive := func(v float64) bool { return v > 0 && !math.IsInf(v, 0) }

	switch {
	case c.NumBoids < 1:
		return invalid("numBoids", "need at least one boid, got %d", c.NumBoids)
	case c.NumAttractors < 0:
		return invalid("numAttractors", "cannot be negative, got %d", c.NumAttractors)
	case len(c.CubeMin) == 0:
		return invalid("cubeMin", "need at least one dimension")
	case !positive(c.EdgeLength):
		return invalid("edgeLength", "must be positive, got %v", c.EdgeLength)
	case c.AttractorMode < AttractorRandom || c.AttractorMode > AttractorExternal:
		return invalid("attractorMode", "unknown mode %d", int(c.AttractorMode))
	case c.RandAttractorChange < 0 || c.RandAttractorChange > 1:
		return invalid("randAttractorChange", "must be a probability, got %v", c.RandAttractorChange)
	case !positive(c.RandPointSD):
		return invalid("randPointSD", "must be positive, got %v", c.RandPointSD)
	case !positive(c.MaxSpeed):
		return invalid("maxSpeed", "must be positive, got %v", c.MaxSpeed)
	case c.MotionConstant < 0:
		return invalid("motionConstant", "cannot be negative, got %v", c.MotionConstant)
	case !positive(c.TurningRatio):
		return invalid("turningRatio", "must be positive, got %v", c.TurningRatio)
	case c.CohesionNeighbourhood < 0:
		return invalid("cohesionNeighbourhood", "cannot be negative, got %v", c.CohesionNeighbourhood)
	case c.AlignmentNeighbourhood < 0:
		return invalid("alignmentNeighbourhood", "cannot be negative, got %v", c.AlignmentNeighbourhood)
	case c.SeparationNeighbourhood < 0:
		return invalid("separationNeighbourhood", "cannot be negative, got %v", c.SeparationNeighbourhood)
	case c.FeedDist < 0:
		return invalid("feedDist", "cannot be negative, got %v", c.FeedDist)
	case c.AttractorsNoticed < 0:
		return invalid("attractorsNoticed", "cannot be negative, got %d", c.AttractorsNoticed)
	case c.Repulsion.Enabled && (c.Repulsion.Axis < 0 || c.Repulsion.Axis >= len(c.CubeMin)):
		return invalid("repulsion.axis", "axis %d outside %d dimensions", c.Repulsion.Axis, len(c.CubeMin))
	}
	for i, v := range c.CubeMin {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("cubeMin", "coordinate %d is not finite", i)
		}
	}
	return nil
}
