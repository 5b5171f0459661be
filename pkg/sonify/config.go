package sonify

import (
	"fmt"
	"math"
	"strings"
)

// Voicing selects what an interpreter listens to.
type Voicing int

const (
	// VoicingPoly gives every boid its own voice.
	VoicingPoly Voicing = iota
	// VoicingMono plays the swarm centre of mass alone.
	VoicingMono
)

var voicingNames = [...]string{"poly", "mono"}

func (v Voicing) String() string {
	if v < 0 || int(v) >= len(voicingNames) {
		return fmt.Sprintf("Voicing(%d)", int(v))
	}
	return voicingNames[v]
}

func (v Voicing) MarshalText() ([]byte, error) {
	if v < 0 || int(v) >= len(voicingNames) {
		return nil, fmt.Errorf("unknown voicing %d", int(v))
	}
	return []byte(v.String()), nil
}

func (v *Voicing) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i, name := range voicingNames {
		if s == name {
			*v = Voicing(i)
			return nil
		}
	}
	return &ConfigError{Key: "voicing", Reason: fmt.Sprintf("unknown voicing %q", s)}
}

// ConfigError reports an invalid interpreter tunable.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid interpreter config %q: %s", e.Key, e.Reason)
}

// Axes maps musical parameters onto swarm dimensions.
type Axes struct {
	Dynamic int `json:"dynamic"`
	Pitch   int `json:"pitch"`
	Time    int `json:"time"`
	Pan     int `json:"pan"`
	Length  int `json:"length"`
}

func (a Axes) byName() map[string]int {
	return map[string]int{
		"axes.dynamic": a.Dynamic,
		"axes.pitch":   a.Pitch,
		"axes.time":    a.Time,
		"axes.pan":     a.Pan,
		"axes.length":  a.Length,
	}
}

// Instrument is a bank select and program change sent when the interpreter starts.
type Instrument struct {
	Bank    uint8 `json:"bank"`
	Program uint8 `json:"program"`
}

// Config holds the per-channel interpretation settings.
// Times are in seconds. A *Min/*Range pair maps a 0..1 ratio onto
// [Min, Min+Range].
type Config struct {
	Name       string      `json:"name"`
	Channel    uint8       `json:"channel"`
	Instrument *Instrument `json:"instrument,omitempty"` // nil leaves the synth patch alone

	PitchMin          int     `json:"pitchMin"`
	PitchRange        int     `json:"pitchRange"`
	DynamicMin        int     `json:"dynamicMin"`
	DynamicRange      int     `json:"dynamicRange"`
	TimeMin           float64 `json:"timeMin"`
	TimeRange         float64 `json:"timeRange"`
	PanMin            int     `json:"panMin"`
	PanRange          int     `json:"panRange"`
	ArticulationMin   float64 `json:"articulationMin"`
	ArticulationRange float64 `json:"articulationRange"`

	Probability float64 `json:"probability"` // chance that a scheduled note actually sounds
	Scale       string  `json:"scale"`       // empty for linear pitch
	BPM         float64 `json:"bpm"`         // 0 for free timing, otherwise snap to beats

	Voicing    Voicing `json:"voicing"`
	Axes       Axes    `json:"axes"`
	TickPeriod float64 `json:"tickPeriod"`
	Seed       uint64  `json:"seed"` // 0 picks a random seed
}

func DefaultConfig() *Config {
	return &Config{
		Channel:           0,
		PitchMin:          21,
		PitchRange:        88,
		DynamicMin:        25,
		DynamicRange:      102,
		TimeMin:           0.05,
		TimeRange:         0.25,
		PanMin:            30,
		PanRange:          67,
		ArticulationMin:   0.2,
		ArticulationRange: 0.8,
		Probability:       1.0,
		Scale:             "chromatic",
		Voicing:           VoicingPoly,
		Axes:              Axes{Dynamic: 0, Pitch: 1, Time: 2, Pan: 3, Length: 4},
		TickPeriod:        0.05,
	}
}

// Validate checks every tunable, reporting the first offending key.
func (c *Config) Validate() error {
	invalid := func(key, format string, args ...any) error {
		return &ConfigError{Key: key, Reason: fmt.Sprintf(format, args...)}
	}
	midiSpan := func(key string, lo, span int) error {
		if lo < 0 || span < 0 || lo+span > 127 {
			return invalid(key, "[%d, %d] is outside 0..127", lo, lo+span)
		}
		return nil
	}
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

	if c.Channel > 15 {
		return invalid("channel", "must be 0..15, got %d", c.Channel)
	}
	if c.PitchRange <= 0 {
		return invalid("pitchRange", "must be positive, got %d", c.PitchRange)
	}
	if err := midiSpan("pitchMin", c.PitchMin, c.PitchRange); err != nil {
		return err
	}
	if err := midiSpan("dynamicMin", c.DynamicMin, c.DynamicRange); err != nil {
		return err
	}
	if err := midiSpan("panMin", c.PanMin, c.PanRange); err != nil {
		return err
	}
	switch {
	case !finite(c.TimeMin) || c.TimeMin < 0:
		return invalid("timeMin", "must be a non-negative number, got %v", c.TimeMin)
	case !finite(c.TimeRange) || c.TimeRange < 0:
		return invalid("timeRange", "must be a non-negative number, got %v", c.TimeRange)
	case c.BPM == 0 && c.TimeMin+c.TimeRange <= 0:
		return invalid("timeRange", "free timing needs timeMin+timeRange > 0")
	case !finite(c.ArticulationMin) || c.ArticulationMin < 0:
		return invalid("articulationMin", "must be a non-negative number, got %v", c.ArticulationMin)
	case !finite(c.ArticulationRange) || c.ArticulationRange < 0:
		return invalid("articulationRange", "must be a non-negative number, got %v", c.ArticulationRange)
	case !(c.Probability >= 0 && c.Probability <= 1):
		return invalid("probability", "must be within [0, 1], got %v", c.Probability)
	case !finite(c.BPM) || c.BPM < 0:
		return invalid("bpm", "must be a non-negative number, got %v", c.BPM)
	case c.Voicing < VoicingPoly || c.Voicing > VoicingMono:
		return invalid("voicing", "unknown voicing %d", int(c.Voicing))
	case !finite(c.TickPeriod) || c.TickPeriod <= 0:
		return invalid("tickPeriod", "must be positive, got %v", c.TickPeriod)
	}
	if c.Scale != "" {
		if _, err := LookupScale(c.Scale); err != nil {
			return invalid("scale", "%v", err)
		}
	}
	for key, axis := range c.Axes.byName() {
		if axis < 0 {
			return invalid(key, "cannot be negative, got %d", axis)
		}
	}
	return nil
}

// ValidateAxes checks that every mapped axis exists in a swarm of dims dimensions.
func (c *Config) ValidateAxes(dims int) error {
	for key, axis := range c.Axes.byName() {
		if axis >= dims {
			return &ConfigError{Key: key, Reason: fmt.Sprintf("axis %d outside %d dimensions", axis, dims)}
		}
	}
	return nil
}
