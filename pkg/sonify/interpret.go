package sonify

import (
	"math"

	"github.com/lao-tseu-is-alive/go-murmurations/pkg/geometry"
	"gitlab.com/gomidi/midi/v2"
)

// MinTime is the shortest inter-onset time or note duration ever scheduled, in seconds.
const MinTime = 0.001

// Rhythms are the note lengths, in beats, used when timing snaps to the beat.
var Rhythms = []float64{4, 3, 2, 1.5, 1, 0.5, 0.25, 0.125}

// Note is one interpreted position.
type Note struct {
	Dynamic  uint8
	Pitch    uint8
	Time     float64 // until the next onset of the same voice
	Duration float64 // sustain, never longer than Time
	Pan      uint8
}

// Source is a set of voices whose positions are expressed as per-axis 0..1 ratios.
type Source interface {
	Voices() int
	Ratios(voice int) geometry.Vector
}

// Placer receives positions computed from live input.
type Placer interface {
	Dims() int
	PlaceAttractor(ratios geometry.Vector) int
}

// mapping is the immutable part of an interpreter: how ratios become notes.
type mapping struct {
	cfg   Config
	notes []int // empty for linear pitch
	beat  float64
}

func newMapping(cfg Config) (mapping, error) {
	m := mapping{cfg: cfg}
	if cfg.Scale != "" {
		mode, err := LookupScale(cfg.Scale)
		if err != nil {
			return m, err
		}
		m.notes = GenRange(mode, cfg.PitchMin, cfg.PitchRange)
	}
	if cfg.BPM > 0 {
		m.beat = 60 / cfg.BPM
	}
	return m, nil
}

// lerp maps ratio onto [lo, lo+span].
func lerp(ratio, lo, span float64) float64 {
	return ratio*span + lo
}

// index converts a ratio into a position along a list of n elements,
// clamped so ratios at or past 1 (or NaN) never fall off the end.
func index(ratio float64, n int) int {
	if n == 0 || math.IsNaN(ratio) {
		return 0
	}
	i := int(math.Floor(ratio * float64(n)))
	return max(0, min(n-1, i))
}

func toMIDI(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(max(0, min(127, int(v))))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	return math.Max(0, math.Min(1, v))
}

// ratio reads axis from ratios, defaulting to the middle when the source has
// fewer dimensions.
func ratio(ratios geometry.Vector, axis int) float64 {
	if axis < 0 || axis >= len(ratios) {
		return 0.5
	}
	return geometry.ClampRatio(ratios[axis])
}

func (m *mapping) interpret(ratios geometry.Vector) Note {
	c := &m.cfg
	var n Note

	// velocity 0 is a note-off on the wire
	n.Dynamic = max(1, toMIDI(lerp(ratio(ratios, c.Axes.Dynamic), float64(c.DynamicMin), float64(c.DynamicRange))))

	if len(m.notes) > 0 {
		n.Pitch = toMIDI(float64(m.notes[index(ratio(ratios, c.Axes.Pitch), len(m.notes))]))
	} else {
		n.Pitch = toMIDI(lerp(ratio(ratios, c.Axes.Pitch), float64(c.PitchMin), float64(c.PitchRange)))
	}

	if m.beat > 0 {
		n.Time = Rhythms[index(ratio(ratios, c.Axes.Time), len(Rhythms))] * m.beat
	} else {
		n.Time = lerp(ratio(ratios, c.Axes.Time), c.TimeMin, c.TimeRange)
	}
	n.Time = math.Max(n.Time, MinTime)

	articulation := clamp01(lerp(ratio(ratios, c.Axes.Length), c.ArticulationMin, c.ArticulationRange))
	n.Duration = math.Max(n.Time*articulation, MinTime)
	if n.Duration > n.Time {
		n.Duration = n.Time
	}

	n.Pan = toMIDI(lerp(ratio(ratios, c.Axes.Pan), float64(c.PanMin), float64(c.PanRange)))
	return n
}

// backwards converts a note-on and the time since the previous note-on into
// ratios for a space of dims dimensions. Axes the message says nothing
// about stay in the middle. clamped reports whether any input was outside
// the configured ranges.
func (m *mapping) backwards(msg midi.Message, interOnset float64, dims int) (ratios geometry.Vector, clamped, ok bool) {
	var channel, key, velocity uint8
	if !msg.GetNoteStart(&channel, &key, &velocity) {
		return nil, false, false
	}
	c := &m.cfg
	ratios = geometry.Filled(dims, 0.5)
	set := func(axis int, v float64) {
		if v < 0 || v > 1 || math.IsNaN(v) {
			clamped = true
		}
		if axis >= 0 && axis < dims {
			ratios[axis] = clamp01(v)
		}
	}

	if len(m.notes) > 0 {
		i := nearest(m.notes, int(key))
		if int(key) < m.notes[0] || int(key) > m.notes[len(m.notes)-1] {
			clamped = true
		}
		set(c.Axes.Pitch, (float64(i)+0.5)/float64(len(m.notes)))
	} else {
		set(c.Axes.Pitch, (float64(key)-float64(c.PitchMin))/float64(c.PitchRange))
	}

	if c.DynamicRange > 0 {
		set(c.Axes.Dynamic, (float64(velocity)-float64(c.DynamicMin))/float64(c.DynamicRange))
	}

	if m.beat > 0 {
		beats := interOnset / m.beat
		best := 0
		for i, r := range Rhythms {
			if math.Abs(r-beats) < math.Abs(Rhythms[best]-beats) {
				best = i
			}
		}
		set(c.Axes.Time, (float64(best)+0.5)/float64(len(Rhythms)))
	} else if c.TimeRange > 0 {
		set(c.Axes.Time, (interOnset-c.TimeMin)/c.TimeRange)
	}
	return ratios, clamped, true
}

// nearest returns the index of the element of sorted notes closest to key.
func nearest(notes []int, key int) int {
	best := 0
	for i, n := range notes {
		if abs(n-key) < abs(notes[best]-key) {
			best = i
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
