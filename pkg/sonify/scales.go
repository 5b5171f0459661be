package sonify

import (
	"fmt"
	"sort"
	"strings"
)

// Intervals in semitones.
const (
	semitone = 1
	tone     = 2
	toneHalf = 3
)

// baseMode is the aeolian mode, every other diatonic mode is a rotation of it.
var baseMode = []int{tone, semitone, tone, tone, semitone, tone, tone}

func rotate(mode []int, n int) []int {
	out := make([]int, len(mode))
	for i := range mode {
		out[i] = mode[(i+n)%len(mode)]
	}
	return out
}

// Scales maps a scale name to its interval pattern. A pattern is repeated
// from the lowest note until the configured pitch range is covered.
var Scales = map[string][]int{
	"aeolian":    rotate(baseMode, 0),
	"locrian":    rotate(baseMode, 1),
	"ionian":     rotate(baseMode, 2),
	"dorian":     rotate(baseMode, 3),
	"phrygian":   rotate(baseMode, 4),
	"lydian":     rotate(baseMode, 5),
	"mixolydian": rotate(baseMode, 6),

	"major":            rotate(baseMode, 2),
	"natural-minor":    rotate(baseMode, 0),
	"harmonic-minor":   {tone, semitone, tone, tone, semitone, toneHalf, semitone},
	"melodic-minor":    {tone, semitone, tone, tone, tone, tone, semitone},
	"blues":            {toneHalf, tone, semitone, semitone, toneHalf, tone},
	"minor-pentatonic": {toneHalf, tone, tone, toneHalf, tone},
	"chromatic":        {semitone},
	"major-arpeggio":   {4, 3, 5},
	"major-seventh":    {4, 3, 3, 2},
	"minor-arpeggio":   {3, 4, 5},
	"whole-tone":       {tone},
	"persian":          {semitone, toneHalf, semitone, semitone, tone, toneHalf, semitone},
	// from Gnossienne no. 3
	"satie":   {tone, semitone, toneHalf, semitone, tone, toneHalf},
	"altered": {semitone, tone, semitone, tone, tone, tone, tone},
}

// ScaleNames lists the known scales, sorted.
func ScaleNames() []string {
	names := make([]string, 0, len(Scales))
	for name := range Scales {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupScale returns the interval pattern for name, case-insensitively.
func LookupScale(name string) ([]int, error) {
	mode, ok := Scales[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown scale %q", name)
	}
	return mode, nil
}

// GenRange lists the MIDI notes of mode, starting on lowest as the tonic and
// stepping until the note reaches lowest+noteRange. The last note may
// overshoot the range by less than one interval; notes above 127 are dropped.
func GenRange(mode []int, lowest, noteRange int) []int {
	notes := []int{lowest}
	if len(mode) == 0 {
		return notes
	}
	prev := lowest
	for i := 0; prev < lowest+noteRange; i++ {
		step := mode[i%len(mode)]
		if step <= 0 {
			break
		}
		prev += step
		if prev > 127 {
			break
		}
		notes = append(notes, prev)
	}
	return notes
}
