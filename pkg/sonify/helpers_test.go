package sonify

import (
	"sync"
	"testing"

	"github.com/lao-tseu-is-alive/go-murmurations/pkg/geometry"
	"gitlab.com/gomidi/midi/v2"
)

// fixedSource is a position source whose voices never move.
type fixedSource []geometry.Vector

func (f fixedSource) Voices() int                      { return len(f) }
func (f fixedSource) Ratios(voice int) geometry.Vector { return f[voice].Clone() }

// movingSource is a single voice that moves along the pitch axis on every
// read, cycling through pitches.
type movingSource struct {
	pitches []float64
	reads   int
}

func (m *movingSource) Voices() int { return 1 }

func (m *movingSource) Ratios(int) geometry.Vector {
	r := m.pitches[m.reads%len(m.pitches)]
	m.reads++
	return geometry.NewVector(0.5, r, 0.3, 0.5, 0.5)
}

// memRecorder keeps records in memory.
type memRecorder struct {
	mu   sync.Mutex
	recs []Record
}

func (m *memRecorder) Record(r Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.Message = append(midi.Message(nil), r.Message...)
	m.recs = append(m.recs, r)
}

func (m *memRecorder) Close() error { return nil }

func (m *memRecorder) records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.recs...)
}

// recordingPlacer remembers every placement.
type recordingPlacer struct {
	dims   int
	placed []geometry.Vector
}

func (p *recordingPlacer) Dims() int { return p.dims }

func (p *recordingPlacer) PlaceAttractor(ratios geometry.Vector) int {
	p.placed = append(p.placed, ratios.Clone())
	return len(p.placed) - 1
}

func threeVoices() fixedSource {
	return fixedSource{
		geometry.NewVector(0.5, 0.1, 0.2, 0.1, 0.5),
		geometry.NewVector(0.5, 0.5, 0.5, 0.5, 0.5),
		geometry.NewVector(0.5, 0.9, 0.8, 0.9, 0.5),
	}
}

func newTestInterpreter(t *testing.T, mutate func(c *Config), source Source, opts ...Option) (*Interpreter, *CaptureSink, *memRecorder) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Name = t.Name()
	cfg.Seed = 1
	if mutate != nil {
		mutate(cfg)
	}
	sink := &CaptureSink{}
	rec := &memRecorder{}
	opts = append([]Option{WithRecorder(rec)}, opts...)
	it, err := NewInterpreter(cfg, source, sink, opts...)
	if err != nil {
		t.Fatalf("NewInterpreter: %v", err)
	}
	return it, sink, rec
}

func status(msg midi.Message) byte {
	if len(msg) == 0 {
		return 0
	}
	return msg[0] & 0xF0
}
