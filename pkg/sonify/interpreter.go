package sonify

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lao-tseu-is-alive/go-murmurations/pkg/geometry"
	golog "github.com/tochemey/goakt/v3/log"
	"gitlab.com/gomidi/midi/v2"
)

// ErrAlreadyStarted is returned by Start on a running or stopped interpreter.
var ErrAlreadyStarted = errors.New("interpreter already started")

// Stats are the interpreter counters. They can be read while it runs.
type Stats struct {
	Processed uint64  // events popped from the queue
	NotesOn   uint64  // note-ons actually sent
	NotesOff  uint64  // note-offs sent
	Silenced  uint64  // notes kept silent by the probability gate
	Overruns  uint64  // ticks whose processing exceeded the tick period
	Placed    uint64  // attractors placed from live input
	Elapsed   float64 // interpreter clock, in seconds
	Pending   int     // events waiting in the queue
}

// Interpreter turns the positions of a Source into notes on one MIDI channel.
//
// It runs its own clock: every tick it plays the events that are due, then
// sleeps for the rest of the tick period. Each voice always has exactly one
// pending start and at most one pending stop.
type Interpreter struct {
	name     string
	m        mapping
	source   Source
	sink     Sink
	recorder Recorder
	placer   Placer
	logger   golog.Logger
	rng      *rand.Rand
	period   time.Duration

	// owned by the worker goroutine, or by the caller of Prime/Step in tests
	queue   *eventQueue
	elapsed float64
	primed  bool

	elapsedBits atomic.Uint64
	pending     atomic.Int64
	processed   atomic.Uint64
	notesOn     atomic.Uint64
	notesOff    atomic.Uint64
	silenced    atomic.Uint64
	overruns    atomic.Uint64
	placed      atomic.Uint64

	panicReq atomic.Bool

	started  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the logger. The default discards.
func WithLogger(logger golog.Logger) Option {
	return func(it *Interpreter) {
		if logger != nil {
			it.logger = logger
		}
	}
}

// WithRecorder hands every sent message to rec.
func WithRecorder(rec Recorder) Option {
	return func(it *Interpreter) { it.recorder = rec }
}

// WithPlacer enables BackwardsInterpret: live input moves p's attractors.
func WithPlacer(p Placer) Option {
	return func(it *Interpreter) { it.placer = p }
}

// NewInterpreter validates cfg and builds an interpreter reading positions
// from source and writing to sink. A nil sink drops everything.
func NewInterpreter(cfg *Config, source Source, sink Sink, opts ...Option) (*Interpreter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, &ConfigError{Key: "source", Reason: "no voices to interpret"}
	}
	m, err := newMapping(*cfg)
	if err != nil {
		return nil, &ConfigError{Key: "scale", Reason: err.Error()}
	}
	if sink == nil {
		sink = NopSink{}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	name := cfg.Name
	if name == "" {
		name = "interpreter-" + uuid.NewString()[:8]
	}

	it := &Interpreter{
		name:   name,
		m:      m,
		source: source,
		sink:   sink,
		logger: golog.DiscardLogger,
		rng:    rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb)),
		period: time.Duration(cfg.TickPeriod * float64(time.Second)),
		queue:  newEventQueue(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(it)
	}
	it.logger.Infof("interpreter %q: channel %d, %s voicing, scale %q, bpm %v, probability %v, seed %d",
		name, cfg.Channel, cfg.Voicing, cfg.Scale, cfg.BPM, cfg.Probability, seed)
	return it, nil
}

func (it *Interpreter) Name() string { return it.name }

// Config returns a copy of the interpreter settings.
func (it *Interpreter) Config() Config { return it.m.cfg }

// Notes is the scale the interpreter snaps pitches to, empty for linear pitch.
func (it *Interpreter) Notes() []int { return append([]int(nil), it.m.notes...) }

// Interpret converts per-axis ratios into a note.
func (it *Interpreter) Interpret(ratios geometry.Vector) Note {
	return it.m.interpret(ratios)
}

// BackwardsInterpret maps an incoming note-on, and the seconds since the
// previous incoming note-on, into the swarm space and places an attractor
// there. Anything other than a note-on is ignored. It returns the ratios
// used and whether an attractor was placed.
func (it *Interpreter) BackwardsInterpret(msg midi.Message, interOnset float64) (geometry.Vector, bool) {
	if it.placer == nil {
		return nil, false
	}
	ratios, clamped, ok := it.m.backwards(msg, interOnset, it.placer.Dims())
	if !ok {
		return nil, false
	}
	if clamped {
		it.logger.Debugf("interpreter %q: input %s after %.3fs outside the configured ranges, clamped to %v",
			it.name, msg, interOnset, ratios)
	}
	if it.placer.PlaceAttractor(ratios) < 0 {
		return ratios, false
	}
	it.placed.Add(1)
	return ratios, true
}

// Stats returns a snapshot of the counters.
func (it *Interpreter) Stats() Stats {
	return Stats{
		Processed: it.processed.Load(),
		NotesOn:   it.notesOn.Load(),
		NotesOff:  it.notesOff.Load(),
		Silenced:  it.silenced.Load(),
		Overruns:  it.overruns.Load(),
		Placed:    it.placed.Load(),
		Elapsed:   math.Float64frombits(it.elapsedBits.Load()),
		Pending:   int(it.pending.Load()),
	}
}

// ============================================================================
// MIDI output
// ============================================================================

func (it *Interpreter) send(msg midi.Message, duration float64) {
	it.sink.SendMessage(msg)
	if it.recorder != nil {
		it.recorder.Record(Record{Time: it.elapsed, Message: msg, Duration: duration})
	}
}

// activate selects the configured instrument. The drum channel has no programs.
func (it *Interpreter) activate() {
	c := &it.m.cfg
	if c.Instrument == nil || c.Channel == drumChannel {
		return
	}
	it.send(midi.ControlChange(c.Channel, ccBankSelect, c.Instrument.Bank&0x7F), 0)
	it.send(midi.ProgramChange(c.Channel, c.Instrument.Program&0x7F), 0)
}

// Panic silences the channel: all sound off, then all notes off.
func (it *Interpreter) Panic() {
	ch := it.m.cfg.Channel
	it.send(midi.ControlChange(ch, ccAllSoundOff, 0), 0)
	it.send(midi.ControlChange(ch, ccAllNotesOff, 0), 0)
}

// RequestPanic asks a running interpreter to silence its channel at the
// start of its next tick. It is safe to call from any goroutine.
func (it *Interpreter) RequestPanic() {
	it.panicReq.Store(true)
}

// ============================================================================
// Scheduler
// ============================================================================

// Prime sounds the first note of every voice and schedules what follows.
// It is called once, before the first Step.
func (it *Interpreter) Prime() {
	if it.primed {
		return
	}
	it.primed = true
	it.activate()
	voices := it.source.Voices()
	for v := 0; v < voices; v++ {
		it.startNote(v, it.m.interpret(it.source.Ratios(v)))
	}
	it.pending.Store(int64(it.queue.Len()))
}

// startNote plays note for voice now (subject to the probability gate) and
// schedules its stop and the voice's next start.
func (it *Interpreter) startNote(voice int, note Note) {
	ch := it.m.cfg.Channel
	sounded := it.rng.Float64() < it.m.cfg.Probability
	if sounded {
		it.send(midi.ControlChange(ch, ccPan, note.Pan&0x7F), 0)
		it.send(midi.NoteOn(ch, note.Pitch&0x7F, note.Dynamic&0x7F), note.Duration)
		it.notesOn.Add(1)
	} else {
		it.silenced.Add(1)
	}
	it.queue.push(event{at: it.elapsed + note.Duration, kind: noteStop, voice: voice, note: note, sounded: sounded})
	it.queue.push(event{at: it.elapsed + note.Time, kind: noteStart, voice: voice})
}

// processDue handles every event due on the current clock.
func (it *Interpreter) processDue() int {
	n := 0
	for {
		ev, ok := it.queue.popDue(it.elapsed)
		if !ok {
			break
		}
		n++
		switch ev.kind {
		case noteStop:
			// release the pitch that was sounded, not the voice's current one
			if ev.sounded {
				it.send(midi.NoteOff(it.m.cfg.Channel, ev.note.Pitch&0x7F), 0)
				it.notesOff.Add(1)
			}
		case noteStart:
			it.startNote(ev.voice, it.m.interpret(it.source.Ratios(ev.voice)))
		}
	}
	it.processed.Add(uint64(n))
	it.pending.Store(int64(it.queue.Len()))
	return n
}

func (it *Interpreter) advance() {
	it.elapsed += it.m.cfg.TickPeriod
	it.elapsedBits.Store(math.Float64bits(it.elapsed))
}

// Step runs one tick without sleeping: play what is due, then advance the
// clock by the tick period. It returns the number of events processed.
// Step is for callers driving the clock themselves; a started interpreter
// steps on its own.
func (it *Interpreter) Step() int {
	if !it.primed {
		it.Prime()
	}
	n := it.processDue()
	it.advance()
	return n
}

// ============================================================================
// Worker
// ============================================================================

// Start runs the interpreter on its own goroutine until Stop or ctx is done.
func (it *Interpreter) Start(ctx context.Context) error {
	if !it.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	it.wg.Add(1)
	go it.run(ctx)
	return nil
}

func (it *Interpreter) run(ctx context.Context) {
	defer it.wg.Done()
	defer it.shutdown()

	it.logger.Infof("interpreter %q started, tick %v", it.name, it.period)
	it.Prime()

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		select {
		case <-ctx.Done():
			return
		case <-it.done:
			return
		default:
		}

		start := time.Now()
		if it.panicReq.Swap(false) {
			it.Panic()
		}
		it.processDue()
		spent := time.Since(start)
		wait := it.period - spent
		if wait < 0 {
			it.overruns.Add(1)
			it.logger.Warnf("interpreter %q: tick at %.2fs took %v, over the %v period, timing is drifting",
				it.name, it.elapsed, spent, it.period)
			wait = 0
		}

		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return
		case <-it.done:
			return
		case <-timer.C:
		}
		it.advance()
	}
}

// shutdown runs on the worker goroutine as it exits, whatever the queue holds.
func (it *Interpreter) shutdown() {
	it.Panic()
	it.queue.clear()
	it.pending.Store(0)
	s := it.Stats()
	it.logger.Infof("interpreter %q stopped at %.2fs: %d events, %d notes on, %d silenced, %d overruns",
		it.name, s.Elapsed, s.Processed, s.NotesOn, s.Silenced, s.Overruns)
}

// Stop asks the worker to finish its current tick and waits for it to send
// the all-notes-off messages and exit. Safe to call more than once.
func (it *Interpreter) Stop() {
	it.stopOnce.Do(func() { close(it.done) })
	it.wg.Wait()
}
