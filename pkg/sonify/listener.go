package sonify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	golog "github.com/tochemey/goakt/v3/log"
	"gitlab.com/gomidi/midi/v2"
)

// DefaultPollTimeout bounds how long the listener waits on its source before
// checking for shutdown.
const DefaultPollTimeout = 50 * time.Millisecond

// InputSource is a poll-style MIDI input. Message waits at most timeout and
// returns the next message with the seconds elapsed since the previous one,
// or ok=false when nothing arrived.
type InputSource interface {
	Message(timeout time.Duration) (msg midi.Message, delta float64, ok bool)
}

// Listener feeds live input to interpreters, which turn note-ons into
// attractor positions.
type Listener struct {
	source       InputSource
	interpreters []*Interpreter
	timeout      time.Duration
	logger       golog.Logger

	sinceNoteOn float64 // seconds since the last note-on, owned by the worker
	received    atomic.Uint64
	noteOns     atomic.Uint64

	started  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewListener(source InputSource, logger golog.Logger, interpreters ...*Interpreter) *Listener {
	if logger == nil {
		logger = golog.DiscardLogger
	}
	return &Listener{
		source:       source,
		interpreters: interpreters,
		timeout:      DefaultPollTimeout,
		logger:       logger,
		done:         make(chan struct{}),
	}
}

// Received is the number of messages read from the source.
func (l *Listener) Received() uint64 { return l.received.Load() }

// NoteOns is the number of note-ons forwarded to the interpreters.
func (l *Listener) NoteOns() uint64 { return l.noteOns.Load() }

// Handle processes one incoming message. Only note-ons reach the
// interpreters; every message counts towards the inter-onset time.
func (l *Listener) Handle(msg midi.Message, delta float64) {
	l.received.Add(1)
	l.sinceNoteOn += delta

	var channel, key, velocity uint8
	if !msg.GetNoteStart(&channel, &key, &velocity) {
		return
	}
	interOnset := l.sinceNoteOn
	l.sinceNoteOn = 0
	l.noteOns.Add(1)
	for _, it := range l.interpreters {
		it.BackwardsInterpret(msg, interOnset)
	}
}

// Start polls the source on its own goroutine until Stop or ctx is done.
func (l *Listener) Start(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	l.wg.Add(1)
	go l.run(ctx)
	return nil
}

func (l *Listener) run(ctx context.Context) {
	defer l.wg.Done()
	l.logger.Infof("listener started for %d interpreter(s)", len(l.interpreters))
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		default:
		}
		if msg, delta, ok := l.source.Message(l.timeout); ok {
			l.Handle(msg, delta)
		}
	}
}

// Stop asks the listener to exit and waits for it. Safe to call twice.
func (l *Listener) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
	l.wg.Wait()
	l.logger.Infof("listener stopped: %d messages, %d note-ons", l.received.Load(), l.noteOns.Load())
}

// ============================================================================
// Input sources
// ============================================================================

// ChanSource reads messages from a channel, for hosts that receive input
// elsewhere (a MIDI port callback, the viewer).
type ChanSource struct {
	C    chan midi.Message
	last time.Time
}

func NewChanSource(buffer int) *ChanSource {
	return &ChanSource{C: make(chan midi.Message, buffer)}
}

func (s *ChanSource) Message(timeout time.Duration) (midi.Message, float64, bool) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case msg := <-s.C:
		now := time.Now()
		delta := 0.0
		if !s.last.IsZero() {
			delta = now.Sub(s.last).Seconds()
		}
		s.last = now
		return msg, delta, true
	case <-t.C:
		return nil, 0, false
	}
}

// ReplaySource plays back recorded messages in real time, scaled by Speed,
// standing in for a MIDI input port. Only note-ons are replayed.
type ReplaySource struct {
	records []Record
	speed   float64
	loop    bool

	next  int
	start time.Time
	prev  float64
	base  float64 // time of the first record
}

// NewReplaySource replays the note-ons of records. speed 2 plays twice as
// fast; a non-positive speed means 1. With loop the replay starts over at
// the end.
func NewReplaySource(records []Record, speed float64, loop bool) *ReplaySource {
	notes := make([]Record, 0, len(records))
	for _, r := range records {
		if isNoteOn(r.Message) {
			notes = append(notes, r)
		}
	}
	if speed <= 0 {
		speed = 1
	}
	s := &ReplaySource{records: notes, speed: speed, loop: loop}
	if len(notes) > 0 {
		s.base = notes[0].Time
		s.prev = s.base
	}
	return s
}

// Len is the number of replayable messages.
func (s *ReplaySource) Len() int { return len(s.records) }

// Done reports whether a non-looping replay has sent everything.
func (s *ReplaySource) Done() bool { return !s.loop && s.next >= len(s.records) }

func (s *ReplaySource) Message(timeout time.Duration) (midi.Message, float64, bool) {
	if len(s.records) == 0 || s.Done() {
		time.Sleep(timeout)
		return nil, 0, false
	}
	if s.next >= len(s.records) {
		s.next = 0
		s.start = time.Time{}
		s.prev = s.base
	}
	if s.start.IsZero() {
		s.start = time.Now()
	}

	rec := s.records[s.next]
	due := s.start.Add(time.Duration((rec.Time - s.base) / s.speed * float64(time.Second)))
	wait := time.Until(due)
	if wait > timeout {
		time.Sleep(timeout)
		return nil, 0, false
	}
	if wait > 0 {
		time.Sleep(wait)
	}
	s.next++
	delta := (rec.Time - s.prev) / s.speed
	s.prev = rec.Time
	return rec.Message, delta, true
}
