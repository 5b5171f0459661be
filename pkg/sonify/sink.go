package sonify

import (
	"sync"

	golog "github.com/tochemey/goakt/v3/log"
	"gitlab.com/gomidi/midi/v2"
)

// Controller numbers used by the interpreter.
const (
	ccBankSelect  = 0
	ccPan         = 10
	ccAllSoundOff = 120
	ccAllNotesOff = 123

	drumChannel = 9
)

// Sink receives outgoing MIDI messages. SendMessage is fire and forget:
// it must not block and reports nothing back.
type Sink interface {
	SendMessage(msg midi.Message)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(msg midi.Message)

func (f SinkFunc) SendMessage(msg midi.Message) { f(msg) }

// NopSink drops everything. Used when an output cannot be opened.
type NopSink struct{}

func (NopSink) SendMessage(midi.Message) {}

// LogSink logs every message at debug level.
type LogSink struct {
	Logger golog.Logger
}

func (s LogSink) SendMessage(msg midi.Message) {
	s.Logger.Debugf("midi out: % X (%s)", []byte(msg), msg)
}

// MultiSink sends every message to each of its sinks in turn.
type MultiSink []Sink

func (m MultiSink) SendMessage(msg midi.Message) {
	for _, s := range m {
		s.SendMessage(msg)
	}
}

// OpenSink calls open and falls back to a NopSink when it fails, so the
// simulation keeps running silently.
func OpenSink(name string, open func() (Sink, error), logger golog.Logger) Sink {
	if logger == nil {
		logger = golog.DiscardLogger
	}
	sink, err := open()
	if err != nil || sink == nil {
		logger.Warnf("output %q unavailable, continuing without sound: %v", name, err)
		return NopSink{}
	}
	logger.Infof("output %q opened", name)
	return sink
}

// CaptureSink keeps every message it receives. It is safe for concurrent use.
type CaptureSink struct {
	mu   sync.Mutex
	msgs []midi.Message
}

func (c *CaptureSink) SendMessage(msg midi.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, append(midi.Message(nil), msg...))
}

// Messages returns a copy of everything received so far.
func (c *CaptureSink) Messages() []midi.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]midi.Message(nil), c.msgs...)
}
