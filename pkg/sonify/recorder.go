package sonify

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"gitlab.com/gomidi/midi/v2"
	"google.golang.org/protobuf/encoding/protowire"
)

// Record is one sent message with its absolute time in seconds.
// Duration is set for note-ons only.
type Record struct {
	Time     float64
	Message  midi.Message
	Duration float64
}

func isNoteOn(msg midi.Message) bool {
	return len(msg) > 0 && msg[0]&0xF0 == 0x90
}

// dataLen is the number of data bytes following a channel status byte.
func dataLen(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 1
	case 0x80, 0x90, 0xA0, 0xB0, 0xE0:
		return 2
	}
	return -1
}

// Recorder is the logging hook called for every sent message. Record must
// not block the scheduler; write errors are kept and reported by Close.
type Recorder interface {
	Record(r Record)
	Close() error
}

// ============================================================================
// CSV flat log
// ============================================================================

// CSVRecorder writes one row per message: the message bytes, the absolute
// time, then for note-ons the note duration. For example
//
//	176,10,64,1.25
//	144,60,100,1.25,0.3
//
// This is the format external tools turn into standard MIDI files.
type CSVRecorder struct {
	mu     sync.Mutex
	closer io.Closer
	w      *csv.Writer
	err    error
}

// NewCSVRecorder writes to w. If w is an io.Closer it is closed by Close.
func NewCSVRecorder(w io.Writer) *CSVRecorder {
	r := &CSVRecorder{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	return r
}

func (r *CSVRecorder) Record(rec Record) {
	row := make([]string, 0, len(rec.Message)+2)
	for _, b := range rec.Message {
		row = append(row, strconv.Itoa(int(b)))
	}
	row = append(row, strconv.FormatFloat(rec.Time, 'f', -1, 64))
	if isNoteOn(rec.Message) {
		row = append(row, strconv.FormatFloat(rec.Duration, 'f', -1, 64))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	r.err = r.w.Write(row)
}

func (r *CSVRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w.Flush()
	if r.err == nil {
		r.err = r.w.Error()
	}
	if r.closer != nil {
		if err := r.closer.Close(); err != nil && r.err == nil {
			r.err = err
		}
		r.closer = nil
	}
	return r.err
}

// ReadCSV parses a CSV log written by CSVRecorder.
func ReadCSV(rd io.Reader) ([]Record, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	var out []Record
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("csv log line %d: %w", line, err)
		}
		rec, err := parseRow(row)
		if err != nil {
			return out, fmt.Errorf("csv log line %d: %w", line, err)
		}
		out = append(out, rec)
	}
}

func parseRow(row []string) (Record, error) {
	if len(row) < 2 {
		return Record{}, fmt.Errorf("too few fields: %v", row)
	}
	status, err := strconv.ParseUint(row[0], 10, 8)
	if err != nil {
		return Record{}, fmt.Errorf("bad status byte %q: %w", row[0], err)
	}
	n := dataLen(byte(status))
	if n < 0 {
		return Record{}, fmt.Errorf("unsupported status byte %d", status)
	}
	if len(row) < n+2 {
		return Record{}, fmt.Errorf("expected %d data bytes and a time, got %v", n, row)
	}
	msg := make(midi.Message, 0, n+1)
	msg = append(msg, byte(status))
	for _, field := range row[1 : n+1] {
		b, err := strconv.ParseUint(field, 10, 8)
		if err != nil || b > 127 {
			return Record{}, fmt.Errorf("bad data byte %q", field)
		}
		msg = append(msg, byte(b))
	}
	rec := Record{Message: msg}
	if rec.Time, err = strconv.ParseFloat(row[n+1], 64); err != nil {
		return Record{}, fmt.Errorf("bad time %q: %w", row[n+1], err)
	}
	if isNoteOn(msg) && len(row) > n+2 {
		if rec.Duration, err = strconv.ParseFloat(row[n+2], 64); err != nil {
			return Record{}, fmt.Errorf("bad duration %q: %w", row[n+2], err)
		}
	}
	return rec, nil
}

// ============================================================================
// Protobuf wire log
// ============================================================================

// Field numbers of the wire log. A log is a single protobuf message
//
//	message Recording {
//	  string session = 1;
//	  int64  started_unix_nano = 2;
//	  repeated Event events = 3;
//	}
//	message Event {
//	  double time = 1;
//	  bytes  message = 2;
//	  double duration = 3;
//	}
//
// written incrementally: every Record appends one events field.
const (
	fieldSession  protowire.Number = 1
	fieldStarted  protowire.Number = 2
	fieldEvent    protowire.Number = 3
	fieldTime     protowire.Number = 1
	fieldMessage  protowire.Number = 2
	fieldDuration protowire.Number = 3
)

// Recording is a decoded wire log.
type Recording struct {
	Session string
	Started time.Time
	Events  []Record
}

// WireRecorder writes the compact protobuf wire log.
type WireRecorder struct {
	mu      sync.Mutex
	session string
	w       *bufio.Writer
	closer  io.Closer
	err     error
	buf     []byte
}

// NewWireRecorder starts a new session log on w, tagged with a random session id.
func NewWireRecorder(w io.Writer, started time.Time) *WireRecorder {
	r := &WireRecorder{session: uuid.NewString(), w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	var b []byte
	b = protowire.AppendTag(b, fieldSession, protowire.BytesType)
	b = protowire.AppendString(b, r.session)
	b = protowire.AppendTag(b, fieldStarted, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(started.UnixNano()))
	_, r.err = r.w.Write(b)
	return r
}

// Session is the id written in the log header.
func (r *WireRecorder) Session() string { return r.session }

func (r *WireRecorder) Record(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	ev := r.buf[:0]
	ev = protowire.AppendTag(ev, fieldTime, protowire.Fixed64Type)
	ev = protowire.AppendFixed64(ev, math.Float64bits(rec.Time))
	ev = protowire.AppendTag(ev, fieldMessage, protowire.BytesType)
	ev = protowire.AppendBytes(ev, rec.Message)
	if rec.Duration != 0 {
		ev = protowire.AppendTag(ev, fieldDuration, protowire.Fixed64Type)
		ev = protowire.AppendFixed64(ev, math.Float64bits(rec.Duration))
	}
	r.buf = ev

	var frame []byte
	frame = protowire.AppendTag(frame, fieldEvent, protowire.BytesType)
	frame = protowire.AppendBytes(frame, ev)
	_, r.err = r.w.Write(frame)
}

func (r *WireRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.w.Flush(); err != nil && r.err == nil {
		r.err = err
	}
	if r.closer != nil {
		if err := r.closer.Close(); err != nil && r.err == nil {
			r.err = err
		}
		r.closer = nil
	}
	return r.err
}

// ReadWire decodes a wire log. Unknown fields are skipped.
func ReadWire(rd io.Reader) (*Recording, error) {
	b, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	rec := &Recording{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return rec, fmt.Errorf("wire log: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldSession && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return rec, fmt.Errorf("wire log session: %w", protowire.ParseError(n))
			}
			rec.Session = s
			b = b[n:]
		case num == fieldStarted && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return rec, fmt.Errorf("wire log start: %w", protowire.ParseError(n))
			}
			rec.Started = time.Unix(0, int64(v))
			b = b[n:]
		case num == fieldEvent && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return rec, fmt.Errorf("wire log event: %w", protowire.ParseError(n))
			}
			ev, err := decodeEvent(raw)
			if err != nil {
				return rec, err
			}
			rec.Events = append(rec.Events, ev)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return rec, fmt.Errorf("wire log field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return rec, nil
}

func decodeEvent(b []byte) (Record, error) {
	var rec Record
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return rec, fmt.Errorf("wire event: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldTime && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return rec, fmt.Errorf("wire event time: %w", protowire.ParseError(n))
			}
			rec.Time = math.Float64frombits(v)
			b = b[n:]
		case num == fieldMessage && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return rec, fmt.Errorf("wire event message: %w", protowire.ParseError(n))
			}
			rec.Message = append(midi.Message(nil), v...)
			b = b[n:]
		case num == fieldDuration && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return rec, fmt.Errorf("wire event duration: %w", protowire.ParseError(n))
			}
			rec.Duration = math.Float64frombits(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return rec, fmt.Errorf("wire event field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return rec, nil
}
