// Package synth is a small polyphonic synthesizer used as a local MIDI output,
// so a swarm can be heard without a MIDI device.
package synth

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	golog "github.com/tochemey/goakt/v3/log"
	"gitlab.com/gomidi/midi/v2"
)

const (
	DefaultSampleRate = beep.SampleRate(48000)
	DefaultAttack     = 5 * time.Millisecond
	DefaultRelease    = 80 * time.Millisecond
	DefaultGain       = 0.15

	ccPan         = 10
	ccAllSoundOff = 120
	ccAllNotesOff = 123
)

// Wave is an oscillator shape. Program changes pick one per channel.
type Wave int

const (
	WaveSine Wave = iota
	WaveTriangle
	WaveSaw
	waveCount
)

// Frequency returns the equal tempered frequency of a MIDI key, A4 = 440Hz.
func Frequency(key uint8) float64 {
	return 440 * math.Pow(2, (float64(key)-69)/12)
}

type channel struct {
	pan  float64 // -1 left .. 1 right
	wave Wave
}

// Synth mixes one oscillator per sounding note. It implements both the
// MIDI sink of the interpreters and beep.Streamer for the speaker.
type Synth struct {
	mu       sync.Mutex
	rate     beep.SampleRate
	attack   int
	release  int
	gain     float64
	mixer    *beep.Mixer
	channels [16]channel
	voices   map[uint16]*voice // sounding notes by channel<<8 | key
	live     map[*voice]struct{}
	logger   golog.Logger
	playing  bool
}

func New(rate beep.SampleRate, logger golog.Logger) *Synth {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	if logger == nil {
		logger = golog.DiscardLogger
	}
	return &Synth{
		rate:    rate,
		attack:  rate.N(DefaultAttack),
		release: rate.N(DefaultRelease),
		gain:    DefaultGain,
		mixer:   &beep.Mixer{},
		voices:  make(map[uint16]*voice),
		live:    make(map[*voice]struct{}),
		logger:  logger,
	}
}

// Play opens the default audio device and starts streaming to it.
func (s *Synth) Play() error {
	if err := speaker.Init(s.rate, s.rate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(s)
	s.mu.Lock()
	s.playing = true
	s.mu.Unlock()
	s.logger.Infof("synth playing at %d Hz", s.rate)
	return nil
}

// Close stops the speaker if Play started it.
func (s *Synth) Close() {
	s.mu.Lock()
	playing := s.playing
	s.playing = false
	s.mu.Unlock()
	if playing {
		speaker.Clear()
		speaker.Close()
	}
}

// Active is the number of voices still producing sound, released ones included.
func (s *Synth) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func (s *Synth) SendMessage(msg midi.Message) {
	var ch, key, vel, cc, val, prog uint8
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		id := uint16(ch)<<8 | uint16(key)
		if old := s.voices[id]; old != nil {
			old.noteOff()
		}
		c := s.channels[ch&0x0F]
		v := newVoice(Frequency(key), s.gain*float64(vel)/127, c.wave, s.rate, s.attack, s.release)
		s.voices[id] = v
		s.live[v] = struct{}{}
		s.mixer.Add(&effects.Pan{Streamer: v, Pan: c.pan})
	case msg.GetNoteEnd(&ch, &key):
		id := uint16(ch)<<8 | uint16(key)
		if v := s.voices[id]; v != nil {
			v.noteOff()
			delete(s.voices, id)
		}
	case msg.GetControlChange(&ch, &cc, &val):
		s.control(ch&0x0F, cc, val)
	case msg.GetProgramChange(&ch, &prog):
		s.channels[ch&0x0F].wave = Wave(prog) % waveCount
	}
}

func (s *Synth) control(ch, cc, val uint8) {
	switch cc {
	case ccPan:
		s.channels[ch].pan = math.Max(-1, (float64(val)-64)/63)
	case ccAllSoundOff:
		for id, v := range s.voices {
			if uint8(id>>8) == ch {
				v.cut()
				delete(s.voices, id)
			}
		}
	case ccAllNotesOff:
		for id, v := range s.voices {
			if uint8(id>>8) == ch {
				v.noteOff()
				delete(s.voices, id)
			}
		}
	}
}

// Stream mixes every live voice.
func (s *Synth) Stream(samples [][2]float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _ := s.mixer.Stream(samples)
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	for v := range s.live {
		if v.finished() {
			delete(s.live, v)
		}
	}
	return len(samples), true
}

func (s *Synth) Err() error { return nil }

// voice is a single oscillator with a linear attack and release.
type voice struct {
	rate    beep.SampleRate
	freq    float64
	amp     float64
	wave    Wave
	phase   float64
	pos     int
	attack  int
	release int

	releasing bool
	left      int // samples of release remaining
	done      bool
}

func newVoice(freq, amp float64, wave Wave, rate beep.SampleRate, attack, release int) *voice {
	return &voice{rate: rate, freq: freq, amp: amp, wave: wave, attack: attack, release: max(release, 1)}
}

func (v *voice) noteOff() {
	if !v.releasing {
		v.releasing = true
		v.left = v.release
	}
}

func (v *voice) cut() { v.done = true }

func (v *voice) finished() bool { return v.done }

func (v *voice) sample() float64 {
	switch v.wave {
	case WaveTriangle:
		return 4*math.Abs(v.phase-0.5) - 1
	case WaveSaw:
		return 2 * (v.phase - 0.5)
	}
	return math.Sin(2 * math.Pi * v.phase)
}

func (v *voice) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		if v.done {
			return i, false
		}
		env := 1.0
		if v.attack > 0 && v.pos < v.attack {
			env = float64(v.pos) / float64(v.attack)
		}
		if v.releasing {
			env *= float64(v.left) / float64(v.release)
			v.left--
			if v.left <= 0 {
				v.done = true
			}
		}
		out := v.amp * env * v.sample()
		samples[i][0] = out
		samples[i][1] = out

		v.phase += v.freq / float64(v.rate)
		v.phase -= math.Floor(v.phase)
		v.pos++
	}
	return len(samples), true
}

func (v *voice) Err() error { return nil }
