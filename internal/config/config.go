// Package config loads the run file of the murmur host: the swarms to
// simulate, the interpreters listening to each of them, and the optional
// recording, replay input and viewer.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lao-tseu-is-alive/go-murmurations/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-murmurations/pkg/sonify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	golog "github.com/tochemey/goakt/v3/log"
)

//go:embed schema.json
var schemaJSON string

var ErrUnknownFormat = errors.New("unknown run file format")

// Recording formats.
const (
	FormatCSV  = "csv"
	FormatWire = "wire"
)

// Recording writes every message the interpreters send to Path.
type Recording struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

// Input replays a CSV recording as live MIDI input.
type Input struct {
	Replay string  `json:"replay"`
	Speed  float64 `json:"speed"`
	Loop   bool    `json:"loop"`
}

// View shows one swarm projected on two of its axes.
type View struct {
	Enabled bool   `json:"enabled"`
	Swarm   int    `json:"swarm"`
	Axes    [2]int `json:"axes"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// Swarm is one simulated swarm and the interpreters sonifying it.
type Swarm struct {
	Config       *simulation.Config
	Interpreters []*sonify.Config
}

// File is a parsed run file.
type File struct {
	UpdateRate float64
	LogLevel   string
	Swarms     []Swarm
	Recording  *Recording
	Input      *Input
	View       *View
}

// Default is a single default swarm played by one polyphonic interpreter.
func Default() *File {
	return &File{
		UpdateRate: simulation.DefaultUpdateRate,
		LogLevel:   "info",
		Swarms: []Swarm{{
			Config:       simulation.DefaultConfig(),
			Interpreters: []*sonify.Config{sonify.DefaultConfig()},
		}},
	}
}

var schema = jsonschema.MustCompileString("run.schema.json", schemaJSON)

// Load reads a .json or .toml run file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}
	f, err := Parse(data, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

type document struct {
	UpdateRate float64           `json:"updateRate"`
	LogLevel   string            `json:"logLevel"`
	Swarms     []json.RawMessage `json:"swarms"`
	Recording  *Recording        `json:"recording"`
	Input      *Input            `json:"input"`
	View       *View             `json:"view"`
}

// Parse decodes a run file in format "json" or "toml", validates it
// against the run file schema and fills every missing tunable with its
// default.
func Parse(data []byte, format string) (*File, error) {
	var doc any
	switch format {
	case "json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode json: %w", err)
		}
	case "toml":
		var m map[string]any
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to decode toml: %w", err)
		}
		// the schema validates plain JSON values
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("failed to convert toml: %w", err)
		}
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("failed to convert toml: %w", err)
		}
		data = b
	default:
		return nil, fmt.Errorf("%w %q, want json or toml", ErrUnknownFormat, format)
	}

	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("run file validation failed: %w", err)
	}

	var d document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run file: %w", err)
	}

	f := Default()
	if d.UpdateRate > 0 {
		f.UpdateRate = d.UpdateRate
	}
	if d.LogLevel != "" {
		f.LogLevel = d.LogLevel
	}
	f.Recording, f.Input, f.View = d.Recording, d.Input, d.View
	if f.Recording != nil && f.Recording.Format == "" {
		f.Recording.Format = FormatCSV
	}
	if f.Input != nil && f.Input.Speed == 0 {
		f.Input.Speed = 1
	}
	if f.View != nil {
		if f.View.Axes == [2]int{} {
			f.View.Axes = [2]int{0, 1}
		}
		f.View.Width = max(f.View.Width, 800)
		f.View.Height = max(f.View.Height, 800)
	}

	if len(d.Swarms) > 0 {
		f.Swarms = f.Swarms[:0]
	}
	for i, raw := range d.Swarms {
		s, err := decodeSwarm(raw)
		if err != nil {
			return nil, fmt.Errorf("swarms[%d]: %w", i, err)
		}
		f.Swarms = append(f.Swarms, s)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func decodeSwarm(raw json.RawMessage) (Swarm, error) {
	s := Swarm{Config: simulation.DefaultConfig()}
	if err := json.Unmarshal(raw, s.Config); err != nil {
		return s, err
	}
	var nested struct {
		Interpreters []json.RawMessage `json:"interpreters"`
	}
	if err := json.Unmarshal(raw, &nested); err != nil {
		return s, err
	}
	for i, ir := range nested.Interpreters {
		cfg := sonify.DefaultConfig()
		if err := json.Unmarshal(ir, cfg); err != nil {
			return s, fmt.Errorf("interpreters[%d]: %w", i, err)
		}
		s.Interpreters = append(s.Interpreters, cfg)
	}
	return s, nil
}

// Validate checks every swarm and interpreter, and that each interpreter
// only maps axes its swarm has.
func (f *File) Validate() error {
	if len(f.Swarms) == 0 {
		return errors.New("run file has no swarm")
	}
	for i, s := range f.Swarms {
		if err := s.Config.Validate(); err != nil {
			return fmt.Errorf("swarms[%d]: %w", i, err)
		}
		for j, ic := range s.Interpreters {
			if err := ic.Validate(); err != nil {
				return fmt.Errorf("swarms[%d].interpreters[%d]: %w", i, j, err)
			}
			if err := ic.ValidateAxes(s.Config.Dims()); err != nil {
				return fmt.Errorf("swarms[%d].interpreters[%d]: %w", i, j, err)
			}
		}
	}
	if f.Recording != nil && f.Recording.Format != FormatCSV && f.Recording.Format != FormatWire {
		return fmt.Errorf("recording: unknown format %q", f.Recording.Format)
	}
	if v := f.View; v != nil {
		if v.Swarm < 0 || v.Swarm >= len(f.Swarms) {
			return fmt.Errorf("view: no swarm %d", v.Swarm)
		}
		dims := f.Swarms[v.Swarm].Config.Dims()
		if v.Axes[0] >= dims || v.Axes[1] >= dims {
			return fmt.Errorf("view: axes %v outside %d dimensions", v.Axes, dims)
		}
	}
	return nil
}

// Level converts LogLevel to a logger level, info when unset or unknown.
func (f *File) Level() golog.Level {
	switch strings.ToLower(f.LogLevel) {
	case "debug":
		return golog.DebugLevel
	case "warn", "warning":
		return golog.WarningLevel
	case "error":
		return golog.ErrorLevel
	}
	return golog.InfoLevel
}
