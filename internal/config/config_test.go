package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lao-tseu-is-alive/go-murmurations/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-murmurations/pkg/sonify"
	golog "github.com/tochemey/goakt/v3/log"
)

const runJSON = `{
  "updateRate": 30,
  "logLevel": "debug",
  "swarms": [{
    "name": "low",
    "numBoids": 8,
    "cubeMin": [0, 0, 0],
    "edgeLength": 20,
    "attractorMode": "path",
    "maxSpeed": 0.5,
    "repulsion": {"enabled": true, "axis": 2},
    "interpreters": [
      {"channel": 1, "scale": "dorian", "axes": {"dynamic": 0, "pitch": 1, "time": 2, "pan": 0, "length": 1}},
      {"channel": 9, "voicing": "mono", "probability": 0.5, "axes": {"dynamic": 2, "pitch": 1, "time": 0, "pan": 1, "length": 2}}
    ]
  }],
  "recording": {"path": "out.csv"},
  "input": {"replay": "in.csv", "loop": true}
}`

const runTOML = `
updateRate = 30
logLevel = "debug"

[[swarms]]
name = "low"
numBoids = 8
cubeMin = [0, 0, 0]
edgeLength = 20
attractorMode = "path"
maxSpeed = 0.5

[swarms.repulsion]
enabled = true
axis = 2

[[swarms.interpreters]]
channel = 1
scale = "dorian"
axes = { dynamic = 0, pitch = 1, time = 2, pan = 0, length = 1 }

[[swarms.interpreters]]
channel = 9
voicing = "mono"
probability = 0.5
axes = { dynamic = 2, pitch = 1, time = 0, pan = 1, length = 2 }

[recording]
path = "out.csv"

[input]
replay = "in.csv"
loop = true
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func checkRunFile(t *testing.T, f *File) {
	t.Helper()
	if f.UpdateRate != 30 || f.Level() != golog.DebugLevel {
		t.Errorf("UpdateRate %v, level %v", f.UpdateRate, f.Level())
	}
	if len(f.Swarms) != 1 {
		t.Fatalf("%d swarms; want 1", len(f.Swarms))
	}
	s := f.Swarms[0]
	def := simulation.DefaultConfig()
	switch {
	case s.Config.Name != "low" || s.Config.NumBoids != 8 || s.Config.Dims() != 3:
		t.Errorf("swarm %+v", s.Config)
	case s.Config.AttractorMode != simulation.AttractorPath:
		t.Errorf("AttractorMode = %v; want path", s.Config.AttractorMode)
	case s.Config.MaxSpeed != 0.5 || !s.Config.Repulsion.Enabled:
		t.Errorf("behaviour params %+v", s.Config.Params)
	case s.Config.NumAttractors != def.NumAttractors || s.Config.Repulsion.Threshold != def.Repulsion.Threshold:
		t.Errorf("unset tunables should keep their defaults, got %+v", s.Config)
	}

	if len(s.Interpreters) != 2 {
		t.Fatalf("%d interpreters; want 2", len(s.Interpreters))
	}
	first, second := s.Interpreters[0], s.Interpreters[1]
	if first.Channel != 1 || first.Scale != "dorian" || first.PitchRange != sonify.DefaultConfig().PitchRange {
		t.Errorf("first interpreter %+v", first)
	}
	if second.Channel != 9 || second.Voicing != sonify.VoicingMono || second.Probability != 0.5 || second.Scale != "chromatic" {
		t.Errorf("second interpreter %+v", second)
	}

	if f.Recording == nil || f.Recording.Path != "out.csv" || f.Recording.Format != FormatCSV {
		t.Errorf("Recording = %+v", f.Recording)
	}
	if f.Input == nil || f.Input.Replay != "in.csv" || f.Input.Speed != 1 || !f.Input.Loop {
		t.Errorf("Input = %+v", f.Input)
	}
	if f.View != nil {
		t.Errorf("View = %+v; want none", f.View)
	}
}

func TestLoad_JSON(t *testing.T) {
	f, err := Load(writeFile(t, "run.json", runJSON))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	checkRunFile(t, f)
}

func TestLoad_TOML(t *testing.T) {
	f, err := Load(writeFile(t, "run.TOML", runTOML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	checkRunFile(t, f)
}

func TestLoad_Empty(t *testing.T) {
	f, err := Load(writeFile(t, "run.json", "{}"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(f.Swarms) != 1 || len(f.Swarms[0].Interpreters) != 1 || f.UpdateRate != simulation.DefaultUpdateRate {
		t.Errorf("an empty run file should give the defaults, got %+v", f)
	}
	if f.Level() != golog.InfoLevel {
		t.Errorf("Level() = %v; want info", f.Level())
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		format string
		doc    string
		want   string
	}{
		{"format", "yaml", "{}", "unknown run file format"},
		{"bad json", "json", "{", "decode json"},
		{"bad toml", "toml", "x = ", "decode toml"},
		{"unknown key", "json", `{"updateRat": 30}`, "validation failed"},
		{"no boids", "json", `{"swarms": [{"numBoids": 0}]}`, "validation failed"},
		{"bad mode", "json", `{"swarms": [{"attractorMode": "chaos"}]}`, "validation failed"},
		{"bad channel", "toml", "[[swarms]]\n[[swarms.interpreters]]\nchannel = 16\n", "validation failed"},
		{"bad format", "json", `{"recording": {"path": "x", "format": "midi"}}`, "validation failed"},
		{"pitch past 127", "json", `{"swarms": [{"interpreters": [{"pitchMin": 100}]}]}`, "pitchMin"},
		{"view axis", "json", `{"view": {"enabled": true, "axes": [0, 5]}}`, "view"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), tt.format)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() error = %v; want one mentioning %q", err, tt.want)
			}
		})
	}
}

func TestParse_AxisOutsideSwarm(t *testing.T) {
	doc := `{"swarms": [{"cubeMin": [0, 0], "interpreters": [{}]}]}`
	_, err := Parse([]byte(doc), "json")
	var cerr *sonify.ConfigError
	if !errors.As(err, &cerr) || !strings.HasPrefix(cerr.Key, "axes.") {
		t.Fatalf("err = %v; want an axes ConfigError", err)
	}
	if !strings.Contains(err.Error(), "swarms[0].interpreters[0]") {
		t.Errorf("error %q does not locate the interpreter", err)
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default() is invalid: %v", err)
	}
}
