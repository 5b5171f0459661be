// Command murmur runs swarms and plays them through their interpreters.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-murmurations/internal/config"
	"github.com/lao-tseu-is-alive/go-murmurations/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-murmurations/pkg/sonify"
	"github.com/lao-tseu-is-alive/go-murmurations/pkg/synth"
	"github.com/lao-tseu-is-alive/go-murmurations/pkg/view"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
)

func main() {
	configPath := flag.String("config", "", "run file, .json or .toml (built-in defaults when empty)")
	useSynth := flag.Bool("synth", true, "play through the built-in synthesizer")
	duration := flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	flag.Parse()

	run := config.Default()
	if *configPath != "" {
		var err error
		if run, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	logger := golog.New(run.Level(), os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	if err := murmur(ctx, run, *useSynth, logger); err != nil {
		logger.Errorf("murmur: %v", err)
		log.Fatal(err)
	}
}

type host struct {
	run          *config.File
	logger       golog.Logger
	system       actor.ActorSystem
	swarms       []*simulation.Swarm
	pids         []*actor.PID
	interpreters [][]*sonify.Interpreter
	recorder     sonify.Recorder
	synth        *synth.Synth
	listener     *sonify.Listener
}

func murmur(ctx context.Context, run *config.File, useSynth bool, logger golog.Logger) error {
	h := &host{run: run, logger: logger}
	defer h.close()

	system, err := actor.NewActorSystem("murmur",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return fmt.Errorf("failed to start actor system: %w", err)
	}
	h.system = system

	sink := h.openSinks(useSynth)
	if err := h.openRecorder(); err != nil {
		return err
	}
	if err := h.spawnSwarms(ctx, sink); err != nil {
		return err
	}
	if err := h.startListener(ctx); err != nil {
		return err
	}

	period := time.Duration(float64(time.Second) / run.UpdateRate)
	if v := run.View; v != nil && v.Enabled {
		game := view.NewGame(ctx, h.swarms[v.Swarm], h.pids[v.Swarm], view.Options{
			Axes:   v.Axes,
			Width:  v.Width,
			Height: v.Height,
			Drive:  h.pids,
			Period: period,
			Logger: logger,
		}, h.all()...)
		ebiten.SetWindowSize(v.Width, v.Height)
		ebiten.SetWindowTitle("murmur: " + h.swarms[v.Swarm].Name())
		ebiten.SetTPS(int(run.UpdateRate))
		if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
			return err
		}
		return nil
	}

	driver := simulation.NewDriver(run.UpdateRate, logger, h.pids...)
	driver.Start(ctx)
	<-ctx.Done()
	driver.Stop()
	return nil
}

func (h *host) openSinks(useSynth bool) sonify.Sink {
	var sinks sonify.MultiSink
	if useSynth {
		sink := sonify.OpenSink("synth", func() (sonify.Sink, error) {
			s := synth.New(synth.DefaultSampleRate, h.logger)
			if err := s.Play(); err != nil {
				return nil, err
			}
			h.synth = s
			return s, nil
		}, h.logger)
		sinks = append(sinks, sink)
	}
	if h.run.Level() == golog.DebugLevel {
		sinks = append(sinks, sonify.LogSink{Logger: h.logger})
	}
	if len(sinks) == 0 {
		h.logger.Warnf("no output configured, the swarms play silently")
		return sonify.NopSink{}
	}
	return sinks
}

func (h *host) openRecorder() error {
	rec := h.run.Recording
	if rec == nil {
		return nil
	}
	f, err := os.Create(rec.Path)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}
	switch rec.Format {
	case config.FormatWire:
		w := sonify.NewWireRecorder(f, time.Now())
		h.logger.Infof("recording session %s to %s", w.Session(), rec.Path)
		h.recorder = w
	default:
		h.logger.Infof("recording to %s", rec.Path)
		h.recorder = sonify.NewCSVRecorder(f)
	}
	return nil
}

func (h *host) spawnSwarms(ctx context.Context, sink sonify.Sink) error {
	for i, sc := range h.run.Swarms {
		swarm, err := simulation.New(sc.Config, h.logger)
		if err != nil {
			return fmt.Errorf("swarms[%d]: %w", i, err)
		}
		pid, err := h.system.Spawn(ctx, fmt.Sprintf("%s-%d", swarm.Name(), i), simulation.NewSwarmActor(swarm))
		if err != nil {
			return fmt.Errorf("failed to spawn swarm %q: %w", swarm.Name(), err)
		}
		h.swarms = append(h.swarms, swarm)
		h.pids = append(h.pids, pid)

		var its []*sonify.Interpreter
		for j, ic := range sc.Interpreters {
			var source sonify.Source = simulation.NewBoidVoices(swarm)
			if ic.Voicing == sonify.VoicingMono {
				source = simulation.NewCentroidVoice(swarm)
			}
			opts := []sonify.Option{sonify.WithLogger(h.logger)}
			if h.recorder != nil {
				opts = append(opts, sonify.WithRecorder(h.recorder))
			}
			if swarm.Mode() == simulation.AttractorExternal {
				opts = append(opts, sonify.WithPlacer(swarm))
			}
			if ic.Name == "" {
				ic.Name = fmt.Sprintf("%s/%d", swarm.Name(), j)
			}
			it, err := sonify.NewInterpreter(ic, source, sink, opts...)
			if err != nil {
				return fmt.Errorf("swarms[%d].interpreters[%d]: %w", i, j, err)
			}
			if err := it.Start(ctx); err != nil {
				return err
			}
			its = append(its, it)
		}
		h.interpreters = append(h.interpreters, its)
	}
	return nil
}

// startListener replays a recording as live input into the interpreters of
// swarms whose attractors are placed from outside.
func (h *host) startListener(ctx context.Context) error {
	in := h.run.Input
	if in == nil {
		return nil
	}
	records, err := readRecording(in.Replay)
	if err != nil {
		return err
	}
	var placing []*sonify.Interpreter
	for i, swarm := range h.swarms {
		if swarm.Mode() == simulation.AttractorExternal {
			placing = append(placing, h.interpreters[i]...)
		}
	}
	if len(placing) == 0 {
		h.logger.Warnf("input %s ignored: no swarm uses external attractors", in.Replay)
		return nil
	}
	src := sonify.NewReplaySource(records, in.Speed, in.Loop)
	h.logger.Infof("replaying %d note-ons from %s at %vx", src.Len(), in.Replay, in.Speed)
	h.listener = sonify.NewListener(src, h.logger, placing...)
	return h.listener.Start(ctx)
}

func readRecording(path string) ([]sonify.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return sonify.ReadCSV(f)
	}
	rec, err := sonify.ReadWire(f)
	if err != nil {
		return nil, err
	}
	return rec.Events, nil
}

func (h *host) all() []*sonify.Interpreter {
	var out []*sonify.Interpreter
	for _, its := range h.interpreters {
		out = append(out, its...)
	}
	return out
}

// close stops everything in reverse order of creation. The interpreters
// silence their channels before the outputs go away.
func (h *host) close() {
	if h.listener != nil {
		h.listener.Stop()
	}
	for _, it := range h.all() {
		it.Stop()
	}
	if h.recorder != nil {
		if err := h.recorder.Close(); err != nil {
			h.logger.Errorf("recording: %v", err)
		}
	}
	if h.synth != nil {
		h.synth.Close()
	}
	if h.system != nil {
		if err := h.system.Stop(context.Background()); err != nil {
			h.logger.Warnf("actor system stop: %v", err)
		}
	}
}
