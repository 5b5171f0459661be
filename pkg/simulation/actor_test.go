package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/lao-tseu-is-alive/go-murmurations/pkg/geometry"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func startSystem(t *testing.T) (context.Context, actor.ActorSystem) {
	t.Helper()
	ctx := context.Background()
	system, err := actor.NewActorSystem("MurmurTest", actor.WithLogger(golog.DiscardLogger))
	if err != nil {
		t.Fatalf("NewActorSystem: %v", err)
	}
	if err := system.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = system.Stop(ctx) })
	return ctx, system
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSwarmActor_Messages(t *testing.T) {
	ctx, system := startSystem(t)
	s := newTestSwarm(t, func(c *Config) { c.AttractorMode = AttractorExternal })

	pid, err := system.Spawn(ctx, "swarm", NewSwarmActor(s))
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	tick := durationpb.New(time.Second / 60)
	for i := 0; i < 10; i++ {
		if err := actor.Tell(ctx, pid, tick); err != nil {
			t.Fatalf("Tell: %v", err)
		}
	}
	waitFor(t, "10 ticks", func() bool { return s.Ticks() == 10 })

	// pause, then ticks are ignored until resumed
	_ = actor.Tell(ctx, pid, wrapperspb.Bool(true))
	for i := 0; i < 5; i++ {
		_ = actor.Tell(ctx, pid, tick)
	}
	_ = actor.Tell(ctx, pid, wrapperspb.Bool(false))
	_ = actor.Tell(ctx, pid, tick)
	waitFor(t, "resumed tick", func() bool { return s.Ticks() >= 11 })
	if got := s.Ticks(); got != 11 {
		t.Errorf("Ticks() = %d after pause; want 11", got)
	}

	target := geometry.Filled(s.Dims(), 0.25)
	_ = actor.Tell(ctx, pid, PlaceMessage(target))
	want := s.Cube().Point(target)
	waitFor(t, "attractor placement", func() bool { return s.Attractors()[0].Eq(want) })
}

func TestDriver_TicksSwarm(t *testing.T) {
	ctx, system := startSystem(t)
	s := newTestSwarm(t, nil)
	pid, err := system.Spawn(ctx, "driven", NewSwarmActor(s))
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	d := NewDriver(200, nil, pid)
	if d.Period() != 5*time.Millisecond {
		t.Errorf("Period() = %v; want 5ms", d.Period())
	}
	d.Start(ctx)
	waitFor(t, "driven ticks", func() bool { return s.Ticks() >= 5 })
	d.Stop()
	d.Stop()

	// let in-flight ticks drain, then nothing moves
	time.Sleep(50 * time.Millisecond)
	settled := s.Ticks()
	time.Sleep(50 * time.Millisecond)
	if s.Ticks() != settled {
		t.Errorf("swarm still ticking after Driver.Stop: %d -> %d", settled, s.Ticks())
	}
}
