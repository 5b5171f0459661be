package simulation

import (
	"time"

	"github.com/lao-tseu-is-alive/go-murmurations/pkg/geometry"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// SwarmActor owns the tick side of a Swarm. It is the only caller of
// Swarm.Tick, so ticks are serialised by the actor mailbox.
//
// Messages:
//   - *durationpb.Duration: advance one tick (the payload is the host period)
//   - *wrapperspb.BoolValue: pause (true) or resume (false) ticking
//   - *structpb.ListValue: place an attractor at the given 0..1 ratios
type SwarmActor struct {
	swarm  *Swarm
	paused bool

	// --- Benchmark Stats ---
	tickCount   int
	tickTime    time.Duration
	period      time.Duration
	placed      int
	lastLogTime time.Time
}

// NewSwarmActor wraps swarm for spawning in an actor system.
func NewSwarmActor(swarm *Swarm) *SwarmActor {
	return &SwarmActor{
		swarm:       swarm,
		lastLogTime: time.Now(),
	}
}

func (a *SwarmActor) PreStart(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("swarm actor %q starting", a.swarm.Name())
	return nil
}

func (a *SwarmActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Infof("swarm %q started with %d boids", a.swarm.Name(), a.swarm.NumBoids())

	case *durationpb.Duration:
		if a.paused {
			return
		}
		start := time.Now()
		a.swarm.Tick()
		a.tickTime += time.Since(start)
		a.tickCount++
		a.period = msg.AsDuration()
		a.logBenchmarks(ctx)

	case *wrapperspb.BoolValue:
		a.paused = msg.GetValue()
		ctx.Logger().Infof("swarm %q paused: %v", a.swarm.Name(), a.paused)

	case *structpb.ListValue:
		ratios := make(geometry.Vector, len(msg.GetValues()))
		for i, v := range msg.GetValues() {
			ratios[i] = v.GetNumberValue()
		}
		if idx := a.swarm.PlaceAttractor(ratios); idx >= 0 {
			a.placed++
			ctx.Logger().Debugf("swarm %q: attractor %d placed at %v", a.swarm.Name(), idx, ratios)
		}

	default:
		ctx.Unhandled()
	}
}

func (a *SwarmActor) logBenchmarks(ctx *actor.ReceiveContext) {
	if time.Since(a.lastLogTime) >= time.Second {
		avg := time.Duration(0)
		if a.tickCount > 0 {
			avg = a.tickTime / time.Duration(a.tickCount)
		}
		ctx.Logger().Infof("📊 swarm %q: %d ticks/sec (period %v, avg tick %v) | attractors placed: %d",
			a.swarm.Name(), a.tickCount, a.period, avg, a.placed)
		if a.period > 0 && avg > a.period {
			ctx.Logger().Warnf("swarm %q: average tick %v exceeds the host period %v", a.swarm.Name(), avg, a.period)
		}
		a.tickCount = 0
		a.tickTime = 0
		a.placed = 0
		a.lastLogTime = time.Now()
	}
}

func (a *SwarmActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("swarm %q stopped after %d ticks", a.swarm.Name(), a.swarm.Ticks())
	return nil
}

// PlaceMessage builds the message that asks a SwarmActor to place an attractor.
func PlaceMessage(ratios geometry.Vector) *structpb.ListValue {
	values := make([]*structpb.Value, len(ratios))
	for i, r := range ratios {
		values[i] = structpb.NewNumberValue(r)
	}
	return &structpb.ListValue{Values: values}
}
