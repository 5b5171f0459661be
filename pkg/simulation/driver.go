package simulation

import (
	"context"
	"sync"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/durationpb"
)

// DefaultUpdateRate is the nominal host tick rate, in Hz.
const DefaultUpdateRate = 60

// Driver ticks one or more swarm actors at a fixed rate when no viewer is
// running to do it.
type Driver struct {
	pids   []*actor.PID
	period time.Duration
	logger golog.Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDriver ticks pids updateRate times per second. A non-positive rate
// falls back to DefaultUpdateRate.
func NewDriver(updateRate float64, logger golog.Logger, pids ...*actor.PID) *Driver {
	if updateRate <= 0 {
		updateRate = DefaultUpdateRate
	}
	if logger == nil {
		logger = golog.DiscardLogger
	}
	return &Driver{
		pids:   pids,
		period: time.Duration(float64(time.Second) / updateRate),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Period is the time between two ticks.
func (d *Driver) Period() time.Duration { return d.period }

// Start launches the tick loop. It returns immediately.
func (d *Driver) Start(ctx context.Context) {
	d.wg.Add(1)
	go d.run(ctx)
}

func (d *Driver) run(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.period)
	defer ticker.Stop()
	d.logger.Infof("driver ticking %d swarm(s) every %v", len(d.pids), d.period)

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case <-ticker.C:
			tick := durationpb.New(d.period)
			for _, pid := range d.pids {
				if err := actor.Tell(ctx, pid, tick); err != nil {
					d.logger.Warnf("driver: tick to %s failed: %v", pid.Name(), err)
				}
			}
		}
	}
}

// Stop ends the tick loop and waits for it to exit. Safe to call twice.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() { close(d.done) })
	d.wg.Wait()
}
