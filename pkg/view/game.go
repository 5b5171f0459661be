// Package view draws a swarm projected on two of its axes and lets the
// mouse steer its attractors.
package view

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-murmurations/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-murmurations/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-murmurations/pkg/sonify"
	"github.com/lao-tseu-is-alive/go-murmurations/pkg/ui"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const panelWidth = 260

var whiteImage = ebiten.NewImage(3, 3)

func init() {
	whiteImage.Fill(color.White)
}

var (
	colourBoid      = color.RGBA{R: 100, G: 200, B: 255, A: 255}
	colourTurning   = color.RGBA{R: 255, G: 120, B: 80, A: 255}
	colourFeeding   = color.RGBA{R: 255, G: 220, B: 60, A: 255}
	colourAttractor = color.RGBA{R: 50, G: 255, B: 50, A: 255}
	colourCentre    = color.RGBA{R: 255, G: 255, B: 255, A: 200}
)

// Options configure the viewer.
type Options struct {
	Axes          [2]int
	Width, Height int
	// Drive makes the viewer tick these swarm actors once per frame instead
	// of a simulation.Driver.
	Drive  []*actor.PID
	Period time.Duration
	Logger golog.Logger
}

// Game is the ebiten game showing one swarm.
type Game struct {
	ctx          context.Context
	swarm        *simulation.Swarm
	pid          *actor.PID
	interpreters []*sonify.Interpreter
	opts         Options
	logger       golog.Logger

	panel            *ui.UIPanel
	widgetPause      *ui.Checkbox
	widgetAttractors *ui.Checkbox
	widgetVelocity   *ui.Checkbox
	widgetZoom       *ui.Slider

	pad     Rect
	held    bool
	placed  int
	paused  bool
	stopped bool

	lastUpdateDuration time.Duration
	lastDrawDuration   time.Duration
	updateAvg          float64 // rolling average in ms
	drawAvg            float64
}

// NewGame shows swarm, whose actor is pid, and lets the panic button
// silence interpreters.
func NewGame(ctx context.Context, swarm *simulation.Swarm, pid *actor.PID, opts Options, interpreters ...*sonify.Interpreter) *Game {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1000, 800
	}
	if opts.Period <= 0 {
		opts.Period = time.Second / time.Duration(simulation.DefaultUpdateRate)
	}
	if opts.Logger == nil {
		opts.Logger = golog.DiscardLogger
	}
	g := &Game{
		ctx:          ctx,
		swarm:        swarm,
		pid:          pid,
		interpreters: interpreters,
		opts:         opts,
		logger:       opts.Logger,
	}

	g.panel = ui.NewUIPanel(fmt.Sprintf("Swarm %q", swarm.Name()), 10, 10, panelWidth, float64(opts.Height)-20)

	g.panel.AddSection("Simulation")
	g.widgetPause = g.panel.AddCheckbox("Pause", false)
	g.widgetPause.OnChange = g.setPaused
	g.panel.AddStatus(g.swarmStatus)
	g.panel.EndSection()

	g.panel.AddSection("Visualization")
	g.widgetAttractors = g.panel.AddCheckbox("Show attractors", true)
	g.widgetVelocity = g.panel.AddCheckbox("Show velocity", false)
	g.widgetZoom = g.panel.AddSlider("Zoom", 0.5, 1.5, 1)
	g.panel.EndSection()

	g.panel.AddSection("Sound")
	g.panel.AddButton("Panic", g.panicAll)
	g.panel.AddStatus(g.soundStatus)
	g.panel.EndSection()

	margin := 20.0
	left := 10 + panelWidth + margin
	side := math.Min(float64(opts.Width)-left-margin, float64(opts.Height)-2*margin)
	g.pad = Rect{X: left, Y: margin, W: side, H: side}
	return g
}

func (g *Game) setPaused(paused bool) {
	g.paused = paused
	for _, pid := range g.tickTargets() {
		if err := actor.Tell(g.ctx, pid, wrapperspb.Bool(paused)); err != nil {
			g.logger.Warnf("viewer: cannot pause %s: %v", pid.Name(), err)
		}
	}
}

func (g *Game) panicAll() {
	g.logger.Infof("viewer: panic requested for %d interpreter(s)", len(g.interpreters))
	for _, it := range g.interpreters {
		it.RequestPanic()
	}
}

func (g *Game) tickTargets() []*actor.PID {
	if len(g.opts.Drive) > 0 {
		return g.opts.Drive
	}
	return []*actor.PID{g.pid}
}

// Stop makes the next Update end the game.
func (g *Game) Stop() { g.stopped = true }

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.lastUpdateDuration = time.Since(start)
		g.updateAvg = g.updateAvg*0.95 + float64(g.lastUpdateDuration.Microseconds())/1000.0*0.05
	}()
	if g.stopped || g.ctx.Err() != nil {
		return ebiten.Termination
	}

	in := ui.ReadInput()
	g.panel.Handle(in)
	g.handlePad(in)

	if len(g.opts.Drive) > 0 && !g.paused {
		tick := durationpb.New(g.opts.Period)
		for _, pid := range g.opts.Drive {
			if err := actor.Tell(g.ctx, pid, tick); err != nil {
				g.logger.Warnf("viewer: tick to %s failed: %v", pid.Name(), err)
			}
		}
	}
	return nil
}

// handlePad places an attractor where the pad is clicked, once per press,
// when the swarm takes its attractors from outside.
func (g *Game) handlePad(in ui.Input) {
	if !in.Pressed {
		g.held = false
		return
	}
	if g.held || g.swarm.Mode() != simulation.AttractorExternal || g.panel.Contains(in.X, in.Y) {
		return
	}
	pad := g.pad.Zoom(g.widgetZoom.Value)
	if !pad.Contains(in.X, in.Y) {
		return
	}
	g.held = true
	ratios := Unproject(in.X, in.Y, g.opts.Axes, g.swarm.Dims(), pad)
	if err := actor.Tell(g.ctx, g.pid, simulation.PlaceMessage(ratios)); err != nil {
		g.logger.Warnf("viewer: cannot place attractor: %v", err)
		return
	}
	g.placed++
}

func (g *Game) swarmStatus() string {
	return fmt.Sprintf("boids: %d  dims: %d\nmode: %s\nticks: %d\nlast tick: %v\nplaced: %d",
		g.swarm.NumBoids(), g.swarm.Dims(), g.swarm.Mode(), g.swarm.Ticks(),
		g.swarm.TickTime().Round(time.Microsecond), g.placed)
}

func (g *Game) soundStatus() string {
	if len(g.interpreters) == 0 {
		return "no interpreter"
	}
	var b strings.Builder
	for i, it := range g.interpreters {
		if i > 0 {
			b.WriteByte('\n')
		}
		s := it.Stats()
		fmt.Fprintf(&b, "%s ch%d\n on %d  silent %d\n late %d  queued %d",
			it.Name(), it.Config().Channel+1, s.NotesOn, s.Silenced, s.Overruns, s.Pending)
	}
	return b.String()
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.lastDrawDuration = time.Since(start)
		g.drawAvg = g.drawAvg*0.95 + float64(g.lastDrawDuration.Microseconds())/1000.0*0.05
	}()

	pad := g.pad.Zoom(g.widgetZoom.Value)
	vector.StrokeRect(screen, float32(pad.X), float32(pad.Y), float32(pad.W), float32(pad.H),
		1, color.RGBA{R: 90, G: 90, B: 100, A: 255}, true)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("axis %d", g.opts.Axes[0]), int(pad.X+pad.W-50), int(pad.Y+pad.H+2))
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("axis %d", g.opts.Axes[1]), int(pad.X+2), int(pad.Y+2))

	cube := g.swarm.Cube()
	if g.widgetAttractors.Value {
		for _, a := range g.swarm.Attractors() {
			x, y := Project(cube.Ratios(a), g.opts.Axes, pad)
			vector.StrokeCircle(screen, float32(x), float32(y), 8, 2, colourAttractor, true)
		}
	}

	for _, b := range g.swarm.Snapshots() {
		g.drawBoid(screen, b, pad)
	}

	com, _ := g.swarm.CentreOfMass()
	if len(com) > 0 {
		x, y := Project(cube.Ratios(com), g.opts.Axes, pad)
		vector.StrokeLine(screen, float32(x-5), float32(y), float32(x+5), float32(y), 1, colourCentre, true)
		vector.StrokeLine(screen, float32(x), float32(y-5), float32(x), float32(y+5), 1, colourCentre, true)
	}

	g.panel.Draw(screen)

	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\n\nUpdate: %.2fms\nDraw:   %.2fms",
		ebiten.ActualFPS(), ebiten.ActualTPS(), g.updateAvg, g.drawAvg)
	ebitenutil.DebugPrintAt(screen, msg, g.opts.Width-130, 10)
}

// drawBoid draws a triangle pointing along the projected velocity.
func (g *Game) drawBoid(screen *ebiten.Image, b behavior.Snapshot, pad Rect) {
	x, y := Project(g.swarm.Cube().Ratios(b.Location), g.opts.Axes, pad)
	vx, vy := axisRatio(b.Velocity, g.opts.Axes[0]), -axisRatio(b.Velocity, g.opts.Axes[1])
	if len(b.Velocity) == 0 {
		vx, vy = 0, 0
	}
	angle := math.Atan2(vy, vx)

	clr := colourBoid
	switch {
	case b.Feeding:
		clr = colourFeeding
	case b.Turning:
		clr = colourTurning
	}
	r, gr, bl := float32(clr.R)/255, float32(clr.G)/255, float32(clr.B)/255

	vertex := func(a, dist float64) ebiten.Vertex {
		return ebiten.Vertex{
			DstX: float32(x + math.Cos(a)*dist), DstY: float32(y + math.Sin(a)*dist),
			SrcX: 1, SrcY: 1,
			ColorR: r, ColorG: gr, ColorB: bl, ColorA: 1,
		}
	}
	vertices := []ebiten.Vertex{vertex(angle, 7), vertex(angle+2.5, 5), vertex(angle-2.5, 5)}
	screen.DrawTriangles(vertices, []uint16{0, 1, 2}, whiteImage, &ebiten.DrawTrianglesOptions{})

	if g.widgetVelocity.Value {
		scale := pad.W / g.swarm.Cube().Edge() * 10
		vector.StrokeLine(screen, float32(x), float32(y), float32(x+vx*scale), float32(y+vy*scale), 1, clr, true)
	}
}

func (g *Game) Layout(w, h int) (int, int) { return g.opts.Width, g.opts.Height }
