package ui

import (
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// UIWidget is anything the panel can lay out.
type UIWidget interface {
	Handle(in Input)
	Draw(screen *ebiten.Image)
	GetHeight() float64
	setY(y float64)
}

// Status is a block of text refreshed on every frame.
type Status struct {
	Text  func() string
	lines int
	y     float64
	x     float64
}

func (s *Status) Handle(Input) {}

func (s *Status) Draw(screen *ebiten.Image) {
	txt := s.Text()
	s.lines = strings.Count(txt, "\n") + 1
	ebitenutil.DebugPrintAt(screen, txt, int(s.x), int(s.y))
}

func (s *Status) GetHeight() float64 { return float64(max(s.lines, 1))*16 + 5 }

func (s *Status) setY(y float64) { s.y = y }

// UIPanel stacks widgets in titled sections and scrolls with the wheel.
type UIPanel struct {
	Title         string
	X, Y          float64
	Width, Height float64
	Widgets       []UIWidget
	Labels        []string
	ScrollOffset  float64

	BGColor     color.RGBA
	BorderColor color.RGBA

	sections []PanelSection
}

// PanelSection groups the widgets in [StartIndex, EndIndex).
type PanelSection struct {
	Title      string
	StartIndex int
	EndIndex   int
}

func NewUIPanel(title string, x, y, width, height float64) *UIPanel {
	return &UIPanel{
		Title:       title,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
	}
}

func (p *UIPanel) AddSection(title string) {
	p.sections = append(p.sections, PanelSection{Title: title, StartIndex: len(p.Widgets), EndIndex: len(p.Widgets)})
}

func (p *UIPanel) EndSection() {
	if len(p.sections) > 0 {
		p.sections[len(p.sections)-1].EndIndex = len(p.Widgets)
	}
}

func (p *UIPanel) add(label string, w UIWidget) {
	p.Widgets = append(p.Widgets, w)
	p.Labels = append(p.Labels, label)
	if len(p.sections) > 0 {
		p.sections[len(p.sections)-1].EndIndex = len(p.Widgets)
	}
	p.layout()
}

func (p *UIPanel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(p.X+10, 0, p.Width-20, label, min, max, value)
	p.add(label, s)
	return s
}

func (p *UIPanel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(p.X+p.Width-30, 0, label, value)
	p.add(label, c)
	return c
}

func (p *UIPanel) AddButton(label string, onClick func()) *Button {
	b := NewButton(p.X+10, 0, p.Width-20, 24, label, onClick)
	p.add("", b)
	return b
}

func (p *UIPanel) AddStatus(text func() string) *Status {
	s := &Status{Text: text, x: p.X + 10}
	p.add("", s)
	return s
}

// Contains reports whether the point is over the panel.
func (p *UIPanel) Contains(x, y float64) bool {
	return inside(Input{X: x, Y: y}, p.X, p.Y, p.Width, p.Height)
}

// layout places every widget for the current scroll offset.
func (p *UIPanel) layout() {
	y := p.Y + 30 - p.ScrollOffset
	for _, section := range p.sections {
		y += 25
		for i := section.StartIndex; i < section.EndIndex && i < len(p.Widgets); i++ {
			if p.Labels[i] != "" {
				y += 15
			}
			p.Widgets[i].setY(y)
			y += p.Widgets[i].GetHeight()
		}
	}
}

func (p *UIPanel) totalHeight() float64 {
	h := 30 + float64(len(p.sections))*25
	for i, w := range p.Widgets {
		if p.Labels[i] != "" {
			h += 15
		}
		h += w.GetHeight()
	}
	return h
}

func (p *UIPanel) Update() { p.Handle(ReadInput()) }

// Handle scrolls on wheel input over the panel, then updates the widgets.
func (p *UIPanel) Handle(in Input) {
	if in.Wheel != 0 && p.Contains(in.X, in.Y) {
		maxScroll := max(0, p.totalHeight()-p.Height+40)
		p.ScrollOffset = max(0, min(maxScroll, p.ScrollOffset-in.Wheel*20))
		p.layout()
	}
	for _, w := range p.Widgets {
		w.Handle(in)
	}
}

func (p *UIPanel) Draw(screen *ebiten.Image) {
	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), p.BGColor, true)
	vector.StrokeRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), 2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+10), int(p.Y+5))

	visible := func(y float64) bool { return y >= p.Y+20 && y <= p.Y+p.Height-10 }
	y := p.Y + 30 - p.ScrollOffset
	for _, section := range p.sections {
		if visible(y) {
			vector.FillRect(screen, float32(p.X+5), float32(y), float32(p.Width-10), 20,
				color.RGBA{R: 60, G: 60, B: 70, A: 255}, true)
			ebitenutil.DebugPrintAt(screen, section.Title, int(p.X+10), int(y+3))
		}
		y += 25
		for i := section.StartIndex; i < section.EndIndex && i < len(p.Widgets); i++ {
			if p.Labels[i] != "" {
				if visible(y) {
					ebitenutil.DebugPrintAt(screen, p.Labels[i], int(p.X+10), int(y))
				}
				y += 15
			}
			if visible(y) {
				p.Widgets[i].Draw(screen)
			}
			y += p.Widgets[i].GetHeight()
		}
	}
}
