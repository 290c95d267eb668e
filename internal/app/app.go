//go:build ebiten

package app

import (
	"image/color"
	"time"

	"trait-ca/internal/core"
	"trait-ca/internal/movement"
	"trait-ca/internal/render"
	"trait-ca/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// maxStepsPerFrame bounds catch-up after a slow frame.
const maxStepsPerFrame = 64

type paletteProvider interface {
	Palette() []color.RGBA
}

type rateProvider interface {
	StepsPerSecond() float64
}

type channelSelector interface {
	Selected() int
	SetSelected(ch int) bool
	ChannelNames() []string
}

type statsToggler interface {
	ShowStats() bool
	SetShowStats(on bool)
}

type finisher interface {
	Done() bool
}

type schemeSwitcher interface {
	Scheme() string
	SetScheme(name string) error
}

type movementSwitcher interface {
	Movement() string
	SetMovement(name string) error
}

type resizer interface {
	Resize(w, h int) error
}

// Game adapts a core simulation to the ebiten.Game interface.
type Game struct {
	sim     core.Sim
	painter *render.GridPainter
	hud     *ui.HUD
	overlay *ui.Overlay
	timer   *core.FixedStep

	fallback []color.RGBA

	scale    int
	paused   bool
	tickOnce bool
	seed     int64
}

// New constructs a Game for the provided simulation.
func New(sim core.Sim, scale int, seed int64, hudWidth int) *Game {
	size := sim.Size()
	g := &Game{
		sim:      sim,
		painter:  render.NewGridPainter(size.W, size.H),
		hud:      ui.NewHUD(sim, hudWidth),
		overlay:  ui.NewOverlay(sim, scale),
		timer:    core.NewFixedStep(60),
		fallback: []color.RGBA{{A: 255}, {R: 255, G: 255, B: 255, A: 255}},
		scale:    max(scale, 1),
		seed:     seed,
	}
	if rp, ok := sim.(rateProvider); ok {
		g.timer.SetRate(rp.StepsPerSecond())
	}
	return g
}

// Overlay exposes the inspector overlay for configuration.
func (g *Game) Overlay() *ui.Overlay { return g.overlay }

// Reset reinitializes the simulation state with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.sim.Reset(seed)
	g.tickOnce = false
}

// Update handles per-frame logic and advances the simulation.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.paused = false
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(time.Now().UnixNano())
	}
	if cs, ok := g.sim.(channelSelector); ok {
		n := len(cs.ChannelNames())
		switch {
		case inpututil.IsKeyJustPressed(ebiten.KeyTab), inpututil.IsKeyJustPressed(ebiten.KeyPeriod):
			cs.SetSelected(cycle(cs.Selected(), n, 1))
		case inpututil.IsKeyJustPressed(ebiten.KeyComma):
			cs.SetSelected(cycle(cs.Selected(), n, -1))
		}
	}
	if st, ok := g.sim.(statsToggler); ok && inpututil.IsKeyJustPressed(ebiten.KeyT) {
		st.SetShowStats(!st.ShowStats())
	}
	if ss, ok := g.sim.(schemeSwitcher); ok && inpututil.IsKeyJustPressed(ebiten.KeyC) {
		_ = ss.SetScheme(next(render.SchemeNames(), ss.Scheme()))
	}
	if ms, ok := g.sim.(movementSwitcher); ok && inpututil.IsKeyJustPressed(ebiten.KeyM) {
		_ = ms.SetMovement(next(movement.Names(), ms.Movement()))
	}

	g.overlay.Update()
	g.hud.Update(g.gridWidth())
	g.syncSize()

	if rp, ok := g.sim.(rateProvider); ok && rp.StepsPerSecond() != g.timer.Rate() {
		g.timer.SetRate(rp.StepsPerSecond())
	}
	steps := g.timer.Steps(maxStepsPerFrame)
	if f, ok := g.sim.(finisher); ok && f.Done() {
		g.tickOnce = false
		return nil
	}
	switch {
	case g.tickOnce:
		g.sim.Step()
		g.tickOnce = false
	case !g.paused:
		for i := 0; i < steps; i++ {
			g.sim.Step()
		}
	}
	return nil
}

// syncSize follows grid resizes made through the HUD.
func (g *Game) syncSize() {
	s := g.sim.Size()
	if w, h := g.painter.Size(); w == s.W && h == s.H {
		return
	}
	g.painter.Resize(s.W, s.H)
	if _, ok := g.sim.(resizer); ok {
		ebiten.SetWindowSize(g.gridWidth()+g.hud.Width(), g.hud.Height(s.H*g.scale))
	}
}

// Draw renders the current simulation state.
func (g *Game) Draw(screen *ebiten.Image) {
	palette := g.fallback
	if pp, ok := g.sim.(paletteProvider); ok {
		palette = pp.Palette()
	}
	g.painter.Blit(screen, g.sim.Cells(), palette, g.scale)
	g.overlay.Draw(screen)
	g.hud.Draw(screen, g.gridWidth(), g.scale)
}

// Layout returns the logical screen size: the scaled grid plus the HUD panel.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.sim.Size()
	return g.gridWidth() + g.hud.Width(), g.hud.Height(s.H * g.scale)
}

func (g *Game) gridWidth() int { return g.sim.Size().W * g.scale }
