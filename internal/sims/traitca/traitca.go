// Package traitca adapts the trait engine to the sim registry: it owns the
// configuration, the display layer and the knobs the GUI exposes.
package traitca

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"slices"

	"trait-ca/internal/core"
	"trait-ca/internal/engine"
	"trait-ca/internal/grid"
	"trait-ca/internal/movement"
	"trait-ca/internal/render"
	"trait-ca/internal/rules"
)

// Name is the registry name of the automaton.
const Name = "traits"

// Automaton is a trait engine plus the state needed to display it.
type Automaton struct {
	cfg     Config
	eng     *engine.Engine
	display *core.ByteGrid
	names   []string

	selected int
	scheme   render.Scheme
	palette  []color.RGBA

	last engine.Report
	log  *slog.Logger
}

// New validates cfg and builds a populated automaton.
func New(cfg Config) (*Automaton, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(opts)
	if err != nil {
		return nil, err
	}
	scheme, _ := render.LookupScheme(cfg.ColorScheme)
	a := &Automaton{
		cfg:      cfg,
		eng:      eng,
		display:  core.NewByteGrid(cfg.Width, cfg.Height),
		names:    channelNames(cfg),
		selected: cfg.SelectedChannel,
		scheme:   scheme,
		log:      slog.Default(),
	}
	a.palette = scheme.Palette(float32(cfg.BaseColorNotEmpty))
	a.refresh()
	return a, nil
}

// SetLogger replaces the logger used for lifecycle events.
func (a *Automaton) SetLogger(l *slog.Logger) {
	if l != nil {
		a.log = l
	}
}

// Name implements core.Sim.
func (a *Automaton) Name() string { return Name }

// Size implements core.Sim.
func (a *Automaton) Size() core.Size { return core.Size{W: a.cfg.Width, H: a.cfg.Height} }

// Cells returns display levels of the selected channel: 0 for empty cells and
// render.Level(value) for agents.
func (a *Automaton) Cells() []uint8 { return a.display.Cells() }

// Reset repopulates the grid. A zero seed reuses the configured one.
func (a *Automaton) Reset(seed int64) {
	if seed == 0 {
		seed = a.cfg.Seed
	}
	a.eng.Reset(seed)
	a.last = engine.Report{}
	a.refresh()
	a.log.Debug("reset", "sim", Name, "seed", seed, "population", a.eng.Grid().Population())
}

// Step runs one tick.
func (a *Automaton) Step() {
	a.last = a.eng.Step()
	a.refresh()
}

// Run advances up to steps ticks without refreshing the display between
// ticks, then refreshes once. fn, if non-nil, sees every tick report.
func (a *Automaton) Run(ctx context.Context, steps int, fn func(engine.Report)) error {
	defer a.refresh()
	return a.eng.Run(ctx, steps, func(r engine.Report) {
		a.last = r
		if fn != nil {
			fn(r)
		}
	})
}

// Resize reallocates the grid within the configured bounds.
func (a *Automaton) Resize(w, h int) error {
	b := a.cfg.Bounds
	if w < b.WidthMin || w > b.WidthMax || h < b.HeightMin || h > b.HeightMax {
		return fmt.Errorf("%w: %dx%d", ErrOutOfBounds, w, h)
	}
	if err := a.eng.Resize(w, h); err != nil {
		return err
	}
	a.cfg.Width, a.cfg.Height = w, h
	a.display.Resize(w, h)
	a.refresh()
	a.log.Debug("resize", "sim", Name, "w", w, "h", h)
	return nil
}

// Engine exposes the underlying engine.
func (a *Automaton) Engine() *engine.Engine { return a.eng }

// Grid returns the current state.
func (a *Automaton) Grid() *grid.Grid { return a.eng.Grid() }

// Config returns the configuration as currently applied.
func (a *Automaton) Config() Config { return a.cfg }

// LastReport returns the report of the most recent tick.
func (a *Automaton) LastReport() engine.Report { return a.last }

// StepsPerSecond is the configured simulation rate.
func (a *Automaton) StepsPerSecond() float64 { return a.cfg.StepsPerSecond }

// ChannelNames returns one label per channel.
func (a *Automaton) ChannelNames() []string { return a.names }

// Selected returns the displayed channel.
func (a *Automaton) Selected() int { return a.selected }

// SetSelected switches the displayed channel.
func (a *Automaton) SetSelected(ch int) bool {
	if ch < 0 || ch >= a.cfg.Channels {
		return false
	}
	a.selected = ch
	a.refresh()
	return true
}

// Palette maps display levels to colors for the active scheme.
func (a *Automaton) Palette() []color.RGBA { return a.palette }

// Scheme returns the active color scheme name.
func (a *Automaton) Scheme() string { return a.scheme.Name }

// SetScheme switches color scheme by name.
func (a *Automaton) SetScheme(name string) error {
	s, ok := render.LookupScheme(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
	a.scheme = s
	a.cfg.ColorScheme = name
	a.palette = s.Palette(float32(a.cfg.BaseColorNotEmpty))
	return nil
}

// SetBaseColor changes the lift applied to occupied cells.
func (a *Automaton) SetBaseColor(base float64) error {
	if base < 0 || base > 1 {
		return fmt.Errorf("%w: base color %v", ErrOutOfBounds, base)
	}
	a.cfg.BaseColorNotEmpty = base
	a.palette = a.scheme.Palette(float32(base))
	return nil
}

// Movement returns the registry name of the active movement policy.
func (a *Automaton) Movement() string { return a.cfg.Movement }

// SetMovement swaps the movement policy by registry name.
func (a *Automaton) SetMovement(name string) error {
	p, ok := movement.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMovement, name)
	}
	if err := a.eng.SetPolicy(p); err != nil {
		return err
	}
	a.cfg.Movement = name
	return nil
}

// SetRule installs a named rule on channel ch and activates the channel.
func (a *Automaton) SetRule(ch int, name string) error {
	r, ok := rules.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRule, name)
	}
	if err := a.eng.SetRule(ch, r); err != nil {
		return err
	}
	names := slices.Clone(a.cfg.Rules)
	for len(names) <= ch {
		names = append(names, "static")
	}
	names[ch] = name
	a.cfg.Rules = names
	a.setActive(ch, true)
	return nil
}

// SetActive toggles the update of channel ch. Reactivating a channel
// restores its configured rule.
func (a *Automaton) SetActive(ch int, on bool) error {
	if ch < 0 || ch >= a.cfg.Channels {
		return fmt.Errorf("%w: trait %d", ErrOutOfBounds, ch)
	}
	var r rules.Rule
	if on {
		if ch >= len(a.cfg.Rules) {
			return fmt.Errorf("%w: no rule for trait %d", engine.ErrRuleMismatch, ch)
		}
		var ok bool
		if r, ok = rules.Lookup(a.cfg.Rules[ch]); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownRule, a.cfg.Rules[ch])
		}
	}
	if err := a.eng.SetRule(ch, r); err != nil {
		return err
	}
	a.setActive(ch, on)
	return nil
}

func (a *Automaton) setActive(ch int, on bool) {
	mask := make([]uint8, max(len(a.cfg.ActiveMask), ch+1))
	copy(mask, a.cfg.ActiveMask)
	mask[ch] = 0
	if on {
		mask[ch] = 1
	}
	a.cfg.ActiveMask = mask
}

// Inspect returns a copy of the agent at column x, row y, or false when the
// cell is empty. Coordinates wrap.
func (a *Automaton) Inspect(x, y int) ([]float32, bool) {
	g := a.eng.Grid()
	if !g.IsOccupied(y, x) {
		return nil, false
	}
	out := make([]float32, g.Channels())
	for ch := range out {
		out[ch] = g.Get(y, x, ch)
	}
	return out, true
}

// Stats summarises every channel over the current population.
func (a *Automaton) Stats() []grid.ChannelStats {
	g := a.eng.Grid()
	out := make([]grid.ChannelStats, g.Channels())
	for ch := range out {
		out[ch] = g.Stats(ch)
	}
	return out
}

// StatusLines is the short textual status shown next to the grid. The
// movement and channel statistics lines appear only while ShowStats is set.
func (a *Automaton) StatusLines() []string {
	g := a.eng.Grid()
	lines := []string{
		fmt.Sprintf("tick %d  pop %d (%.1f%%)", a.eng.Tick(), g.Population(), 100*g.FillFraction()),
	}
	if a.cfg.ShowStats {
		mv := a.last.Movement
		st := g.Stats(a.selected)
		lines = append(lines,
			fmt.Sprintf("moved %d  blocked %d  contested %d", mv.Moved, mv.Blocked, mv.Contested),
			fmt.Sprintf("%s  mean %.3f  [%.2f, %.2f]", a.names[a.selected], st.Mean, st.Min, st.Max),
		)
	}
	return append(lines, fmt.Sprintf("movement %s  scheme %s", a.cfg.Movement, a.scheme.Name))
}

// ShowStats reports whether statistics lines are shown.
func (a *Automaton) ShowStats() bool { return a.cfg.ShowStats }

// SetShowStats toggles the statistics lines.
func (a *Automaton) SetShowStats(on bool) { a.cfg.ShowStats = on }

// Done reports whether a timed run has reached TimestepMax.
func (a *Automaton) Done() bool {
	return a.cfg.TimedSimulation && a.eng.Tick() >= uint64(max(a.cfg.TimestepMax, 0))
}

func (a *Automaton) refresh() {
	g := a.eng.Grid()
	vals := g.Channel(a.selected)
	occ := g.Occupancy()
	cells := a.display.Cells()
	for i, on := range occ {
		if !on {
			cells[i] = 0
			continue
		}
		cells[i] = render.Level(vals[i])
	}
}

func init() {
	core.Register(Name, func(cfg map[string]string) (core.Sim, error) {
		base := DefaultConfig()
		if path := cfg["config"]; path != "" {
			loaded, err := Load(path)
			if err != nil {
				return nil, err
			}
			base = loaded
		}
		return New(FromMap(base, cfg))
	})
}
