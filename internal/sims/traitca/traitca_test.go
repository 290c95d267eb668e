package traitca

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"trait-ca/internal/core"
	"trait-ca/internal/engine"
	"trait-ca/internal/grid"
	"trait-ca/internal/render"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 32
	cfg.Height = 24
	cfg.Workers = 2
	cfg.BatchRows = 4
	return cfg
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"narrow", func(c *Config) { c.Width = 2 }, ErrOutOfBounds},
		{"tall", func(c *Config) { c.Height = 6000 }, ErrOutOfBounds},
		{"no traits", func(c *Config) { c.Channels = 0 }, grid.ErrNoChannels},
		{"rate", func(c *Config) { c.StepsPerSecond = 0.5 }, ErrOutOfBounds},
		{"cell size", func(c *Config) { c.CellSize = 0 }, ErrOutOfBounds},
		{"base color", func(c *Config) { c.BaseColorNotEmpty = 1.5 }, ErrOutOfBounds},
		{"scheme", func(c *Config) { c.ColorScheme = "rainbow" }, ErrUnknownScheme},
		{"selected", func(c *Config) { c.SelectedChannel = 9 }, ErrOutOfBounds},
		{"active mask", func(c *Config) { c.Channels = 1; c.Ranges = grid.UnitRanges(1) }, ErrOutOfBounds},
		{"ranges", func(c *Config) { c.Ranges = c.Ranges[:3] }, grid.ErrRangeMismatch},
		{"range order", func(c *Config) { c.Ranges = slices.Clone(c.Ranges); c.Ranges[2] = grid.Range{Min: 1, Max: 0} }, grid.ErrInvalidRange},
		{"density", func(c *Config) { c.Density = -0.1 }, grid.ErrInvalidDensity},
		{"init", func(c *Config) { c.Init = "checkerboard" }, engine.ErrUnknownInit},
		{"rule", func(c *Config) { c.Rules = []string{"average", "telepathy"} }, ErrUnknownRule},
		{"missing rule", func(c *Config) { c.Rules = []string{"average"} }, engine.ErrRuleMismatch},
		{"movement", func(c *Config) { c.Movement = "teleport" }, ErrUnknownMovement},
		{"trait mask", func(c *Config) { c.TraitMask = [][]uint8{{1, 1}, {1}} }, grid.ErrRaggedMask},
		{"move mask", func(c *Config) { c.MoveMask = [][]uint8{{0, 0, 0}} }, grid.ErrEmptyMask},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traits.yaml")
	doc := `
grid_width: 64
grid_height: 40
num_traits: 3
active_mask: [1, 0, 1]
initialisation_ranges:
  - {min: 0.2, max: 0.4}
  - {min: 0, max: 1}
  - {min: 0.5, max: 0.5}
rules: [diffusion, static, majority]
movement: gradient
color_scheme: plasma
neighborhood_mvt_mask:
  - [0, 1, 0]
  - [1, 1, 1]
  - [0, 1, 0]
trait_names: [Heat, "", Mood]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 40 || cfg.Channels != 3 {
		t.Fatalf("unexpected dimensions %dx%dx%d", cfg.Width, cfg.Height, cfg.Channels)
	}
	if cfg.Density != 0.5 || cfg.StepsPerSecond != 1000 {
		t.Fatal("keys missing from the file should keep their defaults")
	}
	if cfg.Ranges[0] != (grid.Range{Min: 0.2, Max: 0.4}) {
		t.Fatalf("range 0 = %+v", cfg.Ranges[0])
	}
	if got := channelNames(cfg); !slices.Equal(got, []string{"Heat", "Confidence", "Mood"}) {
		t.Fatalf("channel names = %v", got)
	}

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if rs := a.Engine().Rules(); rs[1] != nil || rs[0] == nil || rs[2] == nil {
		t.Fatalf("active mask not applied: %v", rs)
	}
	if a.Engine().Policy() == nil || a.Scheme() != "plasma" {
		t.Fatal("movement or scheme not applied")
	}
}

func TestLoadReportsErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: %v", err)
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("movement: teleport\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); !errors.Is(err, ErrUnknownMovement) {
		t.Fatalf("bad movement: %v", err)
	}
	broken := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(broken, []byte("grid_width: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(broken); err == nil {
		t.Fatal("malformed yaml accepted")
	}
}

func TestFromMapOverrides(t *testing.T) {
	cfg := FromMap(DefaultConfig(), map[string]string{
		"w":        "80",
		"h":        "nope",
		"seed":     "7",
		"traits":   "12",
		"movement": "random",
		"scheme":   "grayscale",
		"density":  "0.25",
	})
	if cfg.Width != 80 || cfg.Height != 500 || cfg.Seed != 7 {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if cfg.Channels != 12 || len(cfg.Ranges) != 12 {
		t.Fatalf("traits override: %d channels, %d ranges", cfg.Channels, len(cfg.Ranges))
	}
	if cfg.Movement != "random" || cfg.ColorScheme != "grayscale" || cfg.Density != 0.25 {
		t.Fatal("string overrides not applied")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("override config invalid: %v", err)
	}

	shrunk := FromMap(DefaultConfig(), map[string]string{"traits": "1"})
	if len(shrunk.ActiveMask) != 1 {
		t.Fatalf("active mask not trimmed: %v", shrunk.ActiveMask)
	}
	if err := shrunk.Validate(); err != nil {
		t.Fatalf("single trait config invalid: %v", err)
	}
}

func TestDisplayTracksSelectedChannel(t *testing.T) {
	a, err := New(smallConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	check := func() {
		t.Helper()
		g := a.Grid()
		occ := g.Occupancy()
		vals := g.Channel(a.Selected())
		for i, c := range a.Cells() {
			switch {
			case !occ[i] && c != 0:
				t.Fatalf("empty cell %d shows level %d", i, c)
			case occ[i] && c != render.Level(vals[i]):
				t.Fatalf("cell %d shows level %d, want %d", i, c, render.Level(vals[i]))
			}
		}
	}
	check()
	a.Step()
	check()
	if !a.SetSelected(4) || a.Selected() != 4 {
		t.Fatal("SetSelected(4) failed")
	}
	check()
	if a.SetSelected(9) {
		t.Fatal("SetSelected accepted an out-of-range channel")
	}
	if len(a.Palette()) != render.PaletteSize {
		t.Fatalf("palette has %d entries", len(a.Palette()))
	}
}

func TestResetIsDeterministic(t *testing.T) {
	a, err := New(smallConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	initial := slices.Clone(a.Cells())
	for i := 0; i < 3; i++ {
		a.Step()
	}
	a.Reset(0)
	if !slices.Equal(initial, a.Cells()) {
		t.Fatal("Reset(0) did not restore the configured seed")
	}
	if a.Engine().Tick() != 0 {
		t.Fatalf("tick %d after reset", a.Engine().Tick())
	}
	a.Reset(99)
	if a.Engine().Seed() != 99 {
		t.Fatalf("seed %d, want 99", a.Engine().Seed())
	}
}

func TestStepConservesPopulation(t *testing.T) {
	a, err := New(smallConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pop := a.Grid().Population()
	for i := 0; i < 5; i++ {
		a.Step()
		if got := a.Grid().Population(); got != pop {
			t.Fatalf("population %d after step %d, want %d", got, i+1, pop)
		}
	}
	if a.LastReport().Tick != 5 {
		t.Fatalf("last report tick %d", a.LastReport().Tick)
	}
	if lines := a.StatusLines(); len(lines) == 0 {
		t.Fatal("no status lines")
	}
}

func TestRunMatchesStepping(t *testing.T) {
	stepped, err := New(smallConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ran, err := New(smallConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 4; i++ {
		stepped.Step()
	}
	calls := 0
	if err := ran.Run(context.Background(), 4, func(engine.Report) { calls++ }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 4 || ran.LastReport().Tick != 4 {
		t.Fatalf("calls %d, last tick %d", calls, ran.LastReport().Tick)
	}
	if !slices.Equal(stepped.Cells(), ran.Cells()) {
		t.Fatal("display after Run differs from stepping")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ran.Run(ctx, 3, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if ran.Engine().Tick() != 4 {
		t.Fatalf("cancelled run advanced to tick %d", ran.Engine().Tick())
	}
}

func TestShowStatsControlsStatusLines(t *testing.T) {
	a, err := New(smallConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	full := a.StatusLines()
	a.SetShowStats(false)
	short := a.StatusLines()
	if a.ShowStats() || len(short) >= len(full) {
		t.Fatalf("hiding stats left %d of %d lines", len(short), len(full))
	}
	if short[0] != full[0] || short[len(short)-1] != full[len(full)-1] {
		t.Fatalf("tick and movement lines should stay: %q vs %q", short, full)
	}
}

func TestTimedSimulationStopsAtTimestepMax(t *testing.T) {
	cfg := smallConfig()
	cfg.TimestepMax = 3
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 4; i++ {
		a.Step()
	}
	if a.Done() {
		t.Fatal("untimed run reported done")
	}

	cfg.TimedSimulation = true
	a, err = New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 3; i++ {
		if a.Done() {
			t.Fatalf("done after %d ticks", i)
		}
		a.Step()
	}
	if !a.Done() {
		t.Fatal("timed run not done at timestep_max")
	}
	a.Reset(0)
	if a.Done() {
		t.Fatal("reset should rewind a timed run")
	}
}

func TestSettersAndParameters(t *testing.T) {
	a, err := New(smallConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !a.SetFloatParameter("density", 0) || a.Grid().Population() != 0 {
		t.Fatal("density 0 should empty the grid")
	}
	if a.SetFloatParameter("density", 2) {
		t.Fatal("density 2 accepted")
	}
	if !a.SetIntParameter("w", 40) || a.Size() != (core.Size{W: 40, H: 24}) {
		t.Fatalf("resize failed, size %v", a.Size())
	}
	if len(a.Cells()) != 40*24 {
		t.Fatalf("display has %d cells", len(a.Cells()))
	}
	if a.SetIntParameter("h", 2) {
		t.Fatal("height below bounds accepted")
	}
	if err := a.SetMovement("static"); err != nil || a.Movement() != "static" {
		t.Fatalf("SetMovement: %v", err)
	}
	if err := a.SetMovement("teleport"); !errors.Is(err, ErrUnknownMovement) {
		t.Fatalf("SetMovement(teleport) = %v", err)
	}
	if err := a.SetScheme("red-blue"); err != nil || a.Scheme() != "red-blue" {
		t.Fatalf("SetScheme: %v", err)
	}
	if err := a.SetRule(5, "maximum"); err != nil {
		t.Fatalf("SetRule: %v", err)
	}
	if !a.Config().Active(5) || a.Engine().Rules()[5] == nil {
		t.Fatal("SetRule should activate the channel")
	}
	if err := a.SetActive(0, false); err != nil || a.Engine().Rules()[0] != nil {
		t.Fatalf("SetActive(0, false): %v", err)
	}
	if err := a.Config().Validate(); err != nil {
		t.Fatalf("config drifted into an invalid state: %v", err)
	}

	snap := a.Parameters()
	if p, ok := snap.Lookup("movement"); !ok || p.Value != "static" {
		t.Fatalf("movement parameter = %+v", p)
	}
	if p, ok := snap.Lookup("rule_0"); !ok || p.Value != "average (off)" {
		t.Fatalf("rule_0 parameter = %+v", p)
	}
	for _, ctrl := range a.ParameterControls() {
		if _, ok := snap.Lookup(ctrl.Key); !ok {
			t.Fatalf("control %q has no parameter", ctrl.Key)
		}
	}
}

func TestInspect(t *testing.T) {
	a, err := New(smallConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g := a.Grid()
	for i, on := range g.Occupancy() {
		row, col := g.RowCol(i)
		vals, ok := a.Inspect(col, row)
		if ok != on {
			t.Fatalf("Inspect(%d,%d) occupied=%v, want %v", col, row, ok, on)
		}
		if ok && vals[1] != g.Get(row, col, 1) {
			t.Fatalf("Inspect(%d,%d) = %v", col, row, vals)
		}
	}
	if stats := a.Stats(); len(stats) != 9 || stats[0].Count != g.Population() {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestRegisteredFactory(t *testing.T) {
	sim, err := core.NewSim(Name, map[string]string{"w": "20", "h": "16", "seed": "3"})
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}
	if sim.Size() != (core.Size{W: 20, H: 16}) {
		t.Fatalf("size %v", sim.Size())
	}
	if _, err := core.NewSim(Name, map[string]string{"scheme": "rainbow"}); !errors.Is(err, ErrUnknownScheme) {
		t.Fatalf("bad scheme: %v", err)
	}
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("grid_width: 12\ngrid_height: 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	sim, err = core.NewSim(Name, map[string]string{"config": path, "h": "14"})
	if err != nil {
		t.Fatalf("NewSim with config: %v", err)
	}
	if sim.Size() != (core.Size{W: 12, H: 14}) {
		t.Fatalf("size %v, want 12x14", sim.Size())
	}
}

func TestDefaultChannelNames(t *testing.T) {
	names := DefaultChannelNames(11)
	if names[0] != "Energy" || names[8] != "Adaptability" || names[10] != "Trait 10" {
		t.Fatalf("names = %v", names)
	}
}
