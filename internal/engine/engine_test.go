package engine

import (
	"context"
	"errors"
	"slices"
	"testing"

	"trait-ca/internal/grid"
	"trait-ca/internal/movement"
	"trait-ca/internal/rules"
)

func baseOptions() Options {
	return Options{
		Width:     24,
		Height:    18,
		Channels:  3,
		Density:   0.5,
		Ranges:    grid.UnitRanges(3),
		Rules:     []rules.Rule{rules.Average{}, rules.Diffusion{}, nil},
		TraitHood: grid.Moore(1),
		MoveHood:  grid.Moore(1),
		Policy:    movement.Random{},
		Seed:      17,
		Workers:   3,
		BatchRows: 4,
	}
}

func TestNewValidatesOptions(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Options)
		want   error
	}{
		{"no policy", func(o *Options) { o.Policy = nil }, ErrNoPolicy},
		{"no trait hood", func(o *Options) { o.TraitHood = nil }, ErrNoHood},
		{"no move hood", func(o *Options) { o.MoveHood = nil }, ErrNoHood},
		{"rule mismatch", func(o *Options) { o.Rules = o.Rules[:2] }, ErrRuleMismatch},
		{"empty grid", func(o *Options) { o.Width = 0 }, grid.ErrEmptyGrid},
		{"no channels", func(o *Options) { o.Channels = 0; o.Rules = []rules.Rule{} }, grid.ErrNoChannels},
		{"density", func(o *Options) { o.Density = 1.5 }, grid.ErrInvalidDensity},
		{"ranges", func(o *Options) { o.Ranges = grid.UnitRanges(2) }, grid.ErrRangeMismatch},
		{"init", func(o *Options) { o.Init = "sparse" }, ErrUnknownInit},
	}
	for _, tc := range cases {
		opts := baseOptions()
		tc.mutate(&opts)
		if _, err := New(opts); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestNilRulesMeansInactive(t *testing.T) {
	opts := baseOptions()
	opts.Rules = nil
	opts.Policy = movement.Static{}
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	before := e.Grid().Clone()
	e.Step()
	for ch := 0; ch < opts.Channels; ch++ {
		if !slices.Equal(before.Channel(ch), e.Grid().Channel(ch)) {
			t.Fatalf("channel %d changed without a rule", ch)
		}
	}
}

func TestStepConservesPopulation(t *testing.T) {
	e, err := New(baseOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pop := e.Grid().Population()
	for i := 0; i < 8; i++ {
		rep := e.Step()
		if rep.Tick != uint64(i+1) {
			t.Fatalf("tick %d reported as %d", i+1, rep.Tick)
		}
		if rep.Movement.Agents != pop {
			t.Fatalf("resolver saw %d agents, want %d", rep.Movement.Agents, pop)
		}
		if got := e.Grid().Population(); got != pop {
			t.Fatalf("population %d after tick %d, want %d", got, i+1, pop)
		}
	}
}

func TestUpdaterKeepsValuesInRange(t *testing.T) {
	e, err := New(baseOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 5; i++ {
		e.Step()
	}
	g := e.Grid()
	occ := g.Occupancy()
	for ch := 0; ch < g.Channels(); ch++ {
		for i, v := range g.Channel(ch) {
			if !occ[i] && v != 0 {
				t.Fatalf("empty cell %d holds %v on channel %d", i, v, ch)
			}
			if v < 0 || v > 1 {
				t.Fatalf("cell %d channel %d out of range: %v", i, ch, v)
			}
		}
	}
}

func TestUpdaterIsSynchronous(t *testing.T) {
	// A blinker only oscillates when every cell sees the same generation.
	opts := baseOptions()
	opts.Width, opts.Height, opts.Channels = 5, 5, 1
	opts.Ranges = grid.UnitRanges(1)
	opts.Rules = []rules.Rule{rules.Conway{}}
	opts.Policy = movement.Static{}
	opts.Density = 1
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g := e.Grid()
	for i := range g.Channel(0) {
		g.Channel(0)[i] = 0
	}
	for col := 1; col <= 3; col++ {
		g.Set(2, col, 0, 1)
	}
	e.Step()
	g = e.Grid()
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			want := float32(0)
			if col == 2 && row >= 1 && row <= 3 {
				want = 1
			}
			if got := g.Get(row, col, 0); got != want {
				t.Fatalf("(%d,%d) = %v, want %v", row, col, got, want)
			}
		}
	}
}

func TestStepIndependentOfWorkerCount(t *testing.T) {
	run := func(workers int) *grid.Grid {
		opts := baseOptions()
		opts.Workers = workers
		opts.Policy = movement.TraitBased{}
		e, err := New(opts)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		for i := 0; i < 6; i++ {
			e.Step()
		}
		return e.Grid()
	}
	a, b := run(1), run(5)
	if !slices.Equal(a.Occupancy(), b.Occupancy()) {
		t.Fatal("occupancy differs between worker counts")
	}
	for ch := 0; ch < a.Channels(); ch++ {
		if !slices.Equal(a.Channel(ch), b.Channel(ch)) {
			t.Fatalf("channel %d differs between worker counts", ch)
		}
	}
}

func TestResetIsDeterministic(t *testing.T) {
	for _, mode := range []InitMode{InitUniform, InitNoise} {
		opts := baseOptions()
		opts.Init = mode
		e, err := New(opts)
		if err != nil {
			t.Fatalf("%s: New: %v", mode, err)
		}
		first := e.Grid().Clone()
		e.Step()
		e.Step()
		e.Reset(opts.Seed)
		if e.Tick() != 0 {
			t.Fatalf("%s: tick %d after reset", mode, e.Tick())
		}
		if !slices.Equal(first.Occupancy(), e.Grid().Occupancy()) ||
			!slices.Equal(first.Channel(0), e.Grid().Channel(0)) {
			t.Fatalf("%s: reset with the same seed produced a different grid", mode)
		}
	}
}

func TestResizeAndSetters(t *testing.T) {
	e, err := New(baseOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Resize(0, 4); !errors.Is(err, grid.ErrEmptyGrid) {
		t.Fatalf("Resize(0,4) = %v", err)
	}
	if err := e.Resize(10, 7); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if g := e.Grid(); g.Width() != 10 || g.Height() != 7 {
		t.Fatalf("grid is %dx%d after resize", g.Width(), g.Height())
	}
	e.Step()

	if err := e.SetDensity(-0.1); !errors.Is(err, grid.ErrInvalidDensity) {
		t.Fatalf("SetDensity(-0.1) = %v", err)
	}
	if err := e.SetDensity(0); err != nil {
		t.Fatalf("SetDensity(0): %v", err)
	}
	e.Reset(1)
	if e.Grid().Population() != 0 {
		t.Fatal("density 0 should leave the grid empty")
	}

	if err := e.SetRule(3, rules.Static{}); !errors.Is(err, ErrRuleMismatch) {
		t.Fatalf("SetRule(3) = %v", err)
	}
	if err := e.SetRule(2, rules.Maximum{}); err != nil {
		t.Fatalf("SetRule(2): %v", err)
	}
	if e.Rules()[2] != (rules.Maximum{}) {
		t.Fatal("rule not installed")
	}
	if err := e.SetPolicy(nil); !errors.Is(err, ErrNoPolicy) {
		t.Fatalf("SetPolicy(nil) = %v", err)
	}
	if err := e.SetPolicy(movement.Static{}); err != nil || e.Policy() != (movement.Static{}) {
		t.Fatalf("SetPolicy(static) = %v", err)
	}
}

func TestRunHonoursContext(t *testing.T) {
	e, err := New(baseOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	seen := 0
	if err := e.Run(context.Background(), 4, func(Report) { seen++ }); err != nil || seen != 4 {
		t.Fatalf("Run = %v after %d ticks", err, seen)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.Run(ctx, 0, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run on cancelled context = %v", err)
	}
	if e.Tick() != 4 {
		t.Fatalf("tick %d, want 4", e.Tick())
	}
}
