package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trait-ca/internal/core"
	"trait-ca/internal/grid"
	"trait-ca/internal/movement"
	"trait-ca/internal/rules"
)

var (
	// ErrNoPolicy reports a missing movement policy.
	ErrNoPolicy = errors.New("engine: movement policy is required")
	// ErrRuleMismatch reports a rule slice that does not match the channel count.
	ErrRuleMismatch = errors.New("engine: one rule slot per channel is required")
	// ErrNoHood reports a missing trait or movement neighborhood.
	ErrNoHood = errors.New("engine: trait and movement neighborhoods are required")
	// ErrUnknownInit reports an unsupported population mode.
	ErrUnknownInit = errors.New("engine: unknown init mode")
)

// InitMode selects how Reset fills the grid.
type InitMode string

const (
	// InitUniform draws channel values independently per agent.
	InitUniform InitMode = "uniform"
	// InitNoise draws channel values from smooth OpenSimplex fields.
	InitNoise InitMode = "noise"
)

// Options configures an Engine. Zero Workers and BatchRows pick defaults.
type Options struct {
	Width, Height int
	Channels      int
	Density       float64
	Ranges        []grid.Range
	Init          InitMode
	NoiseScale    float64

	// Rules holds one slot per channel; nil slots are inactive. A nil slice
	// leaves every channel inactive.
	Rules []rules.Rule

	TraitHood *grid.Neighborhood
	MoveHood  *grid.Neighborhood
	Policy    movement.Policy

	Seed      int64
	Workers   int
	BatchRows int
}

// Report describes one tick.
type Report struct {
	Tick     uint64
	Movement movement.Report
	Update   time.Duration
	Move     time.Duration
}

// Engine owns the two grid buffers and runs ticks over them. It is not safe
// for concurrent use; parallelism happens inside Step.
type Engine struct {
	opts     Options
	pool     *core.Pool
	updater  *Updater
	resolver *movement.Resolver

	cur, next *grid.Grid
	tick      uint64
	seed      int64
}

// New validates opts, allocates both buffers and populates the grid.
func New(opts Options) (*Engine, error) {
	if opts.Init == "" {
		opts.Init = InitUniform
	}
	if opts.Rules == nil {
		opts.Rules = make([]rules.Rule, opts.Channels)
	}
	if err := validate(opts); err != nil {
		return nil, err
	}
	cur, err := grid.New(opts.Width, opts.Height, opts.Channels)
	if err != nil {
		return nil, err
	}
	next, _ := grid.New(opts.Width, opts.Height, opts.Channels)

	pool := core.NewPool(opts.Workers, opts.BatchRows)
	e := &Engine{
		opts:     opts,
		pool:     pool,
		updater:  NewUpdater(pool, opts.TraitHood, append([]rules.Rule(nil), opts.Rules...)),
		resolver: movement.NewResolver(pool, opts.Seed),
		cur:      cur,
		next:     next,
	}
	e.Reset(opts.Seed)
	return e, nil
}

func validate(opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("%dx%d: %w", opts.Width, opts.Height, grid.ErrEmptyGrid)
	}
	if opts.Channels <= 0 {
		return grid.ErrNoChannels
	}
	if err := grid.CheckInit(opts.Channels, opts.Density, opts.Ranges); err != nil {
		return err
	}
	if opts.Init != InitUniform && opts.Init != InitNoise {
		return fmt.Errorf("%w: %q", ErrUnknownInit, opts.Init)
	}
	if len(opts.Rules) != opts.Channels {
		return fmt.Errorf("%w: %d rules for %d channels", ErrRuleMismatch, len(opts.Rules), opts.Channels)
	}
	if opts.TraitHood == nil || opts.MoveHood == nil {
		return ErrNoHood
	}
	if opts.Policy == nil {
		return ErrNoPolicy
	}
	return nil
}

// Step runs one tick: attributes first, then movement. When it returns, Grid
// holds the fully updated and fully moved state.
func (e *Engine) Step() Report {
	start := time.Now()
	e.updater.Apply(e.cur, e.next)
	e.cur, e.next = e.next, e.cur

	mid := time.Now()
	mv := e.resolver.Resolve(e.cur, e.next, e.opts.MoveHood, e.opts.Policy, e.tick)
	e.cur, e.next = e.next, e.cur
	e.tick++

	return Report{Tick: e.tick, Movement: mv, Update: mid.Sub(start), Move: time.Since(mid)}
}

// Run steps until steps ticks have run (0 means forever) or ctx is done.
// Cancellation is observed between ticks. fn, if set, sees every report.
func (e *Engine) Run(ctx context.Context, steps int, fn func(Report)) error {
	for i := 0; steps <= 0 || i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rep := e.Step()
		if fn != nil {
			fn(rep)
		}
	}
	return nil
}

// Reset repopulates the grid from seed and rewinds the tick counter.
func (e *Engine) Reset(seed int64) {
	e.seed = seed
	e.tick = 0
	e.resolver.SetSeed(seed)
	e.next.Clear()
	// Options were validated, so population cannot fail.
	switch e.opts.Init {
	case InitNoise:
		_ = e.cur.PopulateNoise(seed, e.opts.Density, e.opts.Ranges, e.opts.NoiseScale)
	default:
		_ = e.cur.Populate(core.NewRNG(seed).Source(), e.opts.Density, e.opts.Ranges)
	}
}

// Resize reallocates both buffers and resets with the current seed.
func (e *Engine) Resize(width, height int) error {
	cur, err := grid.New(width, height, e.opts.Channels)
	if err != nil {
		return err
	}
	next, _ := grid.New(width, height, e.opts.Channels)
	e.opts.Width, e.opts.Height = width, height
	e.cur, e.next = cur, next
	e.Reset(e.seed)
	return nil
}

// SetDensity changes the fill probability used by the next Reset.
func (e *Engine) SetDensity(density float64) error {
	if err := grid.CheckInit(e.opts.Channels, density, e.opts.Ranges); err != nil {
		return err
	}
	e.opts.Density = density
	return nil
}

// SetRule swaps the rule of channel ch; nil deactivates the channel.
func (e *Engine) SetRule(ch int, r rules.Rule) error {
	if ch < 0 || ch >= e.opts.Channels {
		return fmt.Errorf("%w: channel %d of %d", ErrRuleMismatch, ch, e.opts.Channels)
	}
	e.updater.SetRule(ch, r)
	return nil
}

// SetPolicy swaps the movement policy.
func (e *Engine) SetPolicy(p movement.Policy) error {
	if p == nil {
		return ErrNoPolicy
	}
	e.opts.Policy = p
	return nil
}

// Grid returns the current state. It must only be read between ticks.
func (e *Engine) Grid() *grid.Grid { return e.cur }

// Rules returns the per-channel rule slots.
func (e *Engine) Rules() []rules.Rule { return e.updater.Rules() }

// Policy returns the active movement policy.
func (e *Engine) Policy() movement.Policy { return e.opts.Policy }

// Tick returns the number of ticks since the last reset.
func (e *Engine) Tick() uint64 { return e.tick }

// Seed returns the seed of the last reset.
func (e *Engine) Seed() int64 { return e.seed }

// Density returns the configured fill probability.
func (e *Engine) Density() float64 { return e.opts.Density }

// Workers returns the pool's concurrency limit.
func (e *Engine) Workers() int { return e.pool.Workers() }
