package traitca

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"trait-ca/internal/engine"
	"trait-ca/internal/grid"
	"trait-ca/internal/movement"
	"trait-ca/internal/render"
	"trait-ca/internal/rules"
)

var (
	// ErrUnknownRule reports a rule name missing from the registry.
	ErrUnknownRule = errors.New("traitca: unknown rule")
	// ErrUnknownMovement reports a movement name missing from the registry.
	ErrUnknownMovement = errors.New("traitca: unknown movement")
	// ErrUnknownScheme reports an unknown color scheme.
	ErrUnknownScheme = errors.New("traitca: unknown color scheme")
	// ErrOutOfBounds reports a setting outside its configured bounds.
	ErrOutOfBounds = errors.New("traitca: value out of bounds")
)

// Bounds limits what the config and the HUD may set.
type Bounds struct {
	WidthMin          int     `yaml:"grid_width_min"`
	WidthMax          int     `yaml:"grid_width_max"`
	HeightMin         int     `yaml:"grid_height_min"`
	HeightMax         int     `yaml:"grid_height_max"`
	StepsPerSecondMin float64 `yaml:"steps_per_second_min"`
	StepsPerSecondMax float64 `yaml:"steps_per_second_max"`
	CellSizeMin       int     `yaml:"cell_size_min"`
	CellSizeMax       int     `yaml:"cell_size_max"`
}

// Config holds everything needed to build and display an Automaton.
type Config struct {
	Width    int     `yaml:"grid_width"`
	Height   int     `yaml:"grid_height"`
	Density  float64 `yaml:"grid_density"`
	Channels int     `yaml:"num_traits"`
	Seed     int64   `yaml:"seed"`

	Init       string  `yaml:"init"`
	NoiseScale float64 `yaml:"noise_scale"`

	StepsPerSecond  float64 `yaml:"steps_per_second"`
	TimedSimulation bool    `yaml:"timed_simulation"`
	TimestepMax     int     `yaml:"timestep_max"`

	Bounds Bounds `yaml:"bounds"`

	CellSize          int  `yaml:"cell_size"`
	ShowValues        bool `yaml:"show_values"`
	ShowValuesMinCell int  `yaml:"show_values_minimum_cell_size"`
	ShowStats         bool `yaml:"show_stats"`

	ColorScheme       string  `yaml:"color_scheme"`
	BaseColorNotEmpty float64 `yaml:"base_color_not_empty"`

	ActiveMask      []uint8      `yaml:"active_mask"`
	SelectedChannel int          `yaml:"initial_selected_trait"`
	Ranges          []grid.Range `yaml:"initialisation_ranges"`
	ChannelNames    []string     `yaml:"trait_names"`

	Rules    []string `yaml:"rules"`
	Movement string   `yaml:"movement"`

	TraitMask [][]uint8 `yaml:"neighborhood_traits_mask"`
	MoveMask  [][]uint8 `yaml:"neighborhood_mvt_mask"`

	Workers   int `yaml:"workers"`
	BatchRows int `yaml:"batch_rows"`
}

// DefaultConfig returns the standard configuration: a 500x500 half-full grid
// of 9-channel agents with the first two channels active.
func DefaultConfig() Config {
	return Config{
		Width:      500,
		Height:     500,
		Density:    0.5,
		Channels:   9,
		Seed:       42,
		Init:       string(engine.InitUniform),
		NoiseScale: 24,

		StepsPerSecond: 1000,
		TimestepMax:    100,

		Bounds: Bounds{
			WidthMin:          3,
			WidthMax:          5000,
			HeightMin:         3,
			HeightMax:         5000,
			StepsPerSecondMin: 1,
			StepsPerSecondMax: 10000,
			CellSizeMin:       1,
			CellSizeMax:       100,
		},

		CellSize:          1,
		ShowValuesMinCell: 20,
		ShowStats:         true,

		ColorScheme: "viridis",

		ActiveMask: []uint8{1, 1, 0, 0, 0, 0, 0, 0, 0},
		Ranges:     grid.UnitRanges(9),
		Rules: []string{
			"average", "diffusion", "conway",
			"conway", "conway", "conway",
			"conway", "conway", "conway",
		},
		Movement: "trait_based",

		TraitMask: [][]uint8{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}},
		MoveMask:  [][]uint8{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}},
	}
}

// Load reads a YAML file over the defaults and validates the result. Keys
// missing from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Active reports whether channel ch has its bit set in the active mask.
func (c Config) Active(ch int) bool {
	return ch < len(c.ActiveMask) && c.ActiveMask[ch] != 0
}

// Validate checks every setting and reports the first problem found.
func (c Config) Validate() error {
	b := c.Bounds
	if c.Width < b.WidthMin || c.Width > b.WidthMax {
		return fmt.Errorf("%w: grid_width %d not in [%d, %d]", ErrOutOfBounds, c.Width, b.WidthMin, b.WidthMax)
	}
	if c.Height < b.HeightMin || c.Height > b.HeightMax {
		return fmt.Errorf("%w: grid_height %d not in [%d, %d]", ErrOutOfBounds, c.Height, b.HeightMin, b.HeightMax)
	}
	if c.Channels <= 0 {
		return grid.ErrNoChannels
	}
	if c.StepsPerSecond < b.StepsPerSecondMin || c.StepsPerSecond > b.StepsPerSecondMax {
		return fmt.Errorf("%w: steps_per_second %v not in [%v, %v]", ErrOutOfBounds, c.StepsPerSecond, b.StepsPerSecondMin, b.StepsPerSecondMax)
	}
	if b.CellSizeMin < 1 || b.CellSizeMin > b.CellSizeMax {
		return fmt.Errorf("%w: cell size bounds [%d, %d]", ErrOutOfBounds, b.CellSizeMin, b.CellSizeMax)
	}
	if c.CellSize < b.CellSizeMin || c.CellSize > b.CellSizeMax {
		return fmt.Errorf("%w: cell_size %d not in [%d, %d]", ErrOutOfBounds, c.CellSize, b.CellSizeMin, b.CellSizeMax)
	}
	if c.BaseColorNotEmpty < 0 || c.BaseColorNotEmpty > 1 {
		return fmt.Errorf("%w: base_color_not_empty %v not in [0, 1]", ErrOutOfBounds, c.BaseColorNotEmpty)
	}
	if _, ok := render.LookupScheme(c.ColorScheme); !ok {
		return fmt.Errorf("%w: %q (valid: %v)", ErrUnknownScheme, c.ColorScheme, render.SchemeNames())
	}
	if c.SelectedChannel < 0 || c.SelectedChannel >= c.Channels {
		return fmt.Errorf("%w: initial_selected_trait %d with %d traits", ErrOutOfBounds, c.SelectedChannel, c.Channels)
	}
	for ch, on := range c.ActiveMask {
		if on != 0 && ch >= c.Channels {
			return fmt.Errorf("%w: active_mask enables trait %d of %d", ErrOutOfBounds, ch, c.Channels)
		}
	}
	if len(c.Ranges) < c.Channels {
		return fmt.Errorf("%w: %d ranges for %d traits", grid.ErrRangeMismatch, len(c.Ranges), c.Channels)
	}
	if err := grid.CheckInit(c.Channels, c.Density, c.Ranges[:c.Channels]); err != nil {
		return err
	}
	if c.Init != string(engine.InitUniform) && c.Init != string(engine.InitNoise) {
		return fmt.Errorf("%w: %q", engine.ErrUnknownInit, c.Init)
	}
	if _, err := c.resolveRules(); err != nil {
		return err
	}
	if _, ok := movement.Lookup(c.Movement); !ok {
		return fmt.Errorf("%w: %q (valid: %v)", ErrUnknownMovement, c.Movement, movement.Names())
	}
	if _, err := grid.FromBytes(c.TraitMask); err != nil {
		return fmt.Errorf("neighborhood_traits_mask: %w", err)
	}
	if _, err := grid.FromBytes(c.MoveMask); err != nil {
		return fmt.Errorf("neighborhood_mvt_mask: %w", err)
	}
	return nil
}

// resolveRules resolves one rule slot per channel; inactive channels get nil.
func (c Config) resolveRules() ([]rules.Rule, error) {
	out := make([]rules.Rule, c.Channels)
	for ch := range out {
		if ch >= len(c.Rules) {
			if c.Active(ch) {
				return nil, fmt.Errorf("%w: no rule for active trait %d", engine.ErrRuleMismatch, ch)
			}
			continue
		}
		r, ok := rules.Lookup(c.Rules[ch])
		if !ok {
			return nil, fmt.Errorf("%w: %q (valid: %v)", ErrUnknownRule, c.Rules[ch], rules.Names())
		}
		if c.Active(ch) {
			out[ch] = r
		}
	}
	return out, nil
}

// EngineOptions resolves names and masks into engine options. The config
// must be valid.
func (c Config) EngineOptions() (engine.Options, error) {
	rs, err := c.resolveRules()
	if err != nil {
		return engine.Options{}, err
	}
	policy, ok := movement.Lookup(c.Movement)
	if !ok {
		return engine.Options{}, fmt.Errorf("%w: %q", ErrUnknownMovement, c.Movement)
	}
	traitHood, err := grid.FromBytes(c.TraitMask)
	if err != nil {
		return engine.Options{}, err
	}
	moveHood, err := grid.FromBytes(c.MoveMask)
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{
		Width:      c.Width,
		Height:     c.Height,
		Channels:   c.Channels,
		Density:    c.Density,
		Ranges:     append([]grid.Range(nil), c.Ranges[:c.Channels]...),
		Init:       engine.InitMode(c.Init),
		NoiseScale: c.NoiseScale,
		Rules:      rs,
		TraitHood:  traitHood,
		MoveHood:   moveHood,
		Policy:     policy,
		Seed:       c.Seed,
		Workers:    c.Workers,
		BatchRows:  c.BatchRows,
	}, nil
}

// FromMap applies flag-style key/value overrides to base. Values that do not
// parse are ignored; Validate catches values that parse but are out of range.
func FromMap(base Config, cfg map[string]string) Config {
	c := base
	if cfg == nil {
		return c
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Width = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Height = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["density"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			c.Density = parsed
		}
	}
	if v, ok := cfg["traits"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Channels = parsed
			for len(c.Ranges) < parsed {
				c.Ranges = append(c.Ranges, grid.UnitRange)
			}
			if len(c.ActiveMask) > parsed {
				c.ActiveMask = c.ActiveMask[:parsed]
			}
		}
	}
	if v, ok := cfg["workers"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Workers = parsed
		}
	}
	if v, ok := cfg["batch_rows"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.BatchRows = parsed
		}
	}
	if v, ok := cfg["steps_per_second"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			c.StepsPerSecond = parsed
		}
	}
	if v, ok := cfg["cell_size"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.CellSize = parsed
		}
	}
	if v, ok := cfg["movement"]; ok && v != "" {
		c.Movement = v
	}
	if v, ok := cfg["scheme"]; ok && v != "" {
		c.ColorScheme = v
	}
	if v, ok := cfg["init"]; ok && v != "" {
		c.Init = v
	}
	return c
}
