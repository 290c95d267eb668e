package app

import "flag"

// Config represents the command-line parameters for the GUI.
type Config struct {
	Sim        string
	ConfigPath string
	Scale      int
	TPS        int
	Seed       int64
	HUDWidth   int
	Verbose    bool
}

// NewConfig returns a Config populated with sensible defaults. A zero Scale
// defers to the sim's configured cell size.
func NewConfig() *Config {
	return &Config{Sim: "traits", TPS: 60, HUDWidth: 300}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Sim, "sim", c.Sim, "simulation to run")
	fs.StringVar(&c.ConfigPath, "config", c.ConfigPath, "YAML config file")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier (0 = config cell_size)")
	fs.IntVar(&c.TPS, "tps", c.TPS, "frames per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for simulation reset (0 = config seed)")
	fs.IntVar(&c.HUDWidth, "hud", c.HUDWidth, "HUD panel width in pixels (0 hides it)")
	fs.BoolVar(&c.Verbose, "v", c.Verbose, "debug logging")
}

// SimOptions returns the factory options implied by the flags.
func (c *Config) SimOptions() map[string]string {
	opts := map[string]string{}
	if c.ConfigPath != "" {
		opts["config"] = c.ConfigPath
	}
	return opts
}
