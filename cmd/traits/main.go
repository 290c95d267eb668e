// Command traits runs the trait automaton headless and prints channel
// statistics and throughput.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"trait-ca/internal/engine"
	"trait-ca/internal/render"
	"trait-ca/internal/sims/traitca"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	steps := flag.Int("steps", 0, "ticks to run (0 = config timestep_max)")
	width := flag.Int("w", 0, "grid width override")
	height := flag.Int("h", 0, "grid height override")
	seed := flag.Int64("seed", 0, "seed override")
	workers := flag.Int("workers", runtime.NumCPU(), "worker goroutines")
	movementName := flag.String("movement", "", "movement policy override")
	every := flag.Int("every", 0, "log progress every N ticks (0 = off)")
	out := flag.String("png", "", "write the final frame of the selected channel to this PNG")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := traitca.DefaultConfig()
	if *configPath != "" {
		loaded, err := traitca.Load(*configPath)
		if err != nil {
			logger.Error("load config", "path", *configPath, "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	overrides := map[string]string{"workers": fmt.Sprint(*workers)}
	if *width > 0 {
		overrides["w"] = fmt.Sprint(*width)
	}
	if *height > 0 {
		overrides["h"] = fmt.Sprint(*height)
	}
	if *seed != 0 {
		overrides["seed"] = fmt.Sprint(*seed)
	}
	if *movementName != "" {
		overrides["movement"] = *movementName
	}
	cfg = traitca.FromMap(cfg, overrides)

	a, err := traitca.New(cfg)
	if err != nil {
		logger.Error("build automaton", "err", err)
		os.Exit(1)
	}
	a.SetLogger(logger)

	n := *steps
	if n <= 0 {
		n = cfg.TimestepMax
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("running", "w", cfg.Width, "h", cfg.Height, "channels", cfg.Channels,
		"steps", n, "workers", a.Engine().Workers(), "movement", cfg.Movement, "seed", cfg.Seed)

	var moved, contested int64
	start := time.Now()
	err = a.Run(ctx, n, func(r engine.Report) {
		moved += int64(r.Movement.Moved)
		contested += int64(r.Movement.Contested)
		if *every > 0 && r.Tick%uint64(*every) == 0 {
			logger.Debug("tick", "tick", r.Tick, "moved", r.Movement.Moved,
				"contested", r.Movement.Contested, "update", r.Update, "move", r.Move)
		}
	})
	elapsed := time.Since(start)
	if err != nil {
		logger.Warn("interrupted", "tick", a.Engine().Tick(), "err", err)
	}

	done := int(a.Engine().Tick())
	names := a.ChannelNames()
	g := a.Grid()
	fmt.Printf("population %d (%.1f%%) after %d ticks\n", g.Population(), 100*g.FillFraction(), done)
	for ch, st := range a.Stats() {
		state := "off"
		if cfg.Active(ch) {
			state = "on"
		}
		fmt.Printf("  %-14s %-3s mean=%.4f min=%.4f max=%.4f\n", names[ch], state, st.Mean, st.Min, st.Max)
	}
	fmt.Printf("moved %d contested %d\n", moved, contested)
	if done > 0 && elapsed > 0 {
		rate := float64(done) / elapsed.Seconds()
		fmt.Printf("%.1f timesteps/s, %.2f Mcells/s (%s)\n",
			rate, rate*float64(cfg.Width*cfg.Height)/1e6, elapsed.Round(time.Millisecond))
	}

	if *out != "" {
		if err := writePNG(*out, a); err != nil {
			logger.Error("write png", "path", *out, "err", err)
			os.Exit(1)
		}
		logger.Info("wrote frame", "path", *out, "channel", names[a.Selected()])
	}
}

func writePNG(path string, a *traitca.Automaton) error {
	size := a.Size()
	img := image.NewRGBA(image.Rect(0, 0, size.W, size.H))
	render.FillRGBA(img.Pix, a.Cells(), a.Palette())
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
