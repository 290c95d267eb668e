//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"trait-ca/internal/app"
	"trait-ca/internal/core"
	"trait-ca/internal/sims/traitca"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	sim, err := core.NewSim(cfg.Sim, cfg.SimOptions())
	if err != nil {
		logger.Error("create sim", "sim", cfg.Sim, "err", err, "available", core.SimNames())
		os.Exit(1)
	}

	scale := cfg.Scale
	seed := cfg.Seed
	if a, ok := sim.(*traitca.Automaton); ok {
		a.SetLogger(logger)
		if scale <= 0 {
			scale = a.Config().CellSize
		}
		if seed == 0 {
			seed = a.Config().Seed
		}
	}
	scale = max(scale, 1)
	sim.Reset(seed)

	game := app.New(sim, scale, seed, cfg.HUDWidth)
	if a, ok := sim.(*traitca.Automaton); ok {
		c := a.Config()
		game.Overlay().SetShowValues(c.ShowValues, c.ShowValuesMinCell)
	}

	size := sim.Size()
	w, h := game.Layout(0, 0)
	logger.Info("starting", "sim", sim.Name(), "w", size.W, "h", size.H, "scale", scale, "seed", seed)

	ebiten.SetWindowTitle("trait-ca - " + sim.Name())
	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Error("run", "err", err)
		os.Exit(1)
	}
}
