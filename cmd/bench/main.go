// Command bench sweeps grid sizes and worker counts, records each run in a
// SQLite store and plots throughput against workers.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"time"

	"trait-ca/internal/benchstore"
	"trait-ca/internal/engine"
	"trait-ca/internal/sims/traitca"

	"github.com/google/uuid"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type benchCase struct {
	size    int
	workers int
}

func (c benchCase) String() string {
	return fmt.Sprintf("%dx%d workers=%d", c.size, c.size, c.workers)
}

func main() {
	sizes := flag.String("sizes", "64,128,256,512", "comma-separated square grid sizes")
	workerList := flag.String("workers", "1,2,4,8", "comma-separated worker counts")
	steps := flag.Int("steps", 50, "measured ticks per case")
	warmup := flag.Int("warmup", 5, "unmeasured ticks before timing")
	batchRows := flag.Int("batch", 16, "rows per parallel batch")
	movementName := flag.String("movement", "trait_based", "movement policy")
	dbPath := flag.String("db", "bench.db", "SQLite database for results")
	chartPath := flag.String("chart", "bench.png", "PNG chart of this sweep (empty to skip)")
	list := flag.Bool("list", false, "print stored runs and exit")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := benchstore.Open(*dbPath)
	if err != nil {
		logger.Error("open store", "path", *dbPath, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if *list {
		runs, err := db.Runs(ctx)
		if err != nil {
			logger.Error("list runs", "err", err)
			os.Exit(1)
		}
		printRuns(runs)
		return
	}

	sizeVals, err := parseInts(*sizes)
	if err != nil {
		logger.Error("bad -sizes", "err", err)
		os.Exit(2)
	}
	workerVals, err := parseInts(*workerList)
	if err != nil {
		logger.Error("bad -workers", "err", err)
		os.Exit(2)
	}

	var cases []benchCase
	for _, s := range sizeVals {
		for _, w := range workerVals {
			cases = append(cases, benchCase{size: s, workers: w})
		}
	}

	sweep := uuid.NewString()
	fmt.Printf("Sweep %s: %d cases, %d steps each\n", sweep, len(cases), *steps)

	var results []benchstore.Run
	for _, c := range cases {
		if ctx.Err() != nil {
			logger.Warn("interrupted", "done", len(results))
			break
		}
		run, err := measure(ctx, c, *steps, *warmup, *batchRows, *movementName)
		if err != nil {
			logger.Error("measure", "case", c.String(), "err", err)
			continue
		}
		run.Sweep = sweep
		if err := db.Record(ctx, &run); err != nil {
			logger.Error("record", "case", c.String(), "err", err)
			os.Exit(1)
		}
		fmt.Printf("%-26s %9.1f steps/s %8.2f Mcells/s contested=%d\n",
			c.String(), run.StepsPerSecond(), run.MCellsPerSecond(), run.Contested)
		results = append(results, run)
	}

	if len(results) == 0 {
		return
	}
	best := append([]benchstore.Run(nil), results...)
	sort.Slice(best, func(i, j int) bool { return best[i].MCellsPerSecond() > best[j].MCellsPerSecond() })
	fmt.Printf("\nBest: %dx%d workers=%d %.2f Mcells/s\n",
		best[0].Width, best[0].Height, best[0].Workers, best[0].MCellsPerSecond())

	if *chartPath != "" {
		if err := writeChart(*chartPath, results); err != nil {
			logger.Warn("chart not written", "path", *chartPath, "err", err)
			return
		}
		logger.Info("wrote chart", "path", *chartPath)
	}
}

func measure(ctx context.Context, c benchCase, steps, warmup, batchRows int, movementName string) (benchstore.Run, error) {
	cfg := traitca.FromMap(traitca.DefaultConfig(), map[string]string{
		"w":          strconv.Itoa(c.size),
		"h":          strconv.Itoa(c.size),
		"workers":    strconv.Itoa(c.workers),
		"batch_rows": strconv.Itoa(batchRows),
		"movement":   movementName,
	})
	a, err := traitca.New(cfg)
	if err != nil {
		return benchstore.Run{}, err
	}
	eng := a.Engine()
	if err := eng.Run(ctx, warmup, nil); err != nil {
		return benchstore.Run{}, err
	}

	var contested int64
	start := time.Now()
	err = eng.Run(ctx, steps, func(r engine.Report) {
		contested += int64(r.Movement.Contested)
	})
	elapsed := time.Since(start)
	if err != nil {
		return benchstore.Run{}, err
	}
	return benchstore.Run{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Channels:  cfg.Channels,
		Workers:   eng.Workers(),
		BatchRows: batchRows,
		Movement:  cfg.Movement,
		Steps:     steps,
		Seconds:   elapsed.Seconds(),
		Contested: contested,
	}, nil
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", f, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("value %d must be positive", v)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no values in %q", s)
	}
	return out, nil
}

func printRuns(runs []benchstore.Run) {
	for _, r := range runs {
		fmt.Printf("%s %s %4dx%-4d w=%-2d b=%-3d %-14s %9.1f steps/s %8.2f Mcells/s\n",
			r.CreatedAt.Format(time.RFC3339), r.Sweep[:min(8, len(r.Sweep))], r.Width, r.Height,
			r.Workers, r.BatchRows, r.Movement, r.StepsPerSecond(), r.MCellsPerSecond())
	}
}

var seriesColors = []drawing.Color{
	chart.ColorBlue,
	chart.ColorRed,
	chart.ColorGreen,
	chart.ColorOrange,
	{R: 128, G: 0, B: 128, A: 255},
}

// throughputSeries groups runs by grid size: one line of Mcells/s per
// worker count for each size, sizes in ascending order.
func throughputSeries(runs []benchstore.Run) []chart.Series {
	bySize := map[int][]benchstore.Run{}
	var order []int
	for _, r := range runs {
		if _, ok := bySize[r.Width]; !ok {
			order = append(order, r.Width)
		}
		bySize[r.Width] = append(bySize[r.Width], r)
	}
	sort.Ints(order)

	series := make([]chart.Series, 0, len(order))
	for i, size := range order {
		group := bySize[size]
		sort.Slice(group, func(a, b int) bool { return group[a].Workers < group[b].Workers })
		xs := make([]float64, len(group))
		ys := make([]float64, len(group))
		for j, r := range group {
			xs[j] = float64(r.Workers)
			ys[j] = r.MCellsPerSecond()
		}
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("%dx%d", size, size),
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: seriesColors[i%len(seriesColors)], StrokeWidth: 3.0},
		})
	}
	return series
}

func writeChart(path string, runs []benchstore.Run) error {
	graph := chart.Chart{
		Width:  800,
		Height: 480,
		XAxis: chart.XAxis{
			Name:  "workers",
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "Mcells/s",
			Style: chart.Style{FontSize: 10.0},
		},
		Series: throughputSeries(runs),
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := graph.Render(chart.PNG, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
