package main

import (
	"slices"
	"testing"

	"trait-ca/internal/benchstore"

	"github.com/wcharczuk/go-chart/v2"
)

func TestParseInts(t *testing.T) {
	got, err := parseInts(" 64, 128,,256 ")
	if err != nil {
		t.Fatalf("parseInts: %v", err)
	}
	if !slices.Equal(got, []int{64, 128, 256}) {
		t.Fatalf("got %v", got)
	}
	for _, bad := range []string{"", "a", "4,-1", ","} {
		if _, err := parseInts(bad); err == nil {
			t.Fatalf("parseInts(%q) accepted", bad)
		}
	}
}

func TestThroughputSeriesGroupsBySize(t *testing.T) {
	runs := []benchstore.Run{
		{Width: 128, Height: 128, Workers: 4, Steps: 10, Seconds: 1},
		{Width: 64, Height: 64, Workers: 2, Steps: 10, Seconds: 1},
		{Width: 128, Height: 128, Workers: 1, Steps: 10, Seconds: 2},
		{Width: 64, Height: 64, Workers: 1, Steps: 10, Seconds: 2},
	}
	series := throughputSeries(runs)
	if len(series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(series))
	}
	first := series[0].(chart.ContinuousSeries)
	if first.Name != "64x64" {
		t.Fatalf("first series %q", first.Name)
	}
	if !slices.Equal(first.XValues, []float64{1, 2}) {
		t.Fatalf("x values %v", first.XValues)
	}
	if first.YValues[1] <= first.YValues[0] {
		t.Fatalf("expected throughput to rise with workers, got %v", first.YValues)
	}
}
