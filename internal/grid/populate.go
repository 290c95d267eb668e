package grid

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	opensimplex "github.com/ojrac/opensimplex-go"
)

var (
	// ErrInvalidDensity reports a fill density outside [0, 1].
	ErrInvalidDensity = errors.New("grid: density must be within [0, 1]")
	// ErrRangeMismatch reports a range count that differs from the channel count.
	ErrRangeMismatch = errors.New("grid: one init range per channel is required")
	// ErrInvalidRange reports a range whose minimum exceeds its maximum.
	ErrInvalidRange = errors.New("grid: init range min exceeds max")
)

// Range bounds the initial values of one channel.
type Range struct {
	Min float32
	Max float32
}

// UnitRange is the conventional [0, 1] channel range.
var UnitRange = Range{Min: 0, Max: 1}

// UnitRanges returns n copies of UnitRange.
func UnitRanges(n int) []Range {
	out := make([]Range, n)
	for i := range out {
		out[i] = UnitRange
	}
	return out
}

// Lerp maps t in [0, 1] into the range.
func (r Range) Lerp(t float32) float32 { return r.Min + t*(r.Max-r.Min) }

// CheckInit validates population parameters against a channel count.
func CheckInit(channels int, density float64, ranges []Range) error {
	if density < 0 || density > 1 || math.IsNaN(density) {
		return fmt.Errorf("%w: got %v", ErrInvalidDensity, density)
	}
	if len(ranges) != channels {
		return fmt.Errorf("%w: %d ranges for %d channels", ErrRangeMismatch, len(ranges), channels)
	}
	for i, r := range ranges {
		if r.Min > r.Max {
			return fmt.Errorf("%w: channel %d [%v, %v]", ErrInvalidRange, i, r.Min, r.Max)
		}
	}
	return nil
}

// Populate clears g, then marks each cell occupied with probability density
// and draws every channel of an occupied cell uniformly from its range.
func (g *Grid) Populate(rng *rand.Rand, density float64, ranges []Range) error {
	if err := CheckInit(g.Channels(), density, ranges); err != nil {
		return err
	}
	g.Clear()
	for idx := range g.occupied {
		if rng.Float64() >= density {
			continue
		}
		g.occupied[idx] = true
		for c, r := range ranges {
			g.values[c][idx] = r.Lerp(rng.Float32())
		}
	}
	return nil
}

// PopulateNoise uses the same occupancy rule as Populate but samples channel
// values from a per-channel OpenSimplex field, giving spatially coherent
// starting patterns. scale is the feature size in cells.
func (g *Grid) PopulateNoise(seed int64, density float64, ranges []Range, scale float64) error {
	if err := CheckInit(g.Channels(), density, ranges); err != nil {
		return err
	}
	if scale <= 0 {
		scale = 16
	}
	rng := rand.New(rand.NewPCG(uint64(seed), 1))
	g.Clear()
	for idx := range g.occupied {
		g.occupied[idx] = rng.Float64() < density
	}
	for c, r := range ranges {
		noise := opensimplex.NewNormalized(seed + int64(c))
		vals := g.values[c]
		for idx, on := range g.occupied {
			if !on {
				continue
			}
			row, col := g.RowCol(idx)
			t := noise.Eval2(float64(col)/scale, float64(row)/scale)
			vals[idx] = r.Lerp(float32(t))
		}
	}
	return nil
}
