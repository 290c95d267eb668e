// Package rules provides attribute update policies. A rule computes the next
// value of one channel of one agent from the pre-tick grid.
package rules

import (
	"math"

	"trait-ca/internal/grid"
)

// Rule computes the next value of channel ch for the agent viewed by c. Rules
// read only from c and must not keep references to it.
type Rule interface {
	Update(ch int, c grid.Cell) float32
}

// Func adapts a plain function to the Rule interface.
type Func func(ch int, c grid.Cell) float32

// Update calls f.
func (f Func) Update(ch int, c grid.Cell) float32 { return f(ch, c) }

// Static keeps every value unchanged.
type Static struct{}

// Update returns the agent's current value.
func (Static) Update(ch int, c grid.Cell) float32 { return c.Value(ch) }

// Average is the mean over occupied window positions, the agent included.
type Average struct{}

// Update averages the occupied neighborhood.
func (Average) Update(ch int, c grid.Cell) float32 {
	var sum float32
	count := 0
	c.Each(func(n grid.Neighbor) {
		if n.Occupied {
			sum += c.At(n.Index, ch)
			count++
		}
	})
	if count == 0 {
		return c.Value(ch)
	}
	return clamp01(sum / float32(count))
}

// Conway treats values above one half as alive and applies B3/S23 over the
// occupied window positions other than the agent.
type Conway struct{}

// Update returns 1 for a live cell next tick and 0 otherwise.
func (Conway) Update(ch int, c grid.Cell) float32 {
	alive := 0
	c.Each(func(n grid.Neighbor) {
		if !n.Center && n.Occupied && c.At(n.Index, ch) > 0.5 {
			alive++
		}
	})
	if c.Value(ch) > 0.5 {
		if alive == 2 || alive == 3 {
			return 1
		}
		return 0
	}
	if alive == 3 {
		return 1
	}
	return 0
}

// Diffusion blends the agent with its neighbors' mean and decays the result.
// An isolated agent decays faster.
type Diffusion struct{}

// Update mixes 30% self with 70% neighbor mean, then decays by 2%.
func (Diffusion) Update(ch int, c grid.Cell) float32 {
	var sum float32
	count := 0
	c.Each(func(n grid.Neighbor) {
		if !n.Center && n.Occupied {
			sum += c.At(n.Index, ch)
			count++
		}
	})
	cur := c.Value(ch)
	if count == 0 {
		return clamp01(cur * 0.95)
	}
	avg := sum / float32(count)
	return clamp01((0.3*cur + 0.7*avg) * 0.98)
}

// Maximum spreads the largest value of the window with a small decay.
type Maximum struct{}

// Update returns the decayed maximum over the occupied window.
func (Maximum) Update(ch int, c grid.Cell) float32 {
	best := c.Value(ch)
	c.Each(func(n grid.Neighbor) {
		if n.Occupied {
			best = max(best, c.At(n.Index, ch))
		}
	})
	return clamp01(best * 0.98)
}

// Minimum spreads the smallest value of the window.
type Minimum struct{}

// Update returns the minimum over the occupied window.
func (Minimum) Update(ch int, c grid.Cell) float32 {
	least := c.Value(ch)
	c.Each(func(n grid.Neighbor) {
		if n.Occupied {
			least = min(least, c.At(n.Index, ch))
		}
	})
	return clamp01(least)
}

// WeightedAverage weights each occupied neighbor by 1/(1+distance).
type WeightedAverage struct{}

// Update returns the distance-weighted neighbor mean.
func (WeightedAverage) Update(ch int, c grid.Cell) float32 {
	var sum, weights float32
	c.Each(func(n grid.Neighbor) {
		if n.Center || !n.Occupied {
			return
		}
		d := math.Sqrt(float64(n.DR*n.DR + n.DC*n.DC))
		w := float32(1 / (1 + d))
		sum += c.At(n.Index, ch) * w
		weights += w
	})
	if weights == 0 {
		return c.Value(ch)
	}
	return clamp01(sum / weights)
}

// majorityBins is the number of quantization bins used by Majority.
const majorityBins = 5

// Majority quantizes the window into five bins and adopts the center of the
// most common one. Ties go to the highest bin.
type Majority struct{}

// Update returns the center of the most populated bin.
func (Majority) Update(ch int, c grid.Cell) float32 {
	var bins [majorityBins]int
	c.Each(func(n grid.Neighbor) {
		if !n.Occupied {
			return
		}
		b := int(c.At(n.Index, ch) * majorityBins)
		bins[min(max(b, 0), majorityBins-1)]++
	})
	best := 0
	for i := 1; i < majorityBins; i++ {
		if bins[i] >= bins[best] {
			best = i
		}
	}
	return clamp01((float32(best) + 0.5) / majorityBins)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
