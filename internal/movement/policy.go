// Package movement decides where agents go each tick. Policies state intents;
// the Resolver turns intents into a conflict-free set of moves.
package movement

import (
	"math/rand/v2"

	"trait-ca/internal/grid"
)

// Policy returns the displacement an agent would like to make. Displacements
// outside the movement window are treated as staying put. rng belongs to the
// calling row batch; policies must not retain it.
type Policy interface {
	Intent(c grid.Cell, rng *rand.Rand) (dr, dc int)
}

// Func adapts a plain function to the Policy interface.
type Func func(c grid.Cell, rng *rand.Rand) (int, int)

// Intent calls f.
func (f Func) Intent(c grid.Cell, rng *rand.Rand) (int, int) { return f(c, rng) }

// Static never moves.
type Static struct{}

// Intent always stays.
func (Static) Intent(grid.Cell, *rand.Rand) (int, int) { return 0, 0 }

// Random picks a uniformly random window position, the center included.
type Random struct{}

// Intent returns a random allowed displacement.
func (Random) Intent(c grid.Cell, rng *rand.Rand) (int, int) {
	return randomMove(c, rng)
}

// Gradient climbs channel Channel: the agent heads for the occupied window
// position holding the highest value, if it beats its own.
type Gradient struct {
	Channel int
}

// Intent returns the displacement toward the best neighbor.
func (p Gradient) Intent(c grid.Cell, _ *rand.Rand) (int, int) {
	best := c.Value(p.Channel)
	dr, dc := 0, 0
	c.Each(func(n grid.Neighbor) {
		if n.Center || !n.Occupied {
			return
		}
		if v := c.At(n.Index, p.Channel); v > best {
			best = v
			dr, dc = n.DR, n.DC
		}
	})
	return dr, dc
}

// AvoidCrowding wanders randomly while the mean of channel Channel over the
// window exceeds Threshold. Empty positions count as zero, so sparse windows
// read as calm.
type AvoidCrowding struct {
	Channel   int
	Threshold float32
}

// Intent stays in calm areas and jumps randomly in crowded ones.
func (p AvoidCrowding) Intent(c grid.Cell, rng *rand.Rand) (int, int) {
	avg, count := windowMean(c, p.Channel)
	if count == 0 || avg <= p.Threshold {
		return 0, 0
	}
	return randomMove(c, rng)
}

// TraitBased explores when the agent is strong and isolated (channel 0 above
// 0.7 while neighbors average below 0.3), settles when stable (channel 1 above
// 0.8) and otherwise jitters with probability 0.3.
type TraitBased struct{}

// Intent implements the explore/settle/jitter behavior.
func (TraitBased) Intent(c grid.Cell, rng *rand.Rand) (int, int) {
	energy := c.Value(0)
	var stability float32
	if c.Grid.Channels() > 1 {
		stability = c.Value(1)
	}
	avg, _ := neighborMean(c, 0)
	if energy > 0.7 && avg < 0.3 {
		return randomMove(c, rng)
	}
	if stability > 0.8 {
		return 0, 0
	}
	if rng.Float64() < 0.3 {
		return randomMove(c, rng)
	}
	return 0, 0
}

func randomMove(c grid.Cell, rng *rand.Rand) (int, int) {
	moves := c.Moves()
	if len(moves) == 0 {
		return 0, 0
	}
	m := moves[rng.IntN(len(moves))]
	return m.DR, m.DC
}

// windowMean averages channel ch over every window position other than the
// agent itself, empty positions contributing zero.
func windowMean(c grid.Cell, ch int) (float32, int) {
	var sum float32
	count := 0
	c.Each(func(n grid.Neighbor) {
		if n.Center {
			return
		}
		if n.Occupied {
			sum += c.At(n.Index, ch)
		}
		count++
	})
	if count == 0 {
		return 0, 0
	}
	return sum / float32(count), count
}

// neighborMean averages channel ch over occupied window positions other than
// the agent itself.
func neighborMean(c grid.Cell, ch int) (float32, int) {
	var sum float32
	count := 0
	c.Each(func(n grid.Neighbor) {
		if !n.Center && n.Occupied {
			sum += c.At(n.Index, ch)
			count++
		}
	})
	if count == 0 {
		return 0, 0
	}
	return sum / float32(count), count
}
