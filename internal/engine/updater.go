// Package engine drives the automaton: it recomputes agent attributes and then
// moves agents, once per tick, over a pair of swapped grid buffers.
package engine

import (
	"trait-ca/internal/core"
	"trait-ca/internal/grid"
	"trait-ca/internal/rules"
)

// Updater recomputes the active channels of every agent from its trait
// neighborhood. A nil rule marks a channel inactive; its values are carried
// over unchanged.
type Updater struct {
	pool  *core.Pool
	hood  *grid.Neighborhood
	rules []rules.Rule
}

// NewUpdater returns an updater over hood with one rule slot per channel.
func NewUpdater(pool *core.Pool, hood *grid.Neighborhood, rs []rules.Rule) *Updater {
	return &Updater{pool: pool, hood: hood, rules: rs}
}

// Rules exposes the per-channel rule slots.
func (u *Updater) Rules() []rules.Rule { return u.rules }

// SetRule replaces the rule of channel ch. Passing nil deactivates it.
func (u *Updater) SetRule(ch int, r rules.Rule) { u.rules[ch] = r }

// Active lists the channels that have a rule.
func (u *Updater) Active() []int {
	var out []int
	for ch, r := range u.rules {
		if r != nil {
			out = append(out, ch)
		}
	}
	return out
}

// Apply writes the updated state of cur into next. Occupancy and inactive
// channels are copied; each active channel is evaluated against cur only, so
// every agent sees the same pre-update neighborhood.
func (u *Updater) Apply(cur, next *grid.Grid) {
	copy(next.Occupancy(), cur.Occupancy())
	active := u.Active()
	for ch, r := range u.rules {
		if r == nil {
			copy(next.Channel(ch), cur.Channel(ch))
		}
	}
	if len(active) == 0 {
		return
	}

	w, h := cur.Width(), cur.Height()
	batches := u.pool.Batches(h)
	rows := u.pool.BatchRows()
	occ := cur.Occupancy()
	u.pool.Range(len(active)*batches, func(job int) {
		ch := active[job/batches]
		rule := u.rules[ch]
		out := next.Channel(ch)
		lo := (job % batches) * rows
		hi := min(lo+rows, h)
		for row := lo; row < hi; row++ {
			for col := 0; col < w; col++ {
				i := row*w + col
				if !occ[i] {
					out[i] = 0
					continue
				}
				out[i] = rule.Update(ch, grid.Cell{Grid: cur, Hood: u.hood, Row: row, Col: col})
			}
		}
	})
}
