package movement

import (
	"sync/atomic"

	"trait-ca/internal/core"
	"trait-ca/internal/grid"
)

// none marks an unset slot in the index arenas.
const none int32 = -1

type resolveState uint8

const (
	unvisited resolveState = iota
	visiting
	empty
	moving
	staying
)

// Report summarises one resolution pass.
type Report struct {
	Agents    int // occupied cells before the move
	Bids      int // agents asking for another cell
	Contested int // target cells that drew more than one bid
	Lost      int // bids discarded while pruning
	Moved     int // agents that changed cell
	Blocked   int // surviving bids whose vacancy chain did not clear
}

type batchCount struct {
	agents, bids, lost int
}

// Resolver turns per-agent intents into a conflict-free move set. It owns
// per-cell arenas that are reset every tick and only regrown on resize, so a
// Resolver must not be shared between concurrent Resolve calls.
type Resolver struct {
	pool *core.Pool
	seed int64

	want     []int32 // validated target per cell, self when staying
	intent   []int32 // target after pruning
	claims   []atomic.Uint64
	state    []resolveState
	reserved []int32
	source   []int32 // agent landing in each destination
	seen     []bool
	stack    []int32
	counts   []batchCount
}

// NewResolver returns a resolver that fans phases out on pool and derives bid
// priorities from seed.
func NewResolver(pool *core.Pool, seed int64) *Resolver {
	return &Resolver{pool: pool, seed: seed}
}

// SetSeed changes the seed used for priorities and policy randomness.
func (r *Resolver) SetSeed(seed int64) { r.seed = seed }

// Resolve moves the agents of src into dst, which must have the same shape.
// The outcome depends only on src, hood, p, the seed and tick.
func (r *Resolver) Resolve(src, dst *grid.Grid, hood *grid.Neighborhood, p Policy, tick uint64) Report {
	if !src.SameShape(dst) {
		panic("movement: source and destination grids differ in shape")
	}
	r.prepare(src)
	r.bid(src, hood, p, tick)
	r.prune(src)

	var rep Report
	for _, c := range r.counts {
		rep.Agents += c.agents
		rep.Bids += c.bids
		rep.Lost += c.lost
	}
	rep.Contested = r.contested()
	r.resolve(&rep)
	r.commit(src, dst)
	return rep
}

func (r *Resolver) prepare(src *grid.Grid) {
	n := src.Len()
	if len(r.want) != n {
		r.want = make([]int32, n)
		r.intent = make([]int32, n)
		r.claims = make([]atomic.Uint64, n)
		r.state = make([]resolveState, n)
		r.reserved = make([]int32, n)
		r.source = make([]int32, n)
		r.seen = make([]bool, n)
		r.stack = make([]int32, 0, 64)
	}
	if b := r.pool.Batches(src.Height()); len(r.counts) != b {
		r.counts = make([]batchCount, b)
	}
	clear(r.claims)
	clear(r.seen)
	clear(r.counts)
	for i := range r.reserved {
		r.reserved[i] = none
		r.source[i] = none
	}
}

// bid records every agent's intent and arbitrates contested targets with an
// atomic max over (priority, source) words.
func (r *Resolver) bid(src *grid.Grid, hood *grid.Neighborhood, p Policy, tick uint64) {
	w := src.Width()
	occ := src.Occupancy()
	r.pool.Rows(src.Height(), func(batch, lo, hi int) {
		rng := core.Stream(r.seed, tick, batch)
		var c batchCount
		for row := lo; row < hi; row++ {
			for col := 0; col < w; col++ {
				i := row*w + col
				r.want[i] = int32(i)
				if !occ[i] {
					r.state[i] = empty
					continue
				}
				r.state[i] = unvisited
				c.agents++
				dr, dc := p.Intent(grid.Cell{Grid: src, Hood: hood, Row: row, Col: col}, rng)
				if (dr == 0 && dc == 0) || !hood.Allows(dr, dc) {
					continue
				}
				t := src.WrapIndex(row+dr, col+dc)
				if t == i {
					continue
				}
				r.want[i] = int32(t)
				claim(&r.claims[t], uint64(rng.Uint32())<<32|uint64(i))
				c.bids++
			}
		}
		r.counts[batch] = c
	})
}

// claim raises slot to word if word is larger.
func claim(slot *atomic.Uint64, word uint64) {
	for {
		cur := slot.Load()
		if cur >= word || slot.CompareAndSwap(cur, word) {
			return
		}
	}
}

// prune keeps only the winning bid per target. Afterwards every cell is the
// target of at most one intent other than its own occupant's.
func (r *Resolver) prune(src *grid.Grid) {
	w := src.Width()
	r.pool.Rows(src.Height(), func(batch, lo, hi int) {
		lost := 0
		for i := lo * w; i < hi*w; i++ {
			t := r.want[i]
			r.intent[i] = int32(i)
			if t == int32(i) {
				continue
			}
			if uint32(r.claims[t].Load()) == uint32(i) {
				r.intent[i] = t
				continue
			}
			lost++
		}
		r.counts[batch].lost = lost
	})
}

func (r *Resolver) contested() int {
	n := 0
	for i, t := range r.want {
		if t == int32(i) || r.intent[i] == t || r.seen[t] {
			continue
		}
		r.seen[t] = true
		n++
	}
	return n
}

// resolve decides, sequentially, which surviving intents can be carried out
// and records the agent landing in every destination.
func (r *Resolver) resolve(rep *Report) {
	for i := range r.state {
		if r.state[i] == unvisited {
			r.walk(int32(i))
		}
	}
	for i, s := range r.state {
		switch s {
		case moving:
			t := r.intent[i]
			r.source[t] = int32(i)
			if t != int32(i) {
				rep.Moved++
			}
		case staying:
			r.source[i] = int32(i)
			rep.Blocked++
		}
	}
}

// walk follows the intent chain starting at start until it reaches a cell
// whose outcome is known, then settles the chain back to front. A cell can
// move only if its target is empty or the target's occupant moves elsewhere.
// Meeting a cell that is still being visited closes a ring, and rings rotate.
func (r *Resolver) walk(start int32) {
	stack := r.stack[:0]
	i := start
	var ok bool
	for {
		if s := r.state[i]; s != unvisited {
			ok = s != staying
			break
		}
		r.state[i] = visiting
		t := r.intent[i]
		if t == i {
			r.reserved[i] = i
			r.state[i] = moving
			ok = true
			break
		}
		if r.reserved[t] != none {
			r.state[i] = staying
			ok = false
			break
		}
		r.reserved[t] = i
		if r.state[t] == empty {
			r.state[i] = moving
			ok = true
			break
		}
		stack = append(stack, i)
		i = t
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		t := r.intent[p]
		ok = ok && r.intent[t] != t
		if ok {
			r.state[p] = moving
		} else {
			r.state[p] = staying
		}
	}
	r.stack = stack
}

// commit writes every destination exactly once.
func (r *Resolver) commit(src, dst *grid.Grid) {
	w := src.Width()
	r.pool.Rows(src.Height(), func(_, lo, hi int) {
		for d := lo * w; d < hi*w; d++ {
			if s := r.source[d]; s != none {
				dst.CopyCell(d, src, int(s))
				continue
			}
			dst.ClearCell(d)
		}
	})
}
