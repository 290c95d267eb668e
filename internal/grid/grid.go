// Package grid holds the simulation state: a toroidal grid of agents stored as
// one dense float32 slice per attribute channel plus an occupancy mask.
package grid

import (
	"errors"

	"trait-ca/internal/core"
)

var (
	// ErrEmptyGrid reports a zero or negative grid dimension.
	ErrEmptyGrid = errors.New("grid: width and height must be positive")
	// ErrNoChannels reports a grid without attribute channels.
	ErrNoChannels = errors.New("grid: at least one channel is required")
)

// Grid is the full simulation state at one instant. Values of unoccupied cells
// are zero and carry no meaning.
type Grid struct {
	width, height int
	values        [][]float32
	occupied      []bool
}

// New allocates an empty grid.
func New(width, height, channels int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyGrid
	}
	if channels <= 0 {
		return nil, ErrNoChannels
	}
	total := width * height
	g := &Grid{
		width:    width,
		height:   height,
		values:   make([][]float32, channels),
		occupied: make([]bool, total),
	}
	for c := range g.values {
		g.values[c] = make([]float32, total)
	}
	return g, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Channels returns the number of attribute channels per agent.
func (g *Grid) Channels() int { return len(g.values) }

// Len returns the number of cells.
func (g *Grid) Len() int { return len(g.occupied) }

// Index returns the flat index of an in-range (row, col).
func (g *Grid) Index(row, col int) int { return row*g.width + col }

// RowCol is the inverse of Index.
func (g *Grid) RowCol(idx int) (int, int) { return idx / g.width, idx % g.width }

// Wrap maps any (row, col) onto the torus.
func (g *Grid) Wrap(row, col int) (int, int) {
	return core.Wrap(row, g.height), core.Wrap(col, g.width)
}

// WrapIndex wraps (row, col) and returns its flat index.
func (g *Grid) WrapIndex(row, col int) int {
	row, col = g.Wrap(row, col)
	return g.Index(row, col)
}

// Get returns channel ch of the agent at (row, col).
func (g *Grid) Get(row, col, ch int) float32 {
	return g.values[ch][g.WrapIndex(row, col)]
}

// Set writes channel ch of the agent at (row, col).
func (g *Grid) Set(row, col, ch int, v float32) {
	g.values[ch][g.WrapIndex(row, col)] = v
}

// IsOccupied reports whether an agent lives at (row, col).
func (g *Grid) IsOccupied(row, col int) bool {
	return g.occupied[g.WrapIndex(row, col)]
}

// SetOccupied marks (row, col) as occupied or empty. Emptying a cell zeroes
// its channels.
func (g *Grid) SetOccupied(row, col int, on bool) {
	idx := g.WrapIndex(row, col)
	if !on {
		g.ClearCell(idx)
		return
	}
	g.occupied[idx] = true
}

// Channel exposes the dense values of channel ch. Renderers must treat the
// slice as read-only.
func (g *Grid) Channel(ch int) []float32 { return g.values[ch] }

// Occupancy exposes the occupancy mask.
func (g *Grid) Occupancy() []bool { return g.occupied }

// ClearCell removes the agent at idx.
func (g *Grid) ClearCell(idx int) {
	g.occupied[idx] = false
	for c := range g.values {
		g.values[c][idx] = 0
	}
}

// CopyCell copies the agent (or emptiness) at srcIdx of src into dst of g.
func (g *Grid) CopyCell(dst int, src *Grid, srcIdx int) {
	g.occupied[dst] = src.occupied[srcIdx]
	for c := range g.values {
		g.values[c][dst] = src.values[c][srcIdx]
	}
}

// CopyFrom overwrites g with src. Both grids must share a shape.
func (g *Grid) CopyFrom(src *Grid) {
	copy(g.occupied, src.occupied)
	for c := range g.values {
		copy(g.values[c], src.values[c])
	}
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	out, _ := New(g.width, g.height, len(g.values))
	out.CopyFrom(g)
	return out
}

// SameShape reports whether o has the same dimensions and channel count.
func (g *Grid) SameShape(o *Grid) bool {
	return o != nil && g.width == o.width && g.height == o.height && len(g.values) == len(o.values)
}

// Clear empties every cell.
func (g *Grid) Clear() {
	clear(g.occupied)
	for c := range g.values {
		clear(g.values[c])
	}
}

// Population counts occupied cells.
func (g *Grid) Population() int {
	n := 0
	for _, on := range g.occupied {
		if on {
			n++
		}
	}
	return n
}

// FillFraction returns the share of occupied cells.
func (g *Grid) FillFraction() float64 {
	return float64(g.Population()) / float64(len(g.occupied))
}
