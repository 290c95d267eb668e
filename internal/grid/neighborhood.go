package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyMask reports a window with no included position.
	ErrEmptyMask = errors.New("grid: neighborhood mask is empty")
	// ErrRaggedMask reports mask rows of differing widths.
	ErrRaggedMask = errors.New("grid: neighborhood mask rows differ in width")
	// ErrCenterOutside reports a center that lies outside the window.
	ErrCenterOutside = errors.New("grid: neighborhood center lies outside the window")
)

// Offset is one included window position and its displacement from the
// window center.
type Offset struct {
	WR, WC int
	DR, DC int
}

// Neighborhood is an immutable window descriptor shared by all workers.
type Neighborhood struct {
	height, width        int
	centerRow, centerCol int
	mask                 []bool
	offsets              []Offset
}

// NewNeighborhood builds a window from a rectangular inclusion mask.
func NewNeighborhood(mask [][]bool, centerRow, centerCol int) (*Neighborhood, error) {
	if len(mask) == 0 || len(mask[0]) == 0 {
		return nil, ErrEmptyMask
	}
	h, w := len(mask), len(mask[0])
	if centerRow < 0 || centerRow >= h || centerCol < 0 || centerCol >= w {
		return nil, fmt.Errorf("%w: (%d,%d) in %dx%d", ErrCenterOutside, centerRow, centerCol, h, w)
	}
	n := &Neighborhood{
		height:    h,
		width:     w,
		centerRow: centerRow,
		centerCol: centerCol,
		mask:      make([]bool, h*w),
	}
	for r, row := range mask {
		if len(row) != w {
			return nil, fmt.Errorf("%w: row %d has %d entries, expected %d", ErrRaggedMask, r, len(row), w)
		}
		for c, on := range row {
			if !on {
				continue
			}
			n.mask[r*w+c] = true
			n.offsets = append(n.offsets, Offset{WR: r, WC: c, DR: r - centerRow, DC: c - centerCol})
		}
	}
	if len(n.offsets) == 0 {
		return nil, ErrEmptyMask
	}
	return n, nil
}

// FromBytes builds a window from a 0/1 matrix centered at ((h-1)/2, (w-1)/2),
// the layout used by config files.
func FromBytes(rows [][]uint8) (*Neighborhood, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyMask
	}
	mask := make([][]bool, len(rows))
	for r, row := range rows {
		mask[r] = make([]bool, len(row))
		for c, v := range row {
			mask[r][c] = v != 0
		}
	}
	return NewNeighborhood(mask, (len(rows)-1)/2, (len(rows[0])-1)/2)
}

// Moore returns the full (2r+1)x(2r+1) square window.
func Moore(radius int) *Neighborhood {
	return square(radius, func(dr, dc int) bool { return true })
}

// VonNeumann returns the diamond window of Manhattan radius r.
func VonNeumann(radius int) *Neighborhood {
	radius = max(radius, 0)
	return square(radius, func(dr, dc int) bool { return abs(dr)+abs(dc) <= radius })
}

func square(radius int, keep func(dr, dc int) bool) *Neighborhood {
	radius = max(radius, 0)
	size := 2*radius + 1
	mask := make([][]bool, size)
	for r := range mask {
		mask[r] = make([]bool, size)
		for c := range mask[r] {
			mask[r][c] = keep(r-radius, c-radius)
		}
	}
	n, err := NewNeighborhood(mask, radius, radius)
	if err != nil {
		// The center is always included, so the mask cannot be empty.
		panic(err)
	}
	return n
}

// Height returns the window height.
func (n *Neighborhood) Height() int { return n.height }

// Width returns the window width.
func (n *Neighborhood) Width() int { return n.width }

// Center returns the window position of the agent itself.
func (n *Neighborhood) Center() (int, int) { return n.centerRow, n.centerCol }

// Len returns the number of included positions.
func (n *Neighborhood) Len() int { return len(n.offsets) }

// Offsets lists the included positions in row-major window order.
func (n *Neighborhood) Offsets() []Offset { return n.offsets }

// Includes reports whether window position (wr, wc) is part of the mask.
func (n *Neighborhood) Includes(wr, wc int) bool {
	if wr < 0 || wr >= n.height || wc < 0 || wc >= n.width {
		return false
	}
	return n.mask[wr*n.width+wc]
}

// Allows reports whether displacement (dr, dc) lands on an included position.
func (n *Neighborhood) Allows(dr, dc int) bool {
	return n.Includes(n.centerRow+dr, n.centerCol+dc)
}

// Coords maps window position (wr, wc) around the agent at (row, col) to
// wrapped grid coordinates.
func (n *Neighborhood) Coords(wr, wc, row, col int, g *Grid) (int, int) {
	return g.Wrap(row+wr-n.centerRow, col+wc-n.centerCol)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
