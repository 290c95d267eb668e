package grid

// Cell is the read-only view a policy gets of one agent: its position, the
// grid it lives in and the window to aggregate over.
type Cell struct {
	Grid *Grid
	Hood *Neighborhood
	Row  int
	Col  int
}

// Neighbor describes one included window position around a Cell.
type Neighbor struct {
	Offset
	Index    int
	Center   bool
	Occupied bool
}

// Index returns the agent's flat grid index.
func (c Cell) Index() int { return c.Grid.Index(c.Row, c.Col) }

// Value returns the agent's own value on channel ch.
func (c Cell) Value(ch int) float32 { return c.Grid.values[ch][c.Index()] }

// At returns channel ch at flat index idx. Only meaningful for occupied cells.
func (c Cell) At(idx, ch int) float32 { return c.Grid.values[ch][idx] }

// Each calls fn for every included window position, in row-major window order.
func (c Cell) Each(fn func(n Neighbor)) {
	g := c.Grid
	for _, off := range c.Hood.offsets {
		idx := g.WrapIndex(c.Row+off.DR, c.Col+off.DC)
		fn(Neighbor{
			Offset:   off,
			Index:    idx,
			Center:   off.DR == 0 && off.DC == 0,
			Occupied: g.occupied[idx],
		})
	}
}

// Moves lists the displacements the window allows, the center included.
func (c Cell) Moves() []Offset { return c.Hood.offsets }
