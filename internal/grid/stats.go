package grid

// ChannelStats summarises one channel over the occupied cells.
type ChannelStats struct {
	Count int
	Min   float32
	Max   float32
	Mean  float64
}

// Stats computes min, max and mean of channel ch over occupied cells. All
// fields are zero for an empty grid.
func (g *Grid) Stats(ch int) ChannelStats {
	var s ChannelStats
	var sum float64
	vals := g.values[ch]
	for idx, on := range g.occupied {
		if !on {
			continue
		}
		v := vals[idx]
		if s.Count == 0 || v < s.Min {
			s.Min = v
		}
		if s.Count == 0 || v > s.Max {
			s.Max = v
		}
		sum += float64(v)
		s.Count++
	}
	if s.Count > 0 {
		s.Mean = sum / float64(s.Count)
	}
	return s
}
