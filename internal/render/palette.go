package render

import (
	"image/color"
	"sort"
)

// Scheme maps a normalized value in [0, 1] to a color.
type Scheme struct {
	Name string
	Map  func(v float32) color.RGBA
}

// PaletteSize is the number of display levels a palette covers. Level 0 is
// reserved for empty cells.
const PaletteSize = 256

var schemes = []Scheme{
	{Name: "viridis", Map: linear(68, 1, 84, 253, 231, 37)},
	{Name: "plasma", Map: linear(13, 8, 135, 240, 50, 33)},
	{Name: "grayscale", Map: linear(0, 0, 0, 255, 255, 255)},
	{Name: "red-blue", Map: redBlue},
}

// LookupScheme resolves a scheme by name.
func LookupScheme(name string) (Scheme, bool) {
	for _, s := range schemes {
		if s.Name == name {
			return s, true
		}
	}
	return Scheme{}, false
}

// SchemeNames lists the available schemes in sorted order.
func SchemeNames() []string {
	out := make([]string, len(schemes))
	for i, s := range schemes {
		out[i] = s.Name
	}
	sort.Strings(out)
	return out
}

// MapValue colors one cell. Occupied cells are lifted by base so that low
// values stay distinguishable from empty space; empty cells map to 0.
func (s Scheme) MapValue(v float32, empty bool, base float32) color.RGBA {
	if empty {
		return s.Map(0)
	}
	return s.Map(clamp01(base + v*(1-base)))
}

// Palette builds a PaletteSize-entry lookup table for display levels: level 0
// is empty and level k>0 stands for the value (k-1)/(PaletteSize-2).
func (s Scheme) Palette(base float32) []color.RGBA {
	p := make([]color.RGBA, PaletteSize)
	p[0] = s.MapValue(0, true, base)
	for k := 1; k < PaletteSize; k++ {
		p[k] = s.MapValue(LevelValue(uint8(k)), false, base)
	}
	return p
}

// Level quantizes an agent's value into a display level in [1, 255].
func Level(v float32) uint8 {
	return 1 + uint8(clamp01(v)*(PaletteSize-2)+0.5)
}

// LevelValue is the value represented by display level k.
func LevelValue(k uint8) float32 {
	if k == 0 {
		return 0
	}
	return float32(k-1) / (PaletteSize - 2)
}

func linear(r0, g0, b0, r1, g1, b1 float32) func(float32) color.RGBA {
	return func(v float32) color.RGBA {
		return color.RGBA{
			R: uint8(r0 + v*(r1-r0)),
			G: uint8(g0 + v*(g1-g0)),
			B: uint8(b0 + v*(b1-b0)),
			A: 255,
		}
	}
}

func redBlue(v float32) color.RGBA {
	if v < 0.5 {
		return color.RGBA{B: uint8(v * 2 * 255), A: 255}
	}
	t := (v - 0.5) * 2
	return color.RGBA{R: uint8(t * 255), B: uint8((1 - t) * 255), A: 255}
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
