//go:build ebiten

package ui

import (
	"fmt"
	"image/color"

	"trait-ca/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

// inspector is implemented by sims whose cells carry several named values.
type inspector interface {
	Inspect(x, y int) ([]float32, bool)
	ChannelNames() []string
	Selected() int
}

// Overlay draws the cell inspector on top of the grid: per-cell values of the
// selected channel when cells are large enough, and a tooltip with every
// channel of the agent under the cursor.
type Overlay struct {
	sim   core.Sim
	scale int

	showValues bool
	minCell    int
	showHover  bool

	pixel *ebiten.Image
}

// NewOverlay constructs a new overlay instance.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	o := &Overlay{sim: sim, scale: max(scale, 1), minCell: defaultMinCell, showHover: true}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// SetShowValues enables per-cell value labels once cells are at least
// minCell pixels wide.
func (o *Overlay) SetShowValues(on bool, minCell int) {
	o.showValues = on
	if minCell > 0 {
		o.minCell = minCell
	}
}

// Update handles the overlay's key toggles.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyV) {
		o.showValues = !o.showValues
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyI) {
		o.showHover = !o.showHover
	}
}

// Draw renders the overlay onto the provided screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	insp, ok := o.sim.(inspector)
	if !ok {
		return
	}
	size := o.sim.Size()
	if o.showValues && o.scale >= o.minCell {
		o.drawValues(screen, insp, size)
	}
	if o.showHover {
		mx, my := ebiten.CursorPosition()
		x, y := mx/o.scale, my/o.scale
		if mx >= 0 && my >= 0 && x < size.W && y < size.H {
			o.drawTooltip(screen, insp, x, y, mx, my)
		}
	}
}

func (o *Overlay) drawValues(screen *ebiten.Image, insp inspector, size core.Size) {
	face := basicfont.Face7x13
	ch := insp.Selected()
	for y := 0; y < size.H; y++ {
		for x := 0; x < size.W; x++ {
			vals, ok := insp.Inspect(x, y)
			if !ok {
				continue
			}
			label := fmt.Sprintf("%.2f", vals[ch])
			b := text.BoundString(face, label)
			px := x*o.scale + (o.scale-b.Dx())/2
			py := y*o.scale + (o.scale+b.Dy())/2
			text.Draw(screen, label, face, px, py, valueColor(vals[ch]))
		}
	}
}

func (o *Overlay) drawTooltip(screen *ebiten.Image, insp inspector, x, y, mx, my int) {
	vals, ok := insp.Inspect(x, y)
	lines := []string{fmt.Sprintf("(%d, %d)", x, y)}
	if !ok {
		lines = append(lines, "empty")
	} else {
		names := insp.ChannelNames()
		for ch, v := range vals {
			marker := " "
			if ch == insp.Selected() {
				marker = ">"
			}
			lines = append(lines, fmt.Sprintf("%s%-12s %.3f", marker, names[ch], v))
		}
	}

	face := basicfont.Face7x13
	w := 0
	for _, line := range lines {
		w = max(w, text.BoundString(face, line).Dx())
	}
	w += 2 * tooltipPadding
	h := len(lines)*tooltipLine + 2*tooltipPadding

	// Keep the box on screen.
	bounds := screen.Bounds()
	left := min(mx+tooltipOffset, bounds.Dx()-w)
	top := min(my+tooltipOffset, bounds.Dy()-h)
	o.fillRect(screen, left, top, w, h, color.RGBA{R: 10, G: 10, B: 14, A: 220})
	for i, line := range lines {
		text.Draw(screen, line, face, left+tooltipPadding, top+tooltipPadding+(i+1)*tooltipLine-3, labelColor)
	}
}

func (o *Overlay) fillRect(screen *ebiten.Image, x, y, w, h int, col color.RGBA) {
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(w), float64(h))
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}

// valueColor keeps labels readable on both ends of a color scheme.
func valueColor(v float32) color.RGBA {
	if v > 0.6 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

const (
	defaultMinCell = 20
	tooltipPadding = 6
	tooltipLine    = 14
	tooltipOffset  = 14
)
