package chart

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// VolumeBars draws per-day traded volume as vertical bars anchored at zero.
// Implements plot.Plotter and plot.DataRanger.
type VolumeBars struct {
	XYs plotter.XYs

	// Width is the width of one bar.
	Width vg.Length
	Color color.Color
}

func NewVolumeBars(xys plotter.XYs) *VolumeBars {
	return &VolumeBars{
		XYs:   xys,
		Width: vg.Points(3),
		Color: color.RGBA{R: 0x78, G: 0x90, B: 0x9c, A: 0xff},
	}
}

// Plot implements plot.Plotter.
func (vb *VolumeBars) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	half := vb.Width / 2
	base := trY(0)

	for _, xy := range vb.XYs {
		x := trX(xy.X)
		if !c.ContainsX(x) {
			continue
		}
		top := trY(xy.Y)
		c.FillPolygon(vb.Color, []vg.Point{
			{X: x - half, Y: base},
			{X: x + half, Y: base},
			{X: x + half, Y: top},
			{X: x - half, Y: top},
		})
	}
}

// DataRange implements plot.DataRanger. The lower bound is pinned at zero
// so bar heights stay comparable.
func (vb *VolumeBars) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, xmax = math.Inf(1), math.Inf(-1)
	ymin, ymax = 0, math.Inf(-1)
	for _, xy := range vb.XYs {
		xmin = math.Min(xmin, xy.X)
		xmax = math.Max(xmax, xy.X)
		ymax = math.Max(ymax, xy.Y)
	}
	return xmin, xmax, ymin, ymax
}
