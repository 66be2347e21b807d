package chart

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Candle is one drawable candlestick. X is the bar's date as Unix seconds.
type Candle struct {
	X     float64
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Candlesticks draws OHLC candles: a vertical wick from low to high and a
// filled open-close body, colored by the bar's direction. Implements
// plot.Plotter and plot.DataRanger.
type Candlesticks struct {
	Candles []Candle

	// Width is the body width of one candle.
	Width vg.Length
	// UpColor fills bodies that closed at or above the open, DownColor the
	// rest.
	UpColor   color.Color
	DownColor color.Color
	LineStyle draw.LineStyle
}

func NewCandlesticks(candles []Candle) *Candlesticks {
	return &Candlesticks{
		Candles:   candles,
		Width:     vg.Points(3),
		UpColor:   color.RGBA{R: 0x26, G: 0xa6, B: 0x9a, A: 0xff},
		DownColor: color.RGBA{R: 0xef, G: 0x53, B: 0x50, A: 0xff},
		LineStyle: draw.LineStyle{
			Color: color.Gray{Y: 0x40},
			Width: vg.Points(0.5),
		},
	}
}

// Plot implements plot.Plotter.
func (cs *Candlesticks) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	half := cs.Width / 2

	for _, cd := range cs.Candles {
		x := trX(cd.X)
		if !c.ContainsX(x) {
			continue
		}

		// Wick
		c.StrokeLine2(cs.LineStyle, x, trY(cd.Low), x, trY(cd.High))

		top, bottom := trY(cd.Close), trY(cd.Open)
		if bottom > top {
			top, bottom = bottom, top
		}

		// A doji has no body height, draw a flat tick instead
		if top == bottom {
			c.StrokeLine2(cs.LineStyle, x-half, top, x+half, top)
			continue
		}

		fill := cs.UpColor
		if cd.Close < cd.Open {
			fill = cs.DownColor
		}
		body := []vg.Point{
			{X: x - half, Y: bottom},
			{X: x + half, Y: bottom},
			{X: x + half, Y: top},
			{X: x - half, Y: top},
		}
		c.FillPolygon(fill, body)
		c.StrokeLines(cs.LineStyle, append(body, body[0]))
	}
}

// DataRange implements plot.DataRanger.
func (cs *Candlesticks) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, xmax = math.Inf(1), math.Inf(-1)
	ymin, ymax = math.Inf(1), math.Inf(-1)
	for _, cd := range cs.Candles {
		xmin = math.Min(xmin, cd.X)
		xmax = math.Max(xmax, cd.X)
		ymin = math.Min(ymin, cd.Low)
		ymax = math.Max(ymax, cd.High)
	}
	return xmin, xmax, ymin, ymax
}
