package chart

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/RajaBabu15/market-data-aggregator-sql/pkg/storage/postgres"
)

// ErrNoData is returned when the series holds nothing drawable.
var ErrNoData = errors.New("no data to plot")

const (
	chartWidth  = 15 * vg.Inch
	chartHeight = 8 * vg.Inch

	// halfDay keeps the first and last candle clear of the plot edge.
	halfDay = 43200
)

// Render draws a candlestick chart of series with overlay as a line on the
// price panel and traded volume as bars on a panel below, then writes the
// image as a PNG to outPath. The parent directory is created if needed.
//
// series must be ordered by date ascending and overlay must be aligned
// index-for-index with it; null overlay entries leave gaps in the line.
// Bars missing any of the four prices are skipped on the price panel, bars
// missing volume are skipped on the volume panel.
func Render(series []postgres.OHLCVRecord, overlayName string, overlay []decimal.NullDecimal, title, outPath string) error {
	if len(series) == 0 {
		return fmt.Errorf("%w: empty series", ErrNoData)
	}
	if len(overlay) != len(series) {
		return fmt.Errorf("overlay has %d entries for %d bars", len(overlay), len(series))
	}

	candles := make([]Candle, 0, len(series))
	volumes := make(plotter.XYs, 0, len(series))
	line := make(plotter.XYs, 0, len(series))

	for i, rec := range series {
		x := float64(rec.Date.Unix())

		if rec.Open.Valid && rec.High.Valid && rec.Low.Valid && rec.Close.Valid {
			candles = append(candles, Candle{
				X:     x,
				Open:  rec.Open.Decimal.InexactFloat64(),
				High:  rec.High.Decimal.InexactFloat64(),
				Low:   rec.Low.Decimal.InexactFloat64(),
				Close: rec.Close.Decimal.InexactFloat64(),
			})
		}
		if rec.Volume.Valid {
			volumes = append(volumes, plotter.XY{X: x, Y: rec.Volume.Decimal.InexactFloat64()})
		}
		if overlay[i].Valid {
			line = append(line, plotter.XY{X: x, Y: overlay[i].Decimal.InexactFloat64()})
		}
	}

	if len(candles) == 0 {
		return fmt.Errorf("%w: no bars with a complete open, high, low and close", ErrNoData)
	}

	pricePlot := plot.New()
	pricePlot.Title.Text = title
	pricePlot.Y.Label.Text = "Price"
	pricePlot.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	pricePlot.Add(plotter.NewGrid())
	pricePlot.Add(NewCandlesticks(candles))

	if len(line) > 0 {
		overlayLine, err := plotter.NewLine(line)
		if err != nil {
			return fmt.Errorf("build overlay line: %w", err)
		}
		overlayLine.LineStyle.Width = vg.Points(1.5)
		overlayLine.LineStyle.Color = color.RGBA{R: 0x1e, G: 0x88, B: 0xe5, A: 0xff}
		pricePlot.Add(overlayLine)
		pricePlot.Legend.Add(overlayName, overlayLine)
		pricePlot.Legend.Top = true
		pricePlot.Legend.Left = true
	}

	volumePlot := plot.New()
	volumePlot.Y.Label.Text = "Volume"
	volumePlot.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	if len(volumes) > 0 {
		volumePlot.Add(NewVolumeBars(volumes))
		volumePlot.Y.Max *= 1.05
	} else {
		volumePlot.Y.Min, volumePlot.Y.Max = 0, 1
	}

	// Shared X range keeps the two panels aligned day for day
	pricePlot.X.Min -= halfDay
	pricePlot.X.Max += halfDay
	volumePlot.X.Min = pricePlot.X.Min
	volumePlot.X.Max = pricePlot.X.Max

	img := vgimg.New(chartWidth, chartHeight)
	dc := draw.New(img)
	canvases := plot.Align(
		[][]*plot.Plot{{pricePlot}, {volumePlot}},
		draw.Tiles{Rows: 2, Cols: 1, PadX: vg.Millimeter, PadY: vg.Millimeter},
		dc,
	)
	pricePlot.Draw(canvases[0][0])
	volumePlot.Draw(canvases[1][0])

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create plot file: %w", err)
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write plot: %w", err)
	}
	return f.Close()
}
