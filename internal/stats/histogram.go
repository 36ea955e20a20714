package stats

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ironsheep/spore-measure-mcp/internal/geometry"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no blobs to plot")

// HistogramOptions controls histogram rendering.
type HistogramOptions struct {
	Bins   int
	Width  vg.Length
	Height vg.Length
	Unit   string
}

func (o *HistogramOptions) applyDefaults() {
	if o.Bins <= 0 {
		o.Bins = 10
	}
	if o.Width == 0 {
		o.Width = 8 * vg.Inch
	}
	if o.Height == 0 {
		o.Height = 4 * vg.Inch
	}
	if o.Unit == "" {
		o.Unit = UnitPixels
	}
}

// WriteHistogram renders a PNG histogram of both axis lengths to w.
func WriteHistogram(w io.Writer, blobs []geometry.Blob, ratio float64, opts HistogramOptions) error {
	if len(blobs) == 0 {
		return ErrNoData
	}
	opts.applyDefaults()

	a, b := AxisLengths(blobs, ratio)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Axis lengths (n=%d)", len(blobs))
	p.X.Label.Text = fmt.Sprintf("Length (%s)", opts.Unit)
	p.Y.Label.Text = "Count"

	histA, err := plotter.NewHist(plotter.Values(a), opts.Bins)
	if err != nil {
		return fmt.Errorf("failed to bin axis A: %w", err)
	}
	histA.FillColor = color.RGBA{R: 220, G: 60, B: 60, A: 160}
	histA.LineStyle.Width = vg.Points(1)

	histB, err := plotter.NewHist(plotter.Values(b), opts.Bins)
	if err != nil {
		return fmt.Errorf("failed to bin axis B: %w", err)
	}
	histB.FillColor = color.RGBA{R: 60, G: 120, B: 220, A: 160}
	histB.LineStyle.Width = vg.Points(1)

	p.Add(histA, histB)
	p.Legend.Add("axis A (major)", histA)
	p.Legend.Add("axis B (minor)", histB)
	p.Legend.Top = true

	wt, err := p.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return fmt.Errorf("failed to render histogram: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
