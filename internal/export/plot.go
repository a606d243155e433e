package export

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/fraud"
)

// WriteTrendPNG renders the complaint-rate trend with its 7-day
// rolling average as a PNG line chart, for report downloads.
func WriteTrendPNG(w io.Writer, buckets []fraud.DateBucket) error {
	if len(buckets) == 0 {
		return fmt.Errorf("no trend data to plot")
	}

	p := plot.New()
	p.Title.Text = "Complaint Rate Trend"
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Complaint rate (%)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}

	ratePts := make(plotter.XYs, 0, len(buckets))
	rollingPts := make(plotter.XYs, 0, len(buckets))
	for _, b := range buckets {
		x := float64(b.Date.Unix())
		ratePts = append(ratePts, plotter.XY{X: x, Y: b.ComplaintRate})
		rollingPts = append(rollingPts, plotter.XY{X: x, Y: b.Rolling7})
	}

	rateLine, err := plotter.NewLine(ratePts)
	if err != nil {
		return fmt.Errorf("failed to build rate line: %w", err)
	}
	rateLine.Width = vg.Points(1)
	rateLine.Color = color.RGBA{R: 0x90, G: 0x90, B: 0x90, A: 0xff}

	rollingLine, err := plotter.NewLine(rollingPts)
	if err != nil {
		return fmt.Errorf("failed to build rolling average line: %w", err)
	}
	rollingLine.Width = vg.Points(2)
	rollingLine.Color = color.RGBA{R: 0xff, G: 0x52, B: 0x52, A: 0xff}

	p.Add(rateLine, rollingLine)
	p.Legend.Add("daily rate", rateLine)
	p.Legend.Add("7-day average", rollingLine)
	p.Legend.Top = true

	wt, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to render trend plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write trend plot: %w", err)
	}
	return nil
}
