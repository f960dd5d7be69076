// Package report renders static PNG plots of the stored count history.
package report

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/jamsniper/causeway.report/internal/db"
	"github.com/jamsniper/causeway.report/internal/units"
)

var (
	johorLineColor     = color.RGBA{R: 0x00, G: 0xb0, B: 0x00, A: 0xff}
	woodlandsLineColor = color.RGBA{R: 0xd0, G: 0x00, B: 0x00, A: 0xff}
)

// TrendPNG plots both directional count series against time and returns the
// encoded PNG. Records are expected oldest first, as CountsSince returns
// them. Timestamps on the x axis use the display timezone.
func TrendPNG(records []db.CountRecord, timezone string) ([]byte, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no records to plot")
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	p := plot.New()
	p.Title.Text = "Causeway Vehicle Counts"
	p.X.Label.Text = fmt.Sprintf("Time (%s)", timezone)
	p.Y.Label.Text = "Vehicles"
	p.X.Tick.Marker = plot.TimeTicks{
		Format: units.LogTimeFormat,
		Time:   plot.UnixTimeIn(loc),
	}
	p.Y.Min = 0

	johorPts := make(plotter.XYs, 0, len(records))
	woodlandsPts := make(plotter.XYs, 0, len(records))
	for _, rec := range records {
		x := float64(rec.RecordedAt.Unix())
		johorPts = append(johorPts, plotter.XY{X: x, Y: float64(rec.ToJohor)})
		woodlandsPts = append(woodlandsPts, plotter.XY{X: x, Y: float64(rec.ToWoodlands)})
	}

	johorLine, err := plotter.NewLine(johorPts)
	if err != nil {
		return nil, fmt.Errorf("failed to build johor series: %w", err)
	}
	johorLine.Color = johorLineColor
	johorLine.Width = vg.Points(1.5)

	woodlandsLine, err := plotter.NewLine(woodlandsPts)
	if err != nil {
		return nil, fmt.Errorf("failed to build woodlands series: %w", err)
	}
	woodlandsLine.Color = woodlandsLineColor
	woodlandsLine.Width = vg.Points(1.5)

	p.Add(johorLine, woodlandsLine)
	p.Legend.Add("to Johor", johorLine)
	p.Legend.Add("to Woodlands", woodlandsLine)
	p.Legend.Top = true

	wt, err := p.WriterTo(10*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to render plot: %w", err)
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode plot: %w", err)
	}
	return buf.Bytes(), nil
}
