package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/jamsniper/causeway.report/internal/httputil"
	"github.com/jamsniper/causeway.report/internal/units"
)

// trendChart renders an interactive line chart (HTML) of the Johor and
// Woodlands count series using go-echarts. Query params:
//   - hours (optional; default 24) history window to plot
func (s *Server) trendChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	hours, err := s.historyHours(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	records, err := s.db.CountsSince(time.Now().UTC().Add(-time.Duration(hours) * time.Hour))
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve history: %v", err))
		return
	}
	if len(records) == 0 {
		httputil.NotFound(w, "no count history to chart")
		return
	}

	labels := make([]string, 0, len(records))
	johor := make([]opts.LineData, 0, len(records))
	woodlands := make([]opts.LineData, 0, len(records))
	for _, rec := range records {
		labels = append(labels, units.FormatLogTime(rec.RecordedAt, s.timezone))
		johor = append(johor, opts.LineData{Value: rec.ToJohor})
		woodlands = append(woodlands, opts.LineData{Value: rec.ToWoodlands})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Causeway Count Trend", Theme: "dark", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Causeway Vehicle Counts", Subtitle: fmt.Sprintf("last %dh, %d samples", hours, len(records))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Vehicles"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	line.SetXAxis(labels).
		AddSeries("to Johor", johor).
		AddSeries("to Woodlands", woodlands).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
