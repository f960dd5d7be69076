package api

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/jamsniper/causeway.report/internal/analyzer"
	"github.com/jamsniper/causeway.report/internal/db"
	"github.com/jamsniper/causeway.report/internal/httputil"
	"github.com/jamsniper/causeway.report/internal/report"
	"github.com/jamsniper/causeway.report/internal/traffic"
	"github.com/jamsniper/causeway.report/internal/units"
	"github.com/jamsniper/causeway.report/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

const maxHistoryHours = 24 * 30

type Server struct {
	analyzer     *analyzer.Analyzer
	db           *db.DB
	ws           http.Handler
	timezone     string
	defaultHours int
}

// NewServer wires the HTTP surface. historyWindow sets the default trailing
// window for history, chart, and export endpoints; requests override it with
// an hours query parameter.
func NewServer(a *analyzer.Analyzer, db *db.DB, ws http.Handler, timezone string, historyWindow time.Duration) *Server {
	if !units.IsTimezoneValid(timezone) {
		timezone = units.DefaultTimezone
	}
	hours := int(historyWindow / time.Hour)
	if hours < 1 || hours > maxHistoryHours {
		hours = 24
	}
	return &Server{
		analyzer:     a,
		db:           db,
		ws:           ws,
		timezone:     timezone,
		defaultHours: hours,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.showStatus)
	mux.HandleFunc("/api/analyze", s.triggerAnalyze)
	mux.HandleFunc("/api/calibration", s.calibration)
	mux.HandleFunc("/api/history", s.listHistory)
	mux.HandleFunc("/api/history/export.csv", s.exportHistoryCSV)
	mux.HandleFunc("/api/frame.jpg", s.showFrame)
	mux.HandleFunc("/api/report/trend.png", s.trendPNG)
	mux.HandleFunc("/charts/trend", s.trendChart)
	mux.HandleFunc("/health", s.health)
	if s.ws != nil {
		mux.Handle("/ws", s.ws)
	}
	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// showStatus returns the most recent analysis snapshot, including per-side
// counts, congestion statuses, and the divider calibration used.
func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	snap := s.analyzer.Snapshot()
	if snap == nil {
		httputil.ServiceUnavailable(w, "no analysis completed yet")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

// triggerAnalyze runs one fetch-detect-count cycle immediately, outside the
// regular polling schedule.
func (s *Server) triggerAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	snap, err := s.analyzer.Analyze(r.Context())
	if err != nil {
		httputil.ServiceUnavailable(w, fmt.Sprintf("analysis failed: %v", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

func (s *Server) calibration(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSON(w, http.StatusOK, s.analyzer.Calibration())
	case http.MethodPost:
		var cal traffic.CalibrationParams
		if err := json.NewDecoder(r.Body).Decode(&cal); err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid calibration body: %v", err))
			return
		}
		if err := s.analyzer.SetCalibration(cal); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		snap := s.analyzer.Snapshot()
		if snap == nil {
			// No frame analysed yet; the new calibration applies from the
			// next cycle onward.
			httputil.WriteJSON(w, http.StatusOK, s.analyzer.Calibration())
			return
		}
		httputil.WriteJSON(w, http.StatusOK, snap)
	default:
		httputil.MethodNotAllowed(w)
	}
}

// historyHours parses the optional hours query parameter, falling back to
// the configured window and capping at thirty days.
func (s *Server) historyHours(r *http.Request) (int, error) {
	hours := s.defaultHours
	if h := r.URL.Query().Get("hours"); h != "" {
		parsed, err := strconv.Atoi(h)
		if err != nil || parsed < 1 || parsed > maxHistoryHours {
			return 0, fmt.Errorf("invalid 'hours' parameter")
		}
		hours = parsed
	}
	return hours, nil
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
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
	if records == nil {
		records = []db.CountRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

// exportHistoryCSV streams the recent count rows as CSV with timestamps in
// the display timezone.
func (s *Server) exportHistoryCSV(w http.ResponseWriter, r *http.Request) {
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

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"causeway_counts.csv\"")

	cw := csv.NewWriter(w)
	cw.Write([]string{"timestamp", "to_johor", "to_woodlands", "excluded"})
	for _, rec := range records {
		cw.Write([]string{
			units.FormatLogTime(rec.RecordedAt, s.timezone),
			strconv.Itoa(rec.ToJohor),
			strconv.Itoa(rec.ToWoodlands),
			strconv.Itoa(rec.Excluded),
		})
	}
	cw.Flush()
}

// showFrame returns the latest camera frame with the divider and vehicle
// boxes drawn on it.
func (s *Server) showFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	img, err := s.analyzer.AnnotatedJPEG()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render frame: %v", err))
		return
	}
	if img == nil {
		httputil.ServiceUnavailable(w, "no frame analysed yet")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(img)
}

func (s *Server) trendPNG(w http.ResponseWriter, r *http.Request) {
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
		httputil.NotFound(w, "no count history to plot")
		return
	}

	png, err := report.TrendPNG(records, s.timezone)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render plot: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}
