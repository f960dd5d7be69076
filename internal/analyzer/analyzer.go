// Package analyzer orchestrates one analysis cycle: fetch a frame, run the
// detector, aggregate counts, persist the history record, and retain the
// latest snapshot for the dashboard.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamsniper/causeway.report/internal/camera"
	"github.com/jamsniper/causeway.report/internal/db"
	"github.com/jamsniper/causeway.report/internal/detect"
	"github.com/jamsniper/causeway.report/internal/monitoring"
	"github.com/jamsniper/causeway.report/internal/timeutil"
	"github.com/jamsniper/causeway.report/internal/traffic"
)

// FrameSource yields the current camera frame. camera.Client is the live
// implementation; tests substitute fixtures.
type FrameSource interface {
	Fetch(ctx context.Context) (*camera.Frame, error)
}

// Broadcaster pushes a message to connected dashboard clients. Satisfied by
// ws.Hub; nil disables pushes.
type Broadcaster interface {
	Broadcast(message []byte)
}

// Snapshot is the dashboard view of the most recent cycle. When the feed is
// offline it still carries the last successful counts so the dashboard never
// resets to zero.
type Snapshot struct {
	RunID           string                    `json:"run_id"`
	Timestamp       time.Time                 `json:"timestamp"`
	FrameWidth      int                       `json:"frame_width"`
	FrameHeight     int                       `json:"frame_height"`
	Calibration     traffic.CalibrationParams `json:"calibration"`
	Result          traffic.CountResult       `json:"result"`
	JohorStatus     traffic.Status            `json:"johor_status"`
	WoodlandsStatus traffic.Status            `json:"woodlands_status"`
	Offline         bool                      `json:"offline"`
	LastError       string                    `json:"last_error,omitempty"`
}

// Config wires an Analyzer.
type Config struct {
	Source   FrameSource
	Detector detect.Detector
	DB       *db.DB
	Hub      Broadcaster
	Clock    timeutil.Clock

	Filter       traffic.FilterConfig
	Calibration  traffic.CalibrationParams
	StatusLowMax int
	StatusMidMax int
	PollInterval time.Duration
}

// Analyzer holds the session state: current calibration, the last fetched
// frame and detections, and the last good snapshot.
type Analyzer struct {
	source   FrameSource
	detector detect.Detector
	db       *db.DB
	hub      Broadcaster
	clock    timeutil.Clock

	filter       traffic.FilterConfig
	lowMax       int
	midMax       int
	pollInterval time.Duration

	mu             sync.Mutex
	cal            traffic.CalibrationParams
	lastFrame      *camera.Frame
	lastDetections []traffic.Detection
	snapshot       *Snapshot
	offline        bool
	lastErr        string
}

// New creates an Analyzer. Clock defaults to the real clock; status
// thresholds default to the standard bands.
func New(cfg Config) *Analyzer {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.StatusLowMax == 0 {
		cfg.StatusLowMax = traffic.DefaultStatusLowMax
	}
	if cfg.StatusMidMax == 0 {
		cfg.StatusMidMax = traffic.DefaultStatusMidMax
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Minute
	}
	return &Analyzer{
		source:       cfg.Source,
		detector:     cfg.Detector,
		db:           cfg.DB,
		hub:          cfg.Hub,
		clock:        cfg.Clock,
		filter:       cfg.Filter,
		lowMax:       cfg.StatusLowMax,
		midMax:       cfg.StatusMidMax,
		pollInterval: cfg.PollInterval,
		cal:          cfg.Calibration,
	}
}

// Calibration returns the current shift and tilt.
func (a *Analyzer) Calibration() traffic.CalibrationParams {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cal
}

// SetCalibration updates shift and tilt and recomputes the current snapshot
// against the retained frame. Non-finite values are rejected; out-of-range
// finite values are accepted and just push the divider out of frame.
func (a *Analyzer) SetCalibration(cal traffic.CalibrationParams) error {
	if math.IsNaN(cal.Shift) || math.IsInf(cal.Shift, 0) || math.IsNaN(cal.Tilt) || math.IsInf(cal.Tilt, 0) {
		return fmt.Errorf("calibration values must be finite: shift=%v tilt=%v", cal.Shift, cal.Tilt)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cal = cal
	if a.lastFrame != nil {
		if err := a.recomputeLocked(); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns a copy of the latest snapshot, or nil before the first
// completed cycle.
func (a *Analyzer) Snapshot() *Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.snapshot == nil {
		return nil
	}
	snap := *a.snapshot
	snap.Offline = a.offline
	snap.LastError = a.lastErr
	return &snap
}

// Analyze runs one full cycle. On upstream failure the previous snapshot is
// preserved and marked offline; no counts are fabricated.
func (a *Analyzer) Analyze(ctx context.Context) (*Snapshot, error) {
	frame, err := a.source.Fetch(ctx)
	if err != nil {
		a.markOffline(err)
		return nil, fmt.Errorf("camera fetch: %w", err)
	}

	detections, err := a.detector.Detect(ctx, frame.JPEG)
	if err != nil {
		a.markOffline(err)
		return nil, fmt.Errorf("detector: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.lastFrame = frame
	a.lastDetections = detections
	a.offline = false
	a.lastErr = ""

	if err := a.recomputeLocked(); err != nil {
		return nil, err
	}
	a.snapshot.RunID = uuid.NewString()
	a.snapshot.Timestamp = a.clock.Now().UTC()

	if a.db != nil {
		rec := db.CountRecord{
			RunID:       a.snapshot.RunID,
			RecordedAt:  a.snapshot.Timestamp,
			ToJohor:     a.snapshot.Result.ToJohor,
			ToWoodlands: a.snapshot.Result.ToWoodlands,
			Excluded:    a.snapshot.Result.Excluded,
		}
		if err := a.db.RecordCounts(rec); err != nil {
			monitoring.Logf("failed to record counts: %v", err)
		}
	}

	a.broadcastLocked()

	snap := *a.snapshot
	return &snap, nil
}

// Recompute re-runs aggregation over the retained frame and detections with
// the current calibration. Cheap (no network), so it can back every slider
// movement. Returns nil, nil before the first successful fetch.
func (a *Analyzer) Recompute() (*Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastFrame == nil {
		return nil, nil
	}
	if err := a.recomputeLocked(); err != nil {
		return nil, err
	}
	snap := *a.snapshot
	return &snap, nil
}

// recomputeLocked rebuilds the snapshot from the retained frame, detections,
// and calibration. Caller holds a.mu.
func (a *Analyzer) recomputeLocked() error {
	frame := a.lastFrame
	line, err := traffic.ComputeDivider(frame.Width, frame.Height, a.cal)
	if err != nil {
		return err
	}

	result := traffic.Aggregate(a.lastDetections, frame.Width, frame.Height, line, a.filter)

	prev := a.snapshot
	snap := Snapshot{
		FrameWidth:      frame.Width,
		FrameHeight:     frame.Height,
		Calibration:     a.cal,
		Result:          result,
		JohorStatus:     traffic.StatusFor(result.ToJohor, a.lowMax, a.midMax),
		WoodlandsStatus: traffic.StatusFor(result.ToWoodlands, a.lowMax, a.midMax),
	}
	if prev != nil {
		snap.RunID = prev.RunID
		snap.Timestamp = prev.Timestamp
	}
	a.snapshot = &snap
	return nil
}

// markOffline flags the upstream as unavailable without touching the last
// good snapshot.
func (a *Analyzer) markOffline(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.offline = true
	a.lastErr = err.Error()
	monitoring.Logf("upstream unavailable: %v", err)
}

// broadcastLocked pushes the current snapshot to the hub. Caller holds a.mu.
func (a *Analyzer) broadcastLocked() {
	if a.hub == nil || a.snapshot == nil {
		return
	}
	payload, err := json.Marshal(a.snapshot)
	if err != nil {
		monitoring.Logf("failed to marshal snapshot: %v", err)
		return
	}
	a.hub.Broadcast(payload)
}

// AnnotatedJPEG renders the retained frame with the divider and counted
// boxes drawn over it. Returns nil before the first successful fetch.
func (a *Analyzer) AnnotatedJPEG() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastFrame == nil || a.snapshot == nil {
		return nil, nil
	}

	annotated := traffic.Annotate(a.lastFrame.Image, a.snapshot.Result, a.filter)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, annotated, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode annotated frame: %w", err)
	}
	return buf.Bytes(), nil
}

// Run executes Analyze on the poll interval until the context is cancelled.
// The first cycle runs immediately.
func (a *Analyzer) Run(ctx context.Context) error {
	if _, err := a.Analyze(ctx); err != nil {
		monitoring.Logf("initial analysis failed: %v", err)
	}

	ticker := a.clock.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			if _, err := a.Analyze(ctx); err != nil {
				monitoring.Logf("analysis cycle failed: %v", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
