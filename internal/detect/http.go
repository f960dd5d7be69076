package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jamsniper/causeway.report/internal/httputil"
	"github.com/jamsniper/causeway.report/internal/monitoring"
	"github.com/jamsniper/causeway.report/internal/traffic"
)

// HTTPDetector talks to a YOLO inference server over HTTP. The frame is
// posted as a JPEG body and the knobs travel as query parameters, so the
// same server can serve deployments with different thresholds.
type HTTPDetector struct {
	cfg    Config
	client httputil.HTTPClient
}

// NewHTTPDetector creates a detector client. A nil client falls back to the
// standard http.DefaultClient wrapper.
func NewHTTPDetector(cfg Config, client httputil.HTTPClient) *HTTPDetector {
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	return &HTTPDetector{cfg: cfg, client: client}
}

// detectionJSON mirrors one entry of the inference server's results array.
type detectionJSON struct {
	ClassID    int     `json:"class_id"`
	Confidence float64 `json:"confidence"`
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
}

// responseJSON mirrors the inference server's response envelope.
type responseJSON struct {
	Detections       []detectionJSON `json:"detections"`
	Model            string          `json:"model,omitempty"`
	ProcessingTimeMs float64         `json:"processing_time_ms,omitempty"`
}

// Detect posts the frame to the inference server and decodes the results.
// Box coordinates come back in original frame pixel space.
func (d *HTTPDetector) Detect(ctx context.Context, imageJPEG []byte) ([]traffic.Detection, error) {
	endpoint, err := d.requestURL()
	if err != nil {
		return nil, fmt.Errorf("build detector URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(imageJPEG))
	if err != nil {
		return nil, fmt.Errorf("build detector request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detector unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("detector returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed responseJSON
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode detector response: %w", err)
	}
	monitoring.Debugf("detector %s returned %d boxes in %.0fms", parsed.Model, len(parsed.Detections), parsed.ProcessingTimeMs)

	detections := make([]traffic.Detection, 0, len(parsed.Detections))
	for _, dj := range parsed.Detections {
		detections = append(detections, traffic.Detection{
			ClassID: dj.ClassID,
			X1:      dj.X1,
			Y1:      dj.Y1,
			X2:      dj.X2,
			Y2:      dj.Y2,
		})
	}
	return detections, nil
}

// requestURL appends the detector knobs to the configured endpoint.
func (d *HTTPDetector) requestURL() (string, error) {
	u, err := url.Parse(d.cfg.URL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("conf", strconv.FormatFloat(d.cfg.ConfidenceThreshold, 'f', -1, 64))
	q.Set("iou", strconv.FormatFloat(d.cfg.IOUThreshold, 'f', -1, 64))
	q.Set("imgsz", strconv.Itoa(d.cfg.ImageSize))
	if len(d.cfg.ClassIDs) > 0 {
		ids := make([]string, len(d.cfg.ClassIDs))
		for i, id := range d.cfg.ClassIDs {
			ids[i] = strconv.Itoa(id)
		}
		q.Set("classes", strings.Join(ids, ","))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
