// Package detect adapts an external object detector to the counting core.
// The detector itself (a YOLO-family model behind an HTTP inference server)
// is a black box: this package only carries its configuration knobs across
// the wire and converts its responses into traffic.Detection values.
package detect

import (
	"context"

	"github.com/jamsniper/causeway.report/internal/traffic"
)

// Detector produces detections for a JPEG-encoded frame.
type Detector interface {
	Detect(ctx context.Context, imageJPEG []byte) ([]traffic.Detection, error)
}

// Config carries the upstream detector knobs. The core never re-filters by
// confidence; what survives these thresholds is what gets counted, so the
// values are deployment configuration rather than core behavior.
type Config struct {
	// URL of the inference endpoint.
	URL string

	// ConfidenceThreshold drops weak detections server side. The headless
	// counter runs 0.15; the dashboard historically ran 0.10.
	ConfidenceThreshold float64

	// IOUThreshold is the box-overlap suppression threshold. 0.6 separates
	// motorcycles from adjacent cars better than the model default.
	IOUThreshold float64

	// ImageSize is the inference resolution.
	ImageSize int

	// ClassIDs restricts detection to the recognized vehicle classes.
	ClassIDs []int
}
