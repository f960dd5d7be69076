package detect

import (
	"context"
	"sync"

	"github.com/jamsniper/causeway.report/internal/traffic"
)

// MockDetector returns canned detections. Used by tests and by dev mode,
// where no inference server is running.
type MockDetector struct {
	mu         sync.Mutex
	Detections []traffic.Detection
	Err        error
	calls      int
}

// NewMockDetector creates a mock returning the given detections.
func NewMockDetector(detections []traffic.Detection) *MockDetector {
	return &MockDetector{Detections: detections}
}

// Detect returns the canned detections or the configured error.
func (m *MockDetector) Detect(ctx context.Context, imageJPEG []byte) ([]traffic.Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]traffic.Detection, len(m.Detections))
	copy(out, m.Detections)
	return out, nil
}

// Calls returns how many times Detect has run.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
