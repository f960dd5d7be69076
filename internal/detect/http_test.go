package detect

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/jamsniper/causeway.report/internal/httputil"
	"github.com/jamsniper/causeway.report/internal/traffic"
)

func testConfig() Config {
	return Config{
		URL:                 "http://127.0.0.1:8600/detect",
		ConfidenceThreshold: 0.15,
		IOUThreshold:        0.6,
		ImageSize:           1024,
		ClassIDs:            []int{2, 3, 5, 7},
	}
}

func TestHTTPDetectorDecodesResponse(t *testing.T) {
	client := httputil.NewMockHTTPClient()
	client.AddResponse(200, `{
		"model": "yolov8m",
		"processing_time_ms": 182.4,
		"detections": [
			{"class_id": 2, "confidence": 0.91, "x1": 100, "y1": 50, "x2": 160, "y2": 95},
			{"class_id": 3, "confidence": 0.42, "x1": 400, "y1": 210, "x2": 425, "y2": 260}
		]
	}`)

	d := NewHTTPDetector(testConfig(), client)
	got, err := d.Detect(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	want := []traffic.Detection{
		{ClassID: 2, X1: 100, Y1: 50, X2: 160, Y2: 95},
		{ClassID: 3, X1: 400, Y1: 210, X2: 425, Y2: 260},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d detections, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("detection %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestHTTPDetectorForwardsKnobs(t *testing.T) {
	client := httputil.NewMockHTTPClient()
	client.AddResponse(200, `{"detections": []}`)

	d := NewHTTPDetector(testConfig(), client)
	if _, err := d.Detect(context.Background(), []byte("jpeg-bytes")); err != nil {
		t.Fatalf("Detect: %v", err)
	}

	req := client.GetRequest(0)
	if req == nil {
		t.Fatal("no request recorded")
	}
	q, err := url.ParseQuery(req.URL.RawQuery)
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}

	for param, want := range map[string]string{
		"conf":    "0.15",
		"iou":     "0.6",
		"imgsz":   "1024",
		"classes": "2,3,5,7",
	} {
		if got := q.Get(param); got != want {
			t.Errorf("query %s = %q, want %q", param, got, want)
		}
	}
	if ct := req.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", ct)
	}
}

func TestHTTPDetectorErrors(t *testing.T) {
	t.Run("transport_error", func(t *testing.T) {
		client := httputil.NewMockHTTPClient()
		client.AddErrorResponse(errors.New("connection refused"))

		d := NewHTTPDetector(testConfig(), client)
		if _, err := d.Detect(context.Background(), nil); err == nil {
			t.Error("expected error for failed transport")
		}
	})

	t.Run("server_error_status", func(t *testing.T) {
		client := httputil.NewMockHTTPClient()
		client.AddResponse(503, "model loading")

		d := NewHTTPDetector(testConfig(), client)
		if _, err := d.Detect(context.Background(), nil); err == nil {
			t.Error("expected error for 503 response")
		}
	})

	t.Run("malformed_body", func(t *testing.T) {
		client := httputil.NewMockHTTPClient()
		client.AddResponse(200, "not json")

		d := NewHTTPDetector(testConfig(), client)
		if _, err := d.Detect(context.Background(), nil); err == nil {
			t.Error("expected error for malformed body")
		}
	})
}
