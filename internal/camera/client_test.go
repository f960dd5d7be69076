package camera

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"testing"

	"github.com/jamsniper/causeway.report/internal/httputil"
)

// testJPEG encodes a solid image of the given size.
func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

const listingBody = `{"value": [
	{"CameraID": "2702", "ImageLink": "https://images.example/2702.jpg"},
	{"CameraID": "2701", "ImageLink": "https://images.example/2701.jpg"}
]}`

func TestFetch(t *testing.T) {
	raw := testJPEG(t, 320, 240)

	client := httputil.NewMockHTTPClient()
	client.AddResponse(200, listingBody)
	client.AddResponse(200, string(raw))

	c := NewClient("test-key", "2701", client)
	frame, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if frame.Width != 320 || frame.Height != 240 {
		t.Errorf("frame dims = %dx%d, want 320x240", frame.Width, frame.Height)
	}
	if frame.CameraID != "2701" {
		t.Errorf("CameraID = %q, want 2701", frame.CameraID)
	}
	if len(frame.JPEG) != len(raw) {
		t.Errorf("JPEG bytes = %d, want %d", len(frame.JPEG), len(raw))
	}

	// Listing request carries the AccountKey header.
	req := client.GetRequest(0)
	if req.Header.Get("AccountKey") != "test-key" {
		t.Errorf("AccountKey header = %q, want test-key", req.Header.Get("AccountKey"))
	}

	// Image request goes to the listed link for the right camera.
	req = client.GetRequest(1)
	if req.URL.String() != "https://images.example/2701.jpg" {
		t.Errorf("image URL = %q", req.URL.String())
	}
}

func TestFetchCameraMissing(t *testing.T) {
	client := httputil.NewMockHTTPClient()
	client.AddResponse(200, `{"value": [{"CameraID": "9999", "ImageLink": "https://images.example/x.jpg"}]}`)

	c := NewClient("test-key", "2701", client)
	_, err := c.Fetch(context.Background())
	if !errors.Is(err, ErrCameraNotFound) {
		t.Errorf("err = %v, want ErrCameraNotFound", err)
	}
}

func TestFetchUpstreamFailures(t *testing.T) {
	t.Run("listing_unavailable", func(t *testing.T) {
		client := httputil.NewMockHTTPClient()
		client.AddErrorResponse(errors.New("timeout"))

		c := NewClient("test-key", "2701", client)
		if _, err := c.Fetch(context.Background()); err == nil {
			t.Error("expected error when listing fetch fails")
		}
	})

	t.Run("listing_unauthorized", func(t *testing.T) {
		client := httputil.NewMockHTTPClient()
		client.AddResponse(401, "")

		c := NewClient("bad-key", "2701", client)
		if _, err := c.Fetch(context.Background()); err == nil {
			t.Error("expected error for 401 listing")
		}
	})

	t.Run("image_not_jpeg", func(t *testing.T) {
		client := httputil.NewMockHTTPClient()
		client.AddResponse(200, listingBody)
		client.AddResponse(200, "<html>camera offline</html>")

		c := NewClient("test-key", "2701", client)
		if _, err := c.Fetch(context.Background()); err == nil {
			t.Error("expected error for non-JPEG image body")
		}
	})
}

func TestFrameFromJPEG(t *testing.T) {
	frame, err := FrameFromJPEG("fixture", testJPEG(t, 64, 48))
	if err != nil {
		t.Fatalf("FrameFromJPEG: %v", err)
	}
	if frame.Width != 64 || frame.Height != 48 {
		t.Errorf("dims = %dx%d, want 64x48", frame.Width, frame.Height)
	}
}
