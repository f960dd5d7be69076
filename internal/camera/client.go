// Package camera fetches frames from the LTA DataMall traffic camera feed.
package camera

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"time"

	"github.com/jamsniper/causeway.report/internal/httputil"
)

// DefaultEndpoint is the LTA DataMall Traffic-Imagesv2 listing endpoint.
const DefaultEndpoint = "https://datamall2.mytransport.sg/ltaodataservice/Traffic-Imagesv2"

// ErrCameraNotFound indicates the listing did not include the configured camera.
var ErrCameraNotFound = errors.New("camera not found in feed listing")

// Frame is one fetched camera image. Immutable once fetched: all geometry
// downstream derives from Width and Height.
type Frame struct {
	CameraID string
	Image    image.Image
	JPEG     []byte
	Width    int
	Height   int
	Fetched  time.Time
}

// Client fetches frames for one camera from the DataMall feed.
type Client struct {
	endpoint string
	apiKey   string
	cameraID string
	http     httputil.HTTPClient
}

// NewClient creates a camera client. A nil httpClient falls back to the
// standard http.DefaultClient wrapper. The API key is the DataMall
// AccountKey; the feed rejects unauthenticated requests.
func NewClient(apiKey, cameraID string, httpClient httputil.HTTPClient) *Client {
	if httpClient == nil {
		httpClient = httputil.NewStandardClient(nil)
	}
	return &Client{
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
		cameraID: cameraID,
		http:     httpClient,
	}
}

// SetEndpoint overrides the listing endpoint. Used by tests.
func (c *Client) SetEndpoint(endpoint string) { c.endpoint = endpoint }

// listingJSON mirrors the DataMall response envelope.
type listingJSON struct {
	Value []struct {
		CameraID  string `json:"CameraID"`
		ImageLink string `json:"ImageLink"`
	} `json:"value"`
}

// Fetch retrieves the current frame for the configured camera: one request
// for the listing, one for the image itself. Any failure means the upstream
// is unavailable; the caller keeps its last good result rather than
// fabricating counts.
func (c *Client) Fetch(ctx context.Context) (*Frame, error) {
	link, err := c.imageLink(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch camera image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera image fetch returned %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read camera image: %w", err)
	}

	return FrameFromJPEG(c.cameraID, raw)
}

// imageLink fetches the feed listing and finds the configured camera.
func (c *Client) imageLink(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build listing request: %w", err)
	}
	req.Header.Set("AccountKey", c.apiKey)
	req.Header.Set("accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch camera listing: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("camera listing returned %d", resp.StatusCode)
	}

	var listing listingJSON
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return "", fmt.Errorf("decode camera listing: %w", err)
	}

	for _, entry := range listing.Value {
		if entry.CameraID == c.cameraID {
			return entry.ImageLink, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrCameraNotFound, c.cameraID)
}

// FrameFromJPEG decodes a JPEG into a Frame. Exposed so dev mode can serve a
// fixture image through the same path as the live feed.
func FrameFromJPEG(cameraID string, raw []byte) (*Frame, error) {
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode camera image: %w", err)
	}

	bounds := img.Bounds()
	return &Frame{
		CameraID: cameraID,
		Image:    img,
		JPEG:     raw,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Fetched:  time.Now().UTC(),
	}, nil
}
