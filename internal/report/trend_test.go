package report

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamsniper/causeway.report/internal/db"
)

func sampleRecords(n int) []db.CountRecord {
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	records := make([]db.CountRecord, n)
	for i := range records {
		records[i] = db.CountRecord{
			RunID:       "run",
			RecordedAt:  base.Add(time.Duration(i) * 5 * time.Minute),
			ToJohor:     10 + i,
			ToWoodlands: 20 + i,
			Excluded:    1,
		}
	}
	return records
}

func TestTrendPNGProducesDecodableImage(t *testing.T) {
	data, err := TrendPNG(sampleRecords(12), "Asia/Singapore")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
	assert.Greater(t, img.Bounds().Dy(), 0)
}

func TestTrendPNGSingleSample(t *testing.T) {
	data, err := TrendPNG(sampleRecords(1), "Asia/Singapore")
	require.NoError(t, err)

	_, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
}

func TestTrendPNGNoRecords(t *testing.T) {
	_, err := TrendPNG(nil, "Asia/Singapore")
	assert.Error(t, err)
}

func TestTrendPNGUnknownTimezoneFallsBack(t *testing.T) {
	data, err := TrendPNG(sampleRecords(3), "Not/AZone")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
