// Countbot runs one fetch-detect-count cycle from the command line and
// appends the result to a CSV log. Useful for cron-driven collection on
// hosts that do not run the full dashboard server.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/jamsniper/causeway.report/internal/camera"
	"github.com/jamsniper/causeway.report/internal/config"
	"github.com/jamsniper/causeway.report/internal/detect"
	"github.com/jamsniper/causeway.report/internal/httputil"
	"github.com/jamsniper/causeway.report/internal/traffic"
	"github.com/jamsniper/causeway.report/internal/units"
)

var (
	configPath = flag.String("config", "", "Path to a tuning config JSON file (defaults to the bundled config)")
	csvPath    = flag.String("csv", "traffic_log.csv", "CSV file to append counts to (empty disables logging)")
	shift      = flag.Float64("shift", 0, "Override the divider shift from the config")
	tilt       = flag.Float64("tilt", 0, "Override the divider tilt from the config")
	timeout    = flag.Duration("timeout", 2*time.Minute, "Overall deadline for the cycle")
)

func appendCSV(path string, when time.Time, timezone string, result traffic.CountResult) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open csv log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat csv log: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		w.Write([]string{"timestamp", "to_johor", "to_woodlands"})
	}
	w.Write([]string{
		units.FormatLogTime(when, timezone),
		strconv.Itoa(result.ToJohor),
		strconv.Itoa(result.ToWoodlands),
	})
	w.Flush()
	return w.Error()
}

func run() error {
	_ = godotenv.Load()

	var tuning *config.TuningConfig
	if *configPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			return fmt.Errorf("load tuning config: %w", err)
		}
	} else {
		tuning = config.MustLoadDefaultConfig()
	}

	cal := tuning.Calibration()
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "shift":
			cal.Shift = *shift
		case "tilt":
			cal.Tilt = *tilt
		}
	})

	apiKey := os.Getenv("LTA_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("LTA_API_KEY is required")
	}

	detectorURL := tuning.GetDetectorURL()
	if fromEnv := os.Getenv("DETECTOR_URL"); fromEnv != "" {
		detectorURL = fromEnv
	}

	httpClient := httputil.NewStandardClient(&http.Client{Timeout: 30 * time.Second})
	source := camera.NewClient(apiKey, tuning.GetCameraID(), httpClient)
	detector := detect.NewHTTPDetector(detect.Config{
		URL:                 detectorURL,
		ConfidenceThreshold: tuning.GetConfidenceThreshold(),
		IOUThreshold:        tuning.GetIOUThreshold(),
		ImageSize:           tuning.GetImageSize(),
		ClassIDs:            tuning.GetClassIDs(),
	}, httpClient)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	frame, err := source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch camera frame: %w", err)
	}

	detections, err := detector.Detect(ctx, frame.JPEG)
	if err != nil {
		return fmt.Errorf("run detection: %w", err)
	}

	line, err := traffic.ComputeDivider(frame.Width, frame.Height, cal)
	if err != nil {
		return fmt.Errorf("compute divider: %w", err)
	}

	result := traffic.Aggregate(detections, frame.Width, frame.Height, line, tuning.FilterConfig())

	now := time.Now().UTC()
	timezone := tuning.GetDisplayTimezone()
	fmt.Printf("Update: %s | Johor: %d | Woodlands: %d\n",
		units.FormatLogTime(now, timezone), result.ToJohor, result.ToWoodlands)

	if *csvPath != "" {
		if err := appendCSV(*csvPath, now, timezone, result); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
