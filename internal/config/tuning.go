package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jamsniper/causeway.report/internal/traffic"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// The schema matches the /api/calibration and /api/status endpoints so the
// same JSON can be used for both startup configuration and runtime updates.
// Per-deployment constants (zone fractions, aspect threshold, exemptions)
// drift across camera configurations, so all of them live here.
type TuningConfig struct {
	// Noise filter params
	ZoneYFraction       *float64 `json:"zone_y_fraction,omitempty"`
	ZoneXFraction       *float64 `json:"zone_x_fraction,omitempty"`
	AspectThreshold     *float64 `json:"aspect_threshold,omitempty"`
	AspectExemptClasses []int    `json:"aspect_exempt_classes,omitempty"`

	// Calibration defaults
	Shift *float64 `json:"shift,omitempty"`
	Tilt  *float64 `json:"tilt,omitempty"`

	// Status banding thresholds
	StatusLowMax *int `json:"status_low_max,omitempty"`
	StatusMidMax *int `json:"status_mid_max,omitempty"`

	// Upstream detector knobs
	DetectorURL         *string  `json:"detector_url,omitempty"`
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
	IOUThreshold        *float64 `json:"iou_threshold,omitempty"`
	ImageSize           *int     `json:"image_size,omitempty"`
	ClassIDs            []int    `json:"class_ids,omitempty"`

	// Camera feed params
	CameraID     *string `json:"camera_id,omitempty"`
	PollInterval *string `json:"poll_interval,omitempty"` // duration string like "5m"

	// Presentation params
	DisplayTimezone *string `json:"display_timezone,omitempty"`
	HistoryWindow   *string `json:"history_window,omitempty"` // duration string like "24h"
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON retain their default values,
// so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.ZoneYFraction != nil {
		if *c.ZoneYFraction < 0 || *c.ZoneYFraction > 1 {
			return fmt.Errorf("zone_y_fraction must be between 0 and 1, got %f", *c.ZoneYFraction)
		}
	}
	if c.ZoneXFraction != nil {
		if *c.ZoneXFraction < 0 || *c.ZoneXFraction > 1 {
			return fmt.Errorf("zone_x_fraction must be between 0 and 1, got %f", *c.ZoneXFraction)
		}
	}
	if c.AspectThreshold != nil && *c.AspectThreshold <= 0 {
		return fmt.Errorf("aspect_threshold must be positive, got %f", *c.AspectThreshold)
	}
	if c.ConfidenceThreshold != nil {
		if *c.ConfidenceThreshold < 0 || *c.ConfidenceThreshold > 1 {
			return fmt.Errorf("confidence_threshold must be between 0 and 1, got %f", *c.ConfidenceThreshold)
		}
	}
	if c.IOUThreshold != nil {
		if *c.IOUThreshold < 0 || *c.IOUThreshold > 1 {
			return fmt.Errorf("iou_threshold must be between 0 and 1, got %f", *c.IOUThreshold)
		}
	}
	if c.StatusLowMax != nil && c.StatusMidMax != nil {
		if *c.StatusLowMax >= *c.StatusMidMax {
			return fmt.Errorf("status_low_max (%d) must be below status_mid_max (%d)", *c.StatusLowMax, *c.StatusMidMax)
		}
	}
	if c.PollInterval != nil && *c.PollInterval != "" {
		if _, err := time.ParseDuration(*c.PollInterval); err != nil {
			return fmt.Errorf("invalid poll_interval '%s': %w", *c.PollInterval, err)
		}
	}
	if c.HistoryWindow != nil && *c.HistoryWindow != "" {
		if _, err := time.ParseDuration(*c.HistoryWindow); err != nil {
			return fmt.Errorf("invalid history_window '%s': %w", *c.HistoryWindow, err)
		}
	}
	if c.DisplayTimezone != nil && *c.DisplayTimezone != "" {
		if _, err := time.LoadLocation(*c.DisplayTimezone); err != nil {
			return fmt.Errorf("invalid display_timezone '%s': %w", *c.DisplayTimezone, err)
		}
	}
	return nil
}

// FilterConfig assembles the noise filter settings from the tuning values.
func (c *TuningConfig) FilterConfig() traffic.FilterConfig {
	fc := traffic.FilterConfig{
		ZoneYFraction:   c.GetZoneYFraction(),
		ZoneXFraction:   c.GetZoneXFraction(),
		AspectThreshold: c.GetAspectThreshold(),
	}
	if len(c.AspectExemptClasses) > 0 {
		fc.AspectExemptClasses = make(map[int]bool, len(c.AspectExemptClasses))
		for _, id := range c.AspectExemptClasses {
			fc.AspectExemptClasses[id] = true
		}
	}
	return fc
}

// Calibration returns the configured startup calibration.
func (c *TuningConfig) Calibration() traffic.CalibrationParams {
	return traffic.CalibrationParams{Shift: c.GetShift(), Tilt: c.GetTilt()}
}

// GetZoneYFraction returns the zone_y_fraction value or the default.
func (c *TuningConfig) GetZoneYFraction() float64 {
	if c.ZoneYFraction == nil {
		return 0.60
	}
	return *c.ZoneYFraction
}

// GetZoneXFraction returns the zone_x_fraction value or the default.
func (c *TuningConfig) GetZoneXFraction() float64 {
	if c.ZoneXFraction == nil {
		return 0.30
	}
	return *c.ZoneXFraction
}

// GetAspectThreshold returns the aspect_threshold value or the default.
func (c *TuningConfig) GetAspectThreshold() float64 {
	if c.AspectThreshold == nil {
		return 3.0
	}
	return *c.AspectThreshold
}

// GetShift returns the shift value or the default.
func (c *TuningConfig) GetShift() float64 {
	if c.Shift == nil {
		return 0.05
	}
	return *c.Shift
}

// GetTilt returns the tilt value or the default.
func (c *TuningConfig) GetTilt() float64 {
	if c.Tilt == nil {
		return 0.25
	}
	return *c.Tilt
}

// GetStatusLowMax returns the status_low_max value or the default.
func (c *TuningConfig) GetStatusLowMax() int {
	if c.StatusLowMax == nil {
		return traffic.DefaultStatusLowMax
	}
	return *c.StatusLowMax
}

// GetStatusMidMax returns the status_mid_max value or the default.
func (c *TuningConfig) GetStatusMidMax() int {
	if c.StatusMidMax == nil {
		return traffic.DefaultStatusMidMax
	}
	return *c.StatusMidMax
}

// GetDetectorURL returns the detector_url value or the default.
func (c *TuningConfig) GetDetectorURL() string {
	if c.DetectorURL == nil || *c.DetectorURL == "" {
		return "http://127.0.0.1:8600/detect"
	}
	return *c.DetectorURL
}

// GetConfidenceThreshold returns the confidence_threshold value or the default.
func (c *TuningConfig) GetConfidenceThreshold() float64 {
	if c.ConfidenceThreshold == nil {
		return 0.15
	}
	return *c.ConfidenceThreshold
}

// GetIOUThreshold returns the iou_threshold value or the default.
func (c *TuningConfig) GetIOUThreshold() float64 {
	if c.IOUThreshold == nil {
		return 0.6
	}
	return *c.IOUThreshold
}

// GetImageSize returns the image_size value or the default.
func (c *TuningConfig) GetImageSize() int {
	if c.ImageSize == nil {
		return 1024
	}
	return *c.ImageSize
}

// GetClassIDs returns the class_ids value or the default recognized set.
func (c *TuningConfig) GetClassIDs() []int {
	if len(c.ClassIDs) == 0 {
		return []int{traffic.ClassCar, traffic.ClassMotorcycle, traffic.ClassBus, traffic.ClassTruck}
	}
	return c.ClassIDs
}

// GetCameraID returns the camera_id value or the default.
func (c *TuningConfig) GetCameraID() string {
	if c.CameraID == nil || *c.CameraID == "" {
		return "2701"
	}
	return *c.CameraID
}

// GetPollInterval parses and returns the PollInterval as a time.Duration.
func (c *TuningConfig) GetPollInterval() time.Duration {
	if c.PollInterval == nil || *c.PollInterval == "" {
		return 5 * time.Minute // default
	}
	d, err := time.ParseDuration(*c.PollInterval)
	if err != nil {
		return 5 * time.Minute // default on parse error
	}
	return d
}

// GetHistoryWindow parses and returns the HistoryWindow as a time.Duration.
func (c *TuningConfig) GetHistoryWindow() time.Duration {
	if c.HistoryWindow == nil || *c.HistoryWindow == "" {
		return 24 * time.Hour // default
	}
	d, err := time.ParseDuration(*c.HistoryWindow)
	if err != nil {
		return 24 * time.Hour // default on parse error
	}
	return d
}

// GetDisplayTimezone returns the display_timezone value or the default.
func (c *TuningConfig) GetDisplayTimezone() string {
	if c.DisplayTimezone == nil || *c.DisplayTimezone == "" {
		return "Asia/Singapore"
	}
	return *c.DisplayTimezone
}
