// Package traffic implements the directional vehicle counting core: divider
// geometry, noise filtering, side classification, and aggregation over the
// detections from a single causeway camera frame.
package traffic

// COCO class IDs recognized by the upstream detector.
const (
	ClassCar        = 2
	ClassMotorcycle = 3
	ClassBus        = 5
	ClassTruck      = 7
)

// Side identifies which destination a detection is counted toward.
type Side int

const (
	// SideExcluded marks a detection dropped by validation or the noise filter.
	SideExcluded Side = iota
	// SideJohor is the side left of the divider (northbound).
	SideJohor
	// SideWoodlands is the side right of the divider (southbound).
	SideWoodlands
)

// String returns the deployment label for the side.
func (s Side) String() string {
	switch s {
	case SideJohor:
		return "to_johor"
	case SideWoodlands:
		return "to_woodlands"
	default:
		return "excluded"
	}
}

// Detection is one candidate object from the detector: a class ID and an
// axis-aligned bounding box in frame pixel coordinates. The detector's
// confidence threshold has already been applied upstream.
type Detection struct {
	ClassID int     `json:"class_id"`
	X1      float64 `json:"x1"`
	Y1      float64 `json:"y1"`
	X2      float64 `json:"x2"`
	Y2      float64 `json:"y2"`
}

// CenterX returns the horizontal center of the bounding box.
func (d Detection) CenterX() float64 { return (d.X1 + d.X2) / 2 }

// CenterY returns the vertical center of the bounding box.
func (d Detection) CenterY() float64 { return (d.Y1 + d.Y2) / 2 }

// CalibrationParams are the two slider values that place the divider.
// Recognized range is [-0.5, 0.5] in steps of 0.01, but values outside the
// range are accepted and simply push the divider out of frame.
type CalibrationParams struct {
	Shift float64 `json:"shift"`
	Tilt  float64 `json:"tilt"`
}

// DividerLine is the diagonal boundary separating the two counted
// directions, expressed as the segment from (TopX, 0) to (BottomX, height).
type DividerLine struct {
	TopX    float64 `json:"top_x"`
	BottomX float64 `json:"bottom_x"`
	// Slope is the x-displacement per unit y.
	Slope float64 `json:"slope"`
}

// XAt returns the divider's x-position at vertical position y.
func (l DividerLine) XAt(y float64) float64 {
	return l.TopX + l.Slope*y
}

// Annotation pairs a detection with its side assignment for rendering.
type Annotation struct {
	Detection Detection `json:"detection"`
	Side      Side      `json:"side"`
}

// CountResult is the outcome of one analysis cycle.
type CountResult struct {
	ToJohor     int          `json:"to_johor"`
	ToWoodlands int          `json:"to_woodlands"`
	Excluded    int          `json:"excluded"`
	Annotations []Annotation `json:"annotations,omitempty"`
	Divider     DividerLine  `json:"divider"`
}
