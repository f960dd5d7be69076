package traffic

import "fmt"

// Divider base anchors as fractions of frame width. With zero calibration the
// line runs from 60% of the width at the top of the frame to 40% at the
// bottom, matching the camera's view down the causeway.
const (
	dividerBaseTopFraction    = 0.60
	dividerBaseBottomFraction = 0.40
)

// ComputeDivider derives the divider line for a frame of the given pixel
// dimensions. Shift translates the whole line horizontally; tilt skews it by
// moving the top and bottom endpoints in opposite directions, which models
// the camera's perspective. Both are unconstrained: out-of-range values just
// produce a divider that exits the frame.
//
// Returns an error for non-positive dimensions rather than dividing by zero.
func ComputeDivider(width, height int, cal CalibrationParams) (DividerLine, error) {
	if width <= 0 || height <= 0 {
		return DividerLine{}, fmt.Errorf("degenerate frame %dx%d: dimensions must be positive", width, height)
	}

	w := float64(width)
	baseTop := w * dividerBaseTopFraction
	baseBottom := w * dividerBaseBottomFraction

	topX := baseTop + w*cal.Shift + w*cal.Tilt
	bottomX := baseBottom + w*cal.Shift - w*cal.Tilt

	return DividerLine{
		TopX:    topX,
		BottomX: bottomX,
		Slope:   (bottomX - topX) / float64(height),
	}, nil
}
