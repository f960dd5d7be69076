package traffic

import "math"

// FilterConfig holds the noise filter tunables. Zone fractions and the aspect
// threshold drift per deployment (the camera overlay moves when LTA adjusts
// the feed), so none of them are hardcoded in the rules.
type FilterConfig struct {
	// ZoneYFraction and ZoneXFraction bound the ignore zone: detections whose
	// center is below ZoneYFraction of the frame height and left of
	// ZoneXFraction of the width sit on a fixed signboard/railing overlay.
	ZoneYFraction float64
	ZoneXFraction float64

	// AspectThreshold excludes boxes wider than tall by more than this ratio.
	// Flat signs trip it; vehicle silhouettes do not.
	AspectThreshold float64

	// AspectExemptClasses opts class IDs out of the aspect rule. Some
	// deployments exempt motorcycles and render them separately instead.
	AspectExemptClasses map[int]bool
}

// DefaultFilterConfig returns the filter settings used by the headless
// counter deployment.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		ZoneYFraction:   0.60,
		ZoneXFraction:   0.30,
		AspectThreshold: 3.0,
	}
}

// IsMalformed reports whether a detection has inverted or non-finite
// coordinates. Malformed detections are rejected before the noise filter and
// tallied as excluded rather than crashing the cycle.
func IsMalformed(d Detection) bool {
	for _, v := range [...]float64{d.X1, d.Y1, d.X2, d.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return d.X2 <= d.X1 || d.Y2 <= d.Y1
}

// IsNoise reports whether a detection is an artifact rather than traffic.
// Either rule alone excludes it. Both comparisons are strict, so a center
// exactly on a zone boundary is not in the zone and a box at exactly the
// aspect threshold survives.
func (cfg FilterConfig) IsNoise(d Detection, width, height int) bool {
	// Ignore-zone rule: the static overlay in the bottom-left of the frame.
	if d.CenterY() > float64(height)*cfg.ZoneYFraction && d.CenterX() < float64(width)*cfg.ZoneXFraction {
		return true
	}

	// Aspect-ratio rule. Callers guarantee Y2 > Y1 via IsMalformed.
	if !cfg.AspectExemptClasses[d.ClassID] {
		if (d.X2-d.X1)/(d.Y2-d.Y1) > cfg.AspectThreshold {
			return true
		}
	}

	return false
}
