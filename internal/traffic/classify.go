package traffic

// Classify assigns a detection to one side of the divider. The divider's
// x-position is interpolated at the detection's vertical center, so the same
// box can change sides purely through calibration. Strictly left of the line
// counts toward Johor; everything else, including a center exactly on the
// line, counts toward Woodlands.
func Classify(d Detection, line DividerLine) Side {
	if d.CenterX() < line.XAt(d.CenterY()) {
		return SideJohor
	}
	return SideWoodlands
}

// Aggregate runs the full per-frame pipeline: validate, filter, classify,
// tally. Every input detection lands in exactly one of the three buckets
// (Johor, Woodlands, excluded); nothing is double-counted or skipped.
// The returned annotations cover all detections, excluded ones included, so
// the renderer can choose what to draw.
func Aggregate(detections []Detection, width, height int, line DividerLine, cfg FilterConfig) CountResult {
	result := CountResult{
		Divider:     line,
		Annotations: make([]Annotation, 0, len(detections)),
	}

	for _, d := range detections {
		side := SideExcluded
		if !IsMalformed(d) && !cfg.IsNoise(d, width, height) {
			side = Classify(d, line)
		}

		switch side {
		case SideJohor:
			result.ToJohor++
		case SideWoodlands:
			result.ToWoodlands++
		default:
			result.Excluded++
		}
		result.Annotations = append(result.Annotations, Annotation{Detection: d, Side: side})
	}

	return result
}
