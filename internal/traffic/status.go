package traffic

// Status bands a per-side vehicle count into a congestion level.
type Status string

const (
	// StatusClear indicates free-flowing traffic.
	StatusClear Status = "CLEAR"
	// StatusModerate indicates a building queue.
	StatusModerate Status = "MODERATE"
	// StatusJam indicates congestion.
	StatusJam Status = "JAM"
)

// Default band thresholds.
const (
	DefaultStatusLowMax = 25
	DefaultStatusMidMax = 45
)

// StatusFor bands a count: below lowMax is CLEAR, below midMax is MODERATE,
// everything from midMax up is JAM.
func StatusFor(count, lowMax, midMax int) Status {
	switch {
	case count < lowMax:
		return StatusClear
	case count < midMax:
		return StatusModerate
	default:
		return StatusJam
	}
}
