package traffic

import (
	"image"
	"image/color"
	"testing"
)

func TestAnnotateDrawsDividerAndBoxes(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 200, 100))
	line := mustDivider(t, 200, 100, 0, 0)
	cfg := DefaultFilterConfig()

	detections := []Detection{
		box(ClassCar, 50, 50, 20, 20),   // Johor, green outline
		box(ClassCar, 170, 50, 20, 20),  // Woodlands, red outline
		box(ClassCar, 30, 90, 200, 10),  // excluded, not drawn
	}
	result := Aggregate(detections, 200, 100, line, cfg)
	out := Annotate(frame, result, cfg)

	// Divider passes through (XAt(50), 50).
	if got := out.RGBAAt(int(line.XAt(50)), 50); got != colorDivider {
		t.Errorf("divider pixel = %v, want %v", got, colorDivider)
	}

	// Johor box top edge.
	if got := out.RGBAAt(50, 40); got != colorJohor {
		t.Errorf("johor box pixel = %v, want %v", got, colorJohor)
	}

	// Woodlands box top edge.
	if got := out.RGBAAt(170, 40); got != colorWoodlands {
		t.Errorf("woodlands box pixel = %v, want %v", got, colorWoodlands)
	}

	// Source frame untouched.
	if got := frame.RGBAAt(50, 40); got != (color.RGBA{}) {
		t.Errorf("source frame modified: %v", got)
	}
}

func TestAnnotateExemptClassColor(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 200, 100))
	line := mustDivider(t, 200, 100, 0, 0)
	cfg := DefaultFilterConfig()
	cfg.AspectExemptClasses = map[int]bool{ClassMotorcycle: true}

	result := Aggregate([]Detection{box(ClassMotorcycle, 170, 30, 20, 20)}, 200, 100, line, cfg)
	out := Annotate(frame, result, cfg)

	if got := out.RGBAAt(170, 20); got != colorExempt {
		t.Errorf("exempt box pixel = %v, want %v", got, colorExempt)
	}
}
