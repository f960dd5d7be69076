package traffic

import (
	"image"
	"image/color"
	"image/draw"
)

// Annotation colors match the original dashboard: green for Johor-bound,
// red for Woodlands-bound, blue for classes exempted from the aspect rule.
var (
	colorDivider   = color.RGBA{R: 0xff, G: 0xff, B: 0x00, A: 0xff}
	colorJohor     = color.RGBA{R: 0x00, G: 0xff, B: 0x00, A: 0xff}
	colorWoodlands = color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}
	colorExempt    = color.RGBA{R: 0x00, G: 0x99, B: 0xff, A: 0xff}
)

const (
	dividerStroke = 5
	boxStroke     = 2
)

// Annotate draws the divider line and the counted detection boxes over the
// frame. Excluded detections are not drawn. Returns a new RGBA image; the
// source frame is never modified.
func Annotate(frame image.Image, result CountResult, cfg FilterConfig) *image.RGBA {
	bounds := frame.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, frame, bounds.Min, draw.Src)

	drawLine(out, result.Divider, bounds, dividerStroke)

	for _, a := range result.Annotations {
		if a.Side == SideExcluded {
			continue
		}
		c := colorWoodlands
		switch {
		case cfg.AspectExemptClasses[a.Detection.ClassID]:
			c = colorExempt
		case a.Side == SideJohor:
			c = colorJohor
		}
		drawRect(out, a.Detection, bounds, c, boxStroke)
	}

	return out
}

// drawLine rasterizes the divider by stepping one pixel per row and painting
// a horizontal run of stroke pixels around the interpolated x.
func drawLine(img *image.RGBA, line DividerLine, bounds image.Rectangle, stroke int) {
	half := stroke / 2
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		x := int(line.XAt(float64(y - bounds.Min.Y)))
		for dx := -half; dx <= half; dx++ {
			px := bounds.Min.X + x + dx
			if px >= bounds.Min.X && px < bounds.Max.X {
				img.SetRGBA(px, y, colorDivider)
			}
		}
	}
}

// drawRect outlines a bounding box without filling it.
func drawRect(img *image.RGBA, d Detection, bounds image.Rectangle, c color.RGBA, stroke int) {
	r := image.Rect(
		bounds.Min.X+int(d.X1), bounds.Min.Y+int(d.Y1),
		bounds.Min.X+int(d.X2), bounds.Min.Y+int(d.Y2),
	).Intersect(bounds)
	if r.Empty() {
		return
	}

	for s := 0; s < stroke; s++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if top := r.Min.Y + s; top < r.Max.Y {
				img.SetRGBA(x, top, c)
			}
			if bot := r.Max.Y - 1 - s; bot >= r.Min.Y {
				img.SetRGBA(x, bot, c)
			}
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			if left := r.Min.X + s; left < r.Max.X {
				img.SetRGBA(left, y, c)
			}
			if right := r.Max.X - 1 - s; right >= r.Min.X {
				img.SetRGBA(right, y, c)
			}
		}
	}
}
