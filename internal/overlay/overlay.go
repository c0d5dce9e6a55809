// Package overlay draws visible-code markers and the border state over
// the live camera view.
package overlay

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/hhoikoo/serial-scanner/internal/scan"
)

// Marker palette. gocv converts color.RGBA to the Mat's BGR order itself.
var (
	targetColor    = color.RGBA{R: 0, G: 200, B: 83, A: 255}
	otherColor     = color.RGBA{R: 255, G: 196, B: 0, A: 255}
	searchingColor = color.RGBA{R: 33, G: 150, B: 243, A: 255}
	labelTextColor = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

const (
	maxLabelRunes   = 20
	labelPad        = 4
	markerThickness = 2
	borderThickness = 8

	fontFace      = gocv.FontHersheySimplex
	fontScale     = 0.5
	fontThickness = 1
)

// Renderer maps camera-native geometry onto a display surface and draws
// the markers. Horizontal and vertical scale factors are independent, so
// a display that does not preserve the camera's aspect ratio still lines
// markers up with the video.
type Renderer struct {
	displayWidth  int
	displayHeight int
	sx            float64
	sy            float64
}

// NewRenderer builds a renderer scaling from the camera's native
// resolution to the display size. Non-positive dimensions leave the
// affected axis unscaled.
func NewRenderer(nativeWidth, nativeHeight, displayWidth, displayHeight int) *Renderer {
	r := &Renderer{
		displayWidth:  displayWidth,
		displayHeight: displayHeight,
		sx:            1,
		sy:            1,
	}
	if nativeWidth > 0 && displayWidth > 0 {
		r.sx = float64(displayWidth) / float64(nativeWidth)
	}
	if nativeHeight > 0 && displayHeight > 0 {
		r.sy = float64(displayHeight) / float64(nativeHeight)
	}
	return r
}

// ScalePoint maps a camera-native point to display coordinates.
func (r *Renderer) ScalePoint(p image.Point) image.Point {
	return image.Pt(
		int(math.Round(float64(p.X)*r.sx)),
		int(math.Round(float64(p.Y)*r.sy)),
	)
}

// ScaleRect maps a camera-native rectangle to display coordinates.
func (r *Renderer) ScaleRect(rect image.Rectangle) image.Rectangle {
	return image.Rectangle{Min: r.ScalePoint(rect.Min), Max: r.ScalePoint(rect.Max)}
}

// Render produces one display frame: the camera frame resized to the
// display size, a marker per visible code, and the state border.
func (r *Renderer) Render(frame *gocv.Mat, display *gocv.Mat, codes []scan.Code, state scan.BorderState) {
	gocv.Resize(*frame, display, image.Pt(r.displayWidth, r.displayHeight), 0, 0, gocv.InterpolationLinear)
	r.Draw(display, codes)
	DrawBorder(display, state)
}

// Draw renders one marker per visible code onto the display frame:
// the corner polygon when the detector supplied a full quad, the bounding
// rectangle otherwise, green for targets and yellow for everything else,
// plus a filled serial label.
func (r *Renderer) Draw(display *gocv.Mat, codes []scan.Code) {
	for _, code := range codes {
		col := otherColor
		if code.IsTarget {
			col = targetColor
		}

		marker := r.ScaleRect(code.Bounds)
		if len(code.Corners) == 4 {
			pts := make([]image.Point, len(code.Corners))
			for i, c := range code.Corners {
				pts[i] = r.ScalePoint(c)
			}
			for i := range pts {
				gocv.Line(display, pts[i], pts[(i+1)%len(pts)], col, markerThickness)
			}
		} else {
			gocv.Rectangle(display, marker, col, markerThickness)
		}

		r.drawLabel(display, marker, code.Serial, col)
	}
}

func (r *Renderer) drawLabel(display *gocv.Mat, marker image.Rectangle, serial string, col color.RGBA) {
	text := TruncateLabel(serial)
	size := gocv.GetTextSize(text, fontFace, fontScale, fontThickness)
	bg, origin := LabelRect(marker, size)
	gocv.Rectangle(display, bg, col, -1)
	gocv.PutText(display, text, origin, fontFace, fontScale, labelTextColor, fontThickness)
}

// DrawBorder frames the display in the border state's color. Idle draws
// nothing.
func DrawBorder(display *gocv.Mat, state scan.BorderState) {
	var col color.RGBA
	switch state {
	case scan.BorderSearching:
		col = searchingColor
	case scan.BorderFound:
		col = targetColor
	default:
		return
	}

	frame := image.Rect(0, 0, display.Cols(), display.Rows())
	gocv.Rectangle(display, frame, col, borderThickness)
}

// LabelRect places a label of the given text size against a marker:
// above it when there is room, below otherwise. It returns the filled
// background rectangle and the text origin (baseline left) inside it.
func LabelRect(marker image.Rectangle, textSize image.Point) (image.Rectangle, image.Point) {
	w := textSize.X + 2*labelPad
	h := textSize.Y + 2*labelPad

	bg := image.Rect(marker.Min.X, marker.Min.Y-h, marker.Min.X+w, marker.Min.Y)
	if bg.Min.Y < 0 {
		bg = image.Rect(marker.Min.X, marker.Max.Y, marker.Min.X+w, marker.Max.Y+h)
	}

	origin := image.Pt(bg.Min.X+labelPad, bg.Max.Y-labelPad)
	return bg, origin
}

// TruncateLabel shortens serials past 20 runes with an ellipsis so labels
// stay readable over small codes.
func TruncateLabel(s string) string {
	runes := []rune(s)
	if len(runes) <= maxLabelRunes {
		return s
	}
	return string(runes[:maxLabelRunes]) + "…"
}
