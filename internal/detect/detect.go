// Package detect locates and decodes QR codes in camera frames.
package detect

import (
	"image"

	"gocv.io/x/gocv"
)

// Detection is a single QR code located in a frame. Text is the raw decoded
// content; geometry is in native frame pixels. Corners holds the four-point
// quadrilateral when the detector supplies one, otherwise it is nil.
// Bounds is always set: the quad's axis-aligned envelope, or the detector's
// own bounding rectangle.
type Detection struct {
	Text    string
	Corners []image.Point
	Bounds  image.Rectangle
}

// Detector defines the interface for QR detection implementations.
type Detector interface {
	// Detect scans a frame and returns every QR code found in it.
	// Returns an empty slice when no codes are present.
	Detect(frame *gocv.Mat) ([]Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// quadBounds returns the axis-aligned envelope of a corner quad.
func quadBounds(corners []image.Point) image.Rectangle {
	if len(corners) == 0 {
		return image.Rectangle{}
	}

	minX, minY := corners[0].X, corners[0].Y
	maxX, maxY := corners[0].X, corners[0].Y
	for _, p := range corners[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	return image.Rect(minX, minY, maxX, maxY)
}
