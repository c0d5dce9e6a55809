package detect

import (
	"image"

	"gocv.io/x/gocv"
)

// OpenCVDetector detects QR codes using OpenCV's built-in detector.
// It is the fastest implementation and reports a full corner quad for
// every code it decodes.
type OpenCVDetector struct {
	qr gocv.QRCodeDetector
}

// NewOpenCVDetector creates a detector backed by OpenCV objdetect.
func NewOpenCVDetector() *OpenCVDetector {
	return &OpenCVDetector{qr: gocv.NewQRCodeDetector()}
}

// Detect runs multi-code detection and decoding on the frame.
// Codes that are located but fail to decode are dropped; there is nothing
// to match without their text.
func (d *OpenCVDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	decoded := []string{}
	points := gocv.NewMat()
	defer points.Close()
	straight := []gocv.Mat{}

	found := d.qr.DetectAndDecodeMulti(*frame, &decoded, &points, &straight)
	for i := range straight {
		straight[i].Close()
	}
	if !found {
		return nil, nil
	}

	detections := make([]Detection, 0, len(decoded))
	for i, text := range decoded {
		if text == "" {
			continue
		}

		det := Detection{Text: text}

		// The points mat carries one row of four corner vectors per code.
		if i < points.Rows() && points.Cols() >= 4 {
			corners := make([]image.Point, 0, 4)
			for c := 0; c < 4; c++ {
				v := points.GetVecfAt(i, c)
				corners = append(corners, image.Pt(int(v[0]), int(v[1])))
			}
			det.Corners = corners
			det.Bounds = quadBounds(corners)
		}

		detections = append(detections, det)
	}

	return detections, nil
}

// Close releases the underlying OpenCV detector.
func (d *OpenCVDetector) Close() error {
	return d.qr.Close()
}
