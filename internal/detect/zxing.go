package detect

import (
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	qrmulti "github.com/makiuchi-d/gozxing/multi/qrcode"
	"gocv.io/x/gocv"
)

// ZXingDetector detects QR codes with the pure-Go gozxing reader. It works
// without OpenCV's objdetect module, at the cost of converting each frame
// to an image.Image first.
//
// ZXing reports finder-pattern centers rather than code corners, so its
// detections carry a bounding rectangle and no corner quad.
type ZXingDetector struct {
	reader *qrmulti.QRCodeMultiReader
	hints  map[gozxing.DecodeHintType]interface{}
}

// NewZXingDetector creates a detector backed by gozxing's QR multi-reader.
func NewZXingDetector() *ZXingDetector {
	return &ZXingDetector{
		reader: qrmulti.NewQRCodeMultiReader(),
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Detect converts the frame and scans it for QR codes.
func (d *ZXingDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	img, err := frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}

	return d.DetectImage(img)
}

// DetectImage scans a still image for QR codes. Exposed for callers that
// never touch a camera frame, like scanning image files from disk.
func (d *ZXingDetector) DetectImage(img image.Image) ([]Detection, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("failed to binarize image: %w", err)
	}

	results, err := d.reader.DecodeMultiple(bmp, d.hints)
	if err != nil {
		// The reader reports a codeless image as an error; treat it as
		// zero detections rather than a failure.
		return nil, nil
	}

	detections := make([]Detection, 0, len(results))
	for _, res := range results {
		text := res.GetText()
		if text == "" {
			continue
		}

		detections = append(detections, Detection{
			Text:   text,
			Bounds: resultBounds(res.GetResultPoints()),
		})
	}

	return detections, nil
}

// Close is a no-op; the reader holds no native resources.
func (d *ZXingDetector) Close() error {
	return nil
}

// resultBounds returns the axis-aligned envelope of ZXing result points.
// The points sit on finder patterns inside the code, so the envelope is
// slightly smaller than the printed symbol; good enough for highlighting.
func resultBounds(points []gozxing.ResultPoint) image.Rectangle {
	if len(points) == 0 {
		return image.Rectangle{}
	}

	minX, minY := points[0].GetX(), points[0].GetY()
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		x, y := p.GetX(), p.GetY()
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}

	return image.Rect(int(minX), int(minY), int(maxX), int(maxY))
}
