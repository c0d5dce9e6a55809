package detect

import (
	"image"
	"testing"

	"github.com/skip2/go-qrcode"

	"github.com/hhoikoo/serial-scanner/internal/payload"
)

func TestZXingDetector_RoundTrip(t *testing.T) {
	// Render a real label payload into a QR image
	text, err := payload.Encode("SN-42")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	code, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		t.Fatalf("failed to build QR code: %v", err)
	}
	img := code.Image(256)

	d := NewZXingDetector()
	defer d.Close()

	detections, err := d.DetectImage(img)
	if err != nil {
		t.Fatalf("DetectImage() error = %v", err)
	}
	if len(detections) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(detections))
	}

	// The decoded text must match the payload byte for byte
	if detections[0].Text != text {
		t.Errorf("decoded text = %q, want %q", detections[0].Text, text)
	}

	// The serial must survive the full label -> image -> scan path
	serial, err := payload.Decode(detections[0].Text)
	if err != nil {
		t.Fatalf("scanned payload does not decode: %v", err)
	}
	if serial != "SN-42" {
		t.Errorf("scanned serial = %q, want SN-42", serial)
	}

	// ZXing reports finder-pattern geometry: a rectangle, no corner quad
	if detections[0].Corners != nil {
		t.Errorf("expected no corners from ZXing, got %v", detections[0].Corners)
	}
	frame := image.Rect(0, 0, 256, 256)
	if !detections[0].Bounds.In(frame) {
		t.Errorf("bounds %v fall outside the image %v", detections[0].Bounds, frame)
	}
	if detections[0].Bounds.Dx() <= 0 || detections[0].Bounds.Dy() <= 0 {
		t.Errorf("bounds %v have no area", detections[0].Bounds)
	}
}

func TestZXingDetector_NoCodes(t *testing.T) {
	// A blank image holds no codes; that is not an error
	img := image.NewRGBA(image.Rect(0, 0, 128, 128))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	d := NewZXingDetector()
	defer d.Close()

	detections, err := d.DetectImage(img)
	if err != nil {
		t.Fatalf("DetectImage() error = %v", err)
	}
	if len(detections) != 0 {
		t.Errorf("expected no detections on a blank image, got %d", len(detections))
	}
}

func TestZXingDetector_ImplementsDetector(t *testing.T) {
	var _ Detector = (*ZXingDetector)(nil)
}
