package detect

import (
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/hhoikoo/serial-scanner/internal/payload"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu         sync.Mutex
	detections []Detection
	err        error
	calls      int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetDetections sets the detections that will be returned by Detect.
func (m *MockDetector) SetDetections(detections []Detection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detections = detections
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured detections or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.detections, nil
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// QuadAt returns the corner quad of an axis-aligned square with the given
// top-left position and side length, in top-left clockwise order.
func QuadAt(x, y, size int) []image.Point {
	return []image.Point{
		image.Pt(x, y),
		image.Pt(x+size, y),
		image.Pt(x+size, y+size),
		image.Pt(x, y+size),
	}
}

// LabelDetection returns a detection carrying a valid label payload for the
// given serial, placed as a size x size quad at (x, y). The serial must be
// non-empty.
func LabelDetection(serial string, x, y, size int) Detection {
	text, _ := payload.Encode(serial)
	corners := QuadAt(x, y, size)

	return Detection{
		Text:    text,
		Corners: corners,
		Bounds:  quadBounds(corners),
	}
}

// ForeignDetection returns a detection whose text is arbitrary third-party
// QR content, placed as a bounding rectangle at (x, y).
func ForeignDetection(text string, x, y, size int) Detection {
	return Detection{
		Text:   text,
		Bounds: image.Rect(x, y, x+size, y+size),
	}
}
