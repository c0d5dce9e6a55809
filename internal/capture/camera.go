// Package capture provides camera capture functionality using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// Default requested capture resolution.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// Acquisition failure categories. Open classifies device failures into
// these so callers can react without parsing driver messages.
var (
	// ErrPermissionDenied is returned when the device exists but access is refused.
	ErrPermissionDenied = errors.New("camera permission denied")
	// ErrDeviceNotFound is returned when no capture device answers at the configured ID.
	ErrDeviceNotFound = errors.New("camera device not found")
	// ErrDeviceBusy is returned when the device is held by another process.
	ErrDeviceBusy = errors.New("camera device busy")
	// ErrUnsupportedResolution is returned when the device opens but cannot
	// deliver frames at any usable resolution.
	ErrUnsupportedResolution = errors.New("camera resolution unsupported")
)

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	// Resolution reports the native frame size the device settled on.
	// Both values are zero before the first successful Open.
	Resolution() (width, height int)
	IsOpen() bool
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	deviceID  int
	reqWidth  int
	reqHeight int
	capture   *gocv.VideoCapture
	mu        sync.Mutex
	running   bool
	width     int
	height    int
}

// NewCamera creates a new Camera for the given device ID requesting the
// given capture resolution. Non-positive dimensions fall back to the
// defaults; the device may settle on a different native resolution, which
// Resolution reports after Open.
func NewCamera(deviceID, width, height int) Camera {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	return &cameraImpl{
		deviceID:  deviceID,
		reqWidth:  width,
		reqHeight: height,
	}
}

// Open opens the camera for capturing frames.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return classifyOpenError(c.deviceID, err)
	}

	// Resolution is a request; the driver answers with what it can do.
	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.reqWidth))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.reqHeight))

	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))
	if width <= 0 || height <= 0 {
		capture.Close()
		return fmt.Errorf("%w: device %d reported %dx%d", ErrUnsupportedResolution, c.deviceID, width, height)
	}

	c.capture = capture
	c.width = width
	c.height = height
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// Resolution returns the native resolution the device settled on.
func (c *cameraImpl) Resolution() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.width, c.height
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// classifyOpenError maps a capture-open failure onto an acquisition
// category. OpenCV reports failures as free text, so the mapping is best
// effort; unrecognized messages are wrapped without a category.
func classifyOpenError(deviceID int, err error) error {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "permission") || strings.Contains(msg, "denied"):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case strings.Contains(msg, "busy") || strings.Contains(msg, "in use"):
		return fmt.Errorf("%w: %v", ErrDeviceBusy, err)
	case strings.Contains(msg, "error opening device") || strings.Contains(msg, "not found") || strings.Contains(msg, "no such"):
		// gocv collapses an absent device into its generic open failure.
		return fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	default:
		return fmt.Errorf("failed to open camera %d: %w", deviceID, err)
	}
}
