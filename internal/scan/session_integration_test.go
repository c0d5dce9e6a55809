package scan

import (
	"reflect"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/hhoikoo/serial-scanner/internal/capture"
	"github.com/hhoikoo/serial-scanner/internal/detect"
)

// slowDetector delays every detection pass so results land after the
// caller has moved on.
type slowDetector struct {
	inner detect.Detector
	delay time.Duration
}

func (d *slowDetector) Detect(frame *gocv.Mat) ([]detect.Detection, error) {
	time.Sleep(d.delay)
	return d.inner.Detect(frame)
}

func (d *slowDetector) Close() error { return d.inner.Close() }

func TestSession_Pipeline_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	// Setup a camera looping one blank frame; the mock detector decides
	// what the frame "contains".
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)

	det := detect.NewMockDetector()
	det.SetDetections([]detect.Detection{
		detect.LabelDetection("SN-42", 100, 100, 80),
		detect.ForeignDetection("WIFI:S:guest;;", 300, 100, 60),
	})

	haptic := &countingHaptic{}
	s, err := New(Config{
		Camera:         cam,
		Detector:       det,
		Haptic:         haptic,
		DetectInterval: 10 * time.Millisecond,
		EvalInterval:   5 * time.Millisecond,
		VisibleTimeout: 100 * time.Millisecond,
		FoundHold:      30 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec := &recordingNotifier{}
	s.Subscribe(rec)

	s.SetTargets([]string{"SN-42", "SN-99"})

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	if !s.Active() {
		t.Fatal("session should be active after Start")
	}

	// Let the loops run through several detection and evaluation ticks
	time.Sleep(150 * time.Millisecond)

	// SN-42 is found once with the ordered snapshot, SN-99 never appears
	records := rec.foundRecords()
	if len(records) != 1 {
		t.Fatalf("expected 1 found notification, got %d: %v", len(records), records)
	}
	if records[0].serial != "SN-42" || !reflect.DeepEqual(records[0].snapshot, []string{"SN-42"}) {
		t.Errorf("found notification = %+v, want SN-42 with [SN-42]", records[0])
	}
	if got := s.Found(); !reflect.DeepEqual(got, []string{"SN-42"}) {
		t.Errorf("Found() = %v, want [SN-42]", got)
	}
	if haptic.count() != 1 {
		t.Errorf("haptic pulses = %d, want 1", haptic.count())
	}
	if s.State() != BorderFound {
		t.Errorf("state = %v, want found while target visible", s.State())
	}

	// The label is tracked, the foreign code is not
	visible := s.Visible()
	if len(visible) != 1 || visible[0].Serial != "SN-42" || !visible[0].IsTarget {
		t.Errorf("Visible() = %+v, want the SN-42 target only", visible)
	}

	// Take the code out of view: after the visibility timeout and the
	// debounce hold the border returns to searching
	det.SetDetections(nil)
	time.Sleep(200 * time.Millisecond)

	if s.State() != BorderSearching {
		t.Errorf("state after code left view = %v, want searching", s.State())
	}
	if len(s.Visible()) != 0 {
		t.Errorf("Visible() = %v, want empty after timeout", s.Visible())
	}

	// Stop drops to idle, clears the targets and releases the camera
	s.Stop()

	if s.Active() {
		t.Error("session should be inactive after Stop")
	}
	if s.State() != BorderIdle {
		t.Errorf("state after Stop = %v, want idle", s.State())
	}
	if cam.IsOpen() {
		t.Error("camera should be closed after Stop")
	}
	if len(s.Targets()) != 0 {
		t.Errorf("Targets() after Stop = %v, want empty", s.Targets())
	}
	if len(s.Found()) != 0 {
		t.Errorf("Found() after Stop = %v, want empty", s.Found())
	}

	want := []BorderState{BorderSearching, BorderFound, BorderSearching, BorderIdle}
	if got := rec.borderRecords(); !reflect.DeepEqual(got, want) {
		t.Errorf("border transitions = %v, want %v", got, want)
	}
}

func TestSession_Pipeline_Restart(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)

	det := detect.NewMockDetector()
	det.SetDetections([]detect.Detection{detect.LabelDetection("BOX-0001", 50, 50, 80)})

	s, err := New(Config{
		Camera:         cam,
		Detector:       det,
		DetectInterval: 10 * time.Millisecond,
		EvalInterval:   5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// First run
	s.SetTargets([]string{"BOX-0001"})
	if err := s.Start(); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if got := s.Found(); !reflect.DeepEqual(got, []string{"BOX-0001"}) {
		t.Fatalf("first run Found() = %v, want [BOX-0001]", got)
	}
	s.Stop()

	// Stop is idempotent
	s.Stop()

	// Second run on the same session finds the serial again
	s.SetTargets([]string{"BOX-0001"})
	if err := s.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	if got := s.Found(); !reflect.DeepEqual(got, []string{"BOX-0001"}) {
		t.Errorf("second run Found() = %v, want [BOX-0001]", got)
	}
}

func TestSession_Pipeline_StaleResultAfterStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)

	inner := detect.NewMockDetector()
	inner.SetDetections([]detect.Detection{detect.LabelDetection("SN-1", 10, 10, 50)})

	haptic := &countingHaptic{}
	s, err := New(Config{
		Camera:         cam,
		Detector:       &slowDetector{inner: inner, delay: 50 * time.Millisecond},
		Haptic:         haptic,
		DetectInterval: 10 * time.Millisecond,
		EvalInterval:   5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec := &recordingNotifier{}
	s.Subscribe(rec)

	s.SetTargets([]string{"SN-1"})
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Stop while the first detection pass is still in flight
	time.Sleep(15 * time.Millisecond)
	s.Stop()

	// Let the in-flight pass finish and try to land its result
	time.Sleep(100 * time.Millisecond)

	if got := s.Found(); len(got) != 0 {
		t.Errorf("Found() = %v, want empty after stale result", got)
	}
	if got := rec.foundRecords(); len(got) != 0 {
		t.Errorf("found notifications = %v, want none", got)
	}
	if haptic.count() != 0 {
		t.Errorf("haptic pulses = %d, want 0", haptic.count())
	}
}
