package scan

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/hhoikoo/serial-scanner/internal/capture"
	"github.com/hhoikoo/serial-scanner/internal/detect"
)

// Loop timing constants.
const (
	// DefaultDetectInterval is the detection tick period (10 Hz).
	DefaultDetectInterval = 100 * time.Millisecond
	// DefaultEvalInterval is the evaluation tick period, matching a
	// typical display refresh cadence.
	DefaultEvalInterval = 33 * time.Millisecond
)

// Collaborator errors reported by New.
var (
	// ErrNoCamera is returned when no camera is configured.
	ErrNoCamera = errors.New("no camera configured")
	// ErrNoDetector is returned when no detector is configured.
	ErrNoDetector = errors.New("no detector configured")
)

// Notifier receives session events. Callbacks are delivered from the
// session's loop goroutines, outside the session lock; implementations
// must not block for long.
type Notifier interface {
	// TargetFound fires exactly once per serial per session, carrying the
	// newly found serial and a snapshot of all serials found so far in
	// first-match order.
	TargetFound(serial string, found []string)

	// BorderChanged fires on every border state transition, never on
	// evaluations that keep the state.
	BorderChanged(state BorderState)
}

// Haptic requests a physical pulse when a target is first found.
// Fire and forget; a nil Haptic is silently ignored.
type Haptic interface {
	Pulse()
}

// Config holds configuration options for a scan session.
type Config struct {
	Camera   capture.Camera
	Detector detect.Detector

	// Haptic output for first-match pulses. Optional.
	Haptic Haptic

	// Tick periods and windows; zero values use the defaults.
	DetectInterval time.Duration
	EvalInterval   time.Duration
	VisibleTimeout time.Duration
	FoundHold      time.Duration
}

// Session is one scanning run: it owns the target set, the found set, the
// visible-code tracker and the border state, and runs the detection and
// evaluation loops while active.
//
// The session opens the camera on Start and closes it on Stop. The
// detector's lifetime belongs to the caller; it is shared across sessions
// and closed by whoever created it.
type Session struct {
	config   Config
	camera   capture.Camera
	detector detect.Detector
	haptic   Haptic
	tracker  *Tracker

	mu          sync.RWMutex
	active      bool
	gen         uint64
	targets     map[string]struct{}
	targetOrder []string
	found       map[string]struct{}
	foundOrder  []string
	border      BorderState
	lastFound   time.Time
	stopCh      chan struct{}
	notifiers   []Notifier
}

// New creates a session from the given configuration. The camera and
// detector collaborators are required; a session cannot start without
// them, so their absence is an error here rather than at Start.
func New(config Config) (*Session, error) {
	if config.Camera == nil {
		return nil, ErrNoCamera
	}
	if config.Detector == nil {
		return nil, ErrNoDetector
	}

	if config.DetectInterval <= 0 {
		config.DetectInterval = DefaultDetectInterval
	}
	if config.EvalInterval <= 0 {
		config.EvalInterval = DefaultEvalInterval
	}
	if config.VisibleTimeout <= 0 {
		config.VisibleTimeout = DefaultVisibleTimeout
	}
	if config.FoundHold <= 0 {
		config.FoundHold = DefaultFoundHold
	}

	return &Session{
		config:   config,
		camera:   config.Camera,
		detector: config.Detector,
		haptic:   config.Haptic,
		tracker:  NewTracker(config.VisibleTimeout),
		targets:  make(map[string]struct{}),
		found:    make(map[string]struct{}),
		border:   BorderIdle,
	}, nil
}

// Subscribe registers a notifier for found and border-state events.
func (s *Session) Subscribe(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifiers = append(s.notifiers, n)
}

// Start acquires the camera and launches the detection and evaluation
// loops. Acquisition failures are returned classified (see the capture
// package) and leave the session inactive. Starting an active session is
// a no-op.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return nil
	}

	if err := s.camera.Open(); err != nil {
		return fmt.Errorf("failed to acquire camera: %w", err)
	}

	s.active = true
	s.stopCh = make(chan struct{})
	go s.runDetectLoop(s.stopCh)
	go s.runEvalLoop(s.stopCh)

	log.Println("Scan session started")
	return nil
}

// Stop halts the loops, clears the targets and all derived state, and
// releases the camera. The border drops to idle immediately rather than
// waiting for an evaluation that will never come. Safe to call repeatedly.
func (s *Session) Stop() {
	s.mu.Lock()

	if !s.active {
		s.mu.Unlock()
		return
	}

	s.active = false
	s.gen++
	close(s.stopCh)
	s.stopCh = nil

	s.targets = make(map[string]struct{})
	s.targetOrder = nil
	s.clearDerivedLocked()

	transition := s.border != BorderIdle
	s.border = BorderIdle
	notifiers := append([]Notifier(nil), s.notifiers...)

	if err := s.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	s.mu.Unlock()

	if transition {
		for _, n := range notifiers {
			n.BorderChanged(BorderIdle)
		}
	}

	log.Println("Scan session stopped")
}

// SetTargets replaces the target set wholesale. Found state, visible codes
// and the debounce window are derived from the previous targets and are
// cleared with them; in-flight detection results from before the change
// are dropped. Duplicates keep their first position, empties are ignored.
func (s *Session) SetTargets(serials []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.targets = make(map[string]struct{}, len(serials))
	s.targetOrder = s.targetOrder[:0]
	for _, serial := range serials {
		if serial == "" {
			continue
		}
		if _, dup := s.targets[serial]; dup {
			continue
		}
		s.targets[serial] = struct{}{}
		s.targetOrder = append(s.targetOrder, serial)
	}

	s.gen++
	s.clearDerivedLocked()
}

// Reset clears the found set and every visible code while keeping the
// targets and the scanning state. With targets still defined and scanning
// active, the border becomes searching on the next evaluation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.clearDerivedLocked()
}

// clearDerivedLocked drops everything derived from the current targets:
// the found set, the visible codes and the debounce window. Callers hold
// the lock, so the next tick of either loop cannot observe partial state.
func (s *Session) clearDerivedLocked() {
	s.found = make(map[string]struct{})
	s.foundOrder = nil
	s.tracker.Clear()
	s.lastFound = time.Time{}
}

// Active reports whether the session is currently scanning.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// State returns the current border state.
func (s *Session) State() BorderState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.border
}

// Targets returns the target serials in the order they were set.
func (s *Session) Targets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.targetOrder...)
}

// Found returns the serials found so far, in first-match order.
func (s *Session) Found() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.foundOrder...)
}

// Visible returns the codes currently visible in the feed.
func (s *Session) Visible() []Code {
	return s.tracker.Entries(time.Now())
}

// ParseTargets splits free-form user input into serial numbers. Entries
// are separated by newlines or commas; surrounding whitespace is trimmed,
// empties are dropped and duplicates keep their first position.
func ParseTargets(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})

	seen := make(map[string]struct{}, len(fields))
	targets := make([]string, 0, len(fields))
	for _, field := range fields {
		serial := strings.TrimSpace(field)
		if serial == "" {
			continue
		}
		if _, dup := seen[serial]; dup {
			continue
		}
		seen[serial] = struct{}{}
		targets = append(targets, serial)
	}

	return targets
}
