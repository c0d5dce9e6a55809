package scan

import (
	"time"

	"github.com/hhoikoo/serial-scanner/internal/detect"
	"github.com/hhoikoo/serial-scanner/internal/payload"
)

// runDetectLoop fires a detection pass at the detection cadence until the
// session stops.
func (s *Session) runDetectLoop(stopCh chan struct{}) {
	ticker := time.NewTicker(s.config.DetectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.detectTick()
		}
	}
}

// detectTick launches one asynchronous detection pass. Passes may overlap
// when detection runs longer than a tick; the generation captured here
// keeps late results from leaking past a stop, reset or target change.
func (s *Session) detectTick() {
	s.mu.RLock()
	active := s.active
	gen := s.gen
	s.mu.RUnlock()

	if !active || !s.camera.IsOpen() {
		return
	}

	go func() {
		frame, err := s.camera.ReadFrame()
		if err != nil {
			// Transient; the next tick is the retry.
			return
		}

		detections, err := s.detector.Detect(frame)
		frame.Close()
		if err != nil {
			// Swallowed per tick: an empty result, not a failure.
			return
		}

		s.applyDetections(detections, gen, time.Now())
	}()
}

// applyDetections folds one detection pass into session state. Each code
// is decoded through the payload codec; text that is not a valid label is
// silently discarded. First-time target matches grow the found set, pulse
// the haptic output and notify subscribers with the ordered found
// snapshot.
func (s *Session) applyDetections(detections []detect.Detection, gen uint64, now time.Time) {
	type foundEvent struct {
		serial string
		found  []string
	}

	s.mu.Lock()

	// Results raced against a stop, reset or target change are stale.
	if !s.active || gen != s.gen {
		s.mu.Unlock()
		return
	}

	var events []foundEvent
	for _, det := range detections {
		serial, err := payload.Decode(det.Text)
		if err != nil {
			continue
		}

		_, isTarget := s.targets[serial]
		s.tracker.Upsert(serial, det.Corners, det.Bounds, isTarget, now)

		if !isTarget {
			continue
		}
		if _, already := s.found[serial]; already {
			continue
		}

		s.found[serial] = struct{}{}
		s.foundOrder = append(s.foundOrder, serial)
		events = append(events, foundEvent{
			serial: serial,
			found:  append([]string(nil), s.foundOrder...),
		})
	}

	notifiers := append([]Notifier(nil), s.notifiers...)
	haptic := s.haptic
	s.mu.Unlock()

	for _, ev := range events {
		if haptic != nil {
			haptic.Pulse()
		}
		for _, n := range notifiers {
			n.TargetFound(ev.serial, ev.found)
		}
	}
}

// runEvalLoop prunes and re-evaluates the border at the evaluation
// cadence until the session stops.
func (s *Session) runEvalLoop(stopCh chan struct{}) {
	ticker := time.NewTicker(s.config.EvalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.evaluate(time.Now())
		}
	}
}

// evaluate runs one evaluation pass: expired codes are pruned, a live
// target sighting refreshes the debounce window, and the border state is
// recomputed. Subscribers hear about transitions only.
func (s *Session) evaluate(now time.Time) {
	s.mu.Lock()

	s.tracker.PruneExpired(now)

	targetVisible := s.tracker.HasLiveTarget(now)
	if targetVisible {
		s.lastFound = now
	}

	next := nextBorderState(len(s.targets) > 0, s.active, targetVisible, s.lastFound, s.config.FoundHold, now)
	transition := next != s.border
	s.border = next
	notifiers := append([]Notifier(nil), s.notifiers...)

	s.mu.Unlock()

	if transition {
		for _, n := range notifiers {
			n.BorderChanged(next)
		}
	}
}
