// Package scan drives the box-locating scanner session: target and found
// bookkeeping, the visible-code tracker, the border feedback state machine,
// and the detection and evaluation loops that tie them together.
package scan

import (
	"image"
	"sort"
	"sync"
	"time"
)

// DefaultVisibleTimeout is how long a code stays visible after its last
// sighting. Codes intermittently missed for less than this still render
// continuously; this is the only place per-frame detection noise is
// absorbed.
const DefaultVisibleTimeout = 500 * time.Millisecond

// Code is a QR code currently visible in the camera feed. Geometry is in
// native frame pixels: Corners carries the full quad when the detector
// supplied one, Bounds is always set.
type Code struct {
	Serial   string
	Corners  []image.Point
	Bounds   image.Rectangle
	IsTarget bool
	LastSeen time.Time
}

// Tracker keeps the set of codes visible in the camera feed, keyed by
// serial. Entries expire once their last sighting is older than the
// timeout; eviction is lazy, driven by reads and the evaluation tick,
// never by a background timer.
type Tracker struct {
	mu      sync.Mutex
	codes   map[string]Code
	timeout time.Duration
}

// NewTracker creates a tracker with the given visibility timeout.
// Non-positive timeouts fall back to the default.
func NewTracker(timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = DefaultVisibleTimeout
	}

	return &Tracker{
		codes:   make(map[string]Code),
		timeout: timeout,
	}
}

// Upsert records a sighting of a code at the given instant, refreshing
// its geometry and target flag.
func (t *Tracker) Upsert(serial string, corners []image.Point, bounds image.Rectangle, isTarget bool, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.codes[serial] = Code{
		Serial:   serial,
		Corners:  corners,
		Bounds:   bounds,
		IsTarget: isTarget,
		LastSeen: now,
	}
}

// PruneExpired removes entries whose last sighting is older than the
// timeout as of now.
func (t *Tracker) PruneExpired(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneLocked(now)
}

func (t *Tracker) pruneLocked(now time.Time) {
	for serial, code := range t.codes {
		if now.Sub(code.LastSeen) > t.timeout {
			delete(t.codes, serial)
		}
	}
}

// Entries returns a copy of the codes still visible at the given instant,
// sorted by serial for stable iteration. Expired entries are pruned before
// the copy is taken, so callers never observe stale codes.
func (t *Tracker) Entries(now time.Time) []Code {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneLocked(now)

	entries := make([]Code, 0, len(t.codes))
	for _, code := range t.codes {
		entries = append(entries, code)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Serial < entries[j].Serial
	})

	return entries
}

// HasLiveTarget reports whether any unexpired entry is a target match at
// the given instant. Expired entries are pruned first.
func (t *Tracker) HasLiveTarget(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneLocked(now)

	for _, code := range t.codes {
		if code.IsTarget {
			return true
		}
	}
	return false
}

// Clear drops every entry.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.codes = make(map[string]Code)
}
