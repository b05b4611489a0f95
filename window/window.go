// Package window provides append-and-purge sliding time windows over event
// histories. A window covers [now-span, now]: events exactly span old are
// still counted, older ones are purged lazily on every access.
//
// Windows are not safe for concurrent use; callers serialize access (the
// tracker holds a per-IP lock around every window operation).
package window

import "time"

// EventWindow counts bare events (timestamps) inside a sliding span.
type EventWindow struct {
	span   time.Duration
	events []time.Time
	now    func() time.Time
}

// NewEventWindow creates a window covering the given span.
func NewEventWindow(span time.Duration) *EventWindow {
	return &EventWindow{span: span, now: time.Now}
}

// Record appends an event at the current time and returns the post-purge
// count of events in the window.
func (w *EventWindow) Record() int {
	now := w.now()
	w.purge(now)
	w.events = append(w.events, now)
	return len(w.events)
}

// Count returns the number of events currently in the window.
func (w *EventWindow) Count() int {
	w.purge(w.now())
	return len(w.events)
}

// Clear drops all recorded events.
func (w *EventWindow) Clear() {
	w.events = nil
}

func (w *EventWindow) purge(now time.Time) {
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.events) && w.events[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		w.events = append(w.events[:0], w.events[i:]...)
	}
}

type fingerprintEvent struct {
	fingerprint string
	at          time.Time
}

// FingerprintWindow records (fingerprint, timestamp) pairs inside a sliding
// span. Duplicate fingerprints are retained as separate entries but counted
// once for uniqueness.
type FingerprintWindow struct {
	span   time.Duration
	events []fingerprintEvent
	now    func() time.Time
}

// NewFingerprintWindow creates a window covering the given span.
func NewFingerprintWindow(span time.Duration) *FingerprintWindow {
	return &FingerprintWindow{span: span, now: time.Now}
}

// Record appends a fingerprint at the current time and returns the post-purge
// count of distinct fingerprints in the window.
func (w *FingerprintWindow) Record(fingerprint string) int {
	now := w.now()
	w.purge(now)
	w.events = append(w.events, fingerprintEvent{fingerprint: fingerprint, at: now})
	return w.distinct()
}

// Distinct returns the number of distinct fingerprints currently in the
// window.
func (w *FingerprintWindow) Distinct() int {
	w.purge(w.now())
	return w.distinct()
}

// Clear drops all recorded fingerprints.
func (w *FingerprintWindow) Clear() {
	w.events = nil
}

func (w *FingerprintWindow) distinct() int {
	seen := make(map[string]struct{}, len(w.events))
	for _, e := range w.events {
		seen[e.fingerprint] = struct{}{}
	}
	return len(seen)
}

func (w *FingerprintWindow) purge(now time.Time) {
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.events) && w.events[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.events = append(w.events[:0], w.events[i:]...)
	}
}
