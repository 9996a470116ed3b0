package logic

import "time"

// Debouncer converts a raw, possibly noisy digital level into a stable
// logical level. A raw change only propagates to the stable level after the
// level has held for the full window; a change that reverts inside the
// window is never observable.
//
// State is per instance so multiple input channels can each be debounced
// independently.
type Debouncer struct {
	window      time.Duration
	initialized bool
	stable      bool
	lastRaw     bool
	lastChange  time.Time
}

// NewDebouncer creates a Debouncer with the given settle window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Sample feeds one raw reading and returns the current stable level.
// The first sample establishes the initial stable level directly.
func (d *Debouncer) Sample(raw bool, now time.Time) bool {
	if !d.initialized {
		d.initialized = true
		d.stable = raw
		d.lastRaw = raw
		d.lastChange = now
		return d.stable
	}

	if raw != d.lastRaw {
		d.lastRaw = raw
		d.lastChange = now
	}

	if now.Sub(d.lastChange) >= d.window {
		d.stable = raw
	}

	return d.stable
}

// Stable returns the last stable level without consuming a sample.
func (d *Debouncer) Stable() bool {
	return d.stable
}
