package logic

import (
	"testing"
	"time"
)

func TestDebouncerFirstSampleEstablishesLevel(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(20 * time.Millisecond)

	if got := d.Sample(true, now); !got {
		t.Error("first high sample should establish stable high")
	}
	if !d.Stable() {
		t.Error("Stable() should reflect the established level")
	}

	d = NewDebouncer(20 * time.Millisecond)
	if got := d.Sample(false, now); got {
		t.Error("first low sample should establish stable low")
	}
}

func TestDebouncerGlitchSuppressed(t *testing.T) {
	// A high pulse from t=5ms that reverts at t=8ms must never appear on
	// the stable level with a 20ms window.
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(20 * time.Millisecond)

	samples := []struct {
		atMs int64
		raw  bool
	}{
		{0, false},
		{5, true},
		{8, false},
		{15, false},
		{30, false},
		{100, false},
	}
	for _, s := range samples {
		got := d.Sample(s.raw, now.Add(time.Duration(s.atMs)*time.Millisecond))
		if got {
			t.Errorf("stable level went high at t=%dms, glitch not suppressed", s.atMs)
		}
	}
}

func TestDebouncerChangePropagatesAfterWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(20 * time.Millisecond)

	d.Sample(false, now)
	d.Sample(true, now.Add(5*time.Millisecond))

	if got := d.Sample(true, now.Add(24*time.Millisecond)); got {
		t.Error("change should not propagate before the window elapses")
	}
	if got := d.Sample(true, now.Add(25*time.Millisecond)); !got {
		t.Error("change should propagate once held for the full window")
	}
	if !d.Stable() {
		t.Error("stable level should be high after propagation")
	}
}

func TestDebouncerRestartsWindowOnRevert(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(20 * time.Millisecond)

	d.Sample(false, now)
	d.Sample(true, now.Add(5*time.Millisecond))
	d.Sample(false, now.Add(15*time.Millisecond))
	d.Sample(true, now.Add(18*time.Millisecond))

	// Window restarted at 18ms; 30ms is only 12ms of hold.
	if got := d.Sample(true, now.Add(30*time.Millisecond)); got {
		t.Error("revert inside the window must restart the hold")
	}
	if got := d.Sample(true, now.Add(38*time.Millisecond)); !got {
		t.Error("level held for the full window should propagate")
	}
}

func TestDebouncerZeroWindowPassesThrough(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(0)

	d.Sample(false, now)
	if got := d.Sample(true, now.Add(time.Millisecond)); !got {
		t.Error("zero window should pass raw changes through")
	}
	if got := d.Sample(false, now.Add(2*time.Millisecond)); got {
		t.Error("zero window should pass raw changes through")
	}
}

func TestDebouncerIndependentInstances(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a := NewDebouncer(20 * time.Millisecond)
	b := NewDebouncer(20 * time.Millisecond)

	a.Sample(true, now)
	b.Sample(false, now)

	if !a.Stable() || b.Stable() {
		t.Error("debouncer instances must not share state")
	}
}
