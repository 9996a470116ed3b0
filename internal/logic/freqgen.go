package logic

import "time"

// minHalfPeriod is the device tick granularity floor.
const minHalfPeriod = time.Millisecond

// HalfPeriod returns the half period of a 50% duty square wave at hz,
// floored at the 1 ms tick granularity. hz must already be clamped.
func HalfPeriod(hz uint16) time.Duration {
	if hz == 0 {
		return minHalfPeriod
	}
	half := time.Duration(500/int64(hz)) * time.Millisecond
	if half < minHalfPeriod {
		half = minHalfPeriod
	}
	return half
}

// TickFrequency advances the software square-wave generator by one poll.
// It clamps freqHz into the valid range, flips the waveform phase when the
// half period has elapsed, and emits the new output level gated by Armed.
//
// A frequency of 0 must be rejected by the caller; 0 Hz means "no waveform"
// and is handled as a driven-low state instead.
func TickFrequency(st *EngineState, freqHz uint16, now time.Time) bool {
	hz := ClampFrequency(freqHz)
	st.CurrentFrequencyHz = hz

	half := HalfPeriod(hz)
	if !now.Before(st.NextToggle) {
		st.WaveformPhase = !st.WaveformPhase
		st.NextToggle = now.Add(half)
	}

	st.OutputLevel = st.Armed && st.WaveformPhase
	return st.OutputLevel
}

// ResetWaveform prepares the generator so the next tick toggles immediately.
func ResetWaveform(st *EngineState, now time.Time) {
	st.WaveformPhase = false
	st.NextToggle = now
	st.OutputLevel = false
}
