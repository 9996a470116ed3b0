// Package logic contains pure control logic for the inverter drive.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Frequency limits of the CF10B-class inverter drive input.
// 66 Hz = 1980 RPM, 150 Hz = 4500 RPM at 30 RPM per Hz.
const (
	MinFrequencyHz uint16 = 66
	MaxFrequencyHz uint16 = 150
)

// ProfileKind selects how the output line talks to the inverter.
type ProfileKind string

const (
	// KindFrequency drives a variable-frequency square wave on the output pin.
	KindFrequency ProfileKind = "frequency"
	// KindSerial commands the inverter with CF10B serial frames; the output
	// pin stays at its safe level.
	KindSerial ProfileKind = "serial"
	// KindDropin observes the input only and never drives the output.
	KindDropin ProfileKind = "dropin"
)

// OutputProfile describes the wiring and safety rules for the single
// output/input pair. It is owned by configuration and treated as read-only
// by the control core during a tick.
type OutputProfile struct {
	Name             string
	Kind             ProfileKind
	ActiveHigh       bool
	Debounce         time.Duration
	FrequencyHz      uint16 // default drive frequency; mode table overrides
	DutyPercent      uint8  // stored for future use; frequency mode always drives 50%
	InterlockEnabled bool
	BootAllOff       bool
}

// Mode is one entry of the per-variant mode table.
type Mode struct {
	Name        string
	FrequencyHz uint16        // 0 = no waveform (standby drive)
	BlinkHz     uint8         // indicator blink rate, 0 = off
	Timeout     time.Duration // auto-shutoff when runtime limiting is on, 0 = unlimited
}

// EngineState is the live electrical state of the drive. It is owned
// exclusively by the control core and mutated only on the control goroutine.
type EngineState struct {
	OutputLevel        bool // logical level last emitted (before wiring inversion)
	InputLevel         bool // debounced interlock input
	NextToggle         time.Time
	WaveformPhase      bool
	CurrentFrequencyHz uint16
	Armed              bool
}

// EventType represents a control transition to be published.
type EventType string

const (
	EventPowerOn        EventType = "POWER_ON"
	EventPowerOff       EventType = "POWER_OFF"
	EventModeChange     EventType = "MODE_CHANGE"
	EventInterlockTrip  EventType = "INTERLOCK_TRIP"
	EventAutoShutoff    EventType = "AUTO_SHUTOFF"
	EventProfileApplied EventType = "PROFILE_APPLIED"
)

// Event represents a control transition to be published.
type Event struct {
	Timestamp   time.Time
	Type        EventType
	Mode        string
	FrequencyHz uint16
	Armed       bool
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	PowerCycles    int
	ModeChanges    int
	InterlockTrips int
	AutoShutoffs   int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}

// ClampFrequency clamps hz into the valid inverter range. Callers must clamp
// before any period computation.
func ClampFrequency(hz uint16) uint16 {
	if hz < MinFrequencyHz {
		return MinFrequencyHz
	}
	if hz > MaxFrequencyHz {
		return MaxFrequencyHz
	}
	return hz
}
