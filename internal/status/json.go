package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string          `json:"event,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	State         string          `json:"state"`
	Mode          ModeJSON        `json:"mode"`
	Modes         []ModeEntryJSON `json:"modes"`
	FrequencyHz   uint16          `json:"frequency_hz"`
	Armed         bool            `json:"armed"`
	InputLevel    bool            `json:"input_level"`
	LimitEnabled  bool            `json:"limit_enabled"`
	RemainingMs   int64           `json:"remaining_ms"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	StartTime     string          `json:"start_time"`
	Timestamp     string          `json:"timestamp"`
	MQTT          MQTTStatus      `json:"mqtt"`
	Counts        CountsJSON      `json:"event_counts"`
	Config        ConfigJSON      `json:"config"`
}

// ModeJSON identifies the active mode table entry.
type ModeJSON struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// ModeEntryJSON is one mode table entry.
type ModeEntryJSON struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	FrequencyHz uint16 `json:"frequency_hz"`
	TimeoutS    int64  `json:"timeout_s"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	PowerCycles    int `json:"power_cycles"`
	ModeChanges    int `json:"mode_changes"`
	InterlockTrips int `json:"interlock_trips"`
	AutoShutoffs   int `json:"auto_shutoffs"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Profile     string `json:"profile"`
	Kind        string `json:"kind"`
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	OutPin      int    `json:"out_pin"`
	InPin       int    `json:"in_pin"`
}

func buildInner(snap Snapshot) StatusInner {
	state := snap.State
	if state == "" {
		state = "UNKNOWN"
	}

	modes := make([]ModeEntryJSON, len(snap.Modes))
	for i, m := range snap.Modes {
		modes[i] = ModeEntryJSON{Index: m.Index, Name: m.Name, FrequencyHz: m.FrequencyHz, TimeoutS: m.TimeoutS}
	}

	return StatusInner{
		State:         state,
		Mode:          ModeJSON{Index: snap.ModeIndex, Name: snap.ModeName},
		Modes:         modes,
		FrequencyHz:   snap.FrequencyHz,
		Armed:         snap.Armed,
		InputLevel:    snap.InputLevel,
		LimitEnabled:  snap.LimitEnabled,
		RemainingMs:   snap.RemainingMs,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			PowerCycles:    snap.Counts.PowerCycles,
			ModeChanges:    snap.Counts.ModeChanges,
			InterlockTrips: snap.Counts.InterlockTrips,
			AutoShutoffs:   snap.Counts.AutoShutoffs,
		},
		Config: ConfigJSON{
			Profile:     snap.Config.Profile,
			Kind:        snap.Config.Kind,
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			OutPin:      snap.Config.OutPin,
			InPin:       snap.Config.InPin,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
