// Package status provides a thread-safe status tracker for the inverter-ctl
// daemon. It is read by HTTP handlers while the control loop writes it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/inverter-ctl/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Profile     string
	Kind        string
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	OutPin      int
	InPin       int
}

// ModeInfo describes one mode table entry for display.
type ModeInfo struct {
	Index       int
	Name        string
	FrequencyHz uint16
	TimeoutS    int64
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	State         string
	ModeIndex     int
	ModeName      string
	Modes         []ModeInfo
	FrequencyHz   uint16
	Armed         bool
	InputLevel    bool
	LimitEnabled  bool
	RemainingMs   int64
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the machine observables. Called from the control loop on
// every tick.
func (t *Tracker) Update(state string, modeIndex int, modeName string, freqHz uint16, armed, input, limit bool, remainingMs int64, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.ModeIndex = modeIndex
	t.snap.ModeName = modeName
	t.snap.FrequencyHz = freqHz
	t.snap.Armed = armed
	t.snap.InputLevel = input
	t.snap.LimitEnabled = limit
	t.snap.RemainingMs = remainingMs
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetConfig replaces the displayed configuration after a profile reload.
func (t *Tracker) SetConfig(cfg Config) {
	t.mu.Lock()
	t.snap.Config = cfg
	t.mu.Unlock()
}

// SetModes replaces the displayed mode table after a profile reload.
func (t *Tracker) SetModes(modes []ModeInfo) {
	t.mu.Lock()
	t.snap.Modes = append([]ModeInfo(nil), modes...)
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
