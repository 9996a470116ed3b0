// Package machine implements the top-level mode state machine of the
// inverter drive: Safe (high impedance), Standby (driven low) and Running
// (active waveform or serial-commanded), with interlock enforcement and
// per-mode auto-shutoff.
//
// A Machine is not safe for concurrent use. All operations run on the
// control goroutine; the only cross-goroutine state is the Countdown's
// scalar counter and expiry flag.
package machine

import (
	"log"
	"time"

	"github.com/sweeney/inverter-ctl/internal/cf10b"
	"github.com/sweeney/inverter-ctl/internal/logic"
)

// State names the machine's coarse electrical state.
type State string

const (
	// StateSafe holds the output high impedance; nothing is powered.
	StateSafe State = "SAFE"
	// StateStandby drives the safe level; modes are selectable.
	StateStandby State = "STANDBY"
	// StateRunning drives the active mode's waveform or serial speed.
	StateRunning State = "RUNNING"
)

// Transmitter carries CF10B frames for serial profiles. Transport is an
// external collaborator; the machine only produces bytes.
type Transmitter interface {
	Transmit(frame cf10b.Frame) error
}

// Option configures a Machine.
type Option func(*Machine)

// WithExpiryTarget sets the state the machine reverts to when the runtime
// limit expires. The two original device variants diverge here: the
// frequency-drive tool reverts to Standby, the menu-driven one powers off.
// Default is StateStandby.
func WithExpiryTarget(target State) Option {
	return func(m *Machine) { m.expiryTarget = target }
}

// WithTransmitter sets the frame sink used by serial profiles.
func WithTransmitter(tx Transmitter) Option {
	return func(m *Machine) { m.tx = tx }
}

// Machine is the top-level controller for one output/input pair.
type Machine struct {
	pin     *PinController
	profile logic.OutputProfile
	modes   []logic.Mode

	deb       *logic.Debouncer
	st        logic.EngineState
	countdown *Countdown

	state        State
	activeMode   int
	limitEnabled bool
	blinkHz      uint8
	expiryTarget State
	tx           Transmitter

	counts        logic.EventCounts
	startTime     time.Time
	lastHeartbeat time.Time
}

// New creates a Machine in the Safe state with the output released high
// impedance (absolute safety at start). Runtime limiting defaults to on.
func New(pin *PinController, profile logic.OutputProfile, modes []logic.Mode, startTime time.Time, opts ...Option) *Machine {
	m := &Machine{
		pin:           pin,
		profile:       profile,
		modes:         modes,
		deb:           logic.NewDebouncer(profile.Debounce),
		countdown:     NewCountdown(),
		state:         StateSafe,
		limitEnabled:  true,
		expiryTarget:  StateStandby,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.pin.ToHighImpedance()
	return m
}

// PowerOn transitions Safe to Standby: output driven to the safe level,
// countdown reset, waveform disarmed. A no-op outside Safe.
func (m *Machine) PowerOn(now time.Time) []logic.Event {
	if m.state != StateSafe {
		return nil
	}
	m.counts.PowerCycles++
	m.enterStandby(now)
	return []logic.Event{m.event(logic.EventPowerOn, now)}
}

// PowerOff transitions any powered state to Safe: waveform stopped, serial
// drives commanded to zero speed, output released high impedance, countdown
// cancelled. A no-op when already Safe.
func (m *Machine) PowerOff(now time.Time) []logic.Event {
	if m.state == StateSafe {
		return nil
	}
	m.countdown.Stop()
	m.countdown.ClearExpired()
	if m.profile.Kind == logic.KindSerial {
		m.sendSpeed(0)
	}
	m.st = logic.EngineState{InputLevel: m.st.InputLevel}
	m.blinkHz = 0
	m.activeMode = 0
	m.pin.ToHighImpedance()
	m.state = StateSafe
	return []logic.Event{m.event(logic.EventPowerOff, now)}
}

// ApplyMode selects the mode at idx. Out-of-range indices and calls from
// Safe are ignored commands, not errors. Re-applying the current mode is
// re-entrant safe: the final state matches a single application and no
// duplicate timers are armed.
func (m *Machine) ApplyMode(idx int, now time.Time) []logic.Event {
	if m.state == StateSafe {
		log.Printf("machine: mode %d ignored while unpowered", idx)
		return nil
	}
	if idx < 0 || idx >= len(m.modes) {
		log.Printf("machine: mode %d out of range, ignored", idx)
		return nil
	}
	if m.profile.Kind == logic.KindDropin {
		log.Printf("machine: mode %d ignored in drop-in profile", idx)
		return nil
	}

	m.activeMode = idx
	mode := m.modes[idx]
	m.blinkHz = mode.BlinkHz

	if mode.FrequencyHz == 0 {
		// Standby entry: no waveform, safe drive, no countdown.
		m.state = StateStandby
		m.st.Armed = false
		logic.ResetWaveform(&m.st, now)
		m.st.CurrentFrequencyHz = 0
		m.standbyDrive()
		if m.profile.Kind == logic.KindSerial {
			m.sendSpeed(0)
		}
		m.countdown.Stop()
		m.countdown.ClearExpired()
	} else {
		m.state = StateRunning
		armed := logic.AllowedToDrive(m.deb.Stable(), m.profile.InterlockEnabled)
		hz := logic.ClampFrequency(mode.FrequencyHz)
		m.st.CurrentFrequencyHz = hz
		logic.ResetWaveform(&m.st, now)
		m.st.Armed = armed

		switch m.profile.Kind {
		case logic.KindSerial:
			m.standbyDrive()
			if armed {
				m.sendSpeed(uint16(hz) * cf10b.RPMPerHz)
			}
		default:
			if armed {
				m.pin.ToActiveWaveform(hz)
			} else {
				m.pin.ToDrivenLow()
			}
		}

		m.startOrRestartCountdown(mode)
	}

	m.counts.ModeChanges++
	return []logic.Event{m.event(logic.EventModeChange, now)}
}

// SetLimitRuntime toggles per-mode auto-shutoff. Disabling while Running
// cancels the timers immediately; enabling restarts them from the current
// mode's full configured duration, not the elapsed remainder.
func (m *Machine) SetLimitRuntime(enabled bool, now time.Time) {
	if m.limitEnabled == enabled {
		return
	}
	m.limitEnabled = enabled
	if m.state != StateRunning {
		return
	}
	if !enabled {
		m.countdown.Stop()
		m.countdown.ClearExpired()
		return
	}
	m.startOrRestartCountdown(m.modes[m.activeMode])
}

// ApplyProfile hot-reloads the output profile: pin directions are
// re-initialized, the debouncer restarts with the new window, and the
// output must be explicitly re-armed from Standby. Profiles with
// BootAllOff force the Safe state.
func (m *Machine) ApplyProfile(p logic.OutputProfile, now time.Time) []logic.Event {
	m.profile = p
	m.deb = logic.NewDebouncer(p.Debounce)
	m.pin.SetWiring(p.ActiveHigh)
	m.countdown.Stop()
	m.countdown.ClearExpired()
	m.st = logic.EngineState{}
	m.blinkHz = 0
	m.activeMode = 0

	if p.BootAllOff || m.state == StateSafe {
		m.pin.ToHighImpedance()
		m.state = StateSafe
	} else {
		m.state = StateStandby
		m.standbyDrive()
	}
	return []logic.Event{m.event(logic.EventProfileApplied, now)}
}

// SetModeTable replaces the mode table. Callers apply it together with
// ApplyProfile, which resets the active mode index first.
func (m *Machine) SetModeTable(modes []logic.Mode) {
	m.modes = modes
	if m.activeMode >= len(modes) {
		m.activeMode = 0
	}
}

// Tick runs one control poll: debounce the raw input, enforce the
// interlock, drain a pending timeout expiry, and advance the software
// waveform. All pin mutations happen here or in the explicit operations,
// never in timer callbacks.
func (m *Machine) Tick(now time.Time, rawInput bool) []logic.Event {
	stable := m.deb.Sample(rawInput, now)
	m.st.InputLevel = stable

	var events []logic.Event

	if !logic.AllowedToDrive(stable, m.profile.InterlockEnabled) && m.st.Armed {
		// Blocked: disarm and force the safe drive without changing the
		// selected mode. Re-arm requires an explicit mode selection.
		m.st.Armed = false
		m.st.OutputLevel = false
		m.countdown.Stop()
		m.countdown.ClearExpired()
		if m.state == StateRunning {
			if m.profile.Kind == logic.KindSerial {
				m.sendSpeed(0)
			} else {
				m.pin.ToDrivenLow()
			}
		}
		m.counts.InterlockTrips++
		events = append(events, m.event(logic.EventInterlockTrip, now))
	}

	if m.countdown.TakeExpired() && m.state == StateRunning {
		m.counts.AutoShutoffs++
		if m.expiryTarget == StateSafe {
			events = append(events, m.PowerOff(now)...)
		} else {
			m.countdown.Stop()
			if m.profile.Kind == logic.KindSerial {
				m.sendSpeed(0)
			}
			m.state = StateStandby
			m.st.Armed = false
			logic.ResetWaveform(&m.st, now)
			m.st.CurrentFrequencyHz = 0
			m.activeMode = 0
			m.blinkHz = 0
			m.standbyDrive()
		}
		events = append(events, m.event(logic.EventAutoShutoff, now))
	}

	if m.state == StateRunning && m.st.Armed &&
		m.profile.Kind == logic.KindFrequency && !m.pin.Hardware() {
		if hz := m.modes[m.activeMode].FrequencyHz; hz > 0 {
			m.pin.Drive(logic.TickFrequency(&m.st, hz, now))
		}
	}

	return events
}

// Apply dispatches a queued command from an external surface (HTTP, UI).
func (m *Machine) Apply(cmd Command, now time.Time) []logic.Event {
	switch cmd.Kind {
	case CmdPowerOn:
		return m.PowerOn(now)
	case CmdPowerOff:
		return m.PowerOff(now)
	case CmdApplyMode:
		return m.ApplyMode(cmd.Mode, now)
	case CmdSetLimit:
		m.SetLimitRuntime(cmd.Enabled, now)
		return nil
	default:
		log.Printf("machine: unknown command %q ignored", cmd.Kind)
		return nil
	}
}

// enterStandby is the Standby transition shared by PowerOn and expiry.
func (m *Machine) enterStandby(now time.Time) {
	m.countdown.Stop()
	m.countdown.ClearExpired()
	m.state = StateStandby
	m.st.Armed = false
	logic.ResetWaveform(&m.st, now)
	m.st.CurrentFrequencyHz = 0
	m.activeMode = 0
	m.blinkHz = 0
	m.standbyDrive()
}

// standbyDrive applies the safe drive for the profile kind: drop-in
// profiles never drive the line, serial profiles hold the safe level and
// are stopped with a zero-speed frame by their callers.
func (m *Machine) standbyDrive() {
	if m.profile.Kind == logic.KindDropin {
		m.pin.ToHighImpedance()
		return
	}
	m.pin.ToDrivenLow()
}

// startOrRestartCountdown arms the timer lines only when Running, armed,
// runtime limiting is enabled, and the mode configures a timeout.
func (m *Machine) startOrRestartCountdown(mode logic.Mode) {
	if m.state == StateRunning && m.st.Armed && m.limitEnabled && mode.Timeout > 0 {
		m.countdown.Start(mode.Timeout)
		return
	}
	m.countdown.Stop()
	m.countdown.ClearExpired()
}

func (m *Machine) sendSpeed(rpm uint16) {
	frame := cf10b.BuildSetSpeed(rpm)
	if m.tx == nil {
		// No transport wired: leave a trace of what would go on the line.
		log.Printf("machine: set-speed %d rpm, frame % X (no transmitter)", rpm, frame[:])
		return
	}
	if err := m.tx.Transmit(frame); err != nil {
		log.Printf("machine: transmit set-speed %d: %v", rpm, err)
	}
}

func (m *Machine) event(t logic.EventType, now time.Time) logic.Event {
	name := ""
	if m.activeMode >= 0 && m.activeMode < len(m.modes) {
		name = m.modes[m.activeMode].Name
	}
	return logic.Event{
		Timestamp:   now,
		Type:        t,
		Mode:        name,
		FrequencyHz: m.st.CurrentFrequencyHz,
		Armed:       m.st.Armed,
	}
}

// State returns the coarse machine state.
func (m *Machine) State() State { return m.state }

// ActiveModeIndex returns the selected mode table index.
func (m *Machine) ActiveModeIndex() int { return m.activeMode }

// ActiveModeName returns the selected mode's name, or "" without a table.
func (m *Machine) ActiveModeName() string {
	if m.activeMode >= 0 && m.activeMode < len(m.modes) {
		return m.modes[m.activeMode].Name
	}
	return ""
}

// CurrentFrequencyHz returns the clamped drive frequency, 0 when idle.
func (m *Machine) CurrentFrequencyHz() uint16 { return m.st.CurrentFrequencyHz }

// Armed reports whether the output currently reflects the active mode.
func (m *Machine) Armed() bool { return m.st.Armed }

// InputLevel returns the debounced interlock input level.
func (m *Machine) InputLevel() bool { return m.st.InputLevel }

// RemainingMs returns the countdown display counter.
func (m *Machine) RemainingMs() int64 { return m.countdown.RemainingMs() }

// LimitEnabled reports whether per-mode auto-shutoff is on.
func (m *Machine) LimitEnabled() bool { return m.limitEnabled }

// Counts returns a copy of the event counters.
func (m *Machine) Counts() logic.EventCounts { return m.counts }

// IndicatorLevel derives the indicator LED level for the current mode's
// blink rate from the tick time, so the LED pin is only ever written from
// the control goroutine.
func (m *Machine) IndicatorLevel(now time.Time) bool {
	if m.blinkHz == 0 {
		return false
	}
	half := int64(1000 / (uint32(m.blinkHz) * 2))
	if half == 0 {
		half = 1
	}
	return (now.UnixMilli()/half)%2 == 0
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since
// the last heartbeat (or startup). Returns nil if the interval has not
// elapsed or if interval is <= 0 (disabled).
func (m *Machine) CheckHeartbeat(now time.Time, interval time.Duration) *logic.HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}
	m.lastHeartbeat = now
	return &logic.HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.counts,
	}
}
