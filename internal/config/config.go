// Package config loads the output profile, mode table and pin assignment
// from a JSON file. The control core receives the parsed structures fully
// formed and performs no parsing of its own.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sweeney/inverter-ctl/internal/gpio"
	"github.com/sweeney/inverter-ctl/internal/logic"
)

// Config is the on-disk configuration for one device variant.
type Config struct {
	Profile ProfileConfig `json:"profile"`
	Modes   []ModeConfig  `json:"modes"`
	Pins    PinConfig     `json:"pins"`

	// HardwarePWM delegates the waveform to the Pi's PWM channel instead
	// of software toggling on the poll loop.
	HardwarePWM bool `json:"hardware_pwm"`
}

// ProfileConfig mirrors logic.OutputProfile in JSON form.
type ProfileConfig struct {
	Name             string `json:"name"`
	Kind             string `json:"kind"` // frequency | serial | dropin
	ActiveHigh       bool   `json:"active_high"`
	DebounceMs       uint16 `json:"debounce_ms"`
	FrequencyHz      uint16 `json:"frequency_hz"`
	DutyPercent      uint8  `json:"duty_percent"`
	InterlockEnabled bool   `json:"interlock_enabled"`
	BootAllOff       bool   `json:"boot_all_off"`
}

// ModeConfig is one mode table entry in JSON form.
type ModeConfig struct {
	Name        string `json:"name"`
	FrequencyHz uint16 `json:"frequency_hz"`
	BlinkHz     uint8  `json:"blink_hz"`
	TimeoutS    uint32 `json:"timeout_s"`
}

// PinConfig assigns BCM pin numbers. In and Led are optional (0 = none).
type PinConfig struct {
	Out int `json:"out"`
	In  int `json:"in"`
	Led int `json:"led"`
}

// Default returns the built-in CF10B frequency-drive variant: the original
// tool's mode table with the factory profile.
func Default() *Config {
	return &Config{
		Profile: ProfileConfig{
			Name:             "FREQUENCY",
			Kind:             string(logic.KindFrequency),
			ActiveHigh:       true,
			DebounceMs:       20,
			FrequencyHz:      150,
			DutyPercent:      50,
			InterlockEnabled: true,
			BootAllOff:       true,
		},
		Modes: []ModeConfig{
			{Name: "Stand by", FrequencyHz: 0, BlinkHz: 0, TimeoutS: 0},
			{Name: "Low speed", FrequencyHz: 66, BlinkHz: 1, TimeoutS: 120},
			{Name: "Mid speed", FrequencyHz: 100, BlinkHz: 2, TimeoutS: 60},
			{Name: "Max speed", FrequencyHz: 150, BlinkHz: 4, TimeoutS: 30},
		},
		Pins: PinConfig{
			Out: gpio.DefaultOutPin,
			In:  gpio.DefaultInPin,
			Led: gpio.DefaultLedPin,
		},
		HardwarePWM: true,
	}
}

// Load reads and validates the config at path. A missing file is an error;
// use Default for the built-in variant.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the control core cannot run safely.
// Frequencies are not rejected here; the core clamps them.
func (c *Config) Validate() error {
	switch logic.ProfileKind(c.Profile.Kind) {
	case logic.KindFrequency, logic.KindSerial, logic.KindDropin:
	default:
		return fmt.Errorf("unknown profile kind %q", c.Profile.Kind)
	}

	if c.Profile.DutyPercent > 100 {
		return fmt.Errorf("duty_percent %d out of range", c.Profile.DutyPercent)
	}

	if len(c.Modes) == 0 {
		return fmt.Errorf("mode table is empty")
	}
	for i, m := range c.Modes {
		if m.Name == "" {
			return fmt.Errorf("mode %d has no name", i)
		}
	}

	if c.Pins.Out <= 0 {
		return fmt.Errorf("out pin %d invalid", c.Pins.Out)
	}

	return nil
}

// ToProfile converts the profile section to the control core's form.
func (c *Config) ToProfile() logic.OutputProfile {
	return logic.OutputProfile{
		Name:             c.Profile.Name,
		Kind:             logic.ProfileKind(c.Profile.Kind),
		ActiveHigh:       c.Profile.ActiveHigh,
		Debounce:         time.Duration(c.Profile.DebounceMs) * time.Millisecond,
		FrequencyHz:      c.Profile.FrequencyHz,
		DutyPercent:      c.Profile.DutyPercent,
		InterlockEnabled: c.Profile.InterlockEnabled,
		BootAllOff:       c.Profile.BootAllOff,
	}
}

// ToModes converts the mode table to the control core's form.
func (c *Config) ToModes() []logic.Mode {
	modes := make([]logic.Mode, 0, len(c.Modes))
	for _, m := range c.Modes {
		modes = append(modes, logic.Mode{
			Name:        m.Name,
			FrequencyHz: m.FrequencyHz,
			BlinkHz:     m.BlinkHz,
			Timeout:     time.Duration(m.TimeoutS) * time.Second,
		})
	}
	return modes
}
