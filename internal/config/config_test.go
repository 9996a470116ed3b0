package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sweeney/inverter-ctl/internal/logic"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Profile.Kind != "frequency" {
		t.Errorf("kind = %s, want frequency", cfg.Profile.Kind)
	}
	if len(cfg.Modes) != 4 {
		t.Errorf("modes = %d, want 4", len(cfg.Modes))
	}
	if cfg.Modes[0].FrequencyHz != 0 {
		t.Error("first mode must be standby (0 Hz)")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"profile": {"name": "SERIAL", "kind": "serial", "debounce_ms": 50},
		"modes": [
			{"name": "Stand by"},
			{"name": "Full", "frequency_hz": 150, "timeout_s": 45}
		],
		"pins": {"out": 12, "in": 0},
		"hardware_pwm": false
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Profile.Kind != "serial" {
		t.Errorf("kind = %s, want serial", cfg.Profile.Kind)
	}
	if cfg.Profile.DebounceMs != 50 {
		t.Errorf("debounce = %d, want 50", cfg.Profile.DebounceMs)
	}
	if cfg.Pins.Out != 12 || cfg.Pins.In != 0 {
		t.Errorf("pins = %+v", cfg.Pins)
	}
	if cfg.HardwarePWM {
		t.Error("hardware_pwm not overridden")
	}
	if len(cfg.Modes) != 2 || cfg.Modes[1].TimeoutS != 45 {
		t.Errorf("modes = %+v", cfg.Modes)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := writeConfig(t, `{not json`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown kind", func(c *Config) { c.Profile.Kind = "pwm" }},
		{"duty out of range", func(c *Config) { c.Profile.DutyPercent = 101 }},
		{"empty mode table", func(c *Config) { c.Modes = nil }},
		{"unnamed mode", func(c *Config) { c.Modes[1].Name = "" }},
		{"missing out pin", func(c *Config) { c.Pins.Out = 0 }},
	}
	for _, c := range cases {
		cfg := Default()
		c.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
	}
}

func TestToProfile(t *testing.T) {
	p := Default().ToProfile()
	if p.Kind != logic.KindFrequency {
		t.Errorf("kind = %s", p.Kind)
	}
	if p.Debounce != 20*time.Millisecond {
		t.Errorf("debounce = %v, want 20ms", p.Debounce)
	}
	if !p.BootAllOff || !p.InterlockEnabled {
		t.Error("safety defaults lost in conversion")
	}
}

func TestToModes(t *testing.T) {
	modes := Default().ToModes()
	if len(modes) != 4 {
		t.Fatalf("modes = %d, want 4", len(modes))
	}
	if modes[1].Timeout != 2*time.Minute {
		t.Errorf("low speed timeout = %v, want 2m", modes[1].Timeout)
	}
	if modes[3].FrequencyHz != 150 {
		t.Errorf("max speed = %d Hz, want 150", modes[3].FrequencyHz)
	}
}
