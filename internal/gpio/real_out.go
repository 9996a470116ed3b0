//go:build linux

package gpio

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// pwmCycleLen is the PWM cycle resolution: duty is expressed in percent, so
// 100 steps per cycle. The PWM clock runs at freq*pwmCycleLen.
const pwmCycleLen = 100

// RPiOutput drives the inverter line through memory-mapped GPIO. It
// implements both Output and Waveform; the waveform uses the Pi's hardware
// PWM channel, so the pin must be PWM-capable (BCM 12, 13, 18 or 19).
type RPiOutput struct {
	pin rpio.Pin
}

// NewRPiOutput opens the memory-mapped GPIO range and claims the given BCM
// pin, leaving it high impedance until the first transition.
func NewRPiOutput(bcm int) (*RPiOutput, error) {
	if bcm < 0 || bcm > 255 {
		return nil, fmt.Errorf("out pin %d out of range", bcm)
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio mem: %w", err)
	}

	pin := rpio.Pin(bcm)
	pin.Input()
	pin.PullOff()

	return &RPiOutput{pin: pin}, nil
}

// HighImpedance releases the line: input mode, no pulls.
func (o *RPiOutput) HighImpedance() error {
	o.pin.Input()
	o.pin.PullOff()
	return nil
}

// DriveLow holds the line actively at electrical low.
func (o *RPiOutput) DriveLow() error {
	o.pin.Output()
	o.pin.Low()
	return nil
}

// Write drives the line push-pull at the given electrical level.
func (o *RPiOutput) Write(level bool) error {
	o.pin.Output()
	if level {
		o.pin.High()
	} else {
		o.pin.Low()
	}
	return nil
}

// Start switches the pin to its hardware PWM function at freqHz with the
// given duty. The PWM clock must stay within the Pi's divider range, which
// holds for the whole 66-150 Hz drive band at 100 steps per cycle.
func (o *RPiOutput) Start(freqHz uint16, dutyPercent uint8) error {
	if dutyPercent > 100 {
		dutyPercent = 100
	}
	o.pin.Pwm()
	o.pin.Freq(int(freqHz) * pwmCycleLen)
	o.pin.DutyCycle(uint32(dutyPercent), pwmCycleLen)
	return nil
}

// Stop leaves PWM mode and parks the line at electrical low. Callers insert
// the settle delay before reusing the pin.
func (o *RPiOutput) Stop() error {
	o.pin.Output()
	o.pin.Low()
	return nil
}

// Close releases the line high impedance and unmaps GPIO memory.
func (o *RPiOutput) Close() error {
	o.pin.Input()
	o.pin.PullOff()
	return rpio.Close()
}

// RPiLed is a bare on/off output for the indicator LED, sharing the GPIO
// mapping opened by NewRPiOutput.
type RPiLed struct {
	pin rpio.Pin
}

// NewRPiLed claims the given BCM pin as a push-pull output, initially low.
func NewRPiLed(bcm int) (*RPiLed, error) {
	if bcm < 0 || bcm > 255 {
		return nil, fmt.Errorf("led pin %d out of range", bcm)
	}
	pin := rpio.Pin(bcm)
	pin.Output()
	pin.Low()
	return &RPiLed{pin: pin}, nil
}

// Set drives the LED level.
func (l *RPiLed) Set(on bool) {
	if on {
		l.pin.High()
	} else {
		l.pin.Low()
	}
}
