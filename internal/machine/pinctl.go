package machine

import (
	"log"
	"time"

	"github.com/sweeney/inverter-ctl/internal/gpio"
)

// pinMode is the electrical state of the output line.
type pinMode int

const (
	pinHighZ pinMode = iota
	pinDrivenLow
	pinWaveform
)

// settleDelay is inserted after stopping a hardware waveform before the pin
// is reconfigured, to avoid a glitch pulse on the line.
const settleDelay = time.Millisecond

// PinController owns the electrical state of the output line and guarantees
// ordered, glitch-free transitions between high impedance, driven-low and
// active-waveform. Every transition fully stops any prior waveform before
// the pin is reconfigured.
//
// All operations are total: a failing pin driver is logged and otherwise
// ignored, since hardware faults at this level are unrecoverable.
type PinController struct {
	out        gpio.Output
	wave       gpio.Waveform // nil = software waveform, polled by the machine
	activeHigh bool

	settle func(time.Duration) // time.Sleep, injectable for tests

	mode   pinMode
	waveOn bool
}

// NewPinController creates a controller over the given output line. wave may
// be nil, in which case the waveform is generated in software via Drive.
func NewPinController(out gpio.Output, wave gpio.Waveform, activeHigh bool) *PinController {
	return &PinController{
		out:        out,
		wave:       wave,
		activeHigh: activeHigh,
		settle:     time.Sleep,
		mode:       pinHighZ,
	}
}

// SetWiring updates the wiring polarity on profile hot reload. Callers
// re-apply an electrical state afterwards.
func (pc *PinController) SetWiring(activeHigh bool) {
	pc.activeHigh = activeHigh
}

// Hardware reports whether the waveform is delegated to a hardware channel.
func (pc *PinController) Hardware() bool {
	return pc.wave != nil
}

// ToHighImpedance stops any waveform and releases the line.
func (pc *PinController) ToHighImpedance() {
	pc.stopWaveform()
	if err := pc.out.HighImpedance(); err != nil {
		log.Printf("pin: high impedance: %v", err)
	}
	pc.mode = pinHighZ
}

// ToDrivenLow stops any waveform and holds the line at the inactive level:
// electrical low for active-high wiring, high otherwise.
func (pc *PinController) ToDrivenLow() {
	pc.stopWaveform()
	var err error
	if pc.activeHigh {
		err = pc.out.DriveLow()
	} else {
		err = pc.out.Write(true)
	}
	if err != nil {
		log.Printf("pin: driven low: %v", err)
	}
	pc.mode = pinDrivenLow
}

// ToActiveWaveform stops any prior waveform, then starts a 50% duty wave at
// freqHz. With a hardware channel the period is generated by hardware; in
// software mode the machine polls Drive with the generator's output.
func (pc *PinController) ToActiveWaveform(freqHz uint16) {
	pc.stopWaveform()
	pc.mode = pinWaveform
	if pc.wave == nil {
		// Software generation starts from the inactive level; the next
		// poll toggles it.
		if err := pc.out.Write(!pc.activeHigh); err != nil {
			log.Printf("pin: waveform idle level: %v", err)
		}
		return
	}
	if err := pc.wave.Start(freqHz, 50); err != nil {
		log.Printf("pin: waveform start: %v", err)
		return
	}
	pc.waveOn = true
}

// Drive emits one software-generated waveform level. It is a no-op unless
// the line is in waveform mode without a hardware channel.
func (pc *PinController) Drive(logical bool) {
	if pc.mode != pinWaveform || pc.wave != nil {
		return
	}
	if err := pc.out.Write(logical == pc.activeHigh); err != nil {
		log.Printf("pin: drive: %v", err)
	}
}

// stopWaveform halts hardware generation and waits the settle delay before
// the pin is reused. Software generation stops implicitly: the machine only
// polls Drive while the mode is pinWaveform.
func (pc *PinController) stopWaveform() {
	if !pc.waveOn {
		return
	}
	if err := pc.wave.Stop(); err != nil {
		log.Printf("pin: waveform stop: %v", err)
	}
	pc.settle(settleDelay)
	pc.waveOn = false
}
