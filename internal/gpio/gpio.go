// Package gpio provides the pin abstraction for the inverter drive with
// hardware abstraction. Real implementations use the Linux GPIO character
// device for the input line and memory-mapped GPIO for the output line.
// The fake implementations allow testing without hardware.
package gpio

// Default BCM pin numbers. 18 carries hardware PWM channel 0 on the Pi.
const (
	DefaultOutPin = 18 // inverter drive line
	DefaultInPin  = 17 // interlock input (door switch / fan tach)
	DefaultLedPin = 0  // indicator LED, 0 = none
)

// Output drives the single inverter control line. Implementations must make
// every transition total: a failing pin driver is unrecoverable and is
// reported, not retried.
type Output interface {
	// HighImpedance releases the line: input mode, no pulls. The
	// electrically safest idle state.
	HighImpedance() error

	// DriveLow holds the line actively at electrical low (push-pull).
	DriveLow() error

	// Write drives the line push-pull at the given electrical level.
	Write(level bool) error

	// Close releases the line, leaving it high impedance.
	Close() error
}

// Waveform is a hardware square-wave channel on the output line. Start and
// Stop must be idempotent from the caller's perspective; callers stop any
// running waveform before starting a new one.
type Waveform interface {
	Start(freqHz uint16, dutyPercent uint8) error
	Stop() error
}

// Reader reads the raw (not debounced) interlock input level.
type Reader interface {
	// Read returns the logical input level: true = asserted.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// NullReader is used when no input pin is configured; the input always
// reads de-asserted.
type NullReader struct{}

func (NullReader) Read() (bool, error) { return false, nil }
func (NullReader) Close() error        { return nil }
