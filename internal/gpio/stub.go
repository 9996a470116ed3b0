//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RPiOutput is not available on non-Linux platforms.
type RPiOutput struct{}

// NewRPiOutput returns an error on non-Linux platforms.
func NewRPiOutput(bcm int) (*RPiOutput, error) {
	return nil, errUnsupported
}

func (o *RPiOutput) HighImpedance() error {
	return errUnsupported
}

func (o *RPiOutput) DriveLow() error {
	return errUnsupported
}

func (o *RPiOutput) Write(level bool) error {
	return errUnsupported
}

func (o *RPiOutput) Start(freqHz uint16, dutyPercent uint8) error {
	return errUnsupported
}

func (o *RPiOutput) Stop() error {
	return errUnsupported
}

func (o *RPiOutput) Close() error {
	return nil
}

// RPiLed is not available on non-Linux platforms.
type RPiLed struct{}

// NewRPiLed returns an error on non-Linux platforms.
func NewRPiLed(bcm int) (*RPiLed, error) {
	return nil, errUnsupported
}

// Set is a no-op on non-Linux platforms.
func (l *RPiLed) Set(on bool) {}

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(pin int) (*RealReader, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (bool, error) {
	return false, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}
