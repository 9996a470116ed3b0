package gpio

import (
	"errors"
	"fmt"
)

// FakeOutput records every transition applied to the output line so tests
// can assert on safe ordering (a waveform start must always be preceded by
// a stop).
type FakeOutput struct {
	// Log contains one entry per transition, e.g. "hiz", "low",
	// "write:high", "start:100:50", "stop".
	Log []string

	// Level is the last electrical level written (false after DriveLow).
	Level bool

	// Running tracks whether the hardware waveform is active.
	Running bool

	// Closed tracks if Close was called.
	Closed bool

	// Err, if set, is returned by every operation.
	Err error
}

// NewFakeOutput creates a FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

func (f *FakeOutput) HighImpedance() error {
	if f.Err != nil {
		return f.Err
	}
	f.Log = append(f.Log, "hiz")
	return nil
}

func (f *FakeOutput) DriveLow() error {
	if f.Err != nil {
		return f.Err
	}
	f.Level = false
	f.Log = append(f.Log, "low")
	return nil
}

func (f *FakeOutput) Write(level bool) error {
	if f.Err != nil {
		return f.Err
	}
	f.Level = level
	if level {
		f.Log = append(f.Log, "write:high")
	} else {
		f.Log = append(f.Log, "write:low")
	}
	return nil
}

func (f *FakeOutput) Start(freqHz uint16, dutyPercent uint8) error {
	if f.Err != nil {
		return f.Err
	}
	f.Running = true
	f.Log = append(f.Log, fmt.Sprintf("start:%d:%d", freqHz, dutyPercent))
	return nil
}

func (f *FakeOutput) Stop() error {
	if f.Err != nil {
		return f.Err
	}
	f.Running = false
	f.Log = append(f.Log, "stop")
	return nil
}

func (f *FakeOutput) Close() error {
	f.Closed = true
	return nil
}

// Reset clears the recorded log.
func (f *FakeOutput) Reset() {
	f.Log = nil
	f.Level = false
	f.Running = false
	f.Closed = false
	f.Err = nil
}

// FakeReader is a test double that returns scripted input levels.
type FakeReader struct {
	// Samples contains scripted raw levels to return. Each call to Read()
	// consumes the next sample; when exhausted, the last sample repeats.
	Samples []bool

	index int

	// Closed tracks if Close was called.
	Closed bool

	// ReadError, if set, will be returned by Read().
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []bool) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
func (f *FakeReader) Read() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}
