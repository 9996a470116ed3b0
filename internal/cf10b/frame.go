// Package cf10b builds command frames for the CF10B serial-controlled
// inverter variant. Only frame construction lives here; transport is the
// caller's responsibility.
package cf10b

// see the CF10B drive manual, "serial command" section (600 baud)

// FrameLen is the fixed length of every CF10B frame.
const FrameLen = 5

const (
	// FrameID identifies the drive on the serial line.
	FrameID byte = 0xA5
	// CmdSetSpeed overwrites the commanded speed.
	CmdSetSpeed byte = 0xC3
)

// MaxRPM is the highest speed the drive accepts; set-speed payloads are
// clamped to it.
const MaxRPM uint16 = 4500

// RPMPerHz converts between drive frequency and compressor speed.
const RPMPerHz = 30

// Frame is one fixed-length CF10B command:
// {id, cmd, payload lsb, payload msb, checksum}.
type Frame [FrameLen]byte

// Checksum returns the one-byte two's complement of the sum of the four
// leading frame bytes, so that all five bytes of a valid frame sum to
// 0 mod 256.
func Checksum(id, cmd, lsb, msb byte) byte {
	sum := id + cmd + lsb + msb
	return byte((0x100 - uint16(sum)) & 0xFF)
}

// BuildSetSpeed builds a set-speed frame for the given speed. rpm is clamped
// to MaxRPM and encoded little-endian; clamping absorbs all invalid input,
// so there is no failure mode.
func BuildSetSpeed(rpm uint16) Frame {
	if rpm > MaxRPM {
		rpm = MaxRPM
	}
	lsb := byte(rpm & 0xFF)
	msb := byte(rpm >> 8)
	return Frame{FrameID, CmdSetSpeed, lsb, msb, Checksum(FrameID, CmdSetSpeed, lsb, msb)}
}

// Valid reports whether the frame's bytes sum to 0 mod 256.
func (f Frame) Valid() bool {
	var sum byte
	for _, b := range f {
		sum += b
	}
	return sum == 0
}

// RPM decodes the little-endian speed payload.
func (f Frame) RPM() uint16 {
	return uint16(f[2]) | uint16(f[3])<<8
}
