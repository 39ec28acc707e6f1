package contracts

import "time"

// RawMessage is one complete MIDI message as delivered by a port transport.
// A short message is 1-3 bytes; a SysEx message starts with 0xF0, ends with
// 0xF7 and carries only data bytes (< 0x80) in between.
type RawMessage []byte

// Clone returns an independent copy of the message so callers can retain it
// beyond the lifetime of the transport buffer it arrived in.
func (m RawMessage) Clone() RawMessage {
	if m == nil {
		return nil
	}
	c := make(RawMessage, len(m))
	copy(c, m)
	return c
}

// IsSysEx reports whether the message starts with the SysEx start byte.
func (m RawMessage) IsSysEx() bool {
	return len(m) > 0 && m[0] == 0xF0
}

// Direction identifies which way a message is flowing through the bridge.
type Direction int

const (
	// ClientToDevice marks traffic from the client-facing side toward the device.
	ClientToDevice Direction = iota
	// DeviceToClient marks traffic from the device-facing side toward the client.
	DeviceToClient
)

// String returns the direction label used in trace output.
func (d Direction) String() string {
	switch d {
	case ClientToDevice:
		return "client->device"
	case DeviceToClient:
		return "device->client"
	default:
		return "unknown"
	}
}

// TraceRecord describes one observed message. Records are ephemeral: they are
// produced per message, handed to a TraceSink, and never retained.
type TraceRecord struct {
	Direction Direction  // Which way the message was flowing.
	Timestamp time.Time  // When the message was observed.
	Bytes     RawMessage // The exact bytes that were relayed or dispatched.
	Summary   string     // Optional decoded summary; empty when decoding failed.
}

// TraceSink consumes trace records. Implementations must never block message
// flow: an emission failure is returned to the caller as a warning and the
// caller continues.
type TraceSink interface {
	Trace(record TraceRecord) error
}
