// Package framer classifies port-level chunks into complete MIDI messages.
//
// The port transports deliver whole messages only (no partial SysEx across
// chunks); the framer validates that contract and rejects anything that
// violates it rather than repairing it.
package framer

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/midibridge/sdk/contracts"
)

// Framing errors. A rejected chunk is dropped by the caller, never forwarded
// partially.
var (
	ErrEmptyChunk        = errors.New("framer: empty chunk")
	ErrUnterminatedSysEx = errors.New("framer: sysex chunk without 0xF7 terminator")
	ErrInteriorStatus    = errors.New("framer: status byte inside sysex body")
	ErrMissingStatus     = errors.New("framer: chunk does not start with a status byte")
	ErrShortTooLong      = errors.New("framer: short message longer than 3 bytes")
	ErrDataByteRange     = errors.New("framer: data byte outside 0-127")
)

const (
	sysExStart = 0xF0
	sysExEnd   = 0xF7
)

// Classify validates a chunk and exposes it as a RawMessage. SysEx chunks
// must start 0xF0, end 0xF7 and carry only data bytes in between; everything
// else must be a status-byte-prefixed short message of at most 3 bytes.
func Classify(chunk []byte) (contracts.RawMessage, error) {
	if len(chunk) == 0 {
		return nil, ErrEmptyChunk
	}
	if chunk[0] == sysExStart {
		return classifySysEx(chunk)
	}
	return classifyShort(chunk)
}

// Delimit checks only the message delimiters: a SysEx chunk must carry its
// 0xF7 terminator and a short chunk must be a status-byte-prefixed message of
// at most 3 bytes. SysEx interior bytes are not inspected, so a well-delimited
// command with an invalid payload still reaches protocol-level validation and
// gets a protocol-level error response instead of a silent drop.
func Delimit(chunk []byte) (contracts.RawMessage, error) {
	if len(chunk) == 0 {
		return nil, ErrEmptyChunk
	}
	if chunk[0] == sysExStart {
		if len(chunk) < 2 || chunk[len(chunk)-1] != sysExEnd {
			return nil, fmt.Errorf("%w: % X", ErrUnterminatedSysEx, chunk)
		}
		return contracts.RawMessage(chunk), nil
	}
	return classifyShort(chunk)
}

func classifySysEx(chunk []byte) (contracts.RawMessage, error) {
	if len(chunk) < 2 || chunk[len(chunk)-1] != sysExEnd {
		return nil, fmt.Errorf("%w: % X", ErrUnterminatedSysEx, chunk)
	}
	for _, b := range chunk[1 : len(chunk)-1] {
		if b >= 0x80 {
			return nil, fmt.Errorf("%w: 0x%02X", ErrInteriorStatus, b)
		}
	}
	return contracts.RawMessage(chunk), nil
}

func classifyShort(chunk []byte) (contracts.RawMessage, error) {
	if chunk[0] < 0x80 {
		return nil, fmt.Errorf("%w: 0x%02X", ErrMissingStatus, chunk[0])
	}
	if len(chunk) > 3 {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortTooLong, len(chunk))
	}
	for _, b := range chunk[1:] {
		if b >= 0x80 {
			return nil, fmt.Errorf("%w: 0x%02X", ErrDataByteRange, b)
		}
	}
	return contracts.RawMessage(chunk), nil
}
