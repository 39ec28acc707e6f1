package sysex

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/midibridge/sdk/contracts"
)

// Decode errors. A message failing here is well-delimited at the port level
// but not a SysEx message this dialect can interpret.
var (
	ErrNotSysEx            = errors.New("sysex: message does not start with 0xF0")
	ErrTooShort            = errors.New("sysex: message shorter than 6 bytes")
	ErrBadTerminator       = errors.New("sysex: message does not end with 0xF7")
	ErrUnknownManufacturer = errors.New("sysex: unknown manufacturer id")
)

// Decode extracts the typed command from a SysEx-framed message. Decoding is
// pure: it never mutates or repairs the input. The payload is copied so the
// command stays valid after the transport reuses its buffer.
func Decode(msg contracts.RawMessage) (Command, error) {
	if len(msg) == 0 || msg[0] != Start {
		return Command{}, ErrNotSysEx
	}
	if len(msg) < 6 {
		return Command{}, fmt.Errorf("%w: %d bytes", ErrTooShort, len(msg))
	}
	if msg[len(msg)-1] != End {
		return Command{}, fmt.Errorf("%w: trailing 0x%02X", ErrBadTerminator, msg[len(msg)-1])
	}

	manufacturer := msg[1]
	if manufacturer != ManufacturerID && manufacturer != UniversalNonRealtime {
		return Command{}, fmt.Errorf("%w: 0x%02X", ErrUnknownManufacturer, manufacturer)
	}

	payload := make([]byte, len(msg)-5)
	copy(payload, msg[4:len(msg)-1])

	return Command{
		Manufacturer: manufacturer,
		DeviceID:     msg[2],
		CommandID:    msg[3],
		Payload:      payload,
	}, nil
}

// Encode is the inverse of Decode and always produces a well-terminated
// message. Every command built through this package round-trips:
// Decode(Encode(c)) == c.
func Encode(c Command) contracts.RawMessage {
	msg := make(contracts.RawMessage, 0, len(c.Payload)+5)
	msg = append(msg, Start, c.Manufacturer, c.DeviceID, c.CommandID)
	msg = append(msg, c.Payload...)
	return append(msg, End)
}
