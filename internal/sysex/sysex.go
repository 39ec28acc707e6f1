// Package sysex implements the bridge's System Exclusive dialect: the
// manufacturer-specific command envelope and the universal identity exchange.
package sysex

import "github.com/leandrodaf/midibridge/sdk/contracts"

// Wire constants shared by both SysEx dialects.
const (
	Start = 0xF0
	End   = 0xF7

	// ManufacturerID is the non-commercial manufacturer byte used by the
	// custom command envelope.
	ManufacturerID = 0x7D
	// UniversalNonRealtime is the manufacturer byte of the universal
	// non-realtime dialect (identity request/reply).
	UniversalNonRealtime = 0x7E

	// GeneralInformation is universal sub-ID #1 for identity traffic.
	GeneralInformation = 0x06
	// IdentityRequestSubID and IdentityReplySubID are universal sub-ID #2.
	IdentityRequestSubID = 0x01
	IdentityReplySubID   = 0x02

	// AllCallDeviceID addresses every listening device.
	AllCallDeviceID = 0x7F
)

// Custom command IDs under ManufacturerID.
const (
	CmdSetParameter  = 0x01
	CmdGetParameter  = 0x02
	CmdTriggerAction = 0x03
	CmdErrorReport   = 0x7F
)

// Protocol error codes carried by an ErrorReport payload.
const (
	ErrCodeUnknownCommand   = 0x01
	ErrCodeInvalidParameter = 0x02
)

// Command is the decoded, typed view over one SysEx message. The layout is
// uniform across both dialects: for manufacturer 0x7D the fields map to the
// envelope bytes directly; for the universal dialect CommandID holds sub-ID #1
// and the payload starts with sub-ID #2.
type Command struct {
	Manufacturer byte
	DeviceID     byte
	CommandID    byte
	Payload      []byte
}

// Kind classifies a command into the closed command set of this dialect.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindIdentityRequest
	KindIdentityReply
	KindSetParameter
	KindGetParameter
	KindTriggerAction
	KindErrorReport
)

// String returns the trace label for the kind.
func (k Kind) String() string {
	switch k {
	case KindIdentityRequest:
		return "IdentityRequest"
	case KindIdentityReply:
		return "IdentityReply"
	case KindSetParameter:
		return "SetParameter"
	case KindGetParameter:
		return "GetParameter"
	case KindTriggerAction:
		return "TriggerAction"
	case KindErrorReport:
		return "ErrorReport"
	default:
		return "Unrecognized"
	}
}

// Classify maps a command onto its Kind by (manufacturer, command ID). The
// mapping is total: anything outside the known table is Unrecognized, which
// is not an error by itself.
func Classify(c Command) Kind {
	switch c.Manufacturer {
	case UniversalNonRealtime:
		if c.CommandID == GeneralInformation && len(c.Payload) > 0 {
			switch c.Payload[0] {
			case IdentityRequestSubID:
				return KindIdentityRequest
			case IdentityReplySubID:
				return KindIdentityReply
			}
		}
	case ManufacturerID:
		switch c.CommandID {
		case CmdSetParameter:
			return KindSetParameter
		case CmdGetParameter:
			return KindGetParameter
		case CmdTriggerAction:
			return KindTriggerAction
		case CmdErrorReport:
			return KindErrorReport
		}
	}
	return KindUnrecognized
}

// IdentityRequest builds the universal identity request, addressed to all
// devices: F0 7E 7F 06 01 F7.
func IdentityRequest() contracts.RawMessage {
	return Encode(Command{
		Manufacturer: UniversalNonRealtime,
		DeviceID:     AllCallDeviceID,
		CommandID:    GeneralInformation,
		Payload:      []byte{IdentityRequestSubID},
	})
}

// IdentityReply builds the fixed identity reply this device family sends:
// F0 7E 7F 06 02 7D 01 01 01 01 01 01 01 01 F7. Family, model and version
// fields are placeholders pending real product identity assignment.
func IdentityReply() contracts.RawMessage {
	return Encode(Command{
		Manufacturer: UniversalNonRealtime,
		DeviceID:     AllCallDeviceID,
		CommandID:    GeneralInformation,
		Payload: []byte{
			IdentityReplySubID,
			ManufacturerID,
			0x01, 0x01, // device family (LSB, MSB)
			0x01, 0x01, // device model (LSB, MSB)
			0x01, 0x01, 0x01, 0x01, // version
		},
	})
}

// SetParameter builds F0 7D <device> 01 <id> <value> F7.
func SetParameter(deviceID, paramID, value byte) contracts.RawMessage {
	return Encode(Command{
		Manufacturer: ManufacturerID,
		DeviceID:     deviceID,
		CommandID:    CmdSetParameter,
		Payload:      []byte{paramID, value},
	})
}

// GetParameter builds the request F0 7D <device> 02 <id> F7.
func GetParameter(deviceID, paramID byte) contracts.RawMessage {
	return Encode(Command{
		Manufacturer: ManufacturerID,
		DeviceID:     deviceID,
		CommandID:    CmdGetParameter,
		Payload:      []byte{paramID},
	})
}

// GetParameterResponse builds F0 7D <device> 02 <id> <value> F7.
func GetParameterResponse(deviceID, paramID, value byte) contracts.RawMessage {
	return Encode(Command{
		Manufacturer: ManufacturerID,
		DeviceID:     deviceID,
		CommandID:    CmdGetParameter,
		Payload:      []byte{paramID, value},
	})
}

// TriggerAction builds F0 7D <device> 03 <action> F7.
func TriggerAction(deviceID, actionID byte) contracts.RawMessage {
	return Encode(Command{
		Manufacturer: ManufacturerID,
		DeviceID:     deviceID,
		CommandID:    CmdTriggerAction,
		Payload:      []byte{actionID},
	})
}

// ErrorReport builds F0 7D <device> 7F <code> <original command> F7.
func ErrorReport(deviceID, code, originalCommandID byte) contracts.RawMessage {
	return Encode(Command{
		Manufacturer: ManufacturerID,
		DeviceID:     deviceID,
		CommandID:    CmdErrorReport,
		Payload:      []byte{code, originalCommandID},
	})
}
