package sysex

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leandrodaf/midibridge/sdk/contracts"
)

func TestRoundTrip(t *testing.T) {
	messages := map[string]contracts.RawMessage{
		"identity request":       IdentityRequest(),
		"identity reply":         IdentityReply(),
		"set parameter":          SetParameter(0x01, 0x02, 0x40),
		"get parameter":          GetParameter(0x01, 0x02),
		"get parameter response": GetParameterResponse(0x01, 0x02, 0x40),
		"trigger action":         TriggerAction(0x01, 0x01),
		"error report":           ErrorReport(0x01, ErrCodeInvalidParameter, CmdSetParameter),
	}
	for name, msg := range messages {
		cmd, err := Decode(msg)
		require.NoError(t, err, name)
		require.Equal(t, msg, Encode(cmd), name)
	}
}

func TestIdentityRequestWireFormat(t *testing.T) {
	require.Equal(t, contracts.RawMessage{0xF0, 0x7E, 0x7F, 0x06, 0x01, 0xF7}, IdentityRequest())
}

func TestIdentityReplyWireFormat(t *testing.T) {
	require.Equal(t, contracts.RawMessage{
		0xF0, 0x7E, 0x7F, 0x06, 0x02, 0x7D,
		0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01,
		0xF7,
	}, IdentityReply())
}

func TestDecodeExtractsEnvelopeFields(t *testing.T) {
	cmd, err := Decode(contracts.RawMessage{0xF0, 0x7D, 0x01, 0x01, 0x02, 0x40, 0xF7})
	require.NoError(t, err)
	require.Equal(t, byte(ManufacturerID), cmd.Manufacturer)
	require.Equal(t, byte(0x01), cmd.DeviceID)
	require.Equal(t, byte(CmdSetParameter), cmd.CommandID)
	require.Equal(t, []byte{0x02, 0x40}, cmd.Payload)
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		msg  contracts.RawMessage
		want error
	}{
		{"not sysex", contracts.RawMessage{0x90, 0x3C, 0x7F}, ErrNotSysEx},
		{"empty", nil, ErrNotSysEx},
		{"too short", contracts.RawMessage{0xF0, 0x7D, 0x01, 0xF7}, ErrTooShort},
		{"bad terminator", contracts.RawMessage{0xF0, 0x7D, 0x01, 0x01, 0x02, 0x40}, ErrBadTerminator},
		{"unknown manufacturer", contracts.RawMessage{0xF0, 0x43, 0x01, 0x01, 0x02, 0xF7}, ErrUnknownManufacturer},
	}
	for _, tc := range cases {
		_, err := Decode(tc.msg)
		require.ErrorIs(t, err, tc.want, tc.name)
	}
}

func TestDecodeCopiesPayload(t *testing.T) {
	raw := contracts.RawMessage{0xF0, 0x7D, 0x01, 0x01, 0x02, 0x40, 0xF7}
	cmd, err := Decode(raw)
	require.NoError(t, err)

	raw[4] = 0x55
	require.Equal(t, []byte{0x02, 0x40}, cmd.Payload)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		msg  contracts.RawMessage
		want Kind
	}{
		{"identity request", IdentityRequest(), KindIdentityRequest},
		{"identity reply", IdentityReply(), KindIdentityReply},
		{"set parameter", SetParameter(0x01, 0x02, 0x40), KindSetParameter},
		{"get parameter", GetParameter(0x01, 0x02), KindGetParameter},
		{"trigger action", TriggerAction(0x01, 0x01), KindTriggerAction},
		{"error report", ErrorReport(0x01, 0x01, 0x03), KindErrorReport},
		{"unknown custom command", contracts.RawMessage{0xF0, 0x7D, 0x01, 0x22, 0x00, 0xF7}, KindUnrecognized},
		{"unknown universal sub-id", contracts.RawMessage{0xF0, 0x7E, 0x7F, 0x06, 0x55, 0xF7}, KindUnrecognized},
	}
	for _, tc := range cases {
		cmd, err := Decode(tc.msg)
		require.NoError(t, err, tc.name)
		require.Equal(t, tc.want, Classify(cmd), tc.name)
	}
}
