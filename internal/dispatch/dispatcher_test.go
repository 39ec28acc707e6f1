package dispatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leandrodaf/midibridge/internal/logger"
	"github.com/leandrodaf/midibridge/internal/sysex"
	"github.com/leandrodaf/midibridge/sdk/contracts"
)

const testDeviceID = 0x01

func newTestDispatcher(t *testing.T) (*Dispatcher, *ParameterStore, *ActionRegistry) {
	t.Helper()
	params := NewParameterStore()
	actions := NewActionRegistry()
	d := NewDispatcher(testDeviceID, params, actions, logger.NewZapLogger())
	return d, params, actions
}

func TestIdentityRequestYieldsFixedReply(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	resp, err := d.Handle(contracts.RawMessage{0xF0, 0x7E, 0x7F, 0x06, 0x01, 0xF7})
	require.NoError(t, err)
	require.Equal(t, contracts.RawMessage{
		0xF0, 0x7E, 0x7F, 0x06, 0x02, 0x7D,
		0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01,
		0xF7,
	}, resp)
}

func TestIdentityRequestForOwnID(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	resp, err := d.Handle(sysex.Encode(sysex.Command{
		Manufacturer: sysex.UniversalNonRealtime,
		DeviceID:     testDeviceID,
		CommandID:    sysex.GeneralInformation,
		Payload:      []byte{sysex.IdentityRequestSubID},
	}))
	require.NoError(t, err)
	require.Equal(t, sysex.IdentityReply(), resp)
}

func TestIdentityRequestForOtherDeviceIgnored(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	resp, err := d.Handle(sysex.Encode(sysex.Command{
		Manufacturer: sysex.UniversalNonRealtime,
		DeviceID:     0x05,
		CommandID:    sysex.GeneralInformation,
		Payload:      []byte{sysex.IdentityRequestSubID},
	}))
	require.NoError(t, err)
	require.Nil(t, resp)
}

func TestSetParameterAcksByEcho(t *testing.T) {
	d, params, _ := newTestDispatcher(t)

	req := sysex.SetParameter(testDeviceID, 0x02, 0x40)
	resp, err := d.Handle(req)
	require.NoError(t, err)
	require.Equal(t, req, resp)

	value, err := params.Get(0x02)
	require.NoError(t, err)
	require.Equal(t, byte(0x40), value)
}

func TestParameterPersistsAcrossGet(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	_, err := d.Handle(sysex.SetParameter(testDeviceID, 0x02, 0x40))
	require.NoError(t, err)

	resp, err := d.Handle(sysex.GetParameter(testDeviceID, 0x02))
	require.NoError(t, err)
	require.Equal(t, contracts.RawMessage{0xF0, 0x7D, testDeviceID, 0x02, 0x02, 0x40, 0xF7}, resp)
}

func TestGetParameterDefaultsToZero(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	resp, err := d.Handle(sysex.GetParameter(testDeviceID, 0x33))
	require.NoError(t, err)
	require.Equal(t, contracts.RawMessage{0xF0, 0x7D, testDeviceID, 0x02, 0x33, 0x00, 0xF7}, resp)
}

func TestSetParameterOutOfRangeValue(t *testing.T) {
	d, params, _ := newTestDispatcher(t)

	// Value 0x80 is outside 0-127; the dispatcher rejects it itself rather
	// than relying on upstream framing.
	resp, err := d.Handle(sysex.Encode(sysex.Command{
		Manufacturer: sysex.ManufacturerID,
		DeviceID:     testDeviceID,
		CommandID:    sysex.CmdSetParameter,
		Payload:      []byte{0x7F, 0x80},
	}))
	require.NoError(t, err)
	require.Equal(t, contracts.RawMessage{0xF0, 0x7D, testDeviceID, 0x7F, 0x02, 0x01, 0xF7}, resp)

	value, err := params.Get(0x7F)
	require.NoError(t, err)
	require.Equal(t, byte(DefaultParameterValue), value)
}

func TestUnknownCommandIDReported(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	resp, err := d.Handle(sysex.Encode(sysex.Command{
		Manufacturer: sysex.ManufacturerID,
		DeviceID:     testDeviceID,
		CommandID:    0x22,
		Payload:      []byte{0x00},
	}))
	require.NoError(t, err)
	require.Equal(t, contracts.RawMessage{0xF0, 0x7D, testDeviceID, 0x7F, 0x01, 0x22, 0xF7}, resp)
}

func TestTriggerActionEchoesAndInvokesHandler(t *testing.T) {
	d, _, actions := newTestDispatcher(t)

	var got contracts.RawMessage
	actions.Register(0x05, func(actionID byte, msg contracts.RawMessage) error {
		require.Equal(t, byte(0x05), actionID)
		got = msg
		return nil
	})

	req := sysex.TriggerAction(testDeviceID, 0x05)
	resp, err := d.Handle(req)
	require.NoError(t, err)
	require.Equal(t, req, resp)
	require.Equal(t, req, got)
}

func TestTriggerActionUnknownID(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	resp, err := d.Handle(sysex.TriggerAction(testDeviceID, 0x44))
	require.NoError(t, err)
	require.Equal(t, contracts.RawMessage{0xF0, 0x7D, testDeviceID, 0x7F, 0x01, 0x03, 0xF7}, resp)
}

func TestTriggerActionHandlerFailure(t *testing.T) {
	d, _, actions := newTestDispatcher(t)

	actions.Register(0x05, func(byte, contracts.RawMessage) error {
		return errors.New("disk full")
	})

	resp, err := d.Handle(sysex.TriggerAction(testDeviceID, 0x05))
	require.NoError(t, err)
	require.Equal(t, contracts.RawMessage{0xF0, 0x7D, testDeviceID, 0x7F, 0x01, 0x03, 0xF7}, resp)
}

func TestCommandForOtherDeviceIgnored(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	resp, err := d.Handle(sysex.SetParameter(0x09, 0x02, 0x40))
	require.NoError(t, err)
	require.Nil(t, resp)
}

func TestInboundErrorReportNotAnswered(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	resp, err := d.Handle(sysex.ErrorReport(testDeviceID, sysex.ErrCodeUnknownCommand, 0x03))
	require.NoError(t, err)
	require.Nil(t, resp)
}

func TestTruncatedSysExIsADecodeError(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	resp, err := d.Handle(contracts.RawMessage{0xF0, 0x7D, 0x01})
	require.ErrorIs(t, err, sysex.ErrTooShort)
	require.Nil(t, resp)
}

func TestParameterStoreRange(t *testing.T) {
	params := NewParameterStore()
	require.Error(t, params.Set(0x80, 0x01))
	require.Error(t, params.Set(0x01, 0x80))
	_, err := params.Get(0x80)
	require.Error(t, err)
}
