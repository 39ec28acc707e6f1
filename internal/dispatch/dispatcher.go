// Package dispatch implements the device role's command handling: every
// inbound SysEx command moves Received -> Validated -> Responded, or
// Received -> Rejected when validation fails. One inbound command yields at
// most one response.
package dispatch

import (
	"github.com/leandrodaf/midibridge/internal/observability"
	"github.com/leandrodaf/midibridge/internal/sysex"
	"github.com/leandrodaf/midibridge/sdk/contracts"
)

const (
	outcomeResponded = "responded"
	outcomeRejected  = "rejected"
	outcomeIgnored   = "ignored"
)

// Dispatcher maps decoded commands onto handlers against a single device's
// parameter store and action registry. State is passed in explicitly so
// multiple device instances can coexist in one process.
type Dispatcher struct {
	deviceID byte
	params   *ParameterStore
	actions  *ActionRegistry
	logger   contracts.Logger
}

// NewDispatcher wires a dispatcher to one device's state.
func NewDispatcher(deviceID byte, params *ParameterStore, actions *ActionRegistry, logger contracts.Logger) *Dispatcher {
	return &Dispatcher{
		deviceID: deviceID,
		params:   params,
		actions:  actions,
		logger:   logger,
	}
}

// Handle decodes and dispatches one SysEx-framed message. The returned
// response is nil when the message warrants none (not addressed to this
// device, universal traffic other than an identity request, or an inbound
// error report). A decode error is returned for the caller to trace and drop;
// it never produces a response.
func (d *Dispatcher) Handle(msg contracts.RawMessage) (contracts.RawMessage, error) {
	cmd, err := sysex.Decode(msg)
	if err != nil {
		return nil, err
	}

	kind := sysex.Classify(cmd)
	switch kind {
	case sysex.KindIdentityRequest:
		return d.handleIdentityRequest(cmd), nil
	case sysex.KindSetParameter, sysex.KindGetParameter, sysex.KindTriggerAction:
		if cmd.DeviceID != d.deviceID {
			d.logger.Debug("command addressed to another device",
				d.logger.Field().Uint8("deviceID", cmd.DeviceID))
			observability.RecordDispatch(kind.String(), outcomeIgnored)
			return nil, nil
		}
	}

	switch kind {
	case sysex.KindSetParameter:
		return d.handleSetParameter(cmd, msg), nil
	case sysex.KindGetParameter:
		return d.handleGetParameter(cmd), nil
	case sysex.KindTriggerAction:
		return d.handleTriggerAction(cmd, msg), nil
	case sysex.KindIdentityReply, sysex.KindErrorReport:
		// Peer-to-device notifications; answering them could loop.
		observability.RecordDispatch(kind.String(), outcomeIgnored)
		return nil, nil
	default:
		if cmd.Manufacturer == sysex.ManufacturerID && cmd.DeviceID == d.deviceID {
			return d.reject(kind, sysex.ErrCodeUnknownCommand, cmd.CommandID), nil
		}
		observability.RecordDispatch(kind.String(), outcomeIgnored)
		return nil, nil
	}
}

func (d *Dispatcher) handleIdentityRequest(cmd sysex.Command) contracts.RawMessage {
	if cmd.DeviceID != sysex.AllCallDeviceID && cmd.DeviceID != d.deviceID {
		observability.RecordDispatch(sysex.KindIdentityRequest.String(), outcomeIgnored)
		return nil
	}
	d.logger.Info("identity request received")
	observability.RecordDispatch(sysex.KindIdentityRequest.String(), outcomeResponded)
	return sysex.IdentityReply()
}

func (d *Dispatcher) handleSetParameter(cmd sysex.Command, msg contracts.RawMessage) contracts.RawMessage {
	if len(cmd.Payload) != 2 {
		return d.reject(sysex.KindSetParameter, sysex.ErrCodeInvalidParameter, cmd.CommandID)
	}
	id, value := cmd.Payload[0], cmd.Payload[1]
	if err := d.params.Set(id, value); err != nil {
		d.logger.Warn("set parameter rejected", d.logger.Field().Error("error", err))
		return d.reject(sysex.KindSetParameter, sysex.ErrCodeInvalidParameter, cmd.CommandID)
	}
	d.logger.Debug("parameter set",
		d.logger.Field().Uint8("id", id),
		d.logger.Field().Uint8("value", value))
	observability.RecordDispatch(sysex.KindSetParameter.String(), outcomeResponded)
	// Ack-by-echo: success is signaled by returning the request unchanged.
	return msg.Clone()
}

func (d *Dispatcher) handleGetParameter(cmd sysex.Command) contracts.RawMessage {
	if len(cmd.Payload) < 1 {
		return d.reject(sysex.KindGetParameter, sysex.ErrCodeInvalidParameter, cmd.CommandID)
	}
	id := cmd.Payload[0]
	value, err := d.params.Get(id)
	if err != nil {
		d.logger.Warn("get parameter rejected", d.logger.Field().Error("error", err))
		return d.reject(sysex.KindGetParameter, sysex.ErrCodeInvalidParameter, cmd.CommandID)
	}
	observability.RecordDispatch(sysex.KindGetParameter.String(), outcomeResponded)
	return sysex.GetParameterResponse(d.deviceID, id, value)
}

func (d *Dispatcher) handleTriggerAction(cmd sysex.Command, msg contracts.RawMessage) contracts.RawMessage {
	if len(cmd.Payload) < 1 {
		return d.reject(sysex.KindTriggerAction, sysex.ErrCodeUnknownCommand, cmd.CommandID)
	}
	actionID := cmd.Payload[0]
	fn, ok := d.actions.Lookup(actionID)
	if !ok {
		d.logger.Warn("unknown action", d.logger.Field().Uint8("actionID", actionID))
		return d.reject(sysex.KindTriggerAction, sysex.ErrCodeUnknownCommand, cmd.CommandID)
	}
	if err := fn(actionID, msg); err != nil {
		d.logger.Error("action handler failed",
			d.logger.Field().Uint8("actionID", actionID),
			d.logger.Field().Error("error", err))
		return d.reject(sysex.KindTriggerAction, sysex.ErrCodeUnknownCommand, cmd.CommandID)
	}
	observability.RecordDispatch(sysex.KindTriggerAction.String(), outcomeResponded)
	return msg.Clone()
}

func (d *Dispatcher) reject(kind sysex.Kind, code, originalCommandID byte) contracts.RawMessage {
	observability.RecordDispatch(kind.String(), outcomeRejected)
	return sysex.ErrorReport(d.deviceID, code, originalCommandID)
}
