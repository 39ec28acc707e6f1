package midi

import (
	"context"
	"sync"

	"github.com/leandrodaf/midibridge/internal/dispatch"
	"github.com/leandrodaf/midibridge/internal/framer"
	"github.com/leandrodaf/midibridge/internal/trace"
	"github.com/leandrodaf/midibridge/sdk/contracts"
)

// DefaultDevicePortName is the base name of the device role's ports.
const DefaultDevicePortName = "Go Test Device"

// Device is the device-role emulator: it drains its input port, dispatches
// SysEx commands against its own parameter store and action registry, and
// answers on its output port. Non-SysEx traffic is traced but never answered.
type Device struct {
	logger     contracts.Logger
	sink       contracts.TraceSink
	params     *dispatch.ParameterStore
	actions    *dispatch.ActionRegistry
	dispatcher *dispatch.Dispatcher
	in         contracts.InputPort
	out        contracts.OutputPort

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDevice creates a device role bound to "<PortName> In"/"<PortName> Out" on
// the configured transport. The mandatory audit-log action (0x01) is
// registered out of the box; RegisterAction overrides or extends the set.
func NewDevice(opts ...contracts.Option) (*Device, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	if options.PortName == "" {
		options.PortName = DefaultDevicePortName
	}

	in, err := options.Transport.OpenInput(options.PortName + " In")
	if err != nil {
		return nil, err
	}
	out, err := options.Transport.OpenOutput(options.PortName + " Out")
	if err != nil {
		in.Close()
		return nil, err
	}

	d := &Device{
		logger:  options.Logger,
		sink:    options.TraceSink,
		params:  dispatch.NewParameterStore(),
		actions: dispatch.NewActionRegistry(),
		in:      in,
		out:     out,
	}
	d.dispatcher = dispatch.NewDispatcher(options.DeviceID, d.params, d.actions, options.Logger)

	logger := options.Logger
	d.actions.Register(dispatch.ActionIDLog, func(actionID byte, msg contracts.RawMessage) error {
		logger.Info("action triggered",
			logger.Field().Uint8("actionID", actionID),
			logger.Field().String("message", trace.Hex(msg)))
		return nil
	})

	options.Logger.Info("device role ready",
		options.Logger.Field().String("port", options.PortName),
		options.Logger.Field().Uint8("deviceID", options.DeviceID))
	return d, nil
}

// RegisterAction installs or replaces a trigger-action handler.
func (d *Device) RegisterAction(id byte, fn dispatch.ActionFunc) {
	d.actions.Register(id, fn)
}

// Parameters exposes the device's parameter store, mainly so embedding test
// harnesses can assert on stored values.
func (d *Device) Parameters() *dispatch.ParameterStore {
	return d.params
}

// Start launches the device's single service loop and returns.
func (d *Device) Start(ctx context.Context) {
	d.wg.Add(1)
	go d.serve(ctx)
}

// Stop closes the device's ports and waits for the service loop to finish.
func (d *Device) Stop() {
	d.stopOnce.Do(func() {
		d.logger.Info("stopping device role")
		if err := d.in.Close(); err != nil {
			d.logger.Warn("input close failed", d.logger.Field().Error("error", err))
		}
		if err := d.out.Close(); err != nil {
			d.logger.Warn("output close failed", d.logger.Field().Error("error", err))
		}
	})
	d.wg.Wait()
}

func (d *Device) serve(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-d.in.Messages():
			if !ok {
				return
			}
			if !d.handle(msg) {
				return
			}
		}
	}
}

// handle processes one inbound chunk and reports whether the loop stays
// alive. The gate here is delimiter-only: well-delimited SysEx flows to the
// dispatcher so an invalid payload earns a protocol error report rather than
// a silent drop. Chunks failing the gate and undecodable SysEx are traced and
// dropped; a failed response write is a transport failure and ends the loop.
func (d *Device) handle(msg contracts.RawMessage) bool {
	if _, err := framer.Delimit(msg); err != nil {
		d.logger.Warn("dropping malformed chunk", d.logger.Field().Error("error", err))
		d.emit(contracts.ClientToDevice, msg)
		return true
	}

	d.emit(contracts.ClientToDevice, msg)

	if !msg.IsSysEx() {
		// Short messages carry no commands for this device; the trace above
		// already described them.
		return true
	}

	resp, err := d.dispatcher.Handle(msg)
	if err != nil {
		d.logger.Warn("undecodable sysex dropped", d.logger.Field().Error("error", err))
		return true
	}
	if resp == nil {
		return true
	}

	if err := d.out.Send(resp); err != nil {
		d.logger.Error("response write failed; stopping device loop",
			d.logger.Field().Error("error", err))
		return false
	}
	d.emit(contracts.DeviceToClient, resp)
	return true
}

func (d *Device) emit(direction contracts.Direction, msg contracts.RawMessage) {
	if d.sink == nil {
		return
	}
	if err := d.sink.Trace(trace.Record(direction, msg)); err != nil {
		d.logger.Warn("trace emission failed", d.logger.Field().Error("error", err))
	}
}
