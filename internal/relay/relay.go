// Package relay implements the proxy role's pass-through engine: two
// independent direction pumps copying messages byte-exact between a
// client-facing and a device-facing port pair.
package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/leandrodaf/midibridge/internal/framer"
	"github.com/leandrodaf/midibridge/internal/observability"
	"github.com/leandrodaf/midibridge/internal/trace"
	"github.com/leandrodaf/midibridge/sdk/contracts"
)

// PortPair is the two ports facing one side of the bridge.
type PortPair struct {
	In  contracts.InputPort
	Out contracts.OutputPort
}

// TransportError reports that one relay direction stopped because its
// destination port failed. The opposite direction is unaffected.
type TransportError struct {
	Direction contracts.Direction
	Err       error
}

func (e TransportError) Error() string {
	return fmt.Sprintf("relay %s: %v", e.Direction, e.Err)
}

func (e TransportError) Unwrap() error { return e.Err }

// Engine forwards messages between the client-facing and device-facing pairs.
// Within a direction order is preserved; between directions no ordering is
// promised. The engine never decodes a message to forward it.
type Engine struct {
	client PortPair
	device PortPair
	logger contracts.Logger
	sink   contracts.TraceSink

	errs     chan TransportError
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New wires an engine to its two port pairs. sink may be nil to disable
// tracing.
func New(client, device PortPair, logger contracts.Logger, sink contracts.TraceSink) *Engine {
	return &Engine{
		client: client,
		device: device,
		logger: logger,
		sink:   sink,
		errs:   make(chan TransportError, 2),
	}
}

// Start launches one pump per direction and returns. Cancel ctx or call Stop
// to end relaying.
func (e *Engine) Start(ctx context.Context) {
	e.wg.Add(2)
	go e.pump(ctx, contracts.ClientToDevice, e.client.In, e.device.Out)
	go e.pump(ctx, contracts.DeviceToClient, e.device.In, e.client.Out)
}

// Errors delivers at most one TransportError per direction.
func (e *Engine) Errors() <-chan TransportError {
	return e.errs
}

// Stop closes all four ports and waits for both pumps to finish their
// in-flight message. Safe to call more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.logger.Info("stopping relay")
		for _, port := range []interface{ Close() error }{e.client.In, e.device.In, e.client.Out, e.device.Out} {
			if port == nil {
				continue
			}
			if err := port.Close(); err != nil {
				e.logger.Warn("port close failed", e.logger.Field().Error("error", err))
			}
		}
	})
	e.wg.Wait()
}

// pump drains one input and writes each message unchanged to the opposite
// output, then emits a trace record. A malformed chunk is dropped, never
// forwarded partially. A send failure stops this direction only.
func (e *Engine) pump(ctx context.Context, direction contracts.Direction, in contracts.InputPort, out contracts.OutputPort) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in.Messages():
			if !ok {
				return
			}
			if !e.forward(direction, msg, out) {
				return
			}
		}
	}
}

// forward reports whether the direction is still alive.
func (e *Engine) forward(direction contracts.Direction, msg contracts.RawMessage, out contracts.OutputPort) bool {
	if _, err := framer.Classify(msg); err != nil {
		e.logger.Warn("dropping malformed chunk",
			e.logger.Field().String("direction", direction.String()),
			e.logger.Field().Error("error", err))
		observability.RecordRelayDrop(direction.String())
		e.emit(direction, msg)
		return true
	}

	if err := out.Send(msg); err != nil {
		e.logger.Error("destination port unavailable; stopping direction",
			e.logger.Field().String("direction", direction.String()),
			e.logger.Field().Error("error", err))
		observability.RecordRelayTransportError(direction.String())
		e.errs <- TransportError{Direction: direction, Err: err}
		return false
	}

	observability.RecordRelayMessage(direction.String())
	e.emit(direction, msg)
	return true
}

func (e *Engine) emit(direction contracts.Direction, msg contracts.RawMessage) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Trace(trace.Record(direction, msg)); err != nil {
		e.logger.Warn("trace emission failed", e.logger.Field().Error("error", err))
	}
}
