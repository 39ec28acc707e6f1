package midi

import (
	"errors"
	"sync"
	"time"

	"github.com/leandrodaf/midibridge/internal/sysex"
	"github.com/leandrodaf/midibridge/internal/trace"
	"github.com/leandrodaf/midibridge/sdk/contracts"
)

// receiveBuffer bounds the client's received-message queue.
const receiveBuffer = 128

// ErrNotConnected is returned by the send methods before Connect succeeds.
var ErrNotConnected = errors.New("midi: client not connected to a device")

// Client is the client-role emulator: typed SysEx senders plus a received
// queue drained from the device's output port.
type Client struct {
	logger   contracts.Logger
	sink     contracts.TraceSink
	options  contracts.Options
	deviceID byte

	mu       sync.Mutex
	out      contracts.OutputPort
	in       contracts.InputPort
	received chan contracts.RawMessage

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewClient creates a client role on the configured transport. Call Connect
// to bind it to a device's (or proxy's) port pair before sending.
func NewClient(opts ...contracts.Option) (*Client, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Client{
		logger:   options.Logger,
		sink:     options.TraceSink,
		options:  options,
		deviceID: options.DeviceID,
		received: make(chan contracts.RawMessage, receiveBuffer),
	}, nil
}

// Connect binds the client's output to the named device input port and its
// input to the named device output port, then starts draining responses.
func (c *Client) Connect(deviceInName, deviceOutName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.out != nil || c.in != nil {
		return errors.New("midi: client already connected")
	}

	out, err := c.options.Transport.OpenOutput(deviceInName)
	if err != nil {
		return err
	}
	in, err := c.options.Transport.OpenInput(deviceOutName)
	if err != nil {
		out.Close()
		return err
	}
	c.out = out
	c.in = in

	c.wg.Add(1)
	go c.receive(in)

	c.logger.Info("client connected",
		c.logger.Field().String("to", deviceInName),
		c.logger.Field().String("from", deviceOutName))
	return nil
}

func (c *Client) receive(in contracts.InputPort) {
	defer c.wg.Done()
	for msg := range in.Messages() {
		if c.sink != nil {
			if err := c.sink.Trace(trace.Record(contracts.DeviceToClient, msg)); err != nil {
				c.logger.Warn("trace emission failed", c.logger.Field().Error("error", err))
			}
		}
		select {
		case c.received <- msg:
		default:
			c.logger.Warn("receive buffer full; dropping message",
				c.logger.Field().String("message", trace.Hex(msg)))
		}
	}
}

// SendRaw transmits one complete MIDI message as-is.
func (c *Client) SendRaw(msg contracts.RawMessage) error {
	c.mu.Lock()
	out := c.out
	c.mu.Unlock()
	if out == nil {
		return ErrNotConnected
	}
	if err := out.Send(msg); err != nil {
		return err
	}
	if c.sink != nil {
		if err := c.sink.Trace(trace.Record(contracts.ClientToDevice, msg)); err != nil {
			c.logger.Warn("trace emission failed", c.logger.Field().Error("error", err))
		}
	}
	return nil
}

// SendIdentityRequest sends the universal identity request (all-call).
func (c *Client) SendIdentityRequest() error {
	return c.SendRaw(sysex.IdentityRequest())
}

// SendSetParameter sends a SetParameter command to the configured device ID.
func (c *Client) SendSetParameter(paramID, value byte) error {
	return c.SendRaw(sysex.SetParameter(c.deviceID, paramID, value))
}

// SendGetParameter sends a GetParameter request to the configured device ID.
func (c *Client) SendGetParameter(paramID byte) error {
	return c.SendRaw(sysex.GetParameter(c.deviceID, paramID))
}

// SendTriggerAction sends a TriggerAction command to the configured device ID.
func (c *Client) SendTriggerAction(actionID byte) error {
	return c.SendRaw(sysex.TriggerAction(c.deviceID, actionID))
}

// PopReceived returns the oldest queued response, waiting up to timeout for
// one to arrive.
func (c *Client) PopReceived(timeout time.Duration) (contracts.RawMessage, bool) {
	select {
	case msg := <-c.received:
		return msg, true
	case <-time.After(timeout):
		return nil, false
	}
}

// ClearReceived discards everything queued so far.
func (c *Client) ClearReceived() {
	for {
		select {
		case <-c.received:
		default:
			return
		}
	}
}

// Stop closes both ports and waits for the receive loop to finish.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		c.logger.Info("stopping client role")
		c.mu.Lock()
		in, out := c.in, c.out
		c.mu.Unlock()
		if in != nil {
			if err := in.Close(); err != nil {
				c.logger.Warn("input close failed", c.logger.Field().Error("error", err))
			}
		}
		if out != nil {
			if err := out.Close(); err != nil {
				c.logger.Warn("output close failed", c.logger.Field().Error("error", err))
			}
		}
	})
	c.wg.Wait()
}
