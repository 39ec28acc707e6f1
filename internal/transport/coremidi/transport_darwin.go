//go:build darwin
// +build darwin

package coremidi

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/leandrodaf/midibridge/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for CoreMIDI port handling.
var (
	ErrNoMIDIPorts    = errors.New("no MIDI ports found")
	ErrPortNotFound   = errors.New("MIDI port not found")
	ErrCreatePort     = errors.New("error creating MIDI port")
	ErrConnectionLost = errors.New("error connecting to MIDI port")
)

// inputBuffer bounds each input port's delivery channel; CoreMIDI invokes the
// read callback on its own thread.
const inputBuffer = 64

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// Transport implements contracts.Transport over CoreMIDI on macOS.
type Transport struct {
	logger contracts.Logger
	client coremidi.Client
	mu     sync.Mutex
	closed bool
	inputs []*inputPort
}

// New creates a CoreMIDI-backed transport with the given client name.
func New(clientName string, logger contracts.Logger) (*Transport, error) {
	client, err := coremidi.NewClient(clientName)
	if err != nil {
		return nil, err
	}
	logger.Info("CoreMIDI client successfully created")
	return &Transport{logger: logger, client: client}, nil
}

// Ports lists every source and destination known to CoreMIDI.
func (t *Transport) Ports() ([]contracts.PortInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	if len(sources) == 0 && len(destinations) == 0 {
		t.logger.Warn(ErrNoMIDIPorts.Error())
		return nil, ErrNoMIDIPorts
	}

	infos := make([]contracts.PortInfo, 0, len(sources)+len(destinations))
	for _, source := range sources {
		entity := source.Entity()
		infos = append(infos, contracts.PortInfo{
			Name:         source.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
		})
	}
	for _, destination := range destinations {
		entity := destination.Entity()
		infos = append(infos, contracts.PortInfo{
			Name:         destination.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
		})
	}
	return infos, nil
}

// OpenInput connects to the first source whose name contains name.
func (t *Transport) OpenInput(name string) (contracts.InputPort, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error retrieving MIDI sources: %w", err)
	}

	for _, source := range sources {
		if !strings.Contains(source.Name(), name) {
			continue
		}
		in := &inputPort{
			name:     source.Name(),
			logger:   t.logger,
			messages: make(chan contracts.RawMessage, inputBuffer),
		}
		port, err := coremidi.NewInputPort(t.client, name, in.handlePacket)
		if err != nil {
			t.logger.Error(ErrCreatePort.Error())
			return nil, fmt.Errorf("%w: %v", ErrCreatePort, err)
		}
		conn, err := port.Connect(source)
		if err != nil {
			t.logger.Error(ErrConnectionLost.Error())
			return nil, fmt.Errorf("%w: %v", ErrConnectionLost, err)
		}
		in.conn = conn
		t.track(in)
		t.logger.Info("MIDI source connected", t.logger.Field().String("port", source.Name()))
		return in, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPortNotFound, name)
}

// OpenOutput binds to the first destination whose name contains name.
func (t *Transport) OpenOutput(name string) (contracts.OutputPort, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}

	for _, destination := range destinations {
		if !strings.Contains(destination.Name(), name) {
			continue
		}
		port, err := coremidi.NewOutputPort(t.client, name)
		if err != nil {
			t.logger.Error(ErrCreatePort.Error())
			return nil, fmt.Errorf("%w: %v", ErrCreatePort, err)
		}
		t.logger.Info("MIDI destination connected", t.logger.Field().String("port", destination.Name()))
		return &outputPort{
			name:        destination.Name(),
			port:        port,
			destination: destination,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPortNotFound, name)
}

// Close disconnects every open input.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	for _, in := range t.inputs {
		in.Close()
	}
	return nil
}

func (t *Transport) track(in *inputPort) {
	t.mu.Lock()
	t.inputs = append(t.inputs, in)
	t.mu.Unlock()
}

// inputPort adapts a connected CoreMIDI source to contracts.InputPort.
type inputPort struct {
	name      string
	logger    contracts.Logger
	conn      internalPortConnection
	messages  chan contracts.RawMessage
	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
}

// handlePacket runs on the CoreMIDI callback thread; each packet is one
// complete MIDI message.
func (in *inputPort) handlePacket(source coremidi.Source, packet coremidi.Packet) {
	if len(packet.Data) == 0 {
		return
	}
	msg := contracts.RawMessage(packet.Data).Clone()

	// The mutex orders this send against Close so the channel is never
	// closed mid-send.
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return
	}
	select {
	case in.messages <- msg:
	default:
		in.logger.Warn("input buffer full; dropping MIDI message")
	}
}

func (in *inputPort) Name() string { return in.name }

func (in *inputPort) Messages() <-chan contracts.RawMessage { return in.messages }

func (in *inputPort) Close() error {
	in.closeOnce.Do(func() {
		if in.conn != nil {
			in.conn.Disconnect()
		}
		in.mu.Lock()
		in.closed = true
		close(in.messages)
		in.mu.Unlock()
	})
	return nil
}

// outputPort adapts a CoreMIDI destination to contracts.OutputPort.
type outputPort struct {
	name        string
	port        coremidi.OutputPort
	destination coremidi.Destination
	mu          sync.Mutex
	closed      bool
}

func (o *outputPort) Name() string { return o.name }

func (o *outputPort) Send(msg contracts.RawMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return fmt.Errorf("%w: %s", ErrPortNotFound, o.name)
	}
	packet := coremidi.NewPacket(msg, 0)
	if err := packet.Send(&o.port, &o.destination); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}
	return nil
}

func (o *outputPort) Close() error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	return nil
}
