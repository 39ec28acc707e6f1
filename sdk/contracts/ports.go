package contracts

// PortInfo describes one logical MIDI port exposed by a Transport.
type PortInfo struct {
	Name         string // Port name.
	Manufacturer string // Port manufacturer, when the backend reports one.
	EntityName   string // Name of the entity to which the port belongs.
}

// InputPort is a source of complete MIDI messages. The transport delivers
// whole messages only; partial SysEx never crosses this boundary. The channel
// is closed when the port closes.
type InputPort interface {
	Name() string
	Messages() <-chan RawMessage
	Close() error
}

// OutputPort accepts one complete MIDI message for atomic transmission.
// Send returns an error once the port is closed or its peer has gone away.
type OutputPort interface {
	Name() string
	Send(msg RawMessage) error
	Close() error
}

// Transport opens MIDI ports by name. Implementations exist for CoreMIDI
// (macOS), winmm (Windows) and an in-process pipe transport used by tests and
// the emulated roles.
type Transport interface {
	Ports() ([]PortInfo, error)
	OpenInput(name string) (InputPort, error)
	OpenOutput(name string) (OutputPort, error)
	Close() error
}
