// Package memory provides an in-process port transport. A named pipe stands
// in for one virtual MIDI port: anything sent to the pipe's output side is
// delivered, in order, to whoever holds its input side. Tests and the
// emulated roles run entirely on this transport, so no OS MIDI stack is
// needed for the direct-vs-proxied equivalence harness.
package memory

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/leandrodaf/midibridge/sdk/contracts"
)

// DefaultBuffer is the per-pipe message buffer, standing in for the native
// buffering a real MIDI port provides. A full pipe blocks the sender; nothing
// is dropped.
const DefaultBuffer = 64

var (
	// ErrPortClosed is returned by Send once a pipe has been closed.
	ErrPortClosed = errors.New("memory: port closed")
	// ErrTransportClosed is returned when opening ports on a closed transport.
	ErrTransportClosed = errors.New("memory: transport closed")
)

// Transport implements contracts.Transport over named in-process pipes.
// Opening an input and an output with the same port name connects them.
type Transport struct {
	mu     sync.Mutex
	buffer int
	pipes  map[string]*pipe
	closed bool
}

// New returns a transport whose pipes buffer up to buffer messages each.
// buffer <= 0 selects DefaultBuffer.
func New(buffer int) *Transport {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Transport{buffer: buffer, pipes: make(map[string]*pipe)}
}

// Ports lists every pipe opened so far, sorted by name.
func (t *Transport) Ports() ([]contracts.PortInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrTransportClosed
	}
	names := make([]string, 0, len(t.pipes))
	for name := range t.pipes {
		names = append(names, name)
	}
	sort.Strings(names)
	infos := make([]contracts.PortInfo, len(names))
	for i, name := range names {
		infos[i] = contracts.PortInfo{Name: name, Manufacturer: "midibridge", EntityName: "memory"}
	}
	return infos, nil
}

// OpenInput attaches to the receiving side of the named pipe, creating it on
// first use.
func (t *Transport) OpenInput(name string) (contracts.InputPort, error) {
	p, err := t.pipe(name)
	if err != nil {
		return nil, err
	}
	return newInputPort(p), nil
}

// OpenOutput attaches to the sending side of the named pipe, creating it on
// first use.
func (t *Transport) OpenOutput(name string) (contracts.OutputPort, error) {
	p, err := t.pipe(name)
	if err != nil {
		return nil, err
	}
	return &outputPort{pipe: p}, nil
}

// Close tears down every pipe. In-flight deliveries complete; subsequent
// sends fail with ErrPortClosed.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	for _, p := range t.pipes {
		p.close()
	}
	return nil
}

func (t *Transport) pipe(name string) (*pipe, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrTransportClosed
	}
	p, ok := t.pipes[name]
	if !ok {
		p = &pipe{
			name: name,
			ch:   make(chan contracts.RawMessage, t.buffer),
			done: make(chan struct{}),
		}
		t.pipes[name] = p
	}
	return p, nil
}

// pipe is one virtual port. ch is never closed; done signals closure so a
// blocked sender can give up without racing a channel close.
type pipe struct {
	name      string
	ch        chan contracts.RawMessage
	done      chan struct{}
	closeOnce sync.Once
}

func (p *pipe) close() {
	p.closeOnce.Do(func() { close(p.done) })
}

func (p *pipe) send(msg contracts.RawMessage) error {
	select {
	case <-p.done:
		return fmt.Errorf("%w: %s", ErrPortClosed, p.name)
	default:
	}
	select {
	case p.ch <- msg.Clone():
		return nil
	case <-p.done:
		return fmt.Errorf("%w: %s", ErrPortClosed, p.name)
	}
}

// inputPort adapts a pipe to contracts.InputPort. A forwarding goroutine owns
// the delivery channel so it can be closed exactly once, after draining what
// was already buffered. done is this port's own close signal: it releases a
// pump stuck mid-delivery when the consumer went away without draining.
type inputPort struct {
	pipe      *pipe
	out       chan contracts.RawMessage
	done      chan struct{}
	closeOnce sync.Once
}

func newInputPort(p *pipe) *inputPort {
	in := &inputPort{
		pipe: p,
		out:  make(chan contracts.RawMessage),
		done: make(chan struct{}),
	}
	go in.pump()
	return in
}

func (in *inputPort) pump() {
	defer close(in.out)
	for {
		select {
		case msg := <-in.pipe.ch:
			if !in.deliver(msg) {
				return
			}
		case <-in.pipe.done:
			// Drain anything delivered before the close.
			for {
				select {
				case msg := <-in.pipe.ch:
					if !in.deliver(msg) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// deliver reports whether the consumer is still there.
func (in *inputPort) deliver(msg contracts.RawMessage) bool {
	select {
	case in.out <- msg:
		return true
	case <-in.done:
		return false
	}
}

func (in *inputPort) Name() string { return in.pipe.name }

func (in *inputPort) Messages() <-chan contracts.RawMessage { return in.out }

func (in *inputPort) Close() error {
	in.pipe.close()
	in.closeOnce.Do(func() { close(in.done) })
	return nil
}

type outputPort struct {
	pipe *pipe
}

func (o *outputPort) Name() string { return o.pipe.name }

func (o *outputPort) Send(msg contracts.RawMessage) error {
	return o.pipe.send(msg)
}

func (o *outputPort) Close() error {
	o.pipe.close()
	return nil
}
