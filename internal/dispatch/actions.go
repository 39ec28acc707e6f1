package dispatch

import (
	"sync"

	"github.com/leandrodaf/midibridge/sdk/contracts"
)

// ActionIDLog is the mandatory audit-log action every device registers.
const ActionIDLog = 0x01

// ActionFunc is a side-effecting handler invoked synchronously when a
// TriggerAction command names its ID. The handler's side effects (such as
// appending an audit line) belong to the embedding application; the
// dispatcher only maps its outcome onto success or failure.
type ActionFunc func(actionID byte, msg contracts.RawMessage) error

// ActionRegistry maps action IDs to handlers. Owned by one device instance.
type ActionRegistry struct {
	mu       sync.Mutex
	handlers map[byte]ActionFunc
}

// NewActionRegistry returns an empty registry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{handlers: make(map[byte]ActionFunc)}
}

// Register installs or replaces the handler for an action ID.
func (r *ActionRegistry) Register(id byte, fn ActionFunc) {
	r.mu.Lock()
	r.handlers[id] = fn
	r.mu.Unlock()
}

// Lookup returns the handler for an action ID, if one is registered.
func (r *ActionRegistry) Lookup(id byte) (ActionFunc, bool) {
	r.mu.Lock()
	fn, ok := r.handlers[id]
	r.mu.Unlock()
	return fn, ok
}
