package midi

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/midibridge/internal/transport/coremidi"
	"github.com/leandrodaf/midibridge/internal/transport/winmm"
	"github.com/leandrodaf/midibridge/sdk/contracts"
)

// ErrUnsupportedOS is returned when no system MIDI transport exists for the
// current operating system.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// transportInitializers maps OS names to corresponding system transport initializers.
var transportInitializers = map[string]func(string, contracts.Logger) (contracts.Transport, error){
	"darwin": func(clientName string, logger contracts.Logger) (contracts.Transport, error) {
		return coremidi.New(clientName, logger) // macOS (Darwin) CoreMIDI transport.
	},
	"windows": func(clientName string, logger contracts.Logger) (contracts.Transport, error) {
		return winmm.New(logger) // Windows winmm transport.
	},
}

// NewSystemTransport initializes the OS MIDI transport for the current
// platform, returning ErrUnsupportedOS where none exists. The emulated roles
// and tests use the in-process pipe transport instead.
func NewSystemTransport(clientName string, logger contracts.Logger) (contracts.Transport, error) {
	if initializer, exists := transportInitializers[runtime.GOOS]; exists {
		return initializer(clientName, logger)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
}
