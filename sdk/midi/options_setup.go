package midi

import (
	"github.com/leandrodaf/midibridge/internal/logger"
	"github.com/leandrodaf/midibridge/internal/transport/memory"
	"github.com/leandrodaf/midibridge/sdk/contracts"
)

// DefaultDeviceID is the SysEx device ID a device answers to when none is
// configured, matching the ID the client targets by default.
const DefaultDeviceID = 0x01

// applyDefaultOptions sets default values for Options if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify Options.
//
// Returns:
//   - contracts.Options: A structure containing the finalized options with defaults applied.
//   - error: An error if there was an issue applying the options.
func applyDefaultOptions(opts ...contracts.Option) (contracts.Options, error) {
	options := &contracts.Options{}
	for _, opt := range opts {
		opt(options)
	}

	// Set defaults if options are not provided
	if options.Logger == nil {
		options.Logger = logger.NewZapLogger() // Default to the zap-backed logger
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel // Default log level to InfoLevel
	}
	if options.Transport == nil {
		options.Transport = memory.New(0) // Default to the in-process pipe transport
	}
	if options.DeviceID == 0 {
		options.DeviceID = DefaultDeviceID
	}

	options.Logger.SetLevel(options.LogLevel) // Set the logger to the specified log level
	return *options, nil
}
