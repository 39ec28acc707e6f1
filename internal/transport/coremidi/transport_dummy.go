//go:build !darwin
// +build !darwin

package coremidi

import (
	"fmt"

	"github.com/leandrodaf/midibridge/sdk/contracts"
)

// Transport is the stand-in used when CoreMIDI is unavailable.
type Transport struct {
	logger contracts.Logger
}

// New reports that CoreMIDI is only available on macOS.
func New(clientName string, logger contracts.Logger) (*Transport, error) {
	logger.Info("Using dummy CoreMIDI transport for non-macOS system")
	return &Transport{logger: logger}, nil
}

func (t *Transport) Ports() ([]contracts.PortInfo, error) {
	t.logger.Warn("Ports called on dummy CoreMIDI transport")
	return nil, fmt.Errorf("CoreMIDI is not available on this platform")
}

func (t *Transport) OpenInput(name string) (contracts.InputPort, error) {
	t.logger.Warn("OpenInput called on dummy CoreMIDI transport")
	return nil, fmt.Errorf("CoreMIDI is not available on this platform")
}

func (t *Transport) OpenOutput(name string) (contracts.OutputPort, error) {
	t.logger.Warn("OpenOutput called on dummy CoreMIDI transport")
	return nil, fmt.Errorf("CoreMIDI is not available on this platform")
}

func (t *Transport) Close() error {
	return nil
}
