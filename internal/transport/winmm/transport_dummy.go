//go:build !windows
// +build !windows

package winmm

import (
	"fmt"

	"github.com/leandrodaf/midibridge/sdk/contracts"
)

// Transport is the stand-in used when winmm is unavailable.
type Transport struct {
	logger contracts.Logger
}

// New reports that winmm is only available on Windows.
func New(logger contracts.Logger) (*Transport, error) {
	logger.Info("Using dummy winmm transport for non-Windows system")
	return &Transport{logger: logger}, nil
}

func (t *Transport) Ports() ([]contracts.PortInfo, error) {
	t.logger.Warn("Ports called on dummy winmm transport")
	return nil, fmt.Errorf("winmm is not available on this platform")
}

func (t *Transport) OpenInput(name string) (contracts.InputPort, error) {
	t.logger.Warn("OpenInput called on dummy winmm transport")
	return nil, fmt.Errorf("winmm is not available on this platform")
}

func (t *Transport) OpenOutput(name string) (contracts.OutputPort, error) {
	t.logger.Warn("OpenOutput called on dummy winmm transport")
	return nil, fmt.Errorf("winmm is not available on this platform")
}

func (t *Transport) Close() error {
	return nil
}
