package midi

import (
	"context"

	"github.com/leandrodaf/midibridge/internal/relay"
	"github.com/leandrodaf/midibridge/sdk/contracts"
)

// DefaultProxyPortName is the base name of the proxy's client-facing ports.
const DefaultProxyPortName = "MIDI Bridge"

// Proxy is the pass-through role: it presents its own client-facing port pair
// ("<PortName> In"/"<PortName> Out") and forwards everything byte-exact to
// and from the named device ports.
type Proxy struct {
	engine *relay.Engine
	logger contracts.Logger
}

// NewProxy binds a proxy between its own port pair and the device's
// deviceInName/deviceOutName ports. Clients connect to the proxy's ports
// exactly as they would connect to the device directly.
func NewProxy(deviceInName, deviceOutName string, opts ...contracts.Option) (*Proxy, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	if options.PortName == "" {
		options.PortName = DefaultProxyPortName
	}

	clientIn, err := options.Transport.OpenInput(options.PortName + " In")
	if err != nil {
		return nil, err
	}
	clientOut, err := options.Transport.OpenOutput(options.PortName + " Out")
	if err != nil {
		clientIn.Close()
		return nil, err
	}
	deviceOut, err := options.Transport.OpenOutput(deviceInName)
	if err != nil {
		clientIn.Close()
		clientOut.Close()
		return nil, err
	}
	deviceIn, err := options.Transport.OpenInput(deviceOutName)
	if err != nil {
		clientIn.Close()
		clientOut.Close()
		deviceOut.Close()
		return nil, err
	}

	engine := relay.New(
		relay.PortPair{In: clientIn, Out: clientOut},
		relay.PortPair{In: deviceIn, Out: deviceOut},
		options.Logger,
		options.TraceSink,
	)

	options.Logger.Info("proxy role ready",
		options.Logger.Field().String("port", options.PortName),
		options.Logger.Field().String("deviceIn", deviceInName),
		options.Logger.Field().String("deviceOut", deviceOutName))
	return &Proxy{engine: engine, logger: options.Logger}, nil
}

// Start launches both relay directions.
func (p *Proxy) Start(ctx context.Context) {
	p.engine.Start(ctx)
}

// Errors surfaces per-direction transport failures.
func (p *Proxy) Errors() <-chan relay.TransportError {
	return p.engine.Errors()
}

// Stop closes all four ports and waits for both directions to drain.
func (p *Proxy) Stop() {
	p.engine.Stop()
}
