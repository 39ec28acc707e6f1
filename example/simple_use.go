package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/leandrodaf/midibridge/internal/logger"
	"github.com/leandrodaf/midibridge/internal/trace"
	"github.com/leandrodaf/midibridge/internal/transport/memory"
	"github.com/leandrodaf/midibridge/sdk/contracts"
	"github.com/leandrodaf/midibridge/sdk/midi"
)

func main() {
	log := logger.NewZapLogger()
	transport := memory.New(0)
	sink := trace.NewSink(os.Stdout)

	device, err := midi.NewDevice(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithTransport(transport),
		contracts.WithTraceSink(sink),
	)
	if err != nil {
		log.Error("Failed to initialize device role", log.Field().Error("error", err))
		return
	}

	proxy, err := midi.NewProxy(
		midi.DefaultDevicePortName+" In",
		midi.DefaultDevicePortName+" Out",
		contracts.WithLogger(log),
		contracts.WithTransport(transport),
		contracts.WithTraceSink(sink),
	)
	if err != nil {
		log.Error("Failed to initialize proxy role", log.Field().Error("error", err))
		return
	}

	client, err := midi.NewClient(
		contracts.WithLogger(log),
		contracts.WithTransport(transport),
	)
	if err != nil {
		log.Error("Failed to initialize client role", log.Field().Error("error", err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	device.Start(ctx)
	proxy.Start(ctx)
	defer device.Stop()
	defer proxy.Stop()

	// Talk to the device through the proxy's client-facing ports.
	if err := client.Connect(midi.DefaultProxyPortName+" In", midi.DefaultProxyPortName+" Out"); err != nil {
		log.Error("Failed to connect client", log.Field().Error("error", err))
		return
	}
	defer client.Stop()

	if err := client.SendIdentityRequest(); err != nil {
		log.Error("Failed to send identity request", log.Field().Error("error", err))
		return
	}
	if reply, ok := client.PopReceived(time.Second); ok {
		fmt.Println("Identity reply:", trace.Hex(reply))
	}

	if err := client.SendSetParameter(0x02, 0x40); err != nil {
		log.Error("Failed to set parameter", log.Field().Error("error", err))
		return
	}
	if echo, ok := client.PopReceived(time.Second); ok {
		fmt.Println("Set acknowledged:", trace.Hex(echo))
	}

	if err := client.SendGetParameter(0x02); err != nil {
		log.Error("Failed to get parameter", log.Field().Error("error", err))
		return
	}
	if value, ok := client.PopReceived(time.Second); ok {
		fmt.Println("Parameter value:", trace.Hex(value))
	}
}
