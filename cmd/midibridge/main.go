package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/leandrodaf/midibridge/internal/dispatch"
	"github.com/leandrodaf/midibridge/internal/logger"
	"github.com/leandrodaf/midibridge/internal/observability"
	"github.com/leandrodaf/midibridge/internal/trace"
	"github.com/leandrodaf/midibridge/sdk/contracts"
	"github.com/leandrodaf/midibridge/sdk/midi"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "midibridge",
		Short: "MIDI pass-through bridge and SysEx device/client emulators",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")
	root.AddCommand(deviceCmd(), proxyCmd(), identityCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "midibridge: %v\n", err)
		os.Exit(1)
	}
}

func setup() (Config, contracts.Logger, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return Config{}, nil, err
	}
	level, err := parseLogLevel(cfg.Log.Level)
	if err != nil {
		return Config{}, nil, err
	}

	log := logger.NewZapLogger()
	log.SetLevel(level)
	if cfg.Log.File != "" {
		log.SetDestination(contracts.FileLog, cfg.Log.File)
	}

	if cfg.Metrics.Addr != "" {
		observability.RegisterMetrics()
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				log.Warn("metrics listener stopped", log.Field().Error("error", err))
			}
		}()
	}

	return cfg, log, nil
}

func deviceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "device",
		Short: "Run the SysEx device emulator on the system MIDI transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}

			transport, err := midi.NewSystemTransport("midibridge device", log)
			if err != nil {
				return err
			}
			defer transport.Close()

			device, err := midi.NewDevice(
				contracts.WithLogger(log),
				contracts.WithTransport(transport),
				contracts.WithPortName(cfg.Device.PortName),
				contracts.WithDeviceID(byte(cfg.Device.DeviceID)),
				contracts.WithTraceSink(trace.NewSink(os.Stdout)),
			)
			if err != nil {
				return err
			}
			device.RegisterAction(dispatch.ActionIDLog, auditAction(cfg.Device.AuditLog))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			device.Start(ctx)
			<-ctx.Done()
			device.Stop()
			return nil
		},
	}
}

func proxyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proxy",
		Short: "Relay between a client-facing port pair and the device ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}

			transport, err := midi.NewSystemTransport("midibridge proxy", log)
			if err != nil {
				return err
			}
			defer transport.Close()

			proxy, err := midi.NewProxy(
				cfg.Proxy.DeviceIn,
				cfg.Proxy.DeviceOut,
				contracts.WithLogger(log),
				contracts.WithTransport(transport),
				contracts.WithPortName(cfg.Proxy.PortName),
				contracts.WithTraceSink(trace.NewSink(os.Stdout)),
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			proxy.Start(ctx)
			select {
			case <-ctx.Done():
			case terr := <-proxy.Errors():
				log.Error("relay direction failed", log.Field().Error("error", terr))
			}
			proxy.Stop()
			return nil
		},
	}
}

func identityCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Send an identity request to the device ports and print the reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}

			transport, err := midi.NewSystemTransport("midibridge identity", log)
			if err != nil {
				return err
			}
			defer transport.Close()

			client, err := midi.NewClient(
				contracts.WithLogger(log),
				contracts.WithTransport(transport),
				contracts.WithDeviceID(byte(cfg.Device.DeviceID)),
			)
			if err != nil {
				return err
			}
			defer client.Stop()

			if err := client.Connect(cfg.Proxy.DeviceIn, cfg.Proxy.DeviceOut); err != nil {
				return err
			}
			if err := client.SendIdentityRequest(); err != nil {
				return err
			}

			reply, ok := client.PopReceived(timeout)
			if !ok {
				return fmt.Errorf("no identity reply within %s", timeout)
			}
			fmt.Println(trace.Hex(reply))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", time.Second, "how long to wait for the reply")
	return cmd
}

// auditAction appends one line per triggered log action, the side effect the
// protocol's mandatory action 0x01 exists for.
func auditAction(path string) dispatch.ActionFunc {
	return func(actionID byte, msg contracts.RawMessage) error {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = fmt.Fprintf(f, "TriggerAction: ID=%d, FullMsg=%s\n", actionID, trace.Hex(msg))
		return err
	}
}
