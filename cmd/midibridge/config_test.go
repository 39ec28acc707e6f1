package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leandrodaf/midibridge/sdk/contracts"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "Go Test Device", cfg.Device.PortName)
	require.Equal(t, 0x01, cfg.Device.DeviceID)
	require.Equal(t, "device_actions.log", cfg.Device.AuditLog)
	require.Equal(t, "MIDI Bridge", cfg.Proxy.PortName)
	require.Empty(t, cfg.Metrics.Addr)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig("ex.config.toml")
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "Bench Device", cfg.Device.PortName)
	require.Equal(t, 9, cfg.Device.DeviceID)
	require.Equal(t, "bench_actions.log", cfg.Device.AuditLog)
	require.Equal(t, "Bench Bridge", cfg.Proxy.PortName)
	require.Equal(t, "Bench Device In", cfg.Proxy.DeviceIn)
	require.Equal(t, "Bench Device Out", cfg.Proxy.DeviceOut)
	require.Equal(t, "127.0.0.1:9309", cfg.Metrics.Addr)
}

func TestLoadConfigPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[device]\nport_name = \"Studio Device\"\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "Studio Device", cfg.Device.PortName)
	// Everything else stays at its default.
	require.Equal(t, 0x01, cfg.Device.DeviceID)
	require.Equal(t, "MIDI Bridge", cfg.Proxy.PortName)
}

func TestLoadConfigRejectsBadDeviceID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[device]\ndevice_id = 200\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	level, err := parseLogLevel("warn")
	require.NoError(t, err)
	require.Equal(t, contracts.WarnLevel, level)

	level, err = parseLogLevel("")
	require.NoError(t, err)
	require.Equal(t, contracts.InfoLevel, level)

	_, err = parseLogLevel("chatty")
	require.Error(t, err)
}
