package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/leandrodaf/midibridge/sdk/contracts"
)

// Config drives the midibridge CLI. Every field has a default so a config
// file only needs to name what it overrides.
type Config struct {
	Log     LogConfig
	Device  DeviceConfig
	Proxy   ProxyConfig
	Metrics MetricsConfig
}

type LogConfig struct {
	Level string // debug, info, warn, error
	File  string // redirect logs to a file when set
}

type DeviceConfig struct {
	PortName string // base name of the device's ports
	DeviceID int    // SysEx device ID (1-127)
	AuditLog string // file the mandatory log action appends to
}

type ProxyConfig struct {
	PortName  string // base name of the proxy's client-facing ports
	DeviceIn  string // name of the device's input port
	DeviceOut string // name of the device's output port
}

type MetricsConfig struct {
	Addr string // prometheus listen address; empty disables the listener
}

type fileConfig struct {
	Log struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"log"`
	Device struct {
		PortName string `toml:"port_name"`
		DeviceID int    `toml:"device_id"`
		AuditLog string `toml:"audit_log"`
	} `toml:"device"`
	Proxy struct {
		PortName  string `toml:"port_name"`
		DeviceIn  string `toml:"device_in"`
		DeviceOut string `toml:"device_out"`
	} `toml:"proxy"`
	Metrics struct {
		Addr string `toml:"addr"`
	} `toml:"metrics"`
}

// DefaultConfig mirrors the SDK defaults.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Device: DeviceConfig{
			PortName: "Go Test Device",
			DeviceID: 0x01,
			AuditLog: "device_actions.log",
		},
		Proxy: ProxyConfig{
			PortName:  "MIDI Bridge",
			DeviceIn:  "Go Test Device In",
			DeviceOut: "Go Test Device Out",
		},
	}
}

// LoadConfig reads a TOML file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "file") {
		cfg.Log.File = strings.TrimSpace(raw.Log.File)
	}
	if meta.IsDefined("device", "port_name") {
		cfg.Device.PortName = strings.TrimSpace(raw.Device.PortName)
	}
	if meta.IsDefined("device", "device_id") {
		if raw.Device.DeviceID < 1 || raw.Device.DeviceID > 0x7F {
			return Config{}, fmt.Errorf("device_id %d out of range 1-127", raw.Device.DeviceID)
		}
		cfg.Device.DeviceID = raw.Device.DeviceID
	}
	if meta.IsDefined("device", "audit_log") {
		cfg.Device.AuditLog = strings.TrimSpace(raw.Device.AuditLog)
	}
	if meta.IsDefined("proxy", "port_name") {
		cfg.Proxy.PortName = strings.TrimSpace(raw.Proxy.PortName)
	}
	if meta.IsDefined("proxy", "device_in") {
		cfg.Proxy.DeviceIn = strings.TrimSpace(raw.Proxy.DeviceIn)
	}
	if meta.IsDefined("proxy", "device_out") {
		cfg.Proxy.DeviceOut = strings.TrimSpace(raw.Proxy.DeviceOut)
	}
	if meta.IsDefined("metrics", "addr") {
		cfg.Metrics.Addr = strings.TrimSpace(raw.Metrics.Addr)
	}

	return cfg, nil
}

// parseLogLevel maps the config string onto the contracts level.
func parseLogLevel(level string) (contracts.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return contracts.DebugLevel, nil
	case "", "info":
		return contracts.InfoLevel, nil
	case "warn":
		return contracts.WarnLevel, nil
	case "error":
		return contracts.ErrorLevel, nil
	default:
		return contracts.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}
