package contracts

// Options defines the configuration shared by the bridge roles (device,
// client, proxy).
type Options struct {
	Logger    Logger    // Logger for events and errors.
	LogLevel  LogLevel  // Level of logging to use.
	Transport Transport // Port transport; defaults to the in-process pipe transport.
	TraceSink TraceSink // Sink for per-message trace records; nil disables tracing.
	DeviceID  byte      // SysEx device ID the device role answers to.
	PortName  string    // Base name for the role's ports ("<name> In"/"<name> Out").
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithLogger sets the logger for the role.
func WithLogger(l Logger) Option {
	return func(opts *Options) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the role.
func WithLogLevel(level LogLevel) Option {
	return func(opts *Options) {
		opts.LogLevel = level
	}
}

// WithTransport sets the port transport the role opens its ports on.
func WithTransport(t Transport) Option {
	return func(opts *Options) {
		opts.Transport = t
	}
}

// WithTraceSink sets the sink that receives a TraceRecord per observed message.
func WithTraceSink(s TraceSink) Option {
	return func(opts *Options) {
		opts.TraceSink = s
	}
}

// WithDeviceID sets the SysEx device ID for the device role.
func WithDeviceID(id byte) Option {
	return func(opts *Options) {
		opts.DeviceID = id
	}
}

// WithPortName sets the base name used when opening the role's ports.
func WithPortName(name string) Option {
	return func(opts *Options) {
		opts.PortName = name
	}
}
