package contracts

import "time"

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// ClientOptions defines the configuration options for the bridge.
type ClientOptions struct {
	Logger         Logger          // Logger for logging events and errors.
	LogLevel       LogLevel        // Level of logging to use.
	LogFilePath    string          // File path for logging if file logging is enabled.
	CancelPolicy   CancelPolicy    // What to do with cancelled pickers.
	QueueSize      int             // Capacity of the UI -> engine handoff queue.
	OpenTimeout    time.Duration   // How long OpenDevice waits for the device-opened callback.
	CoreMIDIConfig *CoreMIDIConfig // Configuration specific to CoreMIDI.
	Picker         Picker          // Platform file chooser.
	Opener         DeviceOpener    // Platform MIDI backend; picked by OS when nil.
	Notifier       Notifier        // Optional toast surface for picked documents.
	OnMessage      MessageFunc     // Optional receiver for input port traffic.
	Capture        CaptureFunc     // Extracts engine state from an opened device.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile sends log output to path instead of the console.
func WithLogFile(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithCancelPolicy chooses how cancelled pickers are forwarded.
func WithCancelPolicy(p CancelPolicy) Option {
	return func(opts *ClientOptions) {
		opts.CancelPolicy = p
	}
}

// WithQueueSize sets the handoff queue capacity.
func WithQueueSize(n int) Option {
	return func(opts *ClientOptions) {
		opts.QueueSize = n
	}
}

// WithOpenTimeout bounds how long OpenDevice waits for the device-opened callback.
func WithOpenTimeout(d time.Duration) Option {
	return func(opts *ClientOptions) {
		opts.OpenTimeout = d
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}

// WithPicker sets the platform file chooser.
func WithPicker(p Picker) Option {
	return func(opts *ClientOptions) {
		opts.Picker = p
	}
}

// WithDeviceOpener overrides the OS-selected MIDI backend.
func WithDeviceOpener(o DeviceOpener) Option {
	return func(opts *ClientOptions) {
		opts.Opener = o
	}
}

// WithNotifier surfaces picked documents to the user as well as to the engine.
func WithNotifier(n Notifier) Option {
	return func(opts *ClientOptions) {
		opts.Notifier = n
	}
}

// WithMessageHandler receives MIDI traffic from opened input ports.
func WithMessageHandler(fn MessageFunc) Option {
	return func(opts *ClientOptions) {
		opts.OnMessage = fn
	}
}

// WithCapture sets what is taken from a device while its open callback runs.
func WithCapture(fn CaptureFunc) Option {
	return func(opts *ClientOptions) {
		opts.Capture = fn
	}
}
