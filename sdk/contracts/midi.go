package contracts

import "fmt"

// Handle is the opaque identifier the native side uses for its per-device
// state. It is an arena index, never an address; zero is never valid.
type Handle uint64

func (h Handle) String() string {
	return fmt.Sprintf("%#x", uint64(h))
}

// Device is the OS handle for a MIDI device that just finished opening. It is
// only valid for the duration of the DeviceSink call that receives it.
type Device interface {
	// Name is the port name reported by the backend.
	Name() string
	// Underlying returns the backend's port object, or an error once the
	// device is no longer valid.
	Underlying() (any, error)
}

// DeviceSink is the native entry point for "device opened" notifications. It
// is called synchronously from the platform callback and has no return value;
// implementations must capture whatever they need from dev before returning.
type DeviceSink interface {
	DeviceOpened(dev Device, h Handle, isOutput bool)
}

// DeviceSinkFunc adapts a function to DeviceSink.
type DeviceSinkFunc func(dev Device, h Handle, isOutput bool)

// DeviceOpened calls f.
func (f DeviceSinkFunc) DeviceOpened(dev Device, h Handle, isOutput bool) {
	f(dev, h, isOutput)
}

// OpenedFunc is the platform callback a DeviceOpener fires once a requested
// device finished opening. It is never fired when the open fails.
type OpenedFunc func(dev Device, h Handle, isOutput bool)

// DeviceOpener is a platform MIDI backend.
type DeviceOpener interface {
	// ListDevices lists the ports the backend can open.
	ListDevices() ([]DeviceInfo, error)
	// Open asks the backend to open the named port. onOpened may fire before
	// Open returns, later from another thread, or not at all.
	Open(name string, h Handle, isOutput bool, onOpened OpenedFunc) error
	// Close releases every port opened through the backend.
	Close() error
}

// MessageFunc receives raw MIDI bytes arriving on an opened input port,
// tagged with the handle the port was opened for. It runs on the backend's
// thread.
type MessageFunc func(h Handle, data []byte, timestamp uint64)

// CaptureFunc runs inside the device-opened callback and extracts what the
// engine needs (typically its ports) while the device is still valid.
type CaptureFunc func(dev Device, h Handle, isOutput bool) (any, error)
