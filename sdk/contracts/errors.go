package contracts

import "errors"

// Failure taxonomy at the platform boundary. None of these are fatal; the
// native side decides how to surface them to the user.
var (
	// ErrUserCancelled is reported when the user dismissed a picker.
	ErrUserCancelled = errors.New("user cancelled the request")
	// ErrOsRequestFailed is reported when the platform answered a request
	// without a usable result.
	ErrOsRequestFailed = errors.New("platform request failed")
	// ErrDeviceOpenFailed is reported when a device-opened callback never
	// arrived within the caller's deadline.
	ErrDeviceOpenFailed = errors.New("MIDI device open failed")
	// ErrUnsupportedOS is returned by backends that do not run on this platform.
	ErrUnsupportedOS = errors.New("unsupported operating system")
)
