//go:build !windows
// +build !windows

package midiwindows

import (
	"fmt"

	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

type dummyMIDIClient struct {
	logger contracts.Logger
}

// NewMIDIClient initializes a dummy winmm backend for non-Windows systems.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.DeviceOpener, error) {
	options.Logger.Info("Using dummy winmm backend for non-Windows system")
	return &dummyMIDIClient{
		logger: options.Logger,
	}, nil
}

// ListDevices logs a warning and reports that winmm is unavailable on this platform.
func (m *dummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy winmm backend")
	return nil, fmt.Errorf("%w: winmm", contracts.ErrUnsupportedOS)
}

// Open logs a warning and never fires onOpened.
func (m *dummyMIDIClient) Open(name string, h contracts.Handle, isOutput bool, onOpened contracts.OpenedFunc) error {
	m.logger.Warn("Open called on dummy winmm backend", m.logger.Field().String("device", name))
	return fmt.Errorf("%w: winmm", contracts.ErrUnsupportedOS)
}

// Close is a no-op.
func (m *dummyMIDIClient) Close() error {
	m.logger.Warn("Close called on dummy winmm backend")
	return nil
}
