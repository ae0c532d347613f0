//go:build !darwin
// +build !darwin

package mididarwin

import (
	"fmt"

	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

type DummyMIDIClient struct {
	logger contracts.Logger
}

func NewMIDIClient(options *contracts.ClientOptions) (contracts.DeviceOpener, error) {
	options.Logger.Info("Using dummy CoreMIDI backend for non-macOS system")
	return &DummyMIDIClient{
		logger: options.Logger,
	}, nil
}

func (m *DummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy CoreMIDI backend")
	return nil, fmt.Errorf("%w: CoreMIDI", contracts.ErrUnsupportedOS)
}

func (m *DummyMIDIClient) Open(name string, h contracts.Handle, isOutput bool, onOpened contracts.OpenedFunc) error {
	m.logger.Warn("Open called on dummy CoreMIDI backend", m.logger.Field().String("device", name))
	return fmt.Errorf("%w: CoreMIDI", contracts.ErrUnsupportedOS)
}

func (m *DummyMIDIClient) Close() error {
	m.logger.Warn("Close called on dummy CoreMIDI backend")
	return nil
}
