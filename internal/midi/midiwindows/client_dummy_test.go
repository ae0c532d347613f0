//go:build !windows

package midiwindows

import (
	"errors"
	"testing"

	"github.com/leandrodaf/trackerbridge/internal/logger"
	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

func TestDummyBackendNeverOpens(t *testing.T) {
	o, err := NewMIDIClient(&contracts.ClientOptions{Logger: logger.NewNopLogger()})
	if err != nil {
		t.Fatalf("NewMIDIClient: %v", err)
	}
	if _, err := o.ListDevices(); !errors.Is(err, contracts.ErrUnsupportedOS) {
		t.Errorf("ListDevices error = %v, want ErrUnsupportedOS", err)
	}
	err = o.Open("any", 1, false, func(contracts.Device, contracts.Handle, bool) {
		t.Error("dummy backend fired the opened callback")
	})
	if !errors.Is(err, contracts.ErrUnsupportedOS) {
		t.Errorf("Open error = %v, want ErrUnsupportedOS", err)
	}
	if err := o.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
