//go:build !darwin

package mididarwin

import (
	"errors"
	"testing"

	"github.com/leandrodaf/trackerbridge/internal/logger"
	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

func TestDummyClient(t *testing.T) {
	client, err := NewMIDIClient(&contracts.ClientOptions{Logger: logger.NewNopLogger()})
	if err != nil {
		t.Fatalf("NewMIDIClient: %v", err)
	}

	tests := []struct {
		name string
		call func() error
	}{
		{"list", func() error { _, err := client.ListDevices(); return err }},
		{"open", func() error {
			return client.Open("IAC Bus 1", 1, true, func(contracts.Device, contracts.Handle, bool) {
				t.Error("dummy client fired the opened callback")
			})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, contracts.ErrUnsupportedOS) {
				t.Errorf("error = %v, want ErrUnsupportedOS", err)
			}
		})
	}
}
