package bridge

import (
	"runtime"

	"github.com/leandrodaf/trackerbridge/internal/midi/mididarwin"
	"github.com/leandrodaf/trackerbridge/internal/midi/midiportable"
	"github.com/leandrodaf/trackerbridge/internal/midi/midiwindows"
	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

// openerInitializers maps OS names to native MIDI backends.
var openerInitializers = map[string]func(*contracts.ClientOptions) (contracts.DeviceOpener, error){
	"darwin":  mididarwin.NewMIDIClient,  // macOS (Darwin) CoreMIDI backend.
	"windows": midiwindows.NewMIDIClient, // Windows winmm backend.
}

// NewOpener returns the MIDI backend for the current operating system.
// Platforms without a native backend use gomidi's driver registry.
func NewOpener(opts *contracts.ClientOptions) (contracts.DeviceOpener, error) {
	if initializer, exists := openerInitializers[runtime.GOOS]; exists {
		return initializer(opts)
	}
	return midiportable.NewMIDIClient(opts)
}
