//go:build rtmidi

package main

// Registers the rtmidi driver for the portable MIDI backend. Build with
// -tags rtmidi on platforms without a native backend (needs cgo and ALSA or JACK).
import _ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
