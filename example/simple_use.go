package main

import (
	"context"
	"fmt"
	"os"

	"github.com/leandrodaf/trackerbridge/internal/handoff"
	"github.com/leandrodaf/trackerbridge/internal/logger"
	"github.com/leandrodaf/trackerbridge/internal/picker"
	"github.com/leandrodaf/trackerbridge/sdk/bridge"
	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

func main() {
	log := logger.NewZapLogger()

	b, err := bridge.New(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithCancelPolicy(contracts.CancelNotify),
		contracts.WithPicker(picker.Prompt{In: os.Stdin, Out: os.Stdout}),
		contracts.WithMessageHandler(func(h contracts.Handle, data []byte, timestamp uint64) {
			log.Info("MIDI message",
				log.Field().Uint64("Timestamp", timestamp),
				log.Field().String("Handle", h.String()),
				log.Field().Int("Length", len(data)),
			)
		}),
	)
	if err != nil {
		log.Error("Failed to initialize bridge", log.Field().Error("error", err))
		return
	}
	defer b.Close()

	devices, err := b.ListDevices()
	if err != nil || len(devices) == 0 {
		log.Error("No MIDI devices found or error listing devices", log.Field().Error("error", err))
	} else {
		fmt.Println("Available MIDI devices:", devices)

		h := b.Register(devices[0].Name)
		if err := b.OpenDevice(context.Background(), devices[0].Name, h, devices[0].IsOutput); err != nil {
			log.Error("Failed to open MIDI device", log.Field().Error("error", err))
		}
	}

	if _, err := b.RequestOpenFile(); err != nil {
		log.Error("Failed to request a document", log.Field().Error("error", err))
	}

	// The engine thread drains once per block; here once is enough.
	b.Events().Drain(func(ev handoff.Event) {
		switch ev.Kind {
		case handoff.DeviceOpened:
			fmt.Printf("device %s opened for handle %s\n", ev.DeviceName, ev.Handle)
		case handoff.FileOpened:
			fmt.Println("document:", ev.URI)
		case handoff.FileCancelled:
			fmt.Println("no document picked")
		}
	})
}
