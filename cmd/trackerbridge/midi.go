package main

import (
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/leandrodaf/trackerbridge/internal/handoff"
	"github.com/leandrodaf/trackerbridge/sdk/bridge"
	"github.com/leandrodaf/trackerbridge/sdk/contracts"
	"github.com/spf13/cobra"
)

var (
	openOutput  bool
	openTimeout time.Duration
	listen      bool
)

var midiCmd = &cobra.Command{
	Use:   "midi",
	Short: "List and open MIDI devices",
}

var midiListCmd = &cobra.Command{
	Use:   "list",
	Short: "List MIDI ports the platform backend can open",
	Args:  cobra.NoArgs,
	RunE:  runMIDIList,
}

var midiOpenCmd = &cobra.Command{
	Use:   "open <name>",
	Short: "Open a MIDI port and wait for the device-opened callback",
	Args:  cobra.ExactArgs(1),
	RunE:  runMIDIOpen,
}

func init() {
	midiOpenCmd.Flags().BoolVar(&openOutput, "output", false, "Open the output side of the device")
	midiOpenCmd.Flags().DurationVarP(&openTimeout, "timeout", "t", 0, "How long to wait for the device to open (default from config, 5s)")
	midiOpenCmd.Flags().BoolVarP(&listen, "listen", "l", false, "Print incoming messages until interrupted")

	midiCmd.AddCommand(midiListCmd)
	midiCmd.AddCommand(midiOpenCmd)
}

func runMIDIList(cmd *cobra.Command, args []string) error {
	_, opts, err := bridgeOptions()
	if err != nil {
		return err
	}
	b, err := bridge.New(opts...)
	if err != nil {
		return err
	}
	defer b.Close()

	devices, err := b.ListDevices()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DIRECTION\tNAME\tMANUFACTURER\tENTITY")
	for _, d := range devices {
		direction := "in"
		if d.IsOutput {
			direction = "out"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", direction, d.Name, d.Manufacturer, d.EntityName)
	}
	return w.Flush()
}

func runMIDIOpen(cmd *cobra.Command, args []string) error {
	log, opts, err := bridgeOptions()
	if err != nil {
		return err
	}
	if openTimeout > 0 {
		opts = append(opts, contracts.WithOpenTimeout(openTimeout))
	}
	if listen {
		out := cmd.OutOrStdout()
		opts = append(opts, contracts.WithMessageHandler(func(h contracts.Handle, data []byte, timestamp uint64) {
			fmt.Fprintf(out, "%d %s % X\n", timestamp, h, data)
		}))
	}

	b, err := bridge.New(opts...)
	if err != nil {
		return err
	}
	defer b.Close()

	name := args[0]
	h := b.Register(name)
	defer b.Release(h)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if err := b.OpenDevice(ctx, name, h, openOutput); err != nil {
		return err
	}

	b.Events().Drain(func(ev handoff.Event) {
		if ev.Kind != handoff.DeviceOpened {
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "opened %s (handle %s, output=%t)\n", ev.DeviceName, ev.Handle, ev.IsOutput)
		if ev.CaptureErr != nil {
			log.Warn("device opened without a usable port", log.Field().Error("error", ev.CaptureErr))
		}
	})

	if !listen {
		return nil
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "listening; press Ctrl+C to stop")
	<-ctx.Done()
	return nil
}
