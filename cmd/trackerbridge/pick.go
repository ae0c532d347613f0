package main

import (
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/leandrodaf/trackerbridge/internal/handoff"
	"github.com/leandrodaf/trackerbridge/internal/picker"
	"github.com/leandrodaf/trackerbridge/internal/picker/fynepicker"
	"github.com/leandrodaf/trackerbridge/sdk/bridge"
	"github.com/leandrodaf/trackerbridge/sdk/contracts"
	"github.com/spf13/cobra"
)

const appID = "io.github.leandrodaf.trackerbridge"

var terminal bool

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Present a document picker and print the result",
}

var pickOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Pick an existing document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPick(cmd, contracts.OpenFile)
	},
}

var pickSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Pick where to create a document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPick(cmd, contracts.SaveFile)
	},
}

func init() {
	pickCmd.PersistentFlags().BoolVar(&terminal, "terminal", false, "Prompt for a path on the terminal instead of opening a window")

	pickCmd.AddCommand(pickOpenCmd)
	pickCmd.AddCommand(pickSaveCmd)
}

func request(b *bridge.Bridge, kind contracts.RequestKind) error {
	if kind == contracts.SaveFile {
		_, err := b.RequestSaveFile()
		return err
	}
	_, err := b.RequestOpenFile()
	return err
}

func printEvent(cmd *cobra.Command, ev handoff.Event) {
	switch ev.Kind {
	case handoff.FileOpened, handoff.FileSaveTarget:
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ev.Kind, ev.URI)
	case handoff.FileCancelled:
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", ev.Kind, ev.Err)
	}
}

func runPick(cmd *cobra.Command, kind contracts.RequestKind) error {
	log, opts, err := bridgeOptions()
	if err != nil {
		return err
	}

	if terminal {
		opts = append(opts, contracts.WithPicker(picker.Prompt{In: os.Stdin, Out: cmd.ErrOrStderr()}))
		b, err := bridge.New(opts...)
		if err != nil {
			return err
		}
		defer b.Close()
		if err := request(b, kind); err != nil {
			return err
		}
		b.Events().Drain(func(ev handoff.Event) { printEvent(cmd, ev) })
		return nil
	}

	a := app.NewWithID(appID)
	w := a.NewWindow("Tracker Bridge")
	w.Resize(fyne.NewSize(800, 600))

	// Quit once the dialog answered so cancellations end the run under
	// either cancel policy.
	dialogs := fynepicker.New(w, log)
	opts = append(opts, contracts.WithPicker(picker.Func(func(req contracts.FileRequest, deliver contracts.ResultFunc) error {
		return dialogs.Present(req, func(res contracts.FileResult) {
			deliver(res)
			a.Quit()
		})
	})))
	b, err := bridge.New(opts...)
	if err != nil {
		return err
	}
	defer b.Close()

	var requestErr error
	a.Lifecycle().SetOnStarted(func() {
		if requestErr = request(b, kind); requestErr != nil {
			log.Error("picker request failed", log.Field().Error("error", requestErr))
			a.Quit()
		}
	})
	w.ShowAndRun()

	b.Events().Drain(func(ev handoff.Event) { printEvent(cmd, ev) })
	return requestErr
}
