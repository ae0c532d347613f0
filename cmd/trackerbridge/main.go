// Package main is the entry point for the trackerbridge CLI. It drives the
// bridge from a desktop: listing and opening MIDI ports, and presenting file
// pickers, with results read back from the engine queue.
package main

import (
	"fmt"
	"os"

	"github.com/leandrodaf/trackerbridge/internal/config"
	"github.com/leandrodaf/trackerbridge/internal/dialog"
	"github.com/leandrodaf/trackerbridge/internal/logger"
	"github.com/leandrodaf/trackerbridge/sdk/contracts"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	configPath string
	logLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "trackerbridge",
	Short: "Drive the tracker's platform bridge from a desktop",
	Long: `trackerbridge exercises the bridge between the tracker engine and the
platform: MIDI device opening through the device-opened relay, and document
pickers through the token-matched dialog bridge.

Examples:
  trackerbridge midi list
  trackerbridge midi open "Launchkey MIDI" --timeout 3s
  trackerbridge pick open
  trackerbridge pick save --terminal`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a trackerbridge.yaml config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(midiCmd)
	rootCmd.AddCommand(pickCmd)
}

// bridgeOptions merges the config file and flags. Flags win; later options
// override earlier ones.
func bridgeOptions() (contracts.Logger, []contracts.Option, error) {
	log := logger.NewZapLogger()
	opts := []contracts.Option{contracts.WithLogger(log)}

	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, cfg.Options()...)
		if cfg.Dialog.Notify {
			opts = append(opts, contracts.WithNotifier(dialog.LogNotifier{Logger: log}))
		}
	}

	if logLevel != "" {
		level, ok := contracts.ParseLogLevel(logLevel)
		if !ok {
			return nil, nil, fmt.Errorf("unknown log level %q", logLevel)
		}
		opts = append(opts, contracts.WithLogLevel(level))
	}
	return log, opts, nil
}
