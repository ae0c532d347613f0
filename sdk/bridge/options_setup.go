package bridge

import (
	"time"

	"github.com/leandrodaf/trackerbridge/internal/handoff"
	"github.com/leandrodaf/trackerbridge/internal/logger"
	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

// DefaultOpenTimeout bounds OpenDevice when neither the caller's context nor
// the options set a deadline.
const DefaultOpenTimeout = 5 * time.Second

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify ClientOptions.
//
// Returns:
//   - contracts.ClientOptions: A structure containing the finalized client options with defaults applied.
//   - error: An error if there was an issue applying the options.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel
	}
	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "Tracker Bridge"}
	}
	if options.QueueSize <= 0 {
		options.QueueSize = handoff.DefaultQueueSize
	}
	if options.OpenTimeout <= 0 {
		options.OpenTimeout = DefaultOpenTimeout
	}
	if options.Capture == nil {
		options.Capture = handoff.CaptureUnderlying
	}

	options.Logger.SetLevel(options.LogLevel)
	if options.LogFilePath != "" {
		options.Logger.SetDestination(contracts.FileLog, options.LogFilePath)
	}
	return *options, nil
}
