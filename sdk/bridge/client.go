// Package bridge is the entry point native code uses to reach the platform:
// file pickers through a token-matched dialog bridge, and MIDI devices
// through a device-opened relay. Results from both arrive on one queue that
// the engine thread drains.
package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/leandrodaf/trackerbridge/internal/dialog"
	"github.com/leandrodaf/trackerbridge/internal/handle"
	"github.com/leandrodaf/trackerbridge/internal/handoff"
	"github.com/leandrodaf/trackerbridge/internal/relay"
	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

// Bridge ties the dialog bridge, the MIDI relay and the engine queue together.
type Bridge struct {
	logger      contracts.Logger
	dialogs     *dialog.Bridge
	relay       *relay.Relay
	handles     *handle.Arena[any]
	opener      contracts.DeviceOpener
	events      *handoff.Queue[handoff.Event]
	openTimeout time.Duration
}

// New creates a Bridge with the specified options.
//
// opts ...contracts.Option: A variadic list of option functions to customize the bridge.
//
// Returns:
//   - *Bridge: the configured bridge.
//   - error: An error, if the MIDI backend could not be created.
func New(opts ...contracts.Option) (*Bridge, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	opener := options.Opener
	if opener == nil {
		opener, err = NewOpener(&options)
		if err != nil {
			return nil, fmt.Errorf("create MIDI backend: %w", err)
		}
	}

	events := handoff.NewQueue[handoff.Event](options.QueueSize)
	engine := handoff.NewEngineSink(options.Logger, events, options.Capture)

	var files contracts.FileSink = engine
	if options.Notifier != nil {
		files = dialog.Tee{engine, dialog.NotifySink{Notifier: options.Notifier}}
	}

	handles := handle.NewArena[any]()
	return &Bridge{
		logger:      options.Logger,
		dialogs:     dialog.NewBridge(options.Logger, options.Picker, files, options.CancelPolicy),
		relay:       relay.New(options.Logger, handles, engine),
		handles:     handles,
		opener:      opener,
		events:      events,
		openTimeout: options.OpenTimeout,
	}, nil
}

// RequestOpenFile presents a file chooser; the result arrives as a
// FileOpened (or FileCancelled) event.
func (b *Bridge) RequestOpenFile() (contracts.Token, error) {
	return b.dialogs.RequestOpenFile()
}

// RequestSaveFile presents a document-creation chooser; the result arrives
// as a FileSaveTarget (or FileCancelled) event.
func (b *Bridge) RequestSaveFile() (contracts.Token, error) {
	return b.dialogs.RequestSaveFile()
}

// OnResult is the platform's result channel for pickers that do not deliver
// through their ResultFunc.
func (b *Bridge) OnResult(token contracts.Token, status contracts.ResultStatus, uri string) error {
	return b.dialogs.OnResult(token, status, uri)
}

// OnActivityResult accepts the platform's (requestCode, resultCode, data) triple.
func (b *Bridge) OnActivityResult(requestCode, resultCode int, data string) error {
	return b.dialogs.OnActivityResult(requestCode, resultCode, data)
}

// PendingRequests lists picker requests still waiting for a result.
func (b *Bridge) PendingRequests() []contracts.FileRequest {
	return b.dialogs.Pending()
}

// DialogStats returns the dialog bridge counters.
func (b *Bridge) DialogStats() dialog.Stats {
	return b.dialogs.Stats()
}

// Register stores per-device native state and returns the handle the
// platform will hand back in the device-opened callback.
func (b *Bridge) Register(state any) contracts.Handle {
	return b.handles.Register(state)
}

// Resolve returns the state registered under h.
func (b *Bridge) Resolve(h contracts.Handle) (any, error) {
	return b.handles.Resolve(h)
}

// Release invalidates h. Callbacks carrying it are rejected from then on.
func (b *Bridge) Release(h contracts.Handle) error {
	return b.handles.Release(h)
}

// ListDevices lists the ports the MIDI backend can open.
func (b *Bridge) ListDevices() ([]contracts.DeviceInfo, error) {
	return b.opener.ListDevices()
}

// OpenDevice opens the named port for h and waits for the device-opened
// callback. Without a deadline on ctx the configured open timeout applies.
func (b *Bridge) OpenDevice(ctx context.Context, name string, h contracts.Handle, isOutput bool) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.openTimeout)
		defer cancel()
	}
	return b.relay.Open(ctx, b.opener, name, h, isOutput)
}

// ExpectDevice registers an open attempt for platforms whose open request is
// issued outside the bridge. Pair it with OnDeviceOpened.
func (b *Bridge) ExpectDevice(h contracts.Handle, isOutput bool) (*relay.Attempt, error) {
	return b.relay.Expect(h, isOutput)
}

// OnDeviceOpened is the platform's device-opened callback.
func (b *Bridge) OnDeviceOpened(dev contracts.Device, h contracts.Handle, isOutput bool) error {
	return b.relay.OnDeviceOpened(dev, h, isOutput)
}

// RelayStats returns the MIDI relay counters.
func (b *Bridge) RelayStats() relay.Stats {
	return b.relay.Stats()
}

// Events is the queue the engine thread drains.
func (b *Bridge) Events() *handoff.Queue[handoff.Event] {
	return b.events
}

// Close releases MIDI ports and stops accepting events. Events already
// queued can still be drained.
func (b *Bridge) Close() error {
	b.events.Close()
	if err := b.opener.Close(); err != nil {
		b.logger.Error("closing MIDI backend", b.logger.Field().Error("error", err))
		return fmt.Errorf("close MIDI backend: %w", err)
	}
	return nil
}
