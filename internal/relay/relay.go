// Package relay forwards "MIDI device opened" notifications from the
// platform to native code. The forward is synchronous because the platform
// device handle is only valid while the platform callback runs.
package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/leandrodaf/trackerbridge/internal/handle"
	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

// Error definitions for device-opened relaying.
var (
	ErrUnexpectedOpen    = errors.New("device opened without a pending open attempt")
	ErrDuplicateOpen     = errors.New("device-opened callback already relayed for this attempt")
	ErrAttemptInProgress = errors.New("an open attempt is already pending for this handle and direction")
	ErrAttemptCancelled  = errors.New("open attempt cancelled")
	ErrDeviceOpenTimeout = fmt.Errorf("%w: no device-opened callback before deadline", contracts.ErrDeviceOpenFailed)
	ErrNilDevice         = errors.New("device-opened callback without a device")
	ErrOpenedThenFailed  = errors.New("backend reported a failed open after relaying the device")
)

// HandleValidator reports whether a native handle is live.
// *handle.Arena satisfies it.
type HandleValidator interface {
	Valid(h contracts.Handle) bool
}

type key struct {
	handle   contracts.Handle
	isOutput bool
}

// Attempt is one pending request to open a device in one direction.
type Attempt struct {
	ID       uuid.UUID
	Handle   contracts.Handle
	IsOutput bool

	once sync.Once
	done chan struct{}
	err  error
}

func (a *Attempt) finish(err error) {
	a.once.Do(func() {
		a.err = err
		close(a.done)
	})
}

// Wait blocks until the device-opened callback was relayed, the attempt was
// cancelled, or ctx is done. The platform never reports a failed open, so a
// deadline on ctx is the only way to observe one.
func (a *Attempt) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrDeviceOpenTimeout
		}
		return fmt.Errorf("%w: %v", contracts.ErrDeviceOpenFailed, ctx.Err())
	}
}

// Stats counts relay outcomes.
type Stats struct {
	Relayed  int
	Rejected int
}

// Relay matches device-opened callbacks to open attempts and forwards each
// match to the sink exactly once.
type Relay struct {
	logger  contracts.Logger
	handles HandleValidator
	sink    contracts.DeviceSink

	mu       sync.Mutex
	pending  map[key]*Attempt
	relayed  map[key]uuid.UUID
	counters Stats
}

// New creates a relay that validates handles against handles and forwards to sink.
func New(logger contracts.Logger, handles HandleValidator, sink contracts.DeviceSink) *Relay {
	return &Relay{
		logger:  logger,
		handles: handles,
		sink:    sink,
		pending: make(map[key]*Attempt),
		relayed: make(map[key]uuid.UUID),
	}
}

// Expect registers an open attempt for h in the given direction. Only one
// attempt per handle and direction may be pending.
func (r *Relay) Expect(h contracts.Handle, isOutput bool) (*Attempt, error) {
	if !r.handles.Valid(h) {
		return nil, fmt.Errorf("%w: %s", handle.ErrInvalidHandle, h)
	}

	k := key{h, isOutput}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.pending[k]; busy {
		return nil, ErrAttemptInProgress
	}
	a := &Attempt{ID: uuid.New(), Handle: h, IsOutput: isOutput, done: make(chan struct{})}
	r.pending[k] = a
	delete(r.relayed, k)
	return a, nil
}

// Cancel abandons a pending attempt. A callback arriving afterwards is
// rejected as unexpected. It reports whether the attempt was still pending.
func (r *Relay) Cancel(a *Attempt) bool {
	k := key{a.Handle, a.IsOutput}
	r.mu.Lock()
	cur, ok := r.pending[k]
	if ok && cur == a {
		delete(r.pending, k)
	}
	r.mu.Unlock()

	if ok && cur == a {
		a.finish(ErrAttemptCancelled)
		return true
	}
	return false
}

// OnDeviceOpened is the platform callback. It validates h, consumes the
// matching attempt and calls the sink before returning. dev is unusable once
// this returns.
func (r *Relay) OnDeviceOpened(dev contracts.Device, h contracts.Handle, isOutput bool) error {
	fields := func(extra ...contracts.Field) []contracts.Field {
		return append([]contracts.Field{
			r.logger.Field().Uint64("handle", uint64(h)),
			r.logger.Field().Bool("isOutput", isOutput),
		}, extra...)
	}

	if dev == nil {
		r.reject()
		r.logger.Error(ErrNilDevice.Error(), fields()...)
		return ErrNilDevice
	}
	if !r.handles.Valid(h) {
		r.reject()
		r.logger.Error("device opened for an invalid native handle", fields(r.logger.Field().String("device", dev.Name()))...)
		return fmt.Errorf("%w: %s", handle.ErrInvalidHandle, h)
	}

	k := key{h, isOutput}
	r.mu.Lock()
	a, ok := r.pending[k]
	if !ok {
		prev, dup := r.relayed[k]
		r.counters.Rejected++
		r.mu.Unlock()
		if dup {
			r.logger.Warn(ErrDuplicateOpen.Error(), fields(
				r.logger.Field().String("device", dev.Name()),
				r.logger.Field().String("attempt", prev.String()))...)
			return ErrDuplicateOpen
		}
		r.logger.Warn(ErrUnexpectedOpen.Error(), fields(r.logger.Field().String("device", dev.Name()))...)
		return ErrUnexpectedOpen
	}
	delete(r.pending, k)
	r.relayed[k] = a.ID
	r.counters.Relayed++
	r.mu.Unlock()

	r.logger.Info("MIDI device opened",
		fields(r.logger.Field().String("device", dev.Name()), r.logger.Field().String("attempt", a.ID.String()))...)

	scoped := newScopedDevice(dev)
	func() {
		defer scoped.expire()
		r.sink.DeviceOpened(scoped, h, isOutput)
	}()
	a.finish(nil)
	return nil
}

func (r *Relay) reject() {
	r.mu.Lock()
	r.counters.Rejected++
	r.mu.Unlock()
}

// Callback returns OnDeviceOpened as the function platform backends fire.
// Errors are already logged by the relay.
func (r *Relay) Callback() contracts.OpenedFunc {
	return func(dev contracts.Device, h contracts.Handle, isOutput bool) {
		_ = r.OnDeviceOpened(dev, h, isOutput)
	}
}

// Open asks opener for the named port and waits for the relayed callback.
// On failure or timeout the attempt is cancelled so a late callback is not
// relayed.
func (r *Relay) Open(ctx context.Context, opener contracts.DeviceOpener, name string, h contracts.Handle, isOutput bool) error {
	a, err := r.Expect(h, isOutput)
	if err != nil {
		return err
	}

	if err := opener.Open(name, h, isOutput, r.Callback()); err != nil {
		if !r.Cancel(a) {
			// onOpened already fired: the sink holds the device, so this is
			// not a plain open failure.
			r.logger.Error(ErrOpenedThenFailed.Error(),
				r.logger.Field().String("device", name),
				r.logger.Field().String("attempt", a.ID.String()),
				r.logger.Field().Error("error", err))
			return fmt.Errorf("%w: %s: %v", ErrOpenedThenFailed, name, err)
		}
		r.logger.Error("MIDI open request failed",
			r.logger.Field().String("device", name),
			r.logger.Field().Error("error", err))
		return fmt.Errorf("open %q: %w", name, err)
	}

	if err := a.Wait(ctx); err != nil {
		// The callback may have landed between the deadline and Cancel.
		if !r.Cancel(a) {
			if werr := a.Wait(context.Background()); werr == nil {
				return nil
			}
		}
		r.logger.Warn("MIDI device did not open",
			r.logger.Field().String("device", name),
			r.logger.Field().String("attempt", a.ID.String()),
			r.logger.Field().Error("error", err))
		return err
	}
	return nil
}

// Stats returns a snapshot of relay counters.
func (r *Relay) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters
}
