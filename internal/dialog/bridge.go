// Package dialog brokers platform file pickers. A request is issued with a
// token, the platform answers later on its UI thread, and the answer is
// matched back to the request and forwarded to the sink at most once.
package dialog

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

// Error definitions for picker request handling.
var (
	ErrUnknownRequest  = errors.New("no outstanding request for token")
	ErrTooManyRequests = errors.New("too many outstanding picker requests")
	ErrNoPicker        = errors.New("no picker configured")
	ErrInvalidStatus   = errors.New("invalid result status")
)

// Activity result codes as the platform reports them.
const (
	ResultOK       = -1
	ResultCanceled = 0
)

const (
	anyMIMEType = "*/*"
	maxToken    = 0xFFFF
)

// Stats counts what happened to issued requests.
type Stats struct {
	Issued    int // requests handed to the picker
	Delivered int // Ok results forwarded to the sink
	Cancelled int // cancelled results, whatever the policy did with them
	Failed    int // Ok results without a resource identifier
	Rejected  int // results for unknown or already completed tokens
	Abandoned int // requests dropped through Abandon
}

// Bridge issues picker requests and routes their results. Request methods
// and OnResult may be called from different goroutines.
type Bridge struct {
	logger contracts.Logger
	picker contracts.Picker
	sink   contracts.FileSink
	policy contracts.CancelPolicy

	mu      sync.Mutex
	pending map[contracts.Token]contracts.FileRequest
	next    contracts.Token
	stats   Stats
}

// NewBridge creates a Bridge that presents requests with picker and forwards
// results to sink.
func NewBridge(logger contracts.Logger, picker contracts.Picker, sink contracts.FileSink, policy contracts.CancelPolicy) *Bridge {
	return &Bridge{
		logger:  logger,
		picker:  picker,
		sink:    sink,
		policy:  policy,
		pending: make(map[contracts.Token]contracts.FileRequest),
	}
}

// RequestOpenFile presents a generic file chooser for any document type and
// returns without waiting for the user.
func (b *Bridge) RequestOpenFile() (contracts.Token, error) {
	return b.request(contracts.FileRequest{Kind: contracts.OpenFile, MIMEType: anyMIMEType})
}

// RequestSaveFile presents a document-creation chooser and returns without
// waiting for the user.
func (b *Bridge) RequestSaveFile() (contracts.Token, error) {
	return b.request(contracts.FileRequest{Kind: contracts.SaveFile, MIMEType: anyMIMEType, Openable: true})
}

func (b *Bridge) request(req contracts.FileRequest) (contracts.Token, error) {
	if b.picker == nil {
		return 0, ErrNoPicker
	}

	b.mu.Lock()
	token, err := b.allocateLocked()
	if err != nil {
		b.mu.Unlock()
		b.logger.Error(err.Error(), b.logger.Field().Int("outstanding", len(b.pending)))
		return 0, err
	}
	req.Token = token
	b.pending[token] = req
	b.stats.Issued++
	b.mu.Unlock()

	b.logger.Debug("presenting picker",
		b.logger.Field().String("kind", req.Kind.String()),
		b.logger.Field().Int("token", int(token)))

	if err := b.picker.Present(req, b.deliver); err != nil {
		b.mu.Lock()
		_, stillPending := b.pending[token]
		if stillPending {
			delete(b.pending, token)
			b.stats.Issued--
		}
		b.mu.Unlock()
		b.logger.Error("picker request failed",
			b.logger.Field().String("kind", req.Kind.String()),
			b.logger.Field().Int("token", int(token)),
			b.logger.Field().Bool("answered", !stillPending),
			b.logger.Field().Error("error", err))
		if !stillPending {
			// The picker answered before failing; the result stands.
			return token, fmt.Errorf("present %s picker: %w", req.Kind, err)
		}
		return 0, fmt.Errorf("present %s picker: %w", req.Kind, err)
	}
	return token, nil
}

// allocateLocked hands out tokens in 1..65535, wrapping around and skipping
// tokens that are still outstanding.
func (b *Bridge) allocateLocked() (contracts.Token, error) {
	if len(b.pending) >= maxToken {
		return 0, ErrTooManyRequests
	}
	for {
		b.next++
		if b.next == 0 {
			b.next = 1
		}
		if _, busy := b.pending[b.next]; !busy {
			return b.next, nil
		}
	}
}

func (b *Bridge) deliver(res contracts.FileResult) {
	// Pickers have no way to act on an error; OnResult already logged it.
	_ = b.OnResult(res.Token, res.Status, res.URI)
}

// OnResult routes the platform's answer for token. It consumes the request, so
// a second result for the same token returns ErrUnknownRequest and forwards
// nothing.
func (b *Bridge) OnResult(token contracts.Token, status contracts.ResultStatus, uri string) error {
	if status != contracts.StatusOK && status != contracts.StatusCancelled {
		b.logger.Warn(ErrInvalidStatus.Error(),
			b.logger.Field().Int("token", int(token)),
			b.logger.Field().Int("status", int(status)))
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	b.mu.Lock()
	req, ok := b.pending[token]
	if !ok {
		b.stats.Rejected++
		b.mu.Unlock()
		b.logger.Warn(ErrUnknownRequest.Error(), b.logger.Field().Int("token", int(token)))
		return fmt.Errorf("%w: %d", ErrUnknownRequest, token)
	}
	delete(b.pending, token)
	switch {
	case status == contracts.StatusCancelled:
		b.stats.Cancelled++
	case uri == "":
		b.stats.Failed++
	default:
		b.stats.Delivered++
	}
	b.mu.Unlock()

	if status == contracts.StatusCancelled {
		return b.cancelled(req, uri)
	}

	if uri == "" {
		b.logger.Warn("picker returned no document",
			b.logger.Field().String("kind", req.Kind.String()),
			b.logger.Field().Int("token", int(token)))
		return contracts.ErrOsRequestFailed
	}

	b.logger.Info("document picked",
		b.logger.Field().String("kind", req.Kind.String()),
		b.logger.Field().Int("token", int(token)),
		b.logger.Field().String("uri", uri))

	switch req.Kind {
	case contracts.SaveFile:
		b.sink.FileSaveTarget(req, uri)
	default:
		b.sink.FileOpened(req, uri)
	}
	return nil
}

func (b *Bridge) cancelled(req contracts.FileRequest, uri string) error {
	fields := []contracts.Field{
		b.logger.Field().String("kind", req.Kind.String()),
		b.logger.Field().Int("token", int(req.Token)),
		b.logger.Field().String("policy", b.policy.String()),
	}
	if uri != "" {
		b.logger.Warn("cancelled result carried a resource identifier; discarding it", fields...)
	}

	if b.policy == contracts.CancelNotify {
		if cs, ok := b.sink.(contracts.CancelSink); ok {
			b.logger.Debug("picker cancelled; notifying sink", fields...)
			cs.FileCancelled(req)
			return nil
		}
		b.logger.Warn("cancel policy is notify but the sink cannot receive cancellations", fields...)
		return nil
	}

	b.logger.Debug("picker cancelled; nothing forwarded", fields...)
	return nil
}

// OnActivityResult decodes the platform's (requestCode, resultCode, data)
// triple. The request code is the token; data is the returned URI, empty
// when the platform returned no data.
func (b *Bridge) OnActivityResult(requestCode, resultCode int, data string) error {
	if requestCode <= 0 || requestCode > maxToken {
		b.logger.Warn("activity result for foreign request code", b.logger.Field().Int("requestCode", requestCode))
		return fmt.Errorf("%w: request code %d", ErrUnknownRequest, requestCode)
	}

	status := contracts.StatusCancelled
	switch resultCode {
	case ResultOK:
		status = contracts.StatusOK
	case ResultCanceled:
	default:
		b.logger.Warn("unexpected activity result code; treating as cancelled",
			b.logger.Field().Int("requestCode", requestCode),
			b.logger.Field().Int("resultCode", resultCode))
	}
	return b.OnResult(contracts.Token(requestCode), status, data)
}

// Abandon forgets an outstanding request whose picker the host knows is gone.
// A result arriving afterwards is rejected.
func (b *Bridge) Abandon(token contracts.Token) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.pending[token]; !ok {
		return false
	}
	delete(b.pending, token)
	b.stats.Abandoned++
	return true
}

// Pending returns the outstanding requests in no particular order.
func (b *Bridge) Pending() []contracts.FileRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]contracts.FileRequest, 0, len(b.pending))
	for _, req := range b.pending {
		out = append(out, req)
	}
	return out
}

// Stats returns a snapshot of the request counters.
func (b *Bridge) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}
