package handoff

import (
	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

// EventKind tells the engine what an Event carries.
type EventKind uint8

const (
	FileOpened EventKind = iota + 1
	FileSaveTarget
	FileCancelled
	DeviceOpened
)

func (k EventKind) String() string {
	switch k {
	case FileOpened:
		return "file-opened"
	case FileSaveTarget:
		return "file-save-target"
	case FileCancelled:
		return "file-cancelled"
	case DeviceOpened:
		return "device-opened"
	}
	return "unknown"
}

// Event is a platform notification queued for the engine thread.
type Event struct {
	Kind EventKind

	// File events. Err is contracts.ErrUserCancelled on FileCancelled.
	Request contracts.FileRequest
	URI     string
	Err     error

	// Device events. Captured holds whatever CaptureFunc took from the device
	// while it was valid; the device itself never crosses threads.
	Handle     contracts.Handle
	IsOutput   bool
	DeviceName string
	Captured   any
	CaptureErr error
}

// CaptureFunc runs on the platform thread inside the device-opened callback.
type CaptureFunc = contracts.CaptureFunc

// CaptureUnderlying captures the backend's port object.
func CaptureUnderlying(dev contracts.Device, _ contracts.Handle, _ bool) (any, error) {
	return dev.Underlying()
}

// EngineSink turns dialog and relay callbacks into queued Events. It
// implements contracts.FileSink, contracts.CancelSink and contracts.DeviceSink.
type EngineSink struct {
	logger  contracts.Logger
	queue   *Queue[Event]
	capture CaptureFunc
}

// NewEngineSink posts to q. A nil capture uses CaptureUnderlying.
func NewEngineSink(logger contracts.Logger, q *Queue[Event], capture CaptureFunc) *EngineSink {
	if capture == nil {
		capture = CaptureUnderlying
	}
	return &EngineSink{logger: logger, queue: q, capture: capture}
}

// FileOpened implements contracts.FileSink.
func (s *EngineSink) FileOpened(req contracts.FileRequest, uri string) {
	s.post(Event{Kind: FileOpened, Request: req, URI: uri})
}

// FileSaveTarget implements contracts.FileSink.
func (s *EngineSink) FileSaveTarget(req contracts.FileRequest, uri string) {
	s.post(Event{Kind: FileSaveTarget, Request: req, URI: uri})
}

// FileCancelled implements contracts.CancelSink.
func (s *EngineSink) FileCancelled(req contracts.FileRequest) {
	s.post(Event{Kind: FileCancelled, Request: req, Err: contracts.ErrUserCancelled})
}

// DeviceOpened implements contracts.DeviceSink. Capture happens before
// returning; only the captured state is queued.
func (s *EngineSink) DeviceOpened(dev contracts.Device, h contracts.Handle, isOutput bool) {
	captured, err := s.capture(dev, h, isOutput)
	if err != nil {
		s.logger.Warn("capturing opened device failed",
			s.logger.Field().String("device", dev.Name()),
			s.logger.Field().Error("error", err))
	}
	s.post(Event{
		Kind:       DeviceOpened,
		Handle:     h,
		IsOutput:   isOutput,
		DeviceName: dev.Name(),
		Captured:   captured,
		CaptureErr: err,
	})
}

func (s *EngineSink) post(ev Event) {
	if err := s.queue.Post(ev); err != nil {
		s.logger.Warn(err.Error(), s.logger.Field().String("event", ev.Kind.String()))
	}
}
