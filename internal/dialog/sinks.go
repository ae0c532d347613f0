package dialog

import (
	"fmt"

	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

// NotifySink surfaces picked documents to the user instead of forwarding
// them to native code.
type NotifySink struct {
	Notifier contracts.Notifier
}

// FileOpened shows the opened document's identifier.
func (s NotifySink) FileOpened(req contracts.FileRequest, uri string) {
	s.Notifier.Notify(fmt.Sprintf("Opened %s", uri))
}

// FileSaveTarget shows the created document's identifier.
func (s NotifySink) FileSaveTarget(req contracts.FileRequest, uri string) {
	s.Notifier.Notify(fmt.Sprintf("Saving to %s", uri))
}

// FileCancelled tells the user nothing was picked.
func (s NotifySink) FileCancelled(req contracts.FileRequest) {
	s.Notifier.Notify(fmt.Sprintf("%s cancelled", req.Kind))
}

// LogNotifier is a Notifier that writes messages to a logger. It stands in
// for a toast where the platform has none.
type LogNotifier struct {
	Logger contracts.Logger
}

// Notify logs msg at info level.
func (n LogNotifier) Notify(msg string) {
	n.Logger.Info(msg, n.Logger.Field().String("surface", "notification"))
}

// Tee forwards every result to each sink in order. Cancellations go to the
// sinks that implement contracts.CancelSink.
type Tee []contracts.FileSink

// FileOpened implements contracts.FileSink.
func (t Tee) FileOpened(req contracts.FileRequest, uri string) {
	for _, s := range t {
		s.FileOpened(req, uri)
	}
}

// FileSaveTarget implements contracts.FileSink.
func (t Tee) FileSaveTarget(req contracts.FileRequest, uri string) {
	for _, s := range t {
		s.FileSaveTarget(req, uri)
	}
}

// FileCancelled implements contracts.CancelSink.
func (t Tee) FileCancelled(req contracts.FileRequest) {
	for _, s := range t {
		if cs, ok := s.(contracts.CancelSink); ok {
			cs.FileCancelled(req)
		}
	}
}
