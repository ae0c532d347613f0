// Package fynepicker presents file choosers with fyne dialogs. On mobile
// targets fyne hands back the platform's content URIs unchanged.
package fynepicker

import (
	"errors"
	"io"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

// ErrNoWindow is returned when the picker has no parent window.
var ErrNoWindow = errors.New("fyne picker needs a parent window")

// Picker implements contracts.Picker on a fyne window.
type Picker struct {
	window fyne.Window
	logger contracts.Logger
}

// New returns a picker whose dialogs are parented to w.
func New(w fyne.Window, logger contracts.Logger) *Picker {
	return &Picker{window: w, logger: logger}
}

// Present shows an open or save dialog. The dialog's callback runs on the
// fyne event thread and delivers exactly one result.
func (p *Picker) Present(req contracts.FileRequest, deliver contracts.ResultFunc) error {
	if p.window == nil {
		return ErrNoWindow
	}

	var d *dialog.FileDialog
	switch req.Kind {
	case contracts.SaveFile:
		d = dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
			var uri fyne.URI
			if w != nil {
				uri = w.URI()
			}
			deliver(p.result(req, uri, w, err))
		}, p.window)
	default:
		d = dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			var uri fyne.URI
			if r != nil {
				uri = r.URI()
			}
			deliver(p.result(req, uri, r, err))
		}, p.window)
	}

	if req.MIMEType != "" && req.MIMEType != "*/*" {
		d.SetFilter(storage.NewMimeTypeFileFilter([]string{req.MIMEType}))
	}

	fyne.Do(d.Show)
	return nil
}

// result maps a fyne dialog callback to a FileResult. The stream fyne opened
// is closed straight away: the native side reopens the document by URI.
func (p *Picker) result(req contracts.FileRequest, uri fyne.URI, stream io.Closer, err error) contracts.FileResult {
	if stream != nil {
		if cerr := stream.Close(); cerr != nil && p.logger != nil {
			p.logger.Warn("closing picked document", p.logger.Field().Error("error", cerr))
		}
	}
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("file dialog failed; reporting cancellation",
				p.logger.Field().String("kind", req.Kind.String()),
				p.logger.Field().Error("error", err))
		}
		return contracts.FileResult{Token: req.Token, Status: contracts.StatusCancelled}
	}
	if uri == nil {
		return contracts.FileResult{Token: req.Token, Status: contracts.StatusCancelled}
	}
	return contracts.FileResult{Token: req.Token, Status: contracts.StatusOK, URI: uri.String()}
}
