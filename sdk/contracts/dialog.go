package contracts

import "fmt"

// RequestKind distinguishes file-open pickers from document-creation pickers.
type RequestKind uint8

const (
	// OpenFile asks the platform for an existing document.
	OpenFile RequestKind = iota + 1
	// SaveFile asks the platform to create a document the application can write to.
	SaveFile
)

func (k RequestKind) String() string {
	switch k {
	case OpenFile:
		return "open"
	case SaveFile:
		return "save"
	}
	return fmt.Sprintf("RequestKind(%d)", uint8(k))
}

// Token identifies an outstanding picker request. It is also the request
// code handed to the platform, so it always fits in 16 bits.
type Token uint16

// ResultStatus is the outcome the platform reports for a picker request.
type ResultStatus uint8

const (
	// StatusOK means the user picked a document.
	StatusOK ResultStatus = iota + 1
	// StatusCancelled means the user dismissed the picker.
	StatusCancelled
)

func (s ResultStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("ResultStatus(%d)", uint8(s))
}

// FileRequest is a picker request that has been handed to the platform and
// not yet answered.
type FileRequest struct {
	Kind  RequestKind
	Token Token
	// MIMEType is the type filter passed to the picker. Always "*/*" today.
	MIMEType string
	// Openable restricts the chooser to documents that can be opened as a stream.
	Openable bool
}

// FileResult is what the platform delivers once for each FileRequest.
type FileResult struct {
	Token  Token
	Status ResultStatus
	// URI is the opaque resource identifier (e.g. "content://..."). Empty when absent.
	URI string
}

// ResultFunc receives the platform's answer to a request. Pickers call it
// exactly once, from the UI thread.
type ResultFunc func(FileResult)

// Picker is the platform's file chooser. Present must return without waiting
// for the user; the answer arrives later through deliver.
type Picker interface {
	Present(req FileRequest, deliver ResultFunc) error
}

// FileSink receives picked documents on behalf of the native application.
type FileSink interface {
	FileOpened(req FileRequest, uri string)
	FileSaveTarget(req FileRequest, uri string)
}

// CancelSink is implemented by sinks that want to hear about cancelled pickers.
// It is only used under CancelNotify.
type CancelSink interface {
	FileCancelled(req FileRequest)
}

// Notifier surfaces short user-facing messages (a toast on mobile platforms).
type Notifier interface {
	Notify(msg string)
}

// CancelPolicy decides what the dialog bridge does with a cancelled picker.
type CancelPolicy uint8

const (
	// CancelDrop forwards nothing on cancel. The drop is logged and counted.
	CancelDrop CancelPolicy = iota
	// CancelNotify calls CancelSink.FileCancelled on the sink.
	CancelNotify
)

func (p CancelPolicy) String() string {
	switch p {
	case CancelDrop:
		return "drop"
	case CancelNotify:
		return "notify"
	}
	return fmt.Sprintf("CancelPolicy(%d)", uint8(p))
}

// ParseCancelPolicy maps "drop" / "notify" to a CancelPolicy.
func ParseCancelPolicy(name string) (CancelPolicy, error) {
	switch name {
	case "drop", "":
		return CancelDrop, nil
	case "notify":
		return CancelNotify, nil
	}
	return CancelDrop, fmt.Errorf("unknown cancel policy %q", name)
}
