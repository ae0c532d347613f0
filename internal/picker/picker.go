// Package picker holds contracts.Picker implementations that do not need a
// windowing toolkit.
package picker

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

// ErrNotPresented is returned when answering a token the picker never saw.
var ErrNotPresented = errors.New("request was not presented")

// Func adapts a function to contracts.Picker.
type Func func(req contracts.FileRequest, deliver contracts.ResultFunc) error

// Present calls f.
func (f Func) Present(req contracts.FileRequest, deliver contracts.ResultFunc) error {
	return f(req, deliver)
}

// Manual holds presented requests until the host answers them. It plays the
// role of the platform's result channel for hosts that receive
// (requestCode, resultCode, data) from elsewhere, and for tests.
type Manual struct {
	mu       sync.Mutex
	requests []contracts.FileRequest
	deliver  map[contracts.Token]contracts.ResultFunc
}

// NewManual returns an empty Manual picker.
func NewManual() *Manual {
	return &Manual{deliver: make(map[contracts.Token]contracts.ResultFunc)}
}

// Present records req.
func (m *Manual) Present(req contracts.FileRequest, deliver contracts.ResultFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	m.deliver[req.Token] = deliver
	return nil
}

// Requests returns every request presented so far, oldest first.
func (m *Manual) Requests() []contracts.FileRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]contracts.FileRequest(nil), m.requests...)
}

// Answer delivers the result for token. Each token can be answered once.
func (m *Manual) Answer(token contracts.Token, status contracts.ResultStatus, uri string) error {
	m.mu.Lock()
	deliver, ok := m.deliver[token]
	delete(m.deliver, token)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotPresented, token)
	}
	deliver(contracts.FileResult{Token: token, Status: status, URI: uri})
	return nil
}

// Prompt asks for a path on a terminal. An empty line cancels. Present blocks
// on input, so it suits command-line hosts only.
type Prompt struct {
	In  io.Reader
	Out io.Writer
}

// Present reads one line from In and delivers it as a file URI.
func (p Prompt) Present(req contracts.FileRequest, deliver contracts.ResultFunc) error {
	verb := "Open"
	if req.Kind == contracts.SaveFile {
		verb = "Save as"
	}
	if _, err := fmt.Fprintf(p.Out, "%s (empty to cancel): ", verb); err != nil {
		return err
	}

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read path: %w", err)
	}
	path := strings.TrimSpace(line)
	if path == "" {
		deliver(contracts.FileResult{Token: req.Token, Status: contracts.StatusCancelled})
		return nil
	}
	deliver(contracts.FileResult{Token: req.Token, Status: contracts.StatusOK, URI: FileURI(path)})
	return nil
}

// FileURI turns a local path into a file:// URI.
func FileURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}
