package fynepicker

import (
	"errors"
	"testing"

	"fyne.io/fyne/v2/storage"
	"github.com/leandrodaf/trackerbridge/internal/logger"
	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

type closer struct{ closed bool }

func (c *closer) Close() error {
	c.closed = true
	return nil
}

func TestResultMapping(t *testing.T) {
	p := New(nil, logger.NewNopLogger())
	req := contracts.FileRequest{Kind: contracts.OpenFile, Token: 3}
	uri := storage.NewFileURI("/songs/demo.fur")

	t.Run("picked", func(t *testing.T) {
		c := &closer{}
		res := p.result(req, uri, c, nil)
		if res.Status != contracts.StatusOK || res.URI != uri.String() || res.Token != 3 {
			t.Errorf("result = %+v", res)
		}
		if !c.closed {
			t.Error("picked stream was not closed")
		}
	})

	t.Run("dismissed", func(t *testing.T) {
		res := p.result(req, nil, nil, nil)
		if res.Status != contracts.StatusCancelled || res.URI != "" {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("dialog error", func(t *testing.T) {
		res := p.result(req, uri, nil, errors.New("permission denied"))
		if res.Status != contracts.StatusCancelled || res.URI != "" {
			t.Errorf("result = %+v, want cancelled without URI", res)
		}
	})
}

func TestPresentWithoutWindow(t *testing.T) {
	p := New(nil, logger.NewNopLogger())
	err := p.Present(contracts.FileRequest{Kind: contracts.SaveFile, Token: 1}, func(contracts.FileResult) {
		t.Error("deliver must not be called")
	})
	if !errors.Is(err, ErrNoWindow) {
		t.Errorf("Present error = %v, want ErrNoWindow", err)
	}
}
