package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leandrodaf/trackerbridge/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerLevelGate(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))
	l.SetLevel(contracts.WarnLevel)

	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	if got := logs.Len(); got != 2 {
		t.Fatalf("recorded %d entries, want 2", got)
	}
	if logs.FilterMessage("info").Len() != 0 {
		t.Error("info entry should have been filtered")
	}
}

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	l.Info("picked",
		l.Field().String("uri", "content://x/doc1"),
		l.Field().Int("token", 7),
		l.Field().Bool("output", true),
		l.Field().Error("error", errors.New("boom")),
		l.Field().Error("nil", nil),
	)

	entries := logs.FilterMessage("picked").All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["uri"] != "content://x/doc1" {
		t.Errorf("uri = %v", ctx["uri"])
	}
	if ctx["token"] != int64(7) {
		t.Errorf("token = %v (%T)", ctx["token"], ctx["token"])
	}
	if ctx["output"] != true {
		t.Errorf("output = %v", ctx["output"])
	}
	if ctx["error"] != "boom" {
		t.Errorf("error = %v", ctx["error"])
	}
	if _, ok := ctx["nil"]; ok {
		t.Error("nil error should be skipped")
	}
}

func TestZapLoggerFileDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.log")
	l := NewZapLogger().(*ZapLogger)

	l.SetDestination(contracts.FileLog, path)
	l.Info("written to file", l.Field().String("k", "v"))
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	l.SetDestination(contracts.ConsoleLog)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file missing entry: %q", data)
	}
}

func TestZapLoggerFileDestinationWithoutPath(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	l.SetDestination(contracts.FileLog)
	l.Info("still here")

	if logs.FilterMessage("still here").Len() != 1 {
		t.Error("logger should keep its output when no file path is given")
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("discarded", l.Field().String("k", "v"))
	l.SetLevel(contracts.DebugLevel)
}
