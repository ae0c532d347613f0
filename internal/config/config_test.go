package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trackerbridge.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	t.Setenv("BRIDGE_LOG", "/tmp/bridge.log")
	path := writeTemp(t, `log:
  level: debug
  file: ${BRIDGE_LOG}
dialog:
  cancel_policy: notify
  notify: true
midi:
  client_name: ${CLIENT_NAME:-Tracker Bridge}
  open_timeout: 1500ms
queue_size: 32
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != "/tmp/bridge.log" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Dialog.CancelPolicy != "notify" || !cfg.Dialog.Notify {
		t.Errorf("dialog = %+v", cfg.Dialog)
	}
	if cfg.MIDI.ClientName != "Tracker Bridge" {
		t.Errorf("client_name = %q", cfg.MIDI.ClientName)
	}
	if cfg.MIDI.OpenTimeout.Duration != 1500*time.Millisecond {
		t.Errorf("open_timeout = %v", cfg.MIDI.OpenTimeout.Duration)
	}

	var opts contracts.ClientOptions
	for _, opt := range cfg.Options() {
		opt(&opts)
	}
	if opts.LogLevel != contracts.DebugLevel || opts.LogFilePath != "/tmp/bridge.log" {
		t.Errorf("log options = %v %q", opts.LogLevel, opts.LogFilePath)
	}
	if opts.CancelPolicy != contracts.CancelNotify || opts.QueueSize != 32 {
		t.Errorf("policy=%s queue=%d", opts.CancelPolicy, opts.QueueSize)
	}
	if opts.CoreMIDIConfig == nil || opts.CoreMIDIConfig.ClientName != "Tracker Bridge" {
		t.Errorf("CoreMIDIConfig = %+v", opts.CoreMIDIConfig)
	}
	if opts.OpenTimeout != 1500*time.Millisecond {
		t.Errorf("OpenTimeout = %v", opts.OpenTimeout)
	}
}

func TestLoad_EmptyConfigProducesNoOptions(t *testing.T) {
	cfg, err := Load(writeTemp(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if n := len(cfg.Options()); n != 0 {
		t.Errorf("Options() returned %d options, want 0", n)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "log: [", "invalid YAML"},
		{"bad level", "log:\n  level: loud\n", "unknown log level"},
		{"bad policy", "dialog:\n  cancel_policy: toast\n", "unknown cancel policy"},
		{"bad duration", "midi:\n  open_timeout: soon\n", "invalid duration"},
		{"negative duration", "midi:\n  open_timeout: -1s\n", "negative duration"},
		{"negative queue", "queue_size: -4\n", "queue_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTemp(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Load error = %v", err)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("SET_VAR", "value")
	t.Setenv("EMPTY_VAR", "")

	tests := []struct {
		in, want string
	}{
		{"${SET_VAR}", "value"},
		{"${UNSET_VAR_FOR_TEST}", ""},
		{"${UNSET_VAR_FOR_TEST:-fallback}", "fallback"},
		{"${EMPTY_VAR:-fallback}", "fallback"},
		{"plain $SET_VAR", "plain $SET_VAR"},
	}
	for _, tt := range tests {
		if got := ExpandEnv(tt.in); got != tt.want {
			t.Errorf("ExpandEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
