package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/trackerbridge/internal/dialog"
	"github.com/leandrodaf/trackerbridge/internal/handle"
	"github.com/leandrodaf/trackerbridge/internal/handoff"
	"github.com/leandrodaf/trackerbridge/internal/logger"
	"github.com/leandrodaf/trackerbridge/internal/picker"
	"github.com/leandrodaf/trackerbridge/internal/relay"
	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

type fakeDevice struct{ name string }

func (d fakeDevice) Name() string             { return d.name }
func (d fakeDevice) Underlying() (any, error) { return "port:" + d.name, nil }

// fakeOpener fires onOpened inline unless silent is set.
type fakeOpener struct {
	silent bool
	closed bool
}

func (o *fakeOpener) ListDevices() ([]contracts.DeviceInfo, error) {
	return []contracts.DeviceInfo{{Name: "Keys"}, {Name: "Synth", IsOutput: true}}, nil
}

func (o *fakeOpener) Open(name string, h contracts.Handle, isOutput bool, onOpened contracts.OpenedFunc) error {
	if !o.silent {
		onOpened(fakeDevice{name}, h, isOutput)
	}
	return nil
}

func (o *fakeOpener) Close() error {
	o.closed = true
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Notify(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func newTestBridge(t *testing.T, opts ...contracts.Option) (*Bridge, *picker.Manual, *fakeOpener) {
	t.Helper()
	manual := picker.NewManual()
	opener := &fakeOpener{}
	base := []contracts.Option{
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithPicker(manual),
		contracts.WithDeviceOpener(opener),
	}
	b, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return b, manual, opener
}

func drain(b *Bridge) []handoff.Event {
	var events []handoff.Event
	b.Events().Drain(func(ev handoff.Event) { events = append(events, ev) })
	return events
}

func TestApplyDefaultOptions(t *testing.T) {
	options, err := applyDefaultOptions(contracts.WithLogger(logger.NewNopLogger()))
	if err != nil {
		t.Fatalf("applyDefaultOptions failed: %v", err)
	}
	if options.LogLevel != contracts.InfoLevel {
		t.Errorf("LogLevel = %v", options.LogLevel)
	}
	if options.QueueSize != handoff.DefaultQueueSize {
		t.Errorf("QueueSize = %d", options.QueueSize)
	}
	if options.OpenTimeout != DefaultOpenTimeout {
		t.Errorf("OpenTimeout = %v", options.OpenTimeout)
	}
	if options.CoreMIDIConfig == nil || options.CoreMIDIConfig.ClientName != "Tracker Bridge" {
		t.Errorf("CoreMIDIConfig = %+v", options.CoreMIDIConfig)
	}
	if options.CancelPolicy != contracts.CancelDrop {
		t.Errorf("CancelPolicy = %s", options.CancelPolicy)
	}
	if options.Capture == nil {
		t.Error("Capture not defaulted")
	}
}

func TestOpenerInitializers(t *testing.T) {
	if _, ok := openerInitializers["plan9"]; ok {
		t.Fatal("plan9 unexpectedly has a native backend")
	}
	if _, ok := openerInitializers["darwin"]; !ok {
		t.Error("darwin backend missing")
	}
	if _, ok := openerInitializers["windows"]; !ok {
		t.Error("windows backend missing")
	}
}

func TestBridge_OpenFileDelivered(t *testing.T) {
	b, manual, _ := newTestBridge(t)

	token, err := b.RequestOpenFile()
	if err != nil {
		t.Fatalf("RequestOpenFile failed: %v", err)
	}
	reqs := manual.Requests()
	if len(reqs) != 1 || reqs[0].MIMEType != "*/*" || reqs[0].Kind != contracts.OpenFile {
		t.Fatalf("presented = %+v", reqs)
	}

	if err := manual.Answer(token, contracts.StatusOK, "content://docs/song.xm"); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	events := drain(b)
	if len(events) != 1 || events[0].Kind != handoff.FileOpened || events[0].URI != "content://docs/song.xm" {
		t.Fatalf("events = %+v", events)
	}
	if len(b.PendingRequests()) != 0 {
		t.Error("request still pending after delivery")
	}
}

func TestBridge_SaveViaActivityResult(t *testing.T) {
	b, manual, _ := newTestBridge(t)

	token, err := b.RequestSaveFile()
	if err != nil {
		t.Fatalf("RequestSaveFile failed: %v", err)
	}
	if req := manual.Requests()[0]; !req.Openable || req.Kind != contracts.SaveFile {
		t.Fatalf("save request = %+v", req)
	}

	if err := b.OnActivityResult(int(token), dialog.ResultOK, "content://docs/new.xm"); err != nil {
		t.Fatalf("OnActivityResult failed: %v", err)
	}
	if err := b.OnActivityResult(int(token), dialog.ResultOK, "content://docs/new.xm"); !errors.Is(err, dialog.ErrUnknownRequest) {
		t.Errorf("second result error = %v, want ErrUnknownRequest", err)
	}

	events := drain(b)
	if len(events) != 1 || events[0].Kind != handoff.FileSaveTarget {
		t.Fatalf("events = %+v", events)
	}
	if s := b.DialogStats(); s.Delivered != 1 || s.Rejected != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestBridge_CancelPolicies(t *testing.T) {
	tests := []struct {
		name   string
		policy contracts.CancelPolicy
		want   int
	}{
		{"drop", contracts.CancelDrop, 0},
		{"notify", contracts.CancelNotify, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _, _ := newTestBridge(t, contracts.WithCancelPolicy(tt.policy))
			token, err := b.RequestOpenFile()
			if err != nil {
				t.Fatalf("RequestOpenFile failed: %v", err)
			}
			if err := b.OnActivityResult(int(token), dialog.ResultCanceled, ""); err != nil {
				t.Fatalf("OnActivityResult failed: %v", err)
			}
			events := drain(b)
			if len(events) != tt.want {
				t.Fatalf("got %d events, want %d", len(events), tt.want)
			}
			if tt.want == 1 && (events[0].Kind != handoff.FileCancelled || !errors.Is(events[0].Err, contracts.ErrUserCancelled)) {
				t.Errorf("event = %+v", events[0])
			}
		})
	}
}

func TestBridge_NotifierSeesResults(t *testing.T) {
	notifier := &recordingNotifier{}
	b, _, _ := newTestBridge(t, contracts.WithNotifier(notifier))

	token, _ := b.RequestOpenFile()
	if err := b.OnResult(token, contracts.StatusOK, "file:///tmp/a.mod"); err != nil {
		t.Fatalf("OnResult failed: %v", err)
	}
	if len(notifier.msgs) != 1 || notifier.msgs[0] != "Opened file:///tmp/a.mod" {
		t.Errorf("notifications = %v", notifier.msgs)
	}
	if n := len(drain(b)); n != 1 {
		t.Errorf("engine got %d events, want 1", n)
	}
}

func TestBridge_OkWithoutURIFails(t *testing.T) {
	b, _, _ := newTestBridge(t)
	token, _ := b.RequestOpenFile()
	if err := b.OnResult(token, contracts.StatusOK, ""); !errors.Is(err, contracts.ErrOsRequestFailed) {
		t.Errorf("error = %v, want ErrOsRequestFailed", err)
	}
	if n := len(drain(b)); n != 0 {
		t.Errorf("got %d events, want 0", n)
	}
}

func TestBridge_OpenDevice(t *testing.T) {
	b, _, _ := newTestBridge(t)
	h := b.Register("keys-state")

	if err := b.OpenDevice(context.Background(), "Keys", h, false); err != nil {
		t.Fatalf("OpenDevice failed: %v", err)
	}
	events := drain(b)
	if len(events) != 1 {
		t.Fatalf("events = %+v", events)
	}
	ev := events[0]
	if ev.Kind != handoff.DeviceOpened || ev.Handle != h || ev.IsOutput || ev.DeviceName != "Keys" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Captured != "port:Keys" || ev.CaptureErr != nil {
		t.Errorf("captured = %v, %v", ev.Captured, ev.CaptureErr)
	}
	if s := b.RelayStats(); s.Relayed != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestBridge_OpenDeviceTimesOut(t *testing.T) {
	b, _, opener := newTestBridge(t, contracts.WithOpenTimeout(20*time.Millisecond))
	opener.silent = true
	h := b.Register(nil)

	start := time.Now()
	err := b.OpenDevice(context.Background(), "Keys", h, false)
	if !errors.Is(err, contracts.ErrDeviceOpenFailed) {
		t.Fatalf("error = %v, want ErrDeviceOpenFailed", err)
	}
	if time.Since(start) > time.Second {
		t.Error("open timeout not applied")
	}

	// A late callback for the abandoned attempt is rejected.
	if err := b.OnDeviceOpened(fakeDevice{"Keys"}, h, false); !errors.Is(err, relay.ErrUnexpectedOpen) {
		t.Errorf("late callback error = %v, want ErrUnexpectedOpen", err)
	}
	if n := len(drain(b)); n != 0 {
		t.Errorf("got %d events, want 0", n)
	}
}

func TestBridge_ReleasedHandleRejected(t *testing.T) {
	b, _, _ := newTestBridge(t)
	h := b.Register("state")
	if _, err := b.ExpectDevice(h, true); err != nil {
		t.Fatalf("ExpectDevice failed: %v", err)
	}
	if err := b.Release(h); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := b.OnDeviceOpened(fakeDevice{"Synth"}, h, true); !errors.Is(err, handle.ErrInvalidHandle) {
		t.Errorf("error = %v, want ErrInvalidHandle", err)
	}
	if _, err := b.Resolve(h); !errors.Is(err, handle.ErrInvalidHandle) {
		t.Errorf("Resolve error = %v", err)
	}
}

func TestBridge_ExpectThenCallback(t *testing.T) {
	b, _, _ := newTestBridge(t)
	h := b.Register("state")
	attempt, err := b.ExpectDevice(h, true)
	if err != nil {
		t.Fatalf("ExpectDevice failed: %v", err)
	}
	if err := b.OnDeviceOpened(fakeDevice{"Synth"}, h, true); err != nil {
		t.Fatalf("OnDeviceOpened failed: %v", err)
	}
	if err := attempt.Wait(context.Background()); err != nil {
		t.Errorf("Wait = %v", err)
	}
	if err := b.OnDeviceOpened(fakeDevice{"Synth"}, h, true); !errors.Is(err, relay.ErrDuplicateOpen) {
		t.Errorf("duplicate error = %v, want ErrDuplicateOpen", err)
	}
}

func TestBridge_ListAndClose(t *testing.T) {
	b, _, opener := newTestBridge(t)
	devices, err := b.ListDevices()
	if err != nil || len(devices) != 2 {
		t.Fatalf("ListDevices = %v, %v", devices, err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !opener.closed {
		t.Error("opener not closed")
	}
	if err := b.Events().Post(handoff.Event{}); !errors.Is(err, handoff.ErrQueueClosed) {
		t.Errorf("Post after Close = %v, want ErrQueueClosed", err)
	}
}

func TestBridge_NoPicker(t *testing.T) {
	b, err := New(
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithDeviceOpener(&fakeOpener{}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := b.RequestOpenFile(); !errors.Is(err, dialog.ErrNoPicker) {
		t.Errorf("error = %v, want ErrNoPicker", err)
	}
}
