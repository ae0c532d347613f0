//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/leandrodaf/trackerbridge/sdk/contracts"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI handles
type (
	HMIDIIN  windows.Handle
	HMIDIOUT windows.Handle
)

// Constants for callback flags
const (
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI message types
const (
	MIM_OPEN      = 0x3C1 // MIDI input device opened
	MIM_CLOSE     = 0x3C2 // MIDI input device closed
	MIM_DATA      = 0x3C3 // MIDI data received
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MOM_OPEN      = 0x3C7 // MIDI output device opened
	MOM_CLOSE     = 0x3C8 // MIDI output device closed
	MOM_DONE      = 0x3C9 // Output buffer returned
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

var (
	ErrNoMIDIDevices  = errors.New("no MIDI devices found")
	ErrDeviceNotFound = errors.New("MIDI device not found")
)

// Struct representing MIDI input device capabilities
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

// Struct representing MIDI output device capabilities
type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

// Load the winmm.dll library and required functions
var (
	winmm                 = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs  = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps  = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen        = winmm.NewProc("midiInOpen")
	procMidiInStart       = winmm.NewProc("midiInStart")
	procMidiInStop        = winmm.NewProc("midiInStop")
	procMidiInClose       = winmm.NewProc("midiInClose")
	procMidiOutGetNumDevs = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen       = winmm.NewProc("midiOutOpen")
	procMidiOutClose      = winmm.NewProc("midiOutClose")
)

// winmm callbacks are scarce (windows.NewCallback never frees them), so all
// ports share one. The instance word passed to winmm is a key into
// openPorts, never a Go pointer.
var (
	callbackOnce sync.Once
	callbackPtr  uintptr

	portsMu   sync.Mutex
	openPorts = map[uintptr]*openPort{}
	nextKey   uintptr
)

type openPort struct {
	owner    *Opener
	name     string
	handle   contracts.Handle
	isOutput bool
	hmi      HMIDIIN
	hmo      HMIDIOUT
	onOpened contracts.OpenedFunc
	gate     openGate // guarded by portsMu
}

func sharedCallback() uintptr {
	callbackOnce.Do(func() {
		callbackPtr = windows.NewCallback(midiCallback)
	})
	return callbackPtr
}

// Opener opens winmm MIDI ports. winmm reports a finished open with
// MIM_OPEN / MOM_OPEN, which is what fires the device-opened callback.
type Opener struct {
	logger    contracts.Logger
	onMessage contracts.MessageFunc
	mu        sync.Mutex
	keys      []uintptr
}

// NewMIDIClient creates a winmm backend for Windows.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.DeviceOpener, error) {
	options.Logger.Info("MIDI client created for Windows")
	return &Opener{logger: options.Logger, onMessage: options.OnMessage}, nil
}

func inputNames() []string {
	r0, _, _ := procMidiInGetNumDevs.Call()
	names := make([]string, 0, int(r0))
	for i := uint32(0); i < uint32(r0); i++ {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(uintptr(i), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
		if r1 != 0 {
			names = append(names, "")
			continue
		}
		names = append(names, windows.UTF16ToString(caps.szPname[:]))
	}
	return names
}

func outputNames() []string {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	names := make([]string, 0, int(r0))
	for i := uint32(0); i < uint32(r0); i++ {
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(uintptr(i), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
		if r1 != 0 {
			names = append(names, "")
			continue
		}
		names = append(names, windows.UTF16ToString(caps.szPname[:]))
	}
	return names
}

// ListDevices lists winmm inputs followed by outputs.
func (m *Opener) ListDevices() ([]contracts.DeviceInfo, error) {
	var devices []contracts.DeviceInfo
	for i, name := range inputNames() {
		if name == "" {
			m.logger.Warn(fmt.Sprintf("Failed to get information for MIDI input %d", i))
			continue
		}
		devices = append(devices, contracts.DeviceInfo{Name: name, EntityName: name})
	}
	for i, name := range outputNames() {
		if name == "" {
			m.logger.Warn(fmt.Sprintf("Failed to get information for MIDI output %d", i))
			continue
		}
		devices = append(devices, contracts.DeviceInfo{Name: name, EntityName: name, IsOutput: true})
	}
	if len(devices) == 0 {
		m.logger.Warn("No MIDI devices found")
		return nil, ErrNoMIDIDevices
	}
	return devices, nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// Open opens the named port. winmm delivers MIM_OPEN / MOM_OPEN from inside
// the open call, so the port is registered before calling it. The callback
// fires only once the open flow succeeded; a failed midiInStart never
// reports the device.
func (m *Opener) Open(name string, h contracts.Handle, isOutput bool, onOpened contracts.OpenedFunc) error {
	names := inputNames()
	if isOutput {
		names = outputNames()
	}
	deviceID := indexOf(names, name)
	if deviceID < 0 {
		m.logger.Error(ErrDeviceNotFound.Error(), m.logger.Field().String("device", name))
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}

	p := &openPort{owner: m, name: name, handle: h, isOutput: isOutput, onOpened: onOpened}
	portsMu.Lock()
	nextKey++
	key := nextKey
	openPorts[key] = p
	portsMu.Unlock()

	if err := m.openPort(p, key, deviceID); err != nil {
		portsMu.Lock()
		delete(openPorts, key)
		portsMu.Unlock()
		m.logger.Error(fmt.Sprintf("Failed to open MIDI device %d: %v", deviceID, err))
		return err
	}

	m.mu.Lock()
	m.keys = append(m.keys, key)
	m.mu.Unlock()
	m.logger.Info(fmt.Sprintf("MIDI device %d connected", deviceID), m.logger.Field().String("device", name))

	portsMu.Lock()
	fire := p.gate.finish()
	portsMu.Unlock()
	if fire {
		p.onOpened(winmmDevice{p}, p.handle, p.isOutput)
	}
	return nil
}

func (m *Opener) openPort(p *openPort, key uintptr, deviceID int) error {
	fdwOpen := uintptr(CALLBACK_FUNCTION)
	if p.isOutput {
		r1, _, err := procMidiOutOpen.Call(
			uintptr(unsafe.Pointer(&p.hmo)),
			uintptr(deviceID),
			sharedCallback(),
			key,
			fdwOpen,
		)
		if r1 != 0 {
			return fmt.Errorf("midiOutOpen %d: %v", deviceID, err)
		}
		return nil
	}

	r1, _, err := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&p.hmi)),
		uintptr(deviceID),
		sharedCallback(),
		key,
		fdwOpen|MIDI_IO_STATUS,
	)
	if r1 != 0 {
		return fmt.Errorf("midiInOpen %d: %v", deviceID, err)
	}
	r1, _, err = procMidiInStart.Call(uintptr(p.hmi))
	if r1 != 0 {
		procMidiInClose.Call(uintptr(p.hmi))
		return fmt.Errorf("midiInStart %d: %v", deviceID, err)
	}
	return nil
}

// midiCallback processes winmm notifications for every open port.
func midiCallback(hMidi uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	portsMu.Lock()
	p := openPorts[dwInstance]
	repeated, fire := false, false
	if p != nil && (wMsg == MIM_OPEN || wMsg == MOM_OPEN) {
		repeated, fire = p.gate.notify()
		if !repeated {
			if p.isOutput {
				p.hmo = HMIDIOUT(hMidi)
			} else {
				p.hmi = HMIDIIN(hMidi)
			}
		}
	}
	portsMu.Unlock()
	if p == nil {
		return 0
	}
	m := p.owner

	switch wMsg {
	case MIM_OPEN, MOM_OPEN:
		if repeated {
			m.logger.Warn("repeated open notification ignored", m.logger.Field().String("device", p.name))
			return 0
		}
		if fire {
			p.onOpened(winmmDevice{p}, p.handle, p.isOutput)
		}
	case MIM_CLOSE, MOM_CLOSE:
		m.logger.Info("MIDI device closed", m.logger.Field().String("device", p.name))
	case MIM_DATA:
		if m.onMessage == nil {
			return 0
		}
		data := []byte{byte(dwParam1 & 0xFF), byte((dwParam1 >> 8) & 0xFF), byte((dwParam1 >> 16) & 0xFF)}
		m.onMessage(p.handle, data, uint64(time.Now().UTC().UnixNano()))
	case MIM_ERROR, MIM_LONGERROR:
		m.logger.Error(fmt.Sprintf("MIDI error: msg=0x%X", wMsg), m.logger.Field().String("device", p.name))
	case MIM_MOREDATA, MOM_DONE:
		m.logger.Debug(fmt.Sprintf("winmm message 0x%X ignored", wMsg))
	default:
		m.logger.Warn(fmt.Sprintf("Unknown MIDI message: 0x%X", wMsg))
	}
	return 0
}

// Close stops and closes every port opened through m.
func (m *Opener) Close() error {
	m.mu.Lock()
	keys := m.keys
	m.keys = nil
	m.mu.Unlock()

	var errs []error
	for _, key := range keys {
		portsMu.Lock()
		p := openPorts[key]
		delete(openPorts, key)
		portsMu.Unlock()
		if p == nil {
			continue
		}
		if p.isOutput {
			if r1, _, err := procMidiOutClose.Call(uintptr(p.hmo)); r1 != 0 {
				errs = append(errs, fmt.Errorf("midiOutClose %s: %v", p.name, err))
			}
			continue
		}
		procMidiInStop.Call(uintptr(p.hmi))
		if r1, _, err := procMidiInClose.Call(uintptr(p.hmi)); r1 != 0 {
			errs = append(errs, fmt.Errorf("midiInClose %s: %v", p.name, err))
		}
	}
	if len(errs) > 0 {
		m.logger.Error("closing MIDI devices", m.logger.Field().Error("error", errors.Join(errs...)))
	}
	return errors.Join(errs...)
}

// Port is what a winmm Device.Underlying returns.
type Port struct {
	In  HMIDIIN
	Out HMIDIOUT
}

type winmmDevice struct {
	p *openPort
}

func (d winmmDevice) Name() string { return d.p.name }
func (d winmmDevice) Underlying() (any, error) {
	return Port{In: d.p.hmi, Out: d.p.hmo}, nil
}
