// Package midiportable opens MIDI ports through gomidi's driver registry. It
// serves every platform without a native backend; the host links the driver
// it wants (rtmidi, portmidi, webmidi).
package midiportable

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/trackerbridge/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Error definitions for port handling.
var (
	ErrNoMIDIDevices  = errors.New("no MIDI devices found")
	ErrDeviceNotFound = errors.New("MIDI port not found")
)

// port is the part of drivers.Port the opener relies on.
type port interface {
	Open() error
	Close() error
	IsOpen() bool
	String() string
}

// backend abstracts gomidi's package-level port lookup.
type backend struct {
	ins     func() []port
	outs    func() []port
	findIn  func(name string) (port, error)
	findOut func(name string) (port, error)
	listen  func(p port, fn func(data []byte, ms int32)) (stop func(), err error)
}

func gomidiBackend() backend {
	return backend{
		ins: func() []port {
			var out []port
			for _, in := range midi.GetInPorts() {
				out = append(out, in)
			}
			return out
		},
		outs: func() []port {
			var out []port
			for _, o := range midi.GetOutPorts() {
				out = append(out, o)
			}
			return out
		},
		findIn: func(name string) (port, error) {
			in, err := midi.FindInPort(name)
			if err != nil {
				return nil, err
			}
			return in, nil
		},
		findOut: func(name string) (port, error) {
			o, err := midi.FindOutPort(name)
			if err != nil {
				return nil, err
			}
			return o, nil
		},
		listen: func(p port, fn func(data []byte, ms int32)) (func(), error) {
			in, ok := p.(drivers.In)
			if !ok {
				return nil, fmt.Errorf("port %s cannot listen", p)
			}
			return midi.ListenTo(in, func(msg midi.Message, ms int32) {
				fn(msg, ms)
			})
		},
	}
}

type openPort struct {
	port port
	stop func()
}

// Opener implements contracts.DeviceOpener on gomidi.
type Opener struct {
	logger    contracts.Logger
	onMessage contracts.MessageFunc
	backend   backend

	mu    sync.Mutex
	ports map[contracts.Handle][]openPort
}

// NewMIDIClient creates a gomidi-backed opener.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.DeviceOpener, error) {
	options.Logger.Info("Using gomidi MIDI backend")
	return newOpener(options, gomidiBackend()), nil
}

func newOpener(options *contracts.ClientOptions, b backend) *Opener {
	return &Opener{
		logger:    options.Logger,
		onMessage: options.OnMessage,
		backend:   b,
		ports:     make(map[contracts.Handle][]openPort),
	}
}

// ListDevices lists every input and output port of the registered driver.
func (o *Opener) ListDevices() ([]contracts.DeviceInfo, error) {
	var devices []contracts.DeviceInfo
	for _, p := range o.backend.ins() {
		devices = append(devices, contracts.DeviceInfo{Name: p.String(), EntityName: p.String()})
	}
	for _, p := range o.backend.outs() {
		devices = append(devices, contracts.DeviceInfo{Name: p.String(), EntityName: p.String(), IsOutput: true})
	}
	if len(devices) == 0 {
		o.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}
	return devices, nil
}

// Open opens the named port and fires onOpened before returning. gomidi opens
// synchronously, so there is no later callback.
func (o *Opener) Open(name string, h contracts.Handle, isOutput bool, onOpened contracts.OpenedFunc) error {
	find := o.backend.findIn
	if isOutput {
		find = o.backend.findOut
	}
	p, err := find(name)
	if err != nil {
		o.logger.Error(ErrDeviceNotFound.Error(), o.logger.Field().String("device", name), o.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}

	if !p.IsOpen() {
		if err := p.Open(); err != nil {
			o.logger.Error("error opening MIDI port", o.logger.Field().String("device", name), o.logger.Field().Error("error", err))
			return fmt.Errorf("open %s: %w", name, err)
		}
	}

	op := openPort{port: p}
	if !isOutput && o.onMessage != nil && o.backend.listen != nil {
		stop, err := o.backend.listen(p, func(data []byte, ms int32) {
			o.onMessage(h, data, uint64(time.Now().UTC().UnixNano()))
		})
		if err != nil {
			_ = p.Close()
			return fmt.Errorf("listen on %s: %w", name, err)
		}
		op.stop = stop
	}

	o.mu.Lock()
	o.ports[h] = append(o.ports[h], op)
	o.mu.Unlock()

	o.logger.Info("MIDI port opened", o.logger.Field().String("device", name), o.logger.Field().Bool("isOutput", isOutput))
	onOpened(portDevice{p}, h, isOutput)
	return nil
}

// Close closes every port opened through o.
func (o *Opener) Close() error {
	o.mu.Lock()
	ports := o.ports
	o.ports = make(map[contracts.Handle][]openPort)
	o.mu.Unlock()

	var errs []error
	for _, list := range ports {
		for _, op := range list {
			if op.stop != nil {
				op.stop()
			}
			if err := op.port.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", op.port, err))
			}
		}
	}
	return errors.Join(errs...)
}

// portDevice exposes a gomidi port as a contracts.Device.
type portDevice struct {
	port port
}

func (d portDevice) Name() string             { return d.port.String() }
func (d portDevice) Underlying() (any, error) { return d.port, nil }
