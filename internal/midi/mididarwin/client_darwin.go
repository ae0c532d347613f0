//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/trackerbridge/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for MIDI connection and handling issues.
var (
	ErrNoMIDIDevices        = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice    = errors.New("invalid MIDI device")
	ErrMIDIConnectionError  = errors.New("error connecting to MIDI device")
	ErrCreateInputPort      = errors.New("error creating input port")
	ErrCreateOutputPort     = errors.New("error creating output port")
	ErrIncompleteMIDIPacket = errors.New("incomplete MIDI packet")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// Opener opens CoreMIDI sources and destinations on macOS. CoreMIDI has no
// asynchronous open, so the device-opened callback fires once the port
// connection exists, before Open returns.
type Opener struct {
	logger    contracts.Logger
	client    coremidi.Client
	onMessage contracts.MessageFunc
	mu        sync.Mutex
	conns     []internalPortConnection
	closed    bool           // guarded by mu; no handler starts once set
	wg        sync.WaitGroup // In-flight packet handlers.
	closeOnce sync.Once
}

// NewMIDIClient creates the CoreMIDI client named by options.CoreMIDIConfig.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.DeviceOpener, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Info("MIDI client successfully created",
		options.Logger.Field().String("client", options.CoreMIDIConfig.ClientName))

	return &Opener{
		logger:    options.Logger,
		client:    client,
		onMessage: options.OnMessage,
	}, nil
}

// ListDevices lists CoreMIDI sources followed by destinations.
func (m *Opener) ListDevices() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	if len(sources)+len(destinations) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, 0, len(sources)+len(destinations))
	for _, source := range sources {
		entity := source.Entity()
		devices = append(devices, contracts.DeviceInfo{
			Name:         source.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
		})
	}
	for _, destination := range destinations {
		entity := destination.Entity()
		devices = append(devices, contracts.DeviceInfo{
			Name:         destination.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
			IsOutput:     true,
		})
	}
	return devices, nil
}

// Open connects to the named source (input) or destination (output).
func (m *Opener) Open(name string, h contracts.Handle, isOutput bool, onOpened contracts.OpenedFunc) error {
	if isOutput {
		return m.openDestination(name, h, onOpened)
	}
	return m.openSource(name, h, onOpened)
}

func (m *Opener) openSource(name string, h contracts.Handle, onOpened contracts.OpenedFunc) error {
	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	var source *coremidi.Source
	for i := range sources {
		if sources[i].Name() == name {
			source = &sources[i]
			break
		}
	}
	if source == nil {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().String("device", name))
		return fmt.Errorf("%w: %s", ErrInvalidMIDIDevice, name)
	}

	inputPort, err := coremidi.NewInputPort(m.client, "Input Port", func(_ coremidi.Source, packet coremidi.Packet) {
		m.handlePacket(h, packet)
	})
	if err != nil {
		m.logger.Error(ErrCreateInputPort.Error(), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}

	conn, err := inputPort.Connect(*source)
	if err != nil {
		m.logger.Error(ErrMIDIConnectionError.Error(), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}

	m.mu.Lock()
	m.conns = append(m.conns, conn)
	m.mu.Unlock()

	m.logger.Info("MIDI source connected", m.logger.Field().String("device", name))
	onOpened(sourceDevice{source: *source, port: inputPort}, h, false)
	return nil
}

func (m *Opener) openDestination(name string, h contracts.Handle, onOpened contracts.OpenedFunc) error {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}
	var destination *coremidi.Destination
	for i := range destinations {
		if destinations[i].Name() == name {
			destination = &destinations[i]
			break
		}
	}
	if destination == nil {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().String("device", name))
		return fmt.Errorf("%w: %s", ErrInvalidMIDIDevice, name)
	}

	outputPort, err := coremidi.NewOutputPort(m.client, "Output Port")
	if err != nil {
		m.logger.Error(ErrCreateOutputPort.Error(), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
	}

	m.logger.Info("MIDI destination ready", m.logger.Field().String("device", name))
	onOpened(destinationDevice{destination: *destination, port: outputPort}, h, true)
	return nil
}

// handlePacket forwards input traffic for the port opened under h.
func (m *Opener) handlePacket(h contracts.Handle, packet coremidi.Packet) {
	if !m.beginPacket() {
		return
	}
	defer m.wg.Done()

	if m.onMessage == nil {
		return
	}
	if len(packet.Data) == 0 {
		m.logger.Warn(ErrIncompleteMIDIPacket.Error())
		return
	}
	m.onMessage(h, packet.Data, uint64(time.Now().UTC().UnixNano()))
}

// beginPacket registers an in-flight handler unless Close already started,
// so wg.Add never races wg.Wait.
func (m *Opener) beginPacket() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.wg.Add(1)
	return true
}

// Close disconnects every source and waits for in-flight packet handlers.
func (m *Opener) Close() error {
	m.closeOnce.Do(func() {
		m.logger.Info("Closing CoreMIDI connections")
		m.mu.Lock()
		m.closed = true
		conns := m.conns
		m.conns = nil
		m.mu.Unlock()

		for _, conn := range conns {
			conn.Disconnect()
		}
		m.wg.Wait()
	})
	return nil
}

// SourcePort is what an opened source's Device.Underlying returns.
type SourcePort struct {
	Source coremidi.Source
	Port   coremidi.InputPort
}

// DestinationPort is what an opened destination's Device.Underlying returns.
type DestinationPort struct {
	Destination coremidi.Destination
	Port        coremidi.OutputPort
}

type sourceDevice struct {
	source coremidi.Source
	port   coremidi.InputPort
}

func (d sourceDevice) Name() string { return d.source.Name() }
func (d sourceDevice) Underlying() (any, error) {
	return SourcePort{Source: d.source, Port: d.port}, nil
}

type destinationDevice struct {
	destination coremidi.Destination
	port        coremidi.OutputPort
}

func (d destinationDevice) Name() string { return d.destination.Name() }
func (d destinationDevice) Underlying() (any, error) {
	return DestinationPort{Destination: d.destination, Port: d.port}, nil
}
