package contracts

// DeviceInfo contains information about a MIDI port.
type DeviceInfo struct {
	Name         string // Port name, used to open the port.
	Manufacturer string // Device manufacturer, when the backend knows it.
	EntityName   string // Name of the entity to which the port belongs.
	IsOutput     bool   // True for destinations, false for sources.
}
