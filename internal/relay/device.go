package relay

import (
	"errors"
	"sync/atomic"

	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

// ErrDeviceExpired is returned when a device is used after the relay call
// that received it returned.
var ErrDeviceExpired = errors.New("device handle used outside its callback")

// scopedDevice limits a platform device to the extent of one sink call.
type scopedDevice struct {
	dev   contracts.Device
	valid atomic.Bool
}

func newScopedDevice(dev contracts.Device) *scopedDevice {
	d := &scopedDevice{dev: dev}
	d.valid.Store(true)
	return d
}

func (d *scopedDevice) Name() string {
	return d.dev.Name()
}

func (d *scopedDevice) Underlying() (any, error) {
	if !d.valid.Load() {
		return nil, ErrDeviceExpired
	}
	return d.dev.Underlying()
}

func (d *scopedDevice) expire() {
	d.valid.Store(false)
}
