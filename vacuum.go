package shark

import (
	"context"
	"fmt"
)

// OperatingMode is the value of a vacuum's Operating_Mode property.
type OperatingMode int64

// Operating modes written by the official app.
const (
	ModePause OperatingMode = 0
	ModeClean OperatingMode = 2
	ModeStop  OperatingMode = 3
)

// String implements fmt.Stringer.
func (m OperatingMode) String() string {
	switch m {
	case ModePause:
		return "paused"
	case ModeClean:
		return "cleaning"
	case ModeStop:
		return "stopped"
	default:
		return fmt.Sprintf("mode(%d)", int64(m))
	}
}

// PropertyClient is the subset of the API a Vacuum needs.
type PropertyClient interface {
	GetDeviceProperty(ctx context.Context, serialNumber, name string) (*Property, error)
	SetDeviceProperty(ctx context.Context, serialNumber, name string, value any) (*Datapoint, error)
}

// Vacuum drives a single robot vacuum through its properties.
type Vacuum struct {
	api    PropertyClient
	Device Device
}

// NewVacuum binds a device to a property client.
func NewVacuum(api PropertyClient, device Device) *Vacuum {
	return &Vacuum{api: api, Device: device}
}

// OperatingMode reads the vacuum's current operating mode.
func (v *Vacuum) OperatingMode(ctx context.Context) (OperatingMode, error) {
	prop, err := v.api.GetDeviceProperty(ctx, v.Device.SerialNumber, PropertyOperatingMode)
	if err != nil {
		return 0, err
	}
	if prop.BaseType != BaseTypeInteger {
		return 0, newPipelineError(string(EndpointPropertyRead),
			fmt.Errorf("%s has base type %s, want %s", PropertyOperatingMode, prop.BaseType, BaseTypeInteger))
	}
	return OperatingMode(prop.IntValue), nil
}

// Clean starts a cleaning run.
func (v *Vacuum) Clean(ctx context.Context) error {
	return v.setMode(ctx, ModeClean)
}

// Stop ends the current run.
func (v *Vacuum) Stop(ctx context.Context) error {
	return v.setMode(ctx, ModeStop)
}

// Pause pauses the current run.
func (v *Vacuum) Pause(ctx context.Context) error {
	return v.setMode(ctx, ModePause)
}

// Locate makes the vacuum play its "find me" signal.
func (v *Vacuum) Locate(ctx context.Context) error {
	_, err := v.api.SetDeviceProperty(ctx, v.Device.SerialNumber, PropertyFindDevice, 1)
	return err
}

func (v *Vacuum) setMode(ctx context.Context, mode OperatingMode) error {
	_, err := v.api.SetDeviceProperty(ctx, v.Device.SerialNumber, PropertyOperatingMode, int64(mode))
	return err
}
