package wgpu

import (
	"fmt"

	"github.com/gogpu/wgpu"

	"github.com/gogpu/mailbox"
)

// GPUInfo describes the selected GPU.
type GPUInfo struct {
	// Name is the GPU name (e.g., "NVIDIA GeForce RTX 3080").
	Name string
	// Vendor is the GPU vendor.
	Vendor string
	// DeviceType is the type of GPU (discrete, integrated, etc.).
	DeviceType wgpu.DeviceType
	// Driver is the driver version string.
	Driver string
}

// String returns a human-readable description of the GPU.
func (g GPUInfo) String() string {
	return fmt.Sprintf("%s (%s)", g.Name, g.DeviceType)
}

// Device is an opened GPU device together with the instance and adapter
// it came from.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	info     GPUInfo
}

// OpenDevice creates an instance, selects the default adapter and opens a
// device on it.
func OpenDevice(label string) (*Device, error) {
	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("wgpu: request adapter: %w", err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: label})
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("wgpu: request device: %w", err)
	}

	ai := adapter.Info()
	info := GPUInfo{
		Name:       ai.Name,
		Vendor:     ai.Vendor,
		DeviceType: ai.DeviceType,
		Driver:     ai.Driver,
	}
	mailbox.Logger().Info("wgpu device opened", "gpu", info.String(), "driver", info.Driver)

	return &Device{
		instance: instance,
		adapter:  adapter,
		device:   device,
		info:     info,
	}, nil
}

// Device returns the wgpu device.
func (d *Device) Device() *wgpu.Device { return d.device }

// Info returns the selected GPU.
func (d *Device) Info() GPUInfo { return d.info }

// Release closes the device, adapter and instance.
func (d *Device) Release() {
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
}
