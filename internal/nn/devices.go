package nn

import (
	"slices"

	"github.com/born-ml/mixprec/internal/tensor"
)

// CollectDevices returns the devices holding m's parameters, deduplicated and
// in first-seen order.
func CollectDevices[B tensor.Backend](m Module[B]) []tensor.Device {
	return m.CollectDevices(nil)
}

// ContainsDevice reports whether device is in devices.
func ContainsDevice(devices []tensor.Device, device tensor.Device) bool {
	return slices.Contains(devices, device)
}

func appendDevice(devices []tensor.Device, device tensor.Device) []tensor.Device {
	if ContainsDevice(devices, device) {
		return devices
	}
	return append(devices, device)
}
