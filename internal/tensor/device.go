package tensor

import "fmt"

// DeviceKind identifies the family of a compute device.
type DeviceKind int

// Supported device kinds.
const (
	CPU DeviceKind = iota
	CUDA
	Vulkan
	Metal
	WebGPU
)

// String returns a human-readable device kind name.
func (k DeviceKind) String() string {
	switch k {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Vulkan:
		return "Vulkan"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// Device identifies one physical or logical execution unit.
//
// Devices are plain comparable values and carry no backend information, so the
// same Device can be shared by tensors of different precision.
type Device struct {
	Kind  DeviceKind
	Index int
}

// NewDevice returns the device of the given kind and ordinal.
func NewDevice(kind DeviceKind, index int) Device {
	return Device{Kind: kind, Index: index}
}

// DefaultCPU is the first CPU device.
var DefaultCPU = Device{Kind: CPU}

// String returns the device as "<kind>:<index>", e.g. "CPU:0".
func (d Device) String() string {
	return fmt.Sprintf("%s:%d", d.Kind, d.Index)
}
