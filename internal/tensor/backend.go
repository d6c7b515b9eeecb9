package tensor

// Backend describes an execution context: a default device and the native
// precision used to store float and integer tensors.
//
// Kernels are not part of this interface. Modules in this framework only need
// to know where tensors live and in which data type they are stored.
//
// Implementations:
//   - cpu.Half: float16 storage
//   - cpu.CPUBackend: float32 storage
//   - cpu.Double: float64 storage (reference precision)
type Backend interface {
	// Name returns the backend name (e.g., "CPU", "CPU-f16").
	Name() string

	// Device returns the default device for new tensors.
	Device() Device

	// FloatDType returns the storage type of float tensors.
	FloatDType() DataType

	// IntDType returns the storage type of integer tensors.
	IntDType() DataType
}

// NativeDType returns the storage type backend b uses for tensors of kind k.
func NativeDType(b Backend, k KindID) DataType {
	switch k {
	case KindFloat:
		return b.FloatDType()
	case KindInt:
		return b.IntDType()
	default:
		return Bool
	}
}
