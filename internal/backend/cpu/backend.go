// Package cpu implements the CPU backends.
//
// Three backends share the same device model and differ only in the precision
// used to store tensors:
//
//	Half        float16 / int16    full precision counterpart: CPUBackend
//	CPUBackend  float32 / int32    full precision counterpart: Double
//	Double      float64 / int64    full precision counterpart: itself
package cpu

import (
	"github.com/born-ml/mixprec/internal/tensor"
)

// CPUBackend stores float tensors in float32 on a CPU device.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new float32 CPU backend on CPU:0.
func New() *CPUBackend {
	return NewOn(tensor.DefaultCPU)
}

// NewOn creates a new float32 CPU backend whose default device is device.
func NewOn(device tensor.Device) *CPUBackend {
	return &CPUBackend{device: device}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the default compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// FloatDType returns float32.
func (cpu *CPUBackend) FloatDType() tensor.DataType {
	return tensor.Float32
}

// IntDType returns int32.
func (cpu *CPUBackend) IntDType() tensor.DataType {
	return tensor.Int32
}

// FullPrecisionBridge names Double as the full precision counterpart.
func (cpu *CPUBackend) FullPrecisionBridge() tensor.Bridge[*CPUBackend, *Double] {
	return tensor.MustBridge(cpu, NewDoubleOn(cpu.device))
}

// Half stores float tensors in IEEE 754 half precision on a CPU device.
type Half struct {
	device tensor.Device
	strict bool
}

// HalfOption configures a Half backend.
type HalfOption func(*Half)

// WithOverflowCheck makes conversions from the full precision counterpart
// report tensor.ErrPrecisionOverflow instead of saturating to infinity.
func WithOverflowCheck() HalfOption {
	return func(h *Half) { h.strict = true }
}

// NewHalf creates a new float16 CPU backend on CPU:0.
func NewHalf(opts ...HalfOption) *Half {
	return NewHalfOn(tensor.DefaultCPU, opts...)
}

// NewHalfOn creates a new float16 CPU backend whose default device is device.
func NewHalfOn(device tensor.Device, opts ...HalfOption) *Half {
	h := &Half{device: device}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name returns the backend name.
func (h *Half) Name() string {
	return "CPU-f16"
}

// Device returns the default compute device.
func (h *Half) Device() tensor.Device {
	return h.device
}

// FloatDType returns float16.
func (h *Half) FloatDType() tensor.DataType {
	return tensor.Float16
}

// IntDType returns int16.
func (h *Half) IntDType() tensor.DataType {
	return tensor.Int16
}

// FullPrecisionBridge names the float32 CPUBackend as the full precision counterpart.
func (h *Half) FullPrecisionBridge() tensor.Bridge[*Half, *CPUBackend] {
	if h.strict {
		return tensor.MustBridge(h, NewOn(h.device), tensor.Strict())
	}
	return tensor.MustBridge(h, NewOn(h.device))
}

// Double stores float tensors in float64 on a CPU device.
// It is the reference precision and is its own full precision counterpart.
type Double struct {
	device tensor.Device
}

// NewDouble creates a new float64 CPU backend on CPU:0.
func NewDouble() *Double {
	return NewDoubleOn(tensor.DefaultCPU)
}

// NewDoubleOn creates a new float64 CPU backend whose default device is device.
func NewDoubleOn(device tensor.Device) *Double {
	return &Double{device: device}
}

// Name returns the backend name.
func (d *Double) Name() string {
	return "CPU-f64"
}

// Device returns the default compute device.
func (d *Double) Device() tensor.Device {
	return d.device
}

// FloatDType returns float64.
func (d *Double) FloatDType() tensor.DataType {
	return tensor.Float64
}

// IntDType returns int64.
func (d *Double) IntDType() tensor.DataType {
	return tensor.Int64
}

// FullPrecisionBridge is the identity bridge.
func (d *Double) FullPrecisionBridge() tensor.Bridge[*Double, *Double] {
	return tensor.MustBridge(d, d)
}

// Compile-time checks for the static backend associations.
var (
	_ tensor.FullPrecisionBackend[*Half, *CPUBackend]   = (*Half)(nil)
	_ tensor.FullPrecisionBackend[*CPUBackend, *Double] = (*CPUBackend)(nil)
	_ tensor.FullPrecisionBackend[*Double, *Double]     = (*Double)(nil)
)
