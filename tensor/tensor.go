// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/mixprec/internal/tensor"
)

// DataType is the storage type of tensor elements.
type DataType = tensor.DataType

// Data type constants.
const (
	Float16 DataType = tensor.Float16
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int16   DataType = tensor.Int16
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Bool    DataType = tensor.Bool
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// DeviceKind identifies a family of compute devices.
type DeviceKind = tensor.DeviceKind

// Device kinds.
const (
	CPU    DeviceKind = tensor.CPU
	CUDA   DeviceKind = tensor.CUDA
	Vulkan DeviceKind = tensor.Vulkan
	Metal  DeviceKind = tensor.Metal
	WebGPU DeviceKind = tensor.WebGPU
)

// Device identifies one execution unit, e.g. CUDA:1.
type Device = tensor.Device

// DefaultCPU is the first CPU device.
var DefaultCPU = tensor.DefaultCPU

// NewDevice returns the device of the given kind and ordinal.
func NewDevice(kind DeviceKind, index int) Device {
	return tensor.NewDevice(kind, index)
}

// Element kinds.
type (
	FloatKind = tensor.FloatKind
	IntKind   = tensor.IntKind
	BoolKind  = tensor.BoolKind
	Kind      = tensor.Kind
	KindID    = tensor.KindID
)

// Runtime kind tags.
const (
	KindFloat = tensor.KindFloat
	KindInt   = tensor.KindInt
	KindBool  = tensor.KindBool
)

// Backend decides the storage precision and default device of tensors.
type Backend = tensor.Backend

// FullPrecisionBackend is a backend that names its full-precision counterpart F.
type FullPrecisionBackend[B, F Backend] = tensor.FullPrecisionBackend[B, F]

// Bridge converts float tensors between a backend and its counterpart.
type Bridge[B, F Backend] = tensor.Bridge[B, F]

// BridgeOption configures NewBridge.
type BridgeOption = tensor.BridgeOption

// Tensor is a kind-typed tensor on backend B.
type Tensor[K Kind, B Backend] = tensor.Tensor[K, B]

// RawTensor is the untyped storage behind a Tensor.
type RawTensor = tensor.RawTensor

// ErrPrecisionOverflow is returned by strict conversions of values that do
// not fit the target type.
var ErrPrecisionOverflow = tensor.ErrPrecisionOverflow

// Strict makes a bridge report overflow instead of saturating.
func Strict() BridgeOption {
	return tensor.Strict()
}

// NewBridge pairs host with its full-precision counterpart target.
func NewBridge[B, F Backend](host B, target F, opts ...BridgeOption) (Bridge[B, F], error) {
	return tensor.NewBridge(host, target, opts...)
}

// Zeros creates a zero-filled tensor on the backend's default device.
//
// Example:
//
//	w, err := tensor.Zeros[tensor.FloatKind](tensor.Shape{3, 4}, backend)
func Zeros[K Kind, B Backend](shape Shape, b B) (*Tensor[K, B], error) {
	return tensor.Zeros[K](shape, b)
}

// Full creates a float tensor filled with value.
func Full[B Backend](shape Shape, value float64, b B) (*Tensor[FloatKind, B], error) {
	return tensor.Full(shape, value, b)
}

// Uniform creates a float tensor drawn from U(low, high).
func Uniform[B Backend](shape Shape, low, high float64, rng *rand.Rand, b B) (*Tensor[FloatKind, B], error) {
	return tensor.Uniform(shape, low, high, rng, b)
}

// FromFloat64s creates a float tensor, rounding to the backend's precision.
func FromFloat64s[B Backend](data []float64, shape Shape, b B) (*Tensor[FloatKind, B], error) {
	return tensor.FromFloat64s(data, shape, b)
}

// FromInt64s creates an integer tensor.
func FromInt64s[B Backend](data []int64, shape Shape, b B) (*Tensor[IntKind, B], error) {
	return tensor.FromInt64s(data, shape, b)
}

// FromBools creates a boolean tensor.
func FromBools[B Backend](data []bool, shape Shape, b B) (*Tensor[BoolKind, B], error) {
	return tensor.FromBools(data, shape, b)
}

// Apply returns fn applied to every element of t.
func Apply[B Backend](t *Tensor[FloatKind, B], fn func(float64) float64) *Tensor[FloatKind, B] {
	return tensor.Apply(t, fn)
}

// Like returns a tensor placed like t holding vals.
func Like[B Backend](t *Tensor[FloatKind, B], vals []float64) (*Tensor[FloatKind, B], error) {
	return tensor.Like(t, vals)
}
