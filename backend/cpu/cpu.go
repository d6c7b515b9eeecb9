// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/mixprec/internal/backend/cpu"
	"github.com/born-ml/mixprec/tensor"
)

// Backend stores tensors in float32 and int32.
type Backend = internalcpu.CPUBackend

// Half stores tensors in float16 and int16.
type Half = internalcpu.Half

// Double stores tensors in float64 and int64.
type Double = internalcpu.Double

// HalfOption configures a Half backend.
type HalfOption = internalcpu.HalfOption

// Compile-time checks of the precision chain.
var (
	_ tensor.FullPrecisionBackend[*Half, *Backend]   = (*Half)(nil)
	_ tensor.FullPrecisionBackend[*Backend, *Double] = (*Backend)(nil)
	_ tensor.FullPrecisionBackend[*Double, *Double]  = (*Double)(nil)
)

// New creates a float32 backend on CPU:0.
func New() *Backend {
	return internalcpu.New()
}

// NewOn creates a float32 backend on device.
func NewOn(device tensor.Device) *Backend {
	return internalcpu.NewOn(device)
}

// NewHalf creates a float16 backend on CPU:0.
func NewHalf(opts ...HalfOption) *Half {
	return internalcpu.NewHalf(opts...)
}

// NewHalfOn creates a float16 backend on device.
func NewHalfOn(device tensor.Device, opts ...HalfOption) *Half {
	return internalcpu.NewHalfOn(device, opts...)
}

// WithOverflowCheck makes narrowing from float32 report
// tensor.ErrPrecisionOverflow instead of producing infinities.
func WithOverflowCheck() HalfOption {
	return internalcpu.WithOverflowCheck()
}

// NewDouble creates a float64 backend on CPU:0.
func NewDouble() *Double {
	return internalcpu.NewDouble()
}

// NewDoubleOn creates a float64 backend on device.
func NewDoubleOn(device tensor.Device) *Double {
	return internalcpu.NewDoubleOn(device)
}
