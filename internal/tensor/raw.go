package tensor

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/x448/float16"
)

// RawTensor is the low-level, untyped tensor representation.
//
// A RawTensor owns a contiguous row-major byte buffer in host byte order, so
// the As* views need no copy. Anything persisted goes through
// LittleEndianBytes and NewRawFromLittleEndian. Backends and the record layer
// work on RawTensors; user code works on the kind-typed Tensor wrapper.
type RawTensor struct {
	data   []byte
	shape  Shape    // Tensor dimensions
	stride []int    // Memory strides (row-major)
	dtype  DataType // Runtime type information
	device Device   // Compute device
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is allocated and zero-initialized.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		data:   make([]byte, shape.NumElements()*dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// NewRawFromBytes creates a RawTensor that takes a copy of data, which must be
// in host byte order. The byte length must match shape and dtype exactly.
func NewRawFromBytes(shape Shape, dtype DataType, device Device, data []byte) (*RawTensor, error) {
	raw, err := NewRaw(shape, dtype, device)
	if err != nil {
		return nil, err
	}
	if len(data) != len(raw.data) {
		return nil, fmt.Errorf("shape %v of %s needs %d bytes, got %d", shape, dtype, len(raw.data), len(data))
	}
	copy(raw.data, data)
	return raw, nil
}

// NewRawFromLittleEndian is like NewRawFromBytes for little-endian data.
func NewRawFromLittleEndian(shape Shape, dtype DataType, device Device, data []byte) (*RawTensor, error) {
	raw, err := NewRawFromBytes(shape, dtype, device, data)
	if err != nil {
		return nil, err
	}
	if bigEndianHost {
		swapElements(raw.data, dtype.Size())
	}
	return raw, nil
}

// LittleEndianBytes returns a little-endian copy of the tensor data.
func (r *RawTensor) LittleEndianBytes() []byte {
	out := append([]byte(nil), r.data...)
	if bigEndianHost {
		swapElements(out, r.dtype.Size())
	}
	return out
}

var bigEndianHost = binary.NativeEndian.Uint16([]byte{0, 1}) == 1

// swapElements reverses the bytes of every size-byte element in place.
func swapElements(data []byte, size int) {
	if size < 2 {
		return
	}
	for off := 0; off+size <= len(data); off += size {
		elem := data[off : off+size]
		for i, j := 0, size-1; i < j; i, j = i+1, j-1 {
			elem[i], elem[j] = elem[j], elem[i]
		}
	}
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the underlying byte slice in host byte order.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.data
}

// AsFloat16 interprets the data as []float16.Float16.
// Panics if the tensor's dtype is not Float16.
func (r *RawTensor) AsFloat16() []float16.Float16 {
	r.mustBe(Float16)
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float16.Float16)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	r.mustBe(Float32)
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	r.mustBe(Float64)
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsInt16 interprets the data as []int16.
// Panics if the tensor's dtype is not Int16.
func (r *RawTensor) AsInt16() []int16 {
	r.mustBe(Int16)
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*int16)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsInt32 interprets the data as []int32.
// Panics if the tensor's dtype is not Int32.
func (r *RawTensor) AsInt32() []int32 {
	r.mustBe(Int32)
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*int32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsInt64 interprets the data as []int64.
// Panics if the tensor's dtype is not Int64.
func (r *RawTensor) AsInt64() []int64 {
	r.mustBe(Int64)
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*int64)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsBool interprets the data as []bool.
// Panics if the tensor's dtype is not Bool.
func (r *RawTensor) AsBool() []bool {
	r.mustBe(Bool)
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*bool)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

func (r *RawTensor) mustBe(dt DataType) {
	if r.dtype != dt {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, dt))
	}
}

// Clone returns a deep copy of the RawTensor on the same device.
func (r *RawTensor) Clone() *RawTensor {
	return r.To(r.device)
}

// To returns a deep copy of the RawTensor placed on device.
// The receiver is left untouched.
func (r *RawTensor) To(device Device) *RawTensor {
	data := make([]byte, len(r.data))
	copy(data, r.data)
	return &RawTensor{
		data:   data,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: device,
	}
}

// String returns a short description such as "float32[3 4] on CPU:0".
func (r *RawTensor) String() string {
	return fmt.Sprintf("%s%v on %s", r.dtype, []int(r.shape), r.device)
}
