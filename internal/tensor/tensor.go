package tensor

import "fmt"

// Tensor is a kind-typed tensor stored in the native precision of backend B.
//
// Type Parameters:
//   - K: Element kind (FloatKind, IntKind or BoolKind)
//   - B: Backend (decides the storage data type and default device)
//
// The storage data type is derived from the pair: a FloatKind tensor on a
// float16 backend is stored as Float16, the same logical tensor on a float32
// backend as Float32. Rank is the length of the shape.
//
// Example:
//
//	backend := cpu.New()
//	w, err := tensor.FromFloat64s([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
type Tensor[K Kind, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New wraps raw as a tensor of kind K on backend b.
// The raw data type must be the backend's native type for K.
func New[K Kind, B Backend](raw *RawTensor, b B) (*Tensor[K, B], error) {
	want := NativeDType(b, KindOf[K]())
	if raw.DType() != want {
		return nil, fmt.Errorf("%s tensor on %s must be stored as %s, got %s", KindOf[K](), b.Name(), want, raw.DType())
	}
	return &Tensor[K, B]{raw: raw, backend: b}, nil
}

// Zeros creates a zero-filled tensor on the backend's default device.
//
// Example:
//
//	t := tensor.Zeros[tensor.FloatKind](tensor.Shape{3, 4}, backend)
func Zeros[K Kind, B Backend](shape Shape, b B) (*Tensor[K, B], error) {
	raw, err := NewRaw(shape, NativeDType(b, KindOf[K]()), b.Device())
	if err != nil {
		return nil, err
	}
	return &Tensor[K, B]{raw: raw, backend: b}, nil
}

// FromFloat64s creates a float tensor from a Go slice, rounding each value to
// the backend's float precision.
func FromFloat64s[B Backend](data []float64, shape Shape, b B) (*Tensor[FloatKind, B], error) {
	t, err := Zeros[FloatKind](shape, b)
	if err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	setFloats(t.raw, data)
	return t, nil
}

// FromInt64s creates an integer tensor from a Go slice.
// Values that do not fit the backend's integer precision yield ErrPrecisionOverflow.
func FromInt64s[B Backend](data []int64, shape Shape, b B) (*Tensor[IntKind, B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	src, err := NewRaw(shape, Int64, b.Device())
	if err != nil {
		return nil, err
	}
	copy(src.AsInt64(), data)
	raw, err := CheckedCast(src, b.IntDType())
	if err != nil {
		return nil, err
	}
	return &Tensor[IntKind, B]{raw: raw, backend: b}, nil
}

// FromBools creates a boolean tensor from a Go slice.
func FromBools[B Backend](data []bool, shape Shape, b B) (*Tensor[BoolKind, B], error) {
	t, err := Zeros[BoolKind](shape, b)
	if err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	copy(t.raw.AsBool(), data)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor[K, B]) Shape() Shape {
	return t.raw.Shape()
}

// Rank returns the number of dimensions.
func (t *Tensor[K, B]) Rank() int {
	return len(t.raw.Shape())
}

// Kind returns the element kind tag.
func (t *Tensor[K, B]) Kind() KindID {
	return KindOf[K]()
}

// DType returns the tensor's storage data type.
func (t *Tensor[K, B]) DType() DataType {
	return t.raw.DType()
}

// Device returns the device holding the tensor.
func (t *Tensor[K, B]) Device() Device {
	return t.raw.Device()
}

// NumElements returns the total number of elements.
func (t *Tensor[K, B]) NumElements() int {
	return t.raw.NumElements()
}

// Raw returns the underlying RawTensor.
// Used by backend implementations and the record layer.
func (t *Tensor[K, B]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the tensor's backend.
func (t *Tensor[K, B]) Backend() B {
	return t.backend
}

// Float64s returns a copy of the elements widened to float64.
func (t *Tensor[K, B]) Float64s() []float64 {
	return ToFloat64s(t.raw)
}

// Int64s returns a copy of the elements as int64.
func (t *Tensor[K, B]) Int64s() []int64 {
	return ToInt64s(t.raw)
}

// Bools returns a copy of the elements as booleans (non-zero is true).
func (t *Tensor[K, B]) Bools() []bool {
	if t.raw.DType() == Bool {
		return append([]bool(nil), t.raw.AsBool()...)
	}
	return Cast(t.raw, Bool).AsBool()
}

// Clone returns a deep copy of the tensor.
func (t *Tensor[K, B]) Clone() *Tensor[K, B] {
	return &Tensor[K, B]{raw: t.raw.Clone(), backend: t.backend}
}

// To returns a copy of the tensor placed on device.
func (t *Tensor[K, B]) To(device Device) *Tensor[K, B] {
	return &Tensor[K, B]{raw: t.raw.To(device), backend: t.backend}
}

// String returns a human-readable representation of the tensor.
func (t *Tensor[K, B]) String() string {
	return fmt.Sprintf("Tensor[%s/%s]%v on %s", KindOf[K](), t.raw.DType(), t.raw.Shape(), t.raw.Device())
}
