package tensor

import (
	"errors"
	"fmt"
	"math"

	"github.com/x448/float16"
)

// ErrPrecisionOverflow is returned by checked conversions when a finite value
// cannot be represented in the target data type.
var ErrPrecisionOverflow = errors.New("value overflows target precision")

// Cast converts x to dtype and returns a new RawTensor on the same device.
//
// Float narrowing rounds to nearest even and overflows to ±Inf, integer
// narrowing wraps, float to integer truncates toward zero, and any non-zero
// value converts to true. Shape and device are preserved. When x already has
// the requested dtype a copy is returned.
func Cast(x *RawTensor, dtype DataType) *RawTensor {
	result, err := NewRaw(x.Shape(), dtype, x.Device())
	if err != nil {
		panic(fmt.Sprintf("cast: %v", err))
	}

	switch {
	case x.dtype == dtype:
		copy(result.data, x.data)
	case dtype == Bool:
		dst := result.AsBool()
		if x.dtype.IsFloat() {
			for i, v := range ToFloat64s(x) {
				dst[i] = v != 0
			}
		} else {
			for i, v := range ToInt64s(x) {
				dst[i] = v != 0
			}
		}
	case dtype.IsFloat():
		setFloats(result, ToFloat64s(x))
	default:
		if x.dtype.IsFloat() {
			vals := ToFloat64s(x)
			ints := make([]int64, len(vals))
			for i, v := range vals {
				ints[i] = int64(v)
			}
			setInts(result, ints)
		} else {
			setInts(result, ToInt64s(x))
		}
	}

	return result
}

// CheckedCast is Cast that reports ErrPrecisionOverflow instead of producing
// infinities from finite floats or wrapped integers.
func CheckedCast(x *RawTensor, dtype DataType) (*RawTensor, error) {
	result := Cast(x, dtype)

	switch {
	case x.dtype == dtype || dtype == Bool:
		return result, nil
	case dtype.IsFloat():
		src := ToFloat64s(x)
		for i, v := range ToFloat64s(result) {
			if math.IsInf(v, 0) && !math.IsInf(src[i], 0) {
				return nil, fmt.Errorf("%w: element %d (%g) as %s", ErrPrecisionOverflow, i, src[i], dtype)
			}
		}
	case x.dtype.IsInt() || x.dtype == Bool:
		src := ToInt64s(x)
		for i, v := range ToInt64s(result) {
			if v != src[i] {
				return nil, fmt.Errorf("%w: element %d (%d) as %s", ErrPrecisionOverflow, i, src[i], dtype)
			}
		}
	default:
		lo, hi := intRange(dtype)
		for i, v := range ToFloat64s(x) {
			if math.IsNaN(v) || v < lo || v > hi {
				return nil, fmt.Errorf("%w: element %d (%g) as %s", ErrPrecisionOverflow, i, v, dtype)
			}
		}
	}

	return result, nil
}

// ToFloat64s copies the elements of a numeric tensor into a new []float64.
func ToFloat64s(x *RawTensor) []float64 {
	out := make([]float64, x.NumElements())
	switch x.dtype {
	case Float16:
		for i, v := range x.AsFloat16() {
			out[i] = float64(v.Float32())
		}
	case Float32:
		for i, v := range x.AsFloat32() {
			out[i] = float64(v)
		}
	case Float64:
		copy(out, x.AsFloat64())
	case Bool:
		for i, v := range x.AsBool() {
			if v {
				out[i] = 1
			}
		}
	default:
		for i, v := range ToInt64s(x) {
			out[i] = float64(v)
		}
	}
	return out
}

// ToInt64s copies the elements of an integer or boolean tensor into a new []int64.
// Float tensors are truncated toward zero.
func ToInt64s(x *RawTensor) []int64 {
	out := make([]int64, x.NumElements())
	switch x.dtype {
	case Int16:
		for i, v := range x.AsInt16() {
			out[i] = int64(v)
		}
	case Int32:
		for i, v := range x.AsInt32() {
			out[i] = int64(v)
		}
	case Int64:
		copy(out, x.AsInt64())
	case Bool:
		for i, v := range x.AsBool() {
			if v {
				out[i] = 1
			}
		}
	default:
		for i, v := range ToFloat64s(x) {
			out[i] = int64(v)
		}
	}
	return out
}

func setFloats(dst *RawTensor, vals []float64) {
	switch dst.dtype {
	case Float16:
		d := dst.AsFloat16()
		for i, v := range vals {
			d[i] = float16.Fromfloat32(float32(v))
		}
	case Float32:
		d := dst.AsFloat32()
		for i, v := range vals {
			d[i] = float32(v)
		}
	case Float64:
		copy(dst.AsFloat64(), vals)
	default:
		panic(fmt.Sprintf("setFloats: %s is not a float type", dst.dtype))
	}
}

func setInts(dst *RawTensor, vals []int64) {
	switch dst.dtype {
	case Int16:
		d := dst.AsInt16()
		for i, v := range vals {
			d[i] = int16(v) //nolint:gosec // G115: wrapping is the documented Cast behavior
		}
	case Int32:
		d := dst.AsInt32()
		for i, v := range vals {
			d[i] = int32(v) //nolint:gosec // G115: wrapping is the documented Cast behavior
		}
	case Int64:
		copy(dst.AsInt64(), vals)
	default:
		panic(fmt.Sprintf("setInts: %s is not an integer type", dst.dtype))
	}
}

func intRange(dt DataType) (lo, hi float64) {
	switch dt {
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Int32:
		return math.MinInt32, math.MaxInt32
	default:
		return math.MinInt64, math.MaxInt64
	}
}
