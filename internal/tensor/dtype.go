// Package tensor provides the core tensor types for the Born mixed-precision module system.
package tensor

import "fmt"

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float16 DataType = iota
	Float32
	Float64
	Int16
	Int32
	Int64
	Bool
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float16, Int16:
		return 2
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Bool:
		return 1
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// IsFloat reports whether the data type holds floating-point values.
func (dt DataType) IsFloat() bool {
	return dt == Float16 || dt == Float32 || dt == Float64
}

// IsInt reports whether the data type holds signed integers.
func (dt DataType) IsInt() bool {
	return dt == Int16 || dt == Int32 || dt == Int64
}

// ParseDataType is the inverse of DataType.String.
func ParseDataType(s string) (DataType, error) {
	for dt := Float16; dt <= Bool; dt++ {
		if dt.String() == s {
			return dt, nil
		}
	}
	return 0, fmt.Errorf("unknown data type %q", s)
}
