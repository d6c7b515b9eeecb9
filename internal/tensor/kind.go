package tensor

import "fmt"

// KindID is the runtime tag of a tensor element kind.
type KindID int

// Element kinds.
const (
	KindFloat KindID = iota
	KindInt
	KindBool
)

// String returns "float", "int" or "bool".
func (k KindID) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of KindID.String.
func ParseKind(s string) (KindID, error) {
	switch s {
	case "float":
		return KindFloat, nil
	case "int":
		return KindInt, nil
	case "bool":
		return KindBool, nil
	default:
		return 0, fmt.Errorf("unknown tensor kind %q", s)
	}
}

// FloatKind marks tensors holding floating-point values in the backend's float precision.
type FloatKind struct{}

// IntKind marks tensors holding integers in the backend's integer precision.
type IntKind struct{}

// BoolKind marks tensors holding booleans.
type BoolKind struct{}

// Kind is the constraint satisfied by the element kind markers.
type Kind interface {
	FloatKind | IntKind | BoolKind
}

// KindOf returns the runtime tag of kind K.
func KindOf[K Kind]() KindID {
	var k K
	switch any(k).(type) {
	case FloatKind:
		return KindFloat
	case IntKind:
		return KindInt
	default:
		return KindBool
	}
}
