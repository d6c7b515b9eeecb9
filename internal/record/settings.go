// Package record defines the persisted form of module parameters.
//
// A module's Record is converted into an Item, a backend-independent tree of
// parameter payloads whose data types are chosen by PrecisionSettings rather than
// by the backend that produced them. Recorders write Items to files or streams.
package record

import (
	"fmt"

	"github.com/born-ml/mixprec/internal/tensor"
)

// PrecisionSettings selects the data types used for persisted parameters.
type PrecisionSettings struct {
	Name  string          // Setting name ("half", "full", "double")
	Float tensor.DataType // Storage type for float parameters
	Int   tensor.DataType // Storage type for integer parameters
}

// Built-in precision settings.
var (
	HalfPrecision   = PrecisionSettings{Name: "half", Float: tensor.Float16, Int: tensor.Int16}
	FullPrecision   = PrecisionSettings{Name: "full", Float: tensor.Float32, Int: tensor.Int32}
	DoublePrecision = PrecisionSettings{Name: "double", Float: tensor.Float64, Int: tensor.Int64}
)

// ParsePrecision returns the built-in setting with the given name.
func ParsePrecision(name string) (PrecisionSettings, error) {
	switch name {
	case HalfPrecision.Name:
		return HalfPrecision, nil
	case FullPrecision.Name, "":
		return FullPrecision, nil
	case DoublePrecision.Name:
		return DoublePrecision, nil
	default:
		return PrecisionSettings{}, fmt.Errorf("unknown precision setting %q (want half, full or double)", name)
	}
}

// DTypeFor returns the storage type used for parameters of kind k.
func (s PrecisionSettings) DTypeFor(k tensor.KindID) tensor.DataType {
	switch k {
	case tensor.KindFloat:
		return s.Float
	case tensor.KindInt:
		return s.Int
	default:
		return tensor.Bool
	}
}

// String returns the setting name.
func (s PrecisionSettings) String() string {
	return s.Name
}
