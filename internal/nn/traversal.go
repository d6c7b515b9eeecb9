package nn

import (
	"fmt"

	"github.com/born-ml/mixprec/internal/tensor"
)

// Visitor receives read-only access to every parameter of a module.
//
// Visits are depth-first in declaration order. Returning an error stops the
// walk and the error is returned from Module.Visit.
type Visitor[B tensor.Backend] interface {
	VisitFloat(id ParamID, t *tensor.Tensor[tensor.FloatKind, B]) error
	VisitInt(id ParamID, t *tensor.Tensor[tensor.IntKind, B]) error
	VisitBool(id ParamID, t *tensor.Tensor[tensor.BoolKind, B]) error
}

// Mapper replaces every parameter of a module.
//
// The returned tensor becomes the parameter's new value; the ParamID is kept.
type Mapper[B tensor.Backend] interface {
	MapFloat(id ParamID, t *tensor.Tensor[tensor.FloatKind, B]) (*tensor.Tensor[tensor.FloatKind, B], error)
	MapInt(id ParamID, t *tensor.Tensor[tensor.IntKind, B]) (*tensor.Tensor[tensor.IntKind, B], error)
	MapBool(id ParamID, t *tensor.Tensor[tensor.BoolKind, B]) (*tensor.Tensor[tensor.BoolKind, B], error)
}

// TrainableOnly is implemented by visitors and mappers that only handle
// parameters requiring gradients. For them, Visit skips parameters marked
// NoGrad and Map returns those parameters unchanged.
type TrainableOnly interface {
	TrainableOnly() bool
}

func trainableOnly(x any) bool {
	t, ok := x.(TrainableOnly)
	return ok && t.TrainableOnly()
}

// UnsupportedKindError reports a parameter whose kind an operation cannot handle.
type UnsupportedKindError struct {
	ID   ParamID
	Kind tensor.KindID
	Op   string // "visit", "map" or "adapt"
}

// Error implements error.
func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("%s: %s parameter %s: %v", e.Op, e.Kind, e.ID, ErrUnsupportedParamKind)
}

// Unwrap returns ErrUnsupportedParamKind.
func (e *UnsupportedKindError) Unwrap() error {
	return ErrUnsupportedParamKind
}

// VisitorFunc adapts a function over float parameters to a Visitor.
// Integer and boolean parameters yield *UnsupportedKindError.
type VisitorFunc[B tensor.Backend] func(id ParamID, t *tensor.Tensor[tensor.FloatKind, B]) error

// VisitFloat calls f.
func (f VisitorFunc[B]) VisitFloat(id ParamID, t *tensor.Tensor[tensor.FloatKind, B]) error {
	return f(id, t)
}

// VisitInt rejects integer parameters.
func (f VisitorFunc[B]) VisitInt(id ParamID, _ *tensor.Tensor[tensor.IntKind, B]) error {
	return &UnsupportedKindError{ID: id, Kind: tensor.KindInt, Op: "visit"}
}

// VisitBool rejects boolean parameters.
func (f VisitorFunc[B]) VisitBool(id ParamID, _ *tensor.Tensor[tensor.BoolKind, B]) error {
	return &UnsupportedKindError{ID: id, Kind: tensor.KindBool, Op: "visit"}
}

// MapperFunc adapts a function over float parameters to a Mapper.
// Integer and boolean parameters yield *UnsupportedKindError.
type MapperFunc[B tensor.Backend] func(id ParamID, t *tensor.Tensor[tensor.FloatKind, B]) (*tensor.Tensor[tensor.FloatKind, B], error)

// MapFloat calls f.
func (f MapperFunc[B]) MapFloat(id ParamID, t *tensor.Tensor[tensor.FloatKind, B]) (*tensor.Tensor[tensor.FloatKind, B], error) {
	return f(id, t)
}

// MapInt rejects integer parameters.
func (f MapperFunc[B]) MapInt(id ParamID, _ *tensor.Tensor[tensor.IntKind, B]) (*tensor.Tensor[tensor.IntKind, B], error) {
	return nil, &UnsupportedKindError{ID: id, Kind: tensor.KindInt, Op: "map"}
}

// MapBool rejects boolean parameters.
func (f MapperFunc[B]) MapBool(id ParamID, _ *tensor.Tensor[tensor.BoolKind, B]) (*tensor.Tensor[tensor.BoolKind, B], error) {
	return nil, &UnsupportedKindError{ID: id, Kind: tensor.KindBool, Op: "map"}
}
