package optim

import (
	"errors"
	"fmt"

	"github.com/born-ml/mixprec/internal/nn"
	"github.com/born-ml/mixprec/internal/tensor"
)

// ErrGradientShape is returned when a gradient does not match its parameter.
var ErrGradientShape = errors.New("gradient shape mismatch")

// ShapeMismatchError reports a gradient whose shape differs from the parameter's.
type ShapeMismatchError struct {
	ID    nn.ParamID
	Param tensor.Shape
	Grad  tensor.Shape
}

// Error implements error.
func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("param %s: %v: param %v, gradient %v", e.ID, ErrGradientShape, e.Param, e.Grad)
}

// Unwrap returns ErrGradientShape.
func (e *ShapeMismatchError) Unwrap() error {
	return ErrGradientShape
}

// Gradient is the gradient of one parameter, in float64.
type Gradient struct {
	Shape  tensor.Shape
	Values []float64
}

// GradientsParams holds gradients keyed by parameter identity.
//
// Gradients are backend independent: the same container can update a module
// and its adapted, forked or reloaded copies.
type GradientsParams struct {
	grads map[nn.ParamID]Gradient
}

// NewGradientsParams creates an empty container.
func NewGradientsParams() *GradientsParams {
	return &GradientsParams{grads: make(map[nn.ParamID]Gradient)}
}

// Register stores the gradient of parameter id.
func (g *GradientsParams) Register(id nn.ParamID, shape tensor.Shape, values []float64) error {
	if shape.NumElements() != len(values) {
		return fmt.Errorf("param %s: %w: shape %v needs %d values, got %d",
			id, ErrGradientShape, shape, shape.NumElements(), len(values))
	}
	g.grads[id] = Gradient{Shape: shape.Clone(), Values: append([]float64(nil), values...)}
	return nil
}

// Get returns the gradient of parameter id.
func (g *GradientsParams) Get(id nn.ParamID) (Gradient, bool) {
	grad, ok := g.grads[id]
	return grad, ok
}

// Remove drops the gradient of parameter id.
func (g *GradientsParams) Remove(id nn.ParamID) {
	delete(g.grads, id)
}

// Len returns the number of registered gradients.
func (g *GradientsParams) Len() int {
	return len(g.grads)
}

// Compute visits every trainable float parameter of m and registers
// fn(values) as its gradient. Parameters marked NoGrad and integer and
// boolean parameters get none. It stands in for a
// backward pass when the gradient has a closed form, e.g. the gradient of
// sum(w²) is 2w.
func Compute[B tensor.Backend](m nn.Module[B], fn func(id nn.ParamID, values []float64) []float64) (*GradientsParams, error) {
	v := &gradVisitor[B]{grads: NewGradientsParams(), fn: fn}
	if err := m.Visit(v); err != nil {
		return nil, err
	}
	return v.grads, nil
}

type gradVisitor[B tensor.Backend] struct {
	grads *GradientsParams
	fn    func(id nn.ParamID, values []float64) []float64
}

func (v *gradVisitor[B]) TrainableOnly() bool { return true }

func (v *gradVisitor[B]) VisitFloat(id nn.ParamID, t *tensor.Tensor[tensor.FloatKind, B]) error {
	return v.grads.Register(id, t.Shape(), v.fn(id, t.Float64s()))
}

func (v *gradVisitor[B]) VisitInt(nn.ParamID, *tensor.Tensor[tensor.IntKind, B]) error { return nil }

func (v *gradVisitor[B]) VisitBool(nn.ParamID, *tensor.Tensor[tensor.BoolKind, B]) error { return nil }
