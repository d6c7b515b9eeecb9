// Package optim implements optimization algorithms for Born modules.
//
// Optimizers never reach into a module. A step is a Map over the module's
// parameters: each float parameter with a registered gradient is replaced by
// its updated value, everything else passes through unchanged. Parameters
// marked NoGrad are never updated. A step that fails leaves the optimizer
// state untouched. Because of
// this, an optimizer works the same on a plain module and on a module wrapped
// in nn.FullPrecisionAdaptor, where it sees host-precision values.
//
// Optimizer state (momentum, moments) is keyed by nn.ParamID and therefore
// survives Fork, ToDevice, Map and save/load of the module.
//
// Example usage:
//
//	sgd := optim.NewSGD[*cpu.Half](optim.SGDConfig{LR: 0.01, Momentum: 0.9})
//	grads := optim.NewGradientsParams()
//	_ = grads.Register(weight.ID(), weight.Tensor().Shape(), gradValues)
//	model, err = sgd.Step(model, grads)
package optim

import (
	"github.com/born-ml/mixprec/internal/nn"
	"github.com/born-ml/mixprec/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer[B tensor.Backend] interface {
	// Step returns m with every parameter that has a gradient in grads updated.
	Step(m nn.Module[B], grads *GradientsParams) (nn.Module[B], error)

	// LR returns the current learning rate.
	LR() float64

	// SetLR updates the learning rate.
	SetLR(lr float64)
}

// stepMapper applies update to every trainable float parameter that has a
// gradient. State changes are staged and only committed once the whole Map
// succeeds, so a failed step leaves the optimizer as it was.
type stepMapper[B tensor.Backend] struct {
	grads   *GradientsParams
	update  func(id nn.ParamID, params, grad []float64) ([]float64, func())
	pending []func()
}

// step maps m and commits the staged state changes on success.
func (sm *stepMapper[B]) step(m nn.Module[B]) (nn.Module[B], error) {
	out, err := m.Map(sm)
	if err != nil {
		return nil, err
	}
	for _, commit := range sm.pending {
		commit()
	}
	return out, nil
}

// TrainableOnly keeps parameters marked NoGrad out of the step.
func (sm *stepMapper[B]) TrainableOnly() bool { return true }

func (sm *stepMapper[B]) MapFloat(id nn.ParamID, t *tensor.Tensor[tensor.FloatKind, B]) (*tensor.Tensor[tensor.FloatKind, B], error) {
	g, ok := sm.grads.Get(id)
	if !ok {
		return t, nil
	}
	if !g.Shape.Equal(t.Shape()) {
		return nil, &ShapeMismatchError{ID: id, Param: t.Shape(), Grad: g.Shape}
	}

	values, commit := sm.update(id, t.Float64s(), g.Values)
	if commit != nil {
		sm.pending = append(sm.pending, commit)
	}
	return tensor.Like(t, values)
}

func (sm *stepMapper[B]) MapInt(_ nn.ParamID, t *tensor.Tensor[tensor.IntKind, B]) (*tensor.Tensor[tensor.IntKind, B], error) {
	return t, nil
}

func (sm *stepMapper[B]) MapBool(_ nn.ParamID, t *tensor.Tensor[tensor.BoolKind, B]) (*tensor.Tensor[tensor.BoolKind, B], error) {
	return t, nil
}
