package optim

import (
	"github.com/born-ml/mixprec/internal/nn"
	"github.com/born-ml/mixprec/internal/record"
	"github.com/born-ml/mixprec/internal/tensor"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Example:
//
//	sgd := optim.NewSGD[*cpu.CPUBackend](optim.SGDConfig{LR: 0.01, Momentum: 0.9})
//	model, err = sgd.Step(model, grads)
type SGD[B tensor.Backend] struct {
	lr         float64
	momentum   float64
	velocities buffers
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD[B tensor.Backend](config SGDConfig) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD[B]{
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(buffers),
	}
}

// Step performs a single optimization step.
// Parameters without a gradient are returned unchanged.
func (s *SGD[B]) Step(m nn.Module[B], grads *GradientsParams) (nn.Module[B], error) {
	sm := &stepMapper[B]{grads: grads, update: s.update}
	return sm.step(m)
}

func (s *SGD[B]) update(id nn.ParamID, params, grad []float64) ([]float64, func()) {
	step := grad
	var commit func()
	if s.momentum != 0 {
		velocity := s.velocities.peek(id, len(params))
		for i, g := range grad {
			velocity[i] = s.momentum*velocity[i] + g
		}
		step = velocity
		commit = func() { s.velocities.set(id, velocity) }
	}

	out := make([]float64, len(params))
	for i, p := range params {
		out[i] = p - s.lr*step[i]
	}
	return out, commit
}

// LR returns the current learning rate.
func (s *SGD[B]) LR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD[B]) SetLR(lr float64) {
	s.lr = lr
}

// StateItem exports the velocity buffers, one field per ParamID.
// Without momentum the item is empty.
func (s *SGD[B]) StateItem(settings record.PrecisionSettings) (*record.Item, error) {
	velocity, err := s.velocities.item(settings)
	if err != nil {
		return nil, err
	}
	return record.NewStructItem(record.Field{Name: "velocity", Item: velocity}), nil
}

// LoadStateItem replaces the velocity buffers with those in item.
func (s *SGD[B]) LoadStateItem(item *record.Item) error {
	velocity, err := item.Field("velocity")
	if err != nil {
		return err
	}
	loaded, err := buffersFromItem(velocity)
	if err != nil {
		return err
	}
	s.velocities = loaded
	return nil
}

var _ Optimizer[tensor.Backend] = (*SGD[tensor.Backend])(nil)
