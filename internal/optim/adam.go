package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/mixprec/internal/nn"
	"github.com/born-ml/mixprec/internal/record"
	"github.com/born-ml/mixprec/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)   // Parameter update
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam[B tensor.Backend] struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	t     int     // Timestep for bias correction
	m     buffers // First moment estimates
	v     buffers // Second moment estimates
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer with default hyperparameters where
// the config leaves them zero.
func NewAdam[B tensor.Backend](config AdamConfig) *Adam[B] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas == [2]float64{} {
		config.Betas = [2]float64{0.9, 0.999}
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam[B]{
		lr:    config.LR,
		beta1: config.Betas[0],
		beta2: config.Betas[1],
		eps:   config.Eps,
		m:     make(buffers),
		v:     make(buffers),
	}
}

// Step performs a single optimization step.
// The step counter only advances when the step succeeds.
func (a *Adam[B]) Step(m nn.Module[B], grads *GradientsParams) (nn.Module[B], error) {
	t := a.t + 1
	sm := &stepMapper[B]{grads: grads, update: func(id nn.ParamID, params, grad []float64) ([]float64, func()) {
		return a.update(t, id, params, grad)
	}}
	out, err := sm.step(m)
	if err != nil {
		return nil, err
	}
	a.t = t
	return out, nil
}

func (a *Adam[B]) update(t int, id nn.ParamID, params, grad []float64) ([]float64, func()) {
	m := a.m.peek(id, len(params))
	v := a.v.peek(id, len(params))

	correction1 := 1 - math.Pow(a.beta1, float64(t))
	correction2 := 1 - math.Pow(a.beta2, float64(t))

	out := make([]float64, len(params))
	for i, g := range grad {
		m[i] = a.beta1*m[i] + (1-a.beta1)*g
		v[i] = a.beta2*v[i] + (1-a.beta2)*g*g

		mHat := m[i] / correction1
		vHat := v[i] / correction2
		out[i] = params[i] - a.lr*mHat/(math.Sqrt(vHat)+a.eps)
	}
	return out, func() {
		a.m.set(id, m)
		a.v.set(id, v)
	}
}

// LR returns the current learning rate.
func (a *Adam[B]) LR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam[B]) SetLR(lr float64) {
	a.lr = lr
}

// Steps returns the number of steps taken.
func (a *Adam[B]) Steps() int {
	return a.t
}

// StateItem exports both moment buffers and the step counter.
func (a *Adam[B]) StateItem(settings record.PrecisionSettings) (*record.Item, error) {
	m, err := a.m.item(settings)
	if err != nil {
		return nil, err
	}
	v, err := a.v.item(settings)
	if err != nil {
		return nil, err
	}

	step, err := tensor.NewRaw(tensor.Shape{1}, tensor.Int64, tensor.DefaultCPU)
	if err != nil {
		return nil, err
	}
	step.AsInt64()[0] = int64(a.t)
	// The counter is persisted at full width regardless of settings.
	stepItem, err := record.NewParamItem("step", tensor.KindInt, step, record.DoublePrecision)
	if err != nil {
		return nil, err
	}

	return record.NewStructItem(
		record.Field{Name: "step", Item: stepItem},
		record.Field{Name: "m", Item: m},
		record.Field{Name: "v", Item: v},
	), nil
}

// LoadStateItem restores state exported by StateItem.
func (a *Adam[B]) LoadStateItem(item *record.Item) error {
	stepItem, err := item.Field("step")
	if err != nil {
		return err
	}
	if stepItem.Param == nil {
		return fmt.Errorf("%w: adam step is not a parameter", record.ErrItemMismatch)
	}
	step, err := stepItem.Param.Decode(tensor.Int64, tensor.DefaultCPU)
	if err != nil {
		return err
	}

	bufs := make([]buffers, 2)
	for i, name := range []string{"m", "v"} {
		sub, err := item.Field(name)
		if err != nil {
			return err
		}
		if bufs[i], err = buffersFromItem(sub); err != nil {
			return err
		}
	}

	a.t = int(step.AsInt64()[0])
	a.m, a.v = bufs[0], bufs[1]
	return nil
}

var _ Optimizer[tensor.Backend] = (*Adam[tensor.Backend])(nil)
