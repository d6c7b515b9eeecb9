// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimizers for Born modules.
//
// An optimizer step maps over a module's parameters, so it works unchanged on
// modules wrapped in nn.FullPrecisionAdaptor. State is keyed by parameter
// identity.
//
// Example:
//
//	sgd := optim.NewSGD[*cpu.Half](optim.SGDConfig{LR: 0.01, Momentum: 0.9})
//	grads, _ := optim.Compute(model, lossGrad)
//	model, err = sgd.Step(model, grads)
package optim

import (
	"github.com/born-ml/mixprec/internal/optim"
	"github.com/born-ml/mixprec/nn"
	"github.com/born-ml/mixprec/tensor"
)

// Optimizer is the common interface for all optimizers.
type Optimizer[B tensor.Backend] = optim.Optimizer[B]

// GradientsParams holds gradients keyed by parameter identity.
type GradientsParams = optim.GradientsParams

// ShapeMismatchError reports a gradient whose shape differs from its parameter.
type ShapeMismatchError = optim.ShapeMismatchError

// ErrGradientShape is returned for gradients of the wrong shape.
var ErrGradientShape = optim.ErrGradientShape

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
func NewSGD[B tensor.Backend](config SGDConfig) *SGD[B] {
	return optim.NewSGD[B](config)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam[B tensor.Backend] = optim.Adam[B]

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer.
func NewAdam[B tensor.Backend](config AdamConfig) *Adam[B] {
	return optim.NewAdam[B](config)
}

// NewGradientsParams creates an empty gradient container.
func NewGradientsParams() *GradientsParams {
	return optim.NewGradientsParams()
}

// Compute registers fn(values) as the gradient of every float parameter of m.
func Compute[B tensor.Backend](m nn.Module[B], fn func(id nn.ParamID, values []float64) []float64) (*GradientsParams, error) {
	return optim.Compute(m, fn)
}
