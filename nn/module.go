// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/mixprec/internal/nn"
	"github.com/born-ml/mixprec/record"
	"github.com/born-ml/mixprec/tensor"
)

// Sentinel errors.
var (
	ErrRecordMismatch       = nn.ErrRecordMismatch
	ErrShapeChanged         = nn.ErrShapeChanged
	ErrUnsupportedParamKind = nn.ErrUnsupportedParamKind
)

// Module is the base interface for all neural network components.
type Module[B tensor.Backend] = nn.Module[B]

// Record is the in-memory snapshot of a module's parameters.
type Record[B tensor.Backend] = nn.Record[B]

// Visitor receives every parameter of a module.
type Visitor[B tensor.Backend] = nn.Visitor[B]

// Mapper replaces every parameter of a module.
type Mapper[B tensor.Backend] = nn.Mapper[B]

// VisitorFunc visits float parameters only.
type VisitorFunc[B tensor.Backend] = nn.VisitorFunc[B]

// MapperFunc maps float parameters only.
type MapperFunc[B tensor.Backend] = nn.MapperFunc[B]

// TrainableOnly lets a visitor or mapper skip parameters marked NoGrad.
type TrainableOnly = nn.TrainableOnly

// UnsupportedKindError reports a parameter kind an operation cannot handle.
type UnsupportedKindError = nn.UnsupportedKindError

// ParamID identifies a parameter across devices, precisions and files.
type ParamID = nn.ParamID

// Param is a parameter of kind K.
type Param[K tensor.Kind, B tensor.Backend] = nn.Param[K, B]

// Modules.
type (
	Linear[B tensor.Backend]       = nn.Linear[B]
	MaskedLinear[B tensor.Backend] = nn.MaskedLinear[B]
	BatchNorm[B tensor.Backend]    = nn.BatchNorm[B]
	Sequential[B tensor.Backend]   = nn.Sequential[B]
	LinearOption                   = nn.LinearOption
)

// FullPrecisionAdaptor runs a Module[F] as a Module[B].
type FullPrecisionAdaptor[B, F tensor.Backend] = nn.FullPrecisionAdaptor[B, F]

// NewParamID returns a fresh identifier.
func NewParamID() ParamID {
	return nn.NewParamID()
}

// NewParam wraps t with a new identity.
func NewParam[K tensor.Kind, B tensor.Backend](t *tensor.Tensor[K, B]) *Param[K, B] {
	return nn.NewParam(t)
}

// NewLinear creates a fully connected layer with Xavier-initialized weights.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B, opts ...LinearOption) (*Linear[B], error) {
	return nn.NewLinear(inFeatures, outFeatures, backend, opts...)
}

// NewMaskedLinear creates a linear layer with a boolean connectivity mask.
func NewMaskedLinear[B tensor.Backend](inFeatures, outFeatures int, mask []bool, backend B, opts ...LinearOption) (*MaskedLinear[B], error) {
	return nn.NewMaskedLinear(inFeatures, outFeatures, mask, backend, opts...)
}

// WithoutBias omits the bias parameter.
func WithoutBias() LinearOption {
	return nn.WithoutBias()
}

// WithRand draws initial weights from rng.
func WithRand(rng *rand.Rand) LinearOption {
	return nn.WithRand(rng)
}

// NewBatchNorm creates a batch normalization layer.
func NewBatchNorm[B tensor.Backend](numFeatures int, backend B) (*BatchNorm[B], error) {
	return nn.NewBatchNorm(numFeatures, backend)
}

// NewSequential creates a container of modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Adapt wraps inner, written for host's full-precision counterpart F.
func Adapt[B tensor.FullPrecisionBackend[B, F], F tensor.Backend](host B, inner Module[F]) (*FullPrecisionAdaptor[B, F], error) {
	return nn.Adapt[B, F](host, inner)
}

// NewFullPrecisionAdaptor wraps inner behind an explicit bridge.
func NewFullPrecisionAdaptor[B, F tensor.Backend](bridge tensor.Bridge[B, F], inner Module[F]) (*FullPrecisionAdaptor[B, F], error) {
	return nn.NewFullPrecisionAdaptor(bridge, inner)
}

// CollectDevices returns the distinct devices of m's parameters.
func CollectDevices[B tensor.Backend](m Module[B]) []tensor.Device {
	return nn.CollectDevices(m)
}

// Save writes m to path.
func Save[B tensor.Backend](path string, m Module[B], rec record.Recorder, s record.PrecisionSettings) error {
	return nn.Save(path, m, rec, s)
}

// Load reads a module shaped like m from path onto device.
func Load[B tensor.Backend](path string, m Module[B], rec record.Recorder, device tensor.Device) (Module[B], error) {
	return nn.Load(path, m, rec, device)
}
