package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/mixprec/internal/tensor"
)

// LinearOption configures NewLinear.
type LinearOption func(*linearConfig)

type linearConfig struct {
	bias bool
	rng  *rand.Rand
}

// WithoutBias creates the layer without a bias parameter.
func WithoutBias() LinearOption {
	return func(c *linearConfig) { c.bias = false }
}

// WithRand draws the initial weights from rng.
func WithRand(rng *rand.Rand) LinearOption {
	return func(c *linearConfig) { c.rng = rng }
}

// Linear holds the parameters of a fully connected layer y = x @ W.T + b:
//   - W has shape [out_features, in_features]
//   - b has shape [out_features]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
//
// Example:
//
//	backend := cpu.New()
//	layer, err := nn.NewLinear(784, 128, backend)
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Param[tensor.FloatKind, B] // [out_features, in_features]
	bias        *Param[tensor.FloatKind, B] // [out_features], nil without bias
}

// NewLinear creates a new Linear layer on the backend's default device.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B, opts ...LinearOption) (*Linear[B], error) {
	cfg := linearConfig{bias: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	w, err := Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, cfg.rng, backend)
	if err != nil {
		return nil, fmt.Errorf("linear weight: %w", err)
	}
	l := &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParam(w),
	}

	if cfg.bias {
		b, err := Zeros(tensor.Shape{outFeatures}, backend)
		if err != nil {
			return nil, fmt.Errorf("linear bias: %w", err)
		}
		l.bias = NewParam(b)
	}
	return l, nil
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Param[tensor.FloatKind, B] {
	return l.weight
}

// Bias returns the bias parameter, or nil.
func (l *Linear[B]) Bias() *Param[tensor.FloatKind, B] {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}

func (l *Linear[B]) with(weight, bias *Param[tensor.FloatKind, B]) *Linear[B] {
	return &Linear[B]{inFeatures: l.inFeatures, outFeatures: l.outFeatures, weight: weight, bias: bias}
}

// CollectDevices implements Module.
func (l *Linear[B]) CollectDevices(devices []tensor.Device) []tensor.Device {
	devices = l.weight.CollectDevices(devices)
	if l.bias != nil {
		devices = l.bias.CollectDevices(devices)
	}
	return devices
}

// Fork implements Module.
func (l *Linear[B]) Fork(device tensor.Device) Module[B] {
	return l.fork(device)
}

func (l *Linear[B]) fork(device tensor.Device) *Linear[B] {
	var bias *Param[tensor.FloatKind, B]
	if l.bias != nil {
		bias = l.bias.fork(device)
	}
	return l.with(l.weight.fork(device), bias)
}

// ToDevice implements Module.
func (l *Linear[B]) ToDevice(device tensor.Device) Module[B] {
	return l.toDevice(device)
}

func (l *Linear[B]) toDevice(device tensor.Device) *Linear[B] {
	var bias *Param[tensor.FloatKind, B]
	if l.bias != nil {
		bias = l.bias.toDevice(device)
	}
	return l.with(l.weight.toDevice(device), bias)
}

// Visit implements Module.
func (l *Linear[B]) Visit(v Visitor[B]) error {
	if err := l.weight.Visit(v); err != nil {
		return err
	}
	if l.bias != nil {
		return l.bias.Visit(v)
	}
	return nil
}

// Map implements Module.
func (l *Linear[B]) Map(m Mapper[B]) (Module[B], error) {
	out, err := l.mapWith(m)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Linear[B]) mapWith(m Mapper[B]) (*Linear[B], error) {
	weight, err := l.weight.mapWith(m)
	if err != nil {
		return nil, err
	}
	var bias *Param[tensor.FloatKind, B]
	if l.bias != nil {
		if bias, err = l.bias.mapWith(m); err != nil {
			return nil, err
		}
	}
	return l.with(weight, bias), nil
}

// IntoRecord implements Module.
func (l *Linear[B]) IntoRecord() Record[B] {
	fields := []NamedRecord[B]{{Name: "weight", Record: l.weight.IntoRecord()}}
	if l.bias != nil {
		fields = append(fields, NamedRecord[B]{Name: "bias", Record: l.bias.IntoRecord()})
	}
	return NewFieldsRecord("Linear", fields...)
}

// LoadRecord implements Module.
func (l *Linear[B]) LoadRecord(r Record[B]) (Module[B], error) {
	out, err := l.load(r)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Linear[B]) load(r Record[B]) (*Linear[B], error) {
	fr, err := fieldsRecordOf(r, "Linear")
	if err != nil {
		return nil, err
	}

	weight, err := loadField(fr, "weight", l.weight)
	if err != nil {
		return nil, err
	}
	var bias *Param[tensor.FloatKind, B]
	if l.bias != nil {
		if bias, err = loadField(fr, "bias", l.bias); err != nil {
			return nil, err
		}
	}
	return l.with(weight, bias), nil
}

// MaskedLinear is a Linear layer with a boolean connectivity mask of the
// weight's shape. The mask is a tracked, non-trainable parameter.
type MaskedLinear[B tensor.Backend] struct {
	linear *Linear[B]
	mask   *Param[tensor.BoolKind, B]
}

// NewMaskedLinear creates a masked layer. mask holds out*in values in
// row-major order; true keeps the connection.
func NewMaskedLinear[B tensor.Backend](inFeatures, outFeatures int, mask []bool, backend B, opts ...LinearOption) (*MaskedLinear[B], error) {
	l, err := NewLinear(inFeatures, outFeatures, backend, opts...)
	if err != nil {
		return nil, err
	}
	m, err := tensor.FromBools(mask, tensor.Shape{outFeatures, inFeatures}, backend)
	if err != nil {
		return nil, fmt.Errorf("linear mask: %w", err)
	}
	return &MaskedLinear[B]{linear: l, mask: NewParam(m)}, nil
}

// Linear returns the underlying layer.
func (ml *MaskedLinear[B]) Linear() *Linear[B] {
	return ml.linear
}

// Mask returns the mask parameter.
func (ml *MaskedLinear[B]) Mask() *Param[tensor.BoolKind, B] {
	return ml.mask
}

// CollectDevices implements Module.
func (ml *MaskedLinear[B]) CollectDevices(devices []tensor.Device) []tensor.Device {
	return ml.mask.CollectDevices(ml.linear.CollectDevices(devices))
}

// Fork implements Module.
func (ml *MaskedLinear[B]) Fork(device tensor.Device) Module[B] {
	return &MaskedLinear[B]{linear: ml.linear.fork(device), mask: ml.mask.fork(device)}
}

// ToDevice implements Module.
func (ml *MaskedLinear[B]) ToDevice(device tensor.Device) Module[B] {
	return &MaskedLinear[B]{linear: ml.linear.toDevice(device), mask: ml.mask.toDevice(device)}
}

// Visit implements Module.
func (ml *MaskedLinear[B]) Visit(v Visitor[B]) error {
	if err := ml.linear.Visit(v); err != nil {
		return err
	}
	return ml.mask.Visit(v)
}

// Map implements Module.
func (ml *MaskedLinear[B]) Map(m Mapper[B]) (Module[B], error) {
	l, err := ml.linear.mapWith(m)
	if err != nil {
		return nil, err
	}
	mask, err := ml.mask.mapWith(m)
	if err != nil {
		return nil, err
	}
	return &MaskedLinear[B]{linear: l, mask: mask}, nil
}

// IntoRecord implements Module.
func (ml *MaskedLinear[B]) IntoRecord() Record[B] {
	return NewFieldsRecord("MaskedLinear",
		NamedRecord[B]{Name: "linear", Record: ml.linear.IntoRecord()},
		NamedRecord[B]{Name: "mask", Record: ml.mask.IntoRecord()},
	)
}

// LoadRecord implements Module.
func (ml *MaskedLinear[B]) LoadRecord(r Record[B]) (Module[B], error) {
	fr, err := fieldsRecordOf(r, "MaskedLinear")
	if err != nil {
		return nil, err
	}

	lr, err := fr.Field("linear")
	if err != nil {
		return nil, err
	}
	l, err := ml.linear.load(lr)
	if err != nil {
		return nil, fmt.Errorf("MaskedLinear.linear: %w", err)
	}
	mask, err := loadField(fr, "mask", ml.mask)
	if err != nil {
		return nil, err
	}
	return &MaskedLinear[B]{linear: l, mask: mask}, nil
}
