package nn

import (
	"fmt"

	"github.com/born-ml/mixprec/internal/tensor"
)

// BatchNorm holds the state of a batch normalization layer over numFeatures
// channels: trainable gamma and beta, running statistics, and the number of
// batches the statistics have seen.
//
// Running statistics and the batch counter do not require gradients.
type BatchNorm[B tensor.Backend] struct {
	numFeatures int
	gamma       *Param[tensor.FloatKind, B]
	beta        *Param[tensor.FloatKind, B]
	runningMean *Param[tensor.FloatKind, B]
	runningVar  *Param[tensor.FloatKind, B]
	batches     *Param[tensor.IntKind, B] // [1]
}

// NewBatchNorm creates a layer with gamma=1, beta=0, mean=0, var=1.
func NewBatchNorm[B tensor.Backend](numFeatures int, backend B) (*BatchNorm[B], error) {
	shape := tensor.Shape{numFeatures}

	gamma, err := Ones(shape, backend)
	if err != nil {
		return nil, fmt.Errorf("batchnorm gamma: %w", err)
	}
	beta, err := Zeros(shape, backend)
	if err != nil {
		return nil, fmt.Errorf("batchnorm beta: %w", err)
	}
	mean, err := Zeros(shape, backend)
	if err != nil {
		return nil, fmt.Errorf("batchnorm running mean: %w", err)
	}
	variance, err := Ones(shape, backend)
	if err != nil {
		return nil, fmt.Errorf("batchnorm running var: %w", err)
	}
	batches, err := tensor.Zeros[tensor.IntKind](tensor.Shape{1}, backend)
	if err != nil {
		return nil, fmt.Errorf("batchnorm counter: %w", err)
	}

	return &BatchNorm[B]{
		numFeatures: numFeatures,
		gamma:       NewParam(gamma),
		beta:        NewParam(beta),
		runningMean: NewParam(mean).NoGrad(),
		runningVar:  NewParam(variance).NoGrad(),
		batches:     NewParam(batches),
	}, nil
}

// NumFeatures returns the number of channels.
func (bn *BatchNorm[B]) NumFeatures() int { return bn.numFeatures }

// Gamma returns the scale parameter.
func (bn *BatchNorm[B]) Gamma() *Param[tensor.FloatKind, B] { return bn.gamma }

// Beta returns the shift parameter.
func (bn *BatchNorm[B]) Beta() *Param[tensor.FloatKind, B] { return bn.beta }

// RunningMean returns the running mean.
func (bn *BatchNorm[B]) RunningMean() *Param[tensor.FloatKind, B] { return bn.runningMean }

// RunningVar returns the running variance.
func (bn *BatchNorm[B]) RunningVar() *Param[tensor.FloatKind, B] { return bn.runningVar }

// Batches returns the batch counter.
func (bn *BatchNorm[B]) Batches() *Param[tensor.IntKind, B] { return bn.batches }

func (bn *BatchNorm[B]) floats() []*Param[tensor.FloatKind, B] {
	return []*Param[tensor.FloatKind, B]{bn.gamma, bn.beta, bn.runningMean, bn.runningVar}
}

func (bn *BatchNorm[B]) rebuild(f []*Param[tensor.FloatKind, B], batches *Param[tensor.IntKind, B]) *BatchNorm[B] {
	return &BatchNorm[B]{
		numFeatures: bn.numFeatures,
		gamma:       f[0],
		beta:        f[1],
		runningMean: f[2],
		runningVar:  f[3],
		batches:     batches,
	}
}

var batchNormFields = []string{"gamma", "beta", "running_mean", "running_var"}

// CollectDevices implements Module.
func (bn *BatchNorm[B]) CollectDevices(devices []tensor.Device) []tensor.Device {
	for _, p := range bn.floats() {
		devices = p.CollectDevices(devices)
	}
	return bn.batches.CollectDevices(devices)
}

// Fork implements Module.
func (bn *BatchNorm[B]) Fork(device tensor.Device) Module[B] {
	f := bn.floats()
	for i, p := range f {
		f[i] = p.fork(device)
	}
	return bn.rebuild(f, bn.batches.fork(device))
}

// ToDevice implements Module.
func (bn *BatchNorm[B]) ToDevice(device tensor.Device) Module[B] {
	f := bn.floats()
	for i, p := range f {
		f[i] = p.toDevice(device)
	}
	return bn.rebuild(f, bn.batches.toDevice(device))
}

// Visit implements Module.
func (bn *BatchNorm[B]) Visit(v Visitor[B]) error {
	for _, p := range bn.floats() {
		if err := p.Visit(v); err != nil {
			return err
		}
	}
	return bn.batches.Visit(v)
}

// Map implements Module.
func (bn *BatchNorm[B]) Map(m Mapper[B]) (Module[B], error) {
	f := bn.floats()
	for i, p := range f {
		q, err := p.mapWith(m)
		if err != nil {
			return nil, err
		}
		f[i] = q
	}
	batches, err := bn.batches.mapWith(m)
	if err != nil {
		return nil, err
	}
	return bn.rebuild(f, batches), nil
}

// IntoRecord implements Module.
func (bn *BatchNorm[B]) IntoRecord() Record[B] {
	fields := make([]NamedRecord[B], 0, len(batchNormFields)+1)
	for i, p := range bn.floats() {
		fields = append(fields, NamedRecord[B]{Name: batchNormFields[i], Record: p.IntoRecord()})
	}
	fields = append(fields, NamedRecord[B]{Name: "batches", Record: bn.batches.IntoRecord()})
	return NewFieldsRecord("BatchNorm", fields...)
}

// LoadRecord implements Module.
func (bn *BatchNorm[B]) LoadRecord(r Record[B]) (Module[B], error) {
	fr, err := fieldsRecordOf(r, "BatchNorm")
	if err != nil {
		return nil, err
	}

	f := bn.floats()
	for i, p := range f {
		q, err := loadField(fr, batchNormFields[i], p)
		if err != nil {
			return nil, err
		}
		f[i] = q
	}
	batches, err := loadField(fr, "batches", bn.batches)
	if err != nil {
		return nil, err
	}
	return bn.rebuild(f, batches), nil
}
