package tensor

import (
	"math/rand"
)

// Full creates a float tensor filled with value.
//
// Example:
//
//	t, err := tensor.Full(tensor.Shape{2, 3}, 0.5, backend)
func Full[B Backend](shape Shape, value float64, b B) (*Tensor[FloatKind, B], error) {
	data := make([]float64, shape.NumElements())
	for i := range data {
		data[i] = value
	}
	return FromFloat64s(data, shape, b)
}

// Uniform creates a float tensor with values drawn from U(low, high).
//
// rng makes initialization reproducible; nil uses a fixed seed.
func Uniform[B Backend](shape Shape, low, high float64, rng *rand.Rand, b B) (*Tensor[FloatKind, B], error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(42)) //nolint:gosec // G404: weight init does not need crypto randomness
	}

	data := make([]float64, shape.NumElements())
	for i := range data {
		data[i] = low + rng.Float64()*(high-low)
	}
	return FromFloat64s(data, shape, b)
}
