package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/mixprec/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// rng makes the draw reproducible; nil uses a fixed seed.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) (*tensor.Tensor[tensor.FloatKind, B], error) {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return tensor.Uniform(shape, -bound, bound, rng, backend)
}

// Zeros creates a float tensor filled with zeros.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) (*tensor.Tensor[tensor.FloatKind, B], error) {
	return tensor.Zeros[tensor.FloatKind](shape, backend)
}

// Ones creates a float tensor filled with ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) (*tensor.Tensor[tensor.FloatKind, B], error) {
	return tensor.Full(shape, 1, backend)
}
