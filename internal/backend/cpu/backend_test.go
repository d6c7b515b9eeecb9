package cpu

import (
	"testing"

	"github.com/born-ml/mixprec/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendPrecisions(t *testing.T) {
	tests := []struct {
		name    string
		backend tensor.Backend
		float   tensor.DataType
		integer tensor.DataType
	}{
		{"half", NewHalf(), tensor.Float16, tensor.Int16},
		{"single", New(), tensor.Float32, tensor.Int32},
		{"double", NewDouble(), tensor.Float64, tensor.Int64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.float, tt.backend.FloatDType())
			assert.Equal(t, tt.integer, tt.backend.IntDType())
			assert.Equal(t, tensor.DefaultCPU, tt.backend.Device())
		})
	}
}

func TestFullPrecisionBridgesKeepDevice(t *testing.T) {
	dev := tensor.NewDevice(tensor.CPU, 3)

	half := NewHalfOn(dev).FullPrecisionBridge()
	assert.Equal(t, dev, half.Target().Device())
	assert.Equal(t, tensor.Float32, half.Target().FloatDType())
	assert.False(t, half.IsStrict())

	single := NewOn(dev).FullPrecisionBridge()
	assert.Equal(t, tensor.Float64, single.Target().FloatDType())

	d := NewDouble()
	assert.Same(t, d, d.FullPrecisionBridge().Target())
}

func TestHalfOverflowCheck(t *testing.T) {
	br := NewHalf(WithOverflowCheck()).FullPrecisionBridge()
	require.True(t, br.IsStrict())

	big, err := tensor.FromFloat64s([]float64{1e5}, tensor.Shape{1}, br.Target())
	require.NoError(t, err)

	_, err = br.FromFullPrecision(big)
	assert.ErrorIs(t, err, tensor.ErrPrecisionOverflow)
}

func TestDoubleBridgeIsIdentity(t *testing.T) {
	d := NewDouble()
	br := d.FullPrecisionBridge()

	x, err := tensor.FromFloat64s([]float64{1.0 / 3.0, 1e300}, tensor.Shape{2}, d)
	require.NoError(t, err)

	y, err := br.FromFullPrecision(x)
	require.NoError(t, err)
	assert.Equal(t, x.Float64s(), y.Float64s())
}
