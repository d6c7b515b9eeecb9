package tensor

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBackend is a minimal Backend with configurable precision.
type testBackend struct {
	name   string
	float  DataType
	int    DataType
	device Device
}

func (b *testBackend) Name() string         { return b.name }
func (b *testBackend) Device() Device       { return b.device }
func (b *testBackend) FloatDType() DataType { return b.float }
func (b *testBackend) IntDType() DataType   { return b.int }

func newTestBackend(name string, float, intType DataType) *testBackend {
	return &testBackend{name: name, float: float, int: intType, device: DefaultCPU}
}

func TestFromFloat64sUsesBackendPrecision(t *testing.T) {
	half := newTestBackend("half", Float16, Int32)
	double := newTestBackend("double", Float64, Int64)

	h, err := FromFloat64s([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3}, half)
	require.NoError(t, err)
	d, err := FromFloat64s([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3}, double)
	require.NoError(t, err)

	assert.Equal(t, Float16, h.DType())
	assert.Equal(t, Float64, d.DType())
	assert.Equal(t, 2, h.Rank())
	assert.Equal(t, KindFloat, h.Kind())
	assert.Equal(t, h.Float64s(), d.Float64s())
}

func TestFromSlicesShapeMismatch(t *testing.T) {
	b := newTestBackend("b", Float32, Int32)

	_, err := FromFloat64s([]float64{1, 2, 3}, Shape{2, 2}, b)
	assert.Error(t, err)
	_, err = FromInt64s([]int64{1}, Shape{2}, b)
	assert.Error(t, err)
	_, err = FromBools([]bool{true}, Shape{3}, b)
	assert.Error(t, err)
}

func TestFromInt64sOverflow(t *testing.T) {
	b := newTestBackend("b", Float16, Int16)

	_, err := FromInt64s([]int64{1 << 20}, Shape{1}, b)
	assert.ErrorIs(t, err, ErrPrecisionOverflow)

	ok, err := FromInt64s([]int64{-5, 7}, Shape{2}, b)
	require.NoError(t, err)
	assert.Equal(t, Int16, ok.DType())
	assert.Equal(t, []int64{-5, 7}, ok.Int64s())
}

func TestNewRejectsForeignDType(t *testing.T) {
	b := newTestBackend("b", Float32, Int32)
	raw, err := NewRaw(Shape{2}, Float64, DefaultCPU)
	require.NoError(t, err)

	_, err = New[FloatKind](raw, b)
	assert.Error(t, err)

	raw32, err := NewRaw(Shape{2}, Float32, DefaultCPU)
	require.NoError(t, err)
	_, err = New[FloatKind](raw32, b)
	assert.NoError(t, err)
}

func TestTensorToAndClone(t *testing.T) {
	b := newTestBackend("b", Float32, Int32)
	x, err := FromBools([]bool{true, false}, Shape{2}, b)
	require.NoError(t, err)

	gpu := NewDevice(CUDA, 3)
	moved := x.To(gpu)
	assert.Equal(t, gpu, moved.Device())
	assert.Equal(t, DefaultCPU, x.Device())
	assert.Equal(t, []bool{true, false}, moved.Bools())

	c := x.Clone()
	c.Raw().AsBool()[0] = false
	assert.True(t, x.Bools()[0])
}

func TestUniformIsReproducible(t *testing.T) {
	b := newTestBackend("b", Float64, Int64)

	x, err := Uniform(Shape{4, 4}, -1, 1, rand.New(rand.NewSource(7)), b)
	require.NoError(t, err)
	y, err := Uniform(Shape{4, 4}, -1, 1, rand.New(rand.NewSource(7)), b)
	require.NoError(t, err)

	assert.Equal(t, x.Float64s(), y.Float64s())
	for _, v := range x.Float64s() {
		assert.True(t, v >= -1 && v < 1)
	}
}

func TestBridgeValidation(t *testing.T) {
	half := newTestBackend("half", Float16, Int32)
	single := newTestBackend("single", Float32, Int32)
	broken := newTestBackend("broken", Int32, Int32)

	_, err := NewBridge(single, half)
	assert.ErrorIs(t, err, ErrInvalidBridge)

	_, err = NewBridge(half, broken)
	assert.ErrorIs(t, err, ErrInvalidBridge)

	br, err := NewBridge(half, single)
	require.NoError(t, err)
	assert.Same(t, half, br.Host())
	assert.Same(t, single, br.Target())

	assert.Panics(t, func() { MustBridge(single, half) })
}

func TestBridgeRoundTrip(t *testing.T) {
	half := newTestBackend("half", Float16, Int32)
	single := newTestBackend("single", Float32, Int32)
	br := MustBridge(half, single)

	gpu := NewDevice(CUDA, 1)
	x, err := FromFloat64s([]float64{0.1, 0.2, 0.3, 1000, -7.5, 0}, Shape{2, 3}, half)
	require.NoError(t, err)
	x = x.To(gpu)

	wide, err := br.IntoFullPrecision(x)
	require.NoError(t, err)
	assert.Equal(t, Float32, wide.DType())
	assert.True(t, wide.Shape().Equal(x.Shape()))
	assert.Equal(t, gpu, wide.Device())
	// float16 values are exactly representable in float32.
	assert.Equal(t, x.Float64s(), wide.Float64s())

	narrow, err := br.FromFullPrecision(wide)
	require.NoError(t, err)
	assert.Equal(t, Float16, narrow.DType())
	assert.Equal(t, x.Float64s(), narrow.Float64s())
}

func TestStrictBridgeOverflow(t *testing.T) {
	half := newTestBackend("half", Float16, Int32)
	single := newTestBackend("single", Float32, Int32)

	big, err := FromFloat64s([]float64{70000}, Shape{1}, single)
	require.NoError(t, err)

	lenient := MustBridge(half, single)
	got, err := lenient.FromFullPrecision(big)
	require.NoError(t, err)
	assert.True(t, math.IsInf(got.Float64s()[0], 1))

	strict := MustBridge(half, single, Strict())
	assert.True(t, strict.IsStrict())
	_, err = strict.FromFullPrecision(big)
	assert.ErrorIs(t, err, ErrPrecisionOverflow)
}

func TestApplyKeepsPlacement(t *testing.T) {
	b := newTestBackend("b", Float16, Int16)
	gpu := NewDevice(Vulkan, 2)
	x, err := FromFloat64s([]float64{0.5, -1, 3}, Shape{3}, b)
	require.NoError(t, err)
	x = x.To(gpu)

	y := Apply(x, func(v float64) float64 { return 2 * v })
	assert.Equal(t, []float64{1, -2, 6}, y.Float64s())
	assert.Equal(t, gpu, y.Device())
	assert.Equal(t, Float16, y.DType())
	assert.Equal(t, []float64{0.5, -1, 3}, x.Float64s())

	z, err := ApplyPair(x, y, func(a, b float64) float64 { return a + b })
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -3, 9}, z.Float64s())

	other, err := FromFloat64s([]float64{1}, Shape{1}, b)
	require.NoError(t, err)
	_, err = ApplyPair(x, other, func(a, b float64) float64 { return a })
	assert.Error(t, err)
}
