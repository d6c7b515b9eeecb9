package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mixprec/internal/backend/cpu"
	"github.com/born-ml/mixprec/internal/record"
	"github.com/born-ml/mixprec/internal/tensor"
)

func TestParamIDRoundTrip(t *testing.T) {
	id := NewParamID()
	assert.False(t, id.IsZero())

	parsed, err := ParseParamID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseParamID("not-a-uuid")
	assert.Error(t, err)
	assert.True(t, ParamID{}.IsZero())
}

func TestNewParamRequireGrad(t *testing.T) {
	b := cpu.New()

	w := floatParam(t, []float64{1, 2}, tensor.Shape{2})
	assert.True(t, w.RequireGrad())
	assert.False(t, w.NoGrad().RequireGrad())
	assert.Equal(t, w.ID(), w.NoGrad().ID())

	n, err := tensor.FromInt64s([]int64{3}, tensor.Shape{1}, b)
	require.NoError(t, err)
	assert.False(t, NewParam(n).RequireGrad())
}

func TestParamVisitDispatchesOnKind(t *testing.T) {
	b := cpu.New()
	n, err := tensor.FromInt64s([]int64{1, 2}, tensor.Shape{2}, b)
	require.NoError(t, err)
	mask, err := tensor.FromBools([]bool{true}, tensor.Shape{1}, b)
	require.NoError(t, err)

	ip := NewParam(n)
	bp := NewParam(mask)

	err = ip.Visit(VisitorFunc[*cpu.CPUBackend](func(ParamID, *tensor.Tensor[tensor.FloatKind, *cpu.CPUBackend]) error {
		t.Fatal("float visitor called for int parameter")
		return nil
	}))
	uke, ok := AsUnsupportedKind(err)
	require.True(t, ok)
	assert.Equal(t, ip.ID(), uke.ID)
	assert.Equal(t, tensor.KindInt, uke.Kind)
	assert.Equal(t, "visit", uke.Op)

	_, err = bp.Map(scale[*cpu.CPUBackend](2))
	assert.ErrorIs(t, err, ErrUnsupportedParamKind)
}

func TestParamMapKeepsIdentity(t *testing.T) {
	p := floatParam(t, []float64{1, -2, 3}, tensor.Shape{3})

	out, err := p.Map(scale[*cpu.CPUBackend](2))
	require.NoError(t, err)

	q := out.(*Param[tensor.FloatKind, *cpu.CPUBackend])
	assert.Equal(t, p.ID(), q.ID())
	assert.Equal(t, []float64{2, -4, 6}, q.Tensor().Float64s())
	assert.Equal(t, []float64{1, -2, 3}, p.Tensor().Float64s(), "receiver must not change")
}

func TestParamMapRejectsNil(t *testing.T) {
	p := floatParam(t, []float64{1}, tensor.Shape{1})
	_, err := p.Map(MapperFunc[*cpu.CPUBackend](func(ParamID, *tensor.Tensor[tensor.FloatKind, *cpu.CPUBackend]) (*tensor.Tensor[tensor.FloatKind, *cpu.CPUBackend], error) {
		return nil, nil
	}))
	assert.ErrorContains(t, err, "mapper returned no tensor")
}

func TestParamForkAndToDevice(t *testing.T) {
	p := floatParam(t, []float64{1, 2}, tensor.Shape{2})
	gpu := tensor.NewDevice(tensor.CUDA, 1)

	same := p.ToDevice(tensor.DefaultCPU)
	assert.Same(t, p, same)

	moved := p.ToDevice(gpu).(*Param[tensor.FloatKind, *cpu.CPUBackend])
	assert.Equal(t, gpu, moved.Tensor().Device())
	assert.Equal(t, p.ID(), moved.ID())

	forked := p.Fork(tensor.DefaultCPU).(*Param[tensor.FloatKind, *cpu.CPUBackend])
	assert.NotSame(t, p.Tensor().Raw(), forked.Tensor().Raw())
	assert.Equal(t, p.Tensor().Float64s(), forked.Tensor().Float64s())
	assert.Equal(t, []tensor.Device{gpu}, CollectDevices[*cpu.CPUBackend](moved))
}

func TestParamRecordRoundTrip(t *testing.T) {
	p := floatParam(t, []float64{0.5, 1.5, -2}, tensor.Shape{3})

	item, err := p.IntoRecord().IntoItem(record.DoublePrecision)
	require.NoError(t, err)
	assert.Equal(t, p.ID().String(), item.Param.ID)
	assert.Equal(t, "float64", item.Param.DType)

	fresh := floatParam(t, []float64{0, 0, 0}, tensor.Shape{3})
	rec, err := fresh.IntoRecord().FromItem(item, tensor.DefaultCPU)
	require.NoError(t, err)
	loaded, err := fresh.LoadRecord(rec)
	require.NoError(t, err)

	q := loaded.(*Param[tensor.FloatKind, *cpu.CPUBackend])
	assert.Equal(t, p.ID(), q.ID())
	assert.Equal(t, tensor.Float32, q.Tensor().DType())
	assert.Equal(t, p.Tensor().Float64s(), q.Tensor().Float64s())
}

func TestParamRecordMismatch(t *testing.T) {
	p := floatParam(t, []float64{1, 2}, tensor.Shape{2})
	other := floatParam(t, []float64{1, 2, 3}, tensor.Shape{3})

	_, err := p.LoadRecord(other.IntoRecord())
	assert.ErrorIs(t, err, ErrRecordMismatch)

	n, err := tensor.FromInt64s([]int64{1, 2}, tensor.Shape{2}, cpu.New())
	require.NoError(t, err)
	_, err = p.LoadRecord(NewParam(n).IntoRecord())
	assert.ErrorIs(t, err, ErrRecordMismatch)

	item, err := NewParam(n).IntoRecord().IntoItem(record.FullPrecision)
	require.NoError(t, err)
	_, err = p.IntoRecord().FromItem(item, tensor.DefaultCPU)
	assert.ErrorIs(t, err, ErrRecordMismatch)
}
