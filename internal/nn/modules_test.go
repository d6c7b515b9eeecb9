package nn

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mixprec/internal/backend/cpu"
	"github.com/born-ml/mixprec/internal/record"
	"github.com/born-ml/mixprec/internal/tensor"
)

func TestNewLinear(t *testing.T) {
	l := newLinear(t, 4, 3, 1)
	assert.Equal(t, 4, l.InFeatures())
	assert.Equal(t, 3, l.OutFeatures())
	assert.Equal(t, tensor.Shape{3, 4}, l.Weight().Tensor().Shape())
	assert.Equal(t, []float64{0, 0, 0}, l.Bias().Tensor().Float64s())

	bound := 1.0 // sqrt(6/7) < 1
	for _, v := range l.Weight().Tensor().Float64s() {
		assert.Less(t, v, bound)
		assert.Greater(t, v, -bound)
	}

	noBias, err := NewLinear(4, 3, cpu.New(), WithoutBias())
	require.NoError(t, err)
	assert.Nil(t, noBias.Bias())
	assert.Len(t, collect[single](t, noBias).ids, 1)
}

func TestLinearSeedIsReproducible(t *testing.T) {
	a := newLinear(t, 5, 5, 42)
	b := newLinear(t, 5, 5, 42)
	assert.Equal(t, a.Weight().Tensor().Float64s(), b.Weight().Tensor().Float64s())
	assert.NotEqual(t, a.Weight().ID(), b.Weight().ID())
}

func TestModuleRecordRoundTrip(t *testing.T) {
	b := cpu.New()
	build := func(t *testing.T) Module[single] {
		l, err := NewLinear(3, 2, b, WithRand(rand.New(rand.NewSource(int64(len(t.Name()))))))
		require.NoError(t, err)
		bn, err := NewBatchNorm(2, b)
		require.NoError(t, err)
		ml, err := NewMaskedLinear(2, 2, []bool{true, false, true, true}, b)
		require.NoError(t, err)
		return NewSequential[single](l, bn, ml)
	}

	tests := []struct {
		name string
		rec  record.Recorder
		ext  string
	}{
		{"born", record.NewFileRecorder(), ".born"},
		{"yaml", record.NewYAMLRecorder(), ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := build(t)
			path := filepath.Join(t.TempDir(), "model"+tt.ext)
			require.NoError(t, Save(path, model, tt.rec, record.FullPrecision))

			loaded, err := Load(path, build(t), tt.rec, tensor.DefaultCPU)
			require.NoError(t, err)

			want := collect[single](t, model)
			got := collect[single](t, loaded)
			assert.Equal(t, want.ids, got.ids)
			assert.Equal(t, want.shapes, got.shapes)
			assert.Equal(t, want.values, got.values)

			seq := loaded.(*Sequential[single])
			mask := seq.Modules()[2].(*MaskedLinear[single]).Mask()
			assert.Equal(t, []bool{true, false, true, true}, mask.Tensor().Bools())
		})
	}
}

func TestEmptyChildSurvivesSaveLoad(t *testing.T) {
	recorders := []struct {
		name string
		rec  record.Recorder
		ext  string
	}{
		{"born", record.NewFileRecorder(), ".born"},
		{"yaml", record.NewYAMLRecorder(), ".yaml"},
	}
	layouts := map[string]func(l Module[single]) Module[single]{
		"trailing": func(l Module[single]) Module[single] { return NewSequential[single](l, NewSequential[single]()) },
		"leading":  func(l Module[single]) Module[single] { return NewSequential[single](NewSequential[single](), l) },
		"nested": func(l Module[single]) Module[single] {
			return NewSequential[single](NewSequential[single](l, NewSequential[single]()))
		},
	}

	for _, rt := range recorders {
		for name, build := range layouts {
			t.Run(rt.name+"/"+name, func(t *testing.T) {
				model := build(newLinear(t, 2, 2, 5))
				path := filepath.Join(t.TempDir(), "model"+rt.ext)
				require.NoError(t, Save(path, model, rt.rec, record.FullPrecision))

				loaded, err := Load(path, build(newLinear(t, 2, 2, 6)), rt.rec, tensor.DefaultCPU)
				require.NoError(t, err)

				want := collect[single](t, model)
				got := collect[single](t, loaded)
				assert.Equal(t, want.ids, got.ids)
				assert.Equal(t, want.values, got.values)
			})
		}
	}
}

func TestLoadPlacesOnDevice(t *testing.T) {
	l := newLinear(t, 2, 2, 3)
	path := filepath.Join(t.TempDir(), "l.born")
	rec := record.NewFileRecorder()
	require.NoError(t, Save[single](path, l, rec, record.HalfPrecision))

	gpu := tensor.NewDevice(tensor.Vulkan, 1)
	loaded, err := Load[single](path, l, rec, gpu)
	require.NoError(t, err)
	assert.Equal(t, []tensor.Device{gpu}, CollectDevices(loaded))

	// Half storage is widened back to the module's precision.
	w := loaded.(*Linear[single]).Weight().Tensor()
	assert.Equal(t, tensor.Float32, w.DType())
	for i, v := range l.Weight().Tensor().Float64s() {
		assert.Equal(t, toHalf(v), w.Float64s()[i])
	}
}

func TestBatchNormState(t *testing.T) {
	bn, err := NewBatchNorm(3, cpu.NewHalf())
	require.NoError(t, err)

	assert.Equal(t, 3, bn.NumFeatures())
	assert.Equal(t, []float64{1, 1, 1}, bn.Gamma().Tensor().Float64s())
	assert.Equal(t, []float64{0, 0, 0}, bn.Beta().Tensor().Float64s())
	assert.True(t, bn.Gamma().RequireGrad())
	assert.False(t, bn.RunningMean().RequireGrad())
	assert.False(t, bn.RunningVar().RequireGrad())
	assert.Equal(t, tensor.Int16, bn.Batches().Tensor().DType())

	ids := collect[half](t, bn).ids
	assert.Equal(t, []ParamID{bn.Gamma().ID(), bn.Beta().ID(), bn.RunningMean().ID(), bn.RunningVar().ID(), bn.Batches().ID()}, ids)

	item, err := bn.IntoRecord().IntoItem(record.DoublePrecision)
	require.NoError(t, err)
	_, order := item.Flatten()
	assert.Equal(t, []string{"gamma", "beta", "running_mean", "running_var", "batches"}, order)
}

func TestMapperIntHandling(t *testing.T) {
	bn, err := NewBatchNorm(2, cpu.New())
	require.NoError(t, err)

	_, err = bn.Map(scale[single](2))
	uke, ok := AsUnsupportedKind(err)
	require.True(t, ok)
	assert.Equal(t, "map", uke.Op)
	assert.Equal(t, bn.Batches().ID(), uke.ID)
}

func TestSequentialAddDoesNotMutate(t *testing.T) {
	s := NewSequential[single](newLinear(t, 2, 2, 1))
	s2 := s.Add(newLinear(t, 2, 2, 2))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 2, s2.Len())
}

func TestSequentialLoadRecordMismatch(t *testing.T) {
	one := NewSequential[single](newLinear(t, 2, 2, 1))
	two := one.Add(newLinear(t, 2, 2, 2))

	_, err := one.LoadRecord(two.IntoRecord())
	assert.ErrorIs(t, err, ErrRecordMismatch)

	_, err = one.LoadRecord(newLinear(t, 2, 2, 1).IntoRecord())
	assert.ErrorIs(t, err, ErrRecordMismatch)

	bn, err := NewBatchNorm(2, cpu.New())
	require.NoError(t, err)
	_, err = newLinear(t, 2, 2, 1).LoadRecord(bn.IntoRecord())
	assert.ErrorIs(t, err, ErrRecordMismatch)
}

func TestItemWithMissingFieldIsRejected(t *testing.T) {
	l := newLinear(t, 2, 2, 1)
	item, err := l.IntoRecord().IntoItem(record.FullPrecision)
	require.NoError(t, err)
	item.Fields[1].Name = "offset"

	_, err = l.IntoRecord().FromItem(item, tensor.DefaultCPU)
	assert.ErrorIs(t, err, ErrRecordMismatch)
}

func TestSequentialForkMovesEverything(t *testing.T) {
	bn, err := NewBatchNorm(2, cpu.New())
	require.NoError(t, err)
	s := NewSequential[single](newLinear(t, 2, 2, 1), bn)
	gpu := tensor.NewDevice(tensor.Metal, 0)

	forked := s.Fork(gpu)
	assert.Equal(t, []tensor.Device{gpu}, CollectDevices(forked))
	assert.Equal(t, collect[single](t, s).ids, collect[single](t, forked).ids)
	assert.Equal(t, []tensor.Device{tensor.DefaultCPU}, CollectDevices[single](s))
}

func TestMixedPrecisionSequential(t *testing.T) {
	host := cpu.NewHalf()
	a, inner := adaptLinear(t, 3, 3)
	head, err := NewLinear(3, 1, host)
	require.NoError(t, err)

	model := NewSequential[half](a, head)
	ids := collect[half](t, model).ids
	require.Len(t, ids, 4)
	assert.Equal(t, inner.Weight().ID(), ids[0])
	assert.Equal(t, head.Weight().ID(), ids[2])

	doubled, err := model.Map(scale[half](2))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "mixed.born")
	rec := record.NewFileRecorder()
	require.NoError(t, Save[half](path, doubled, rec, record.HalfPrecision))

	loaded, err := Load[half](path, model, rec, tensor.DefaultCPU)
	require.NoError(t, err)
	assert.Equal(t, collect[half](t, doubled).values, collect[half](t, loaded).values)
}
