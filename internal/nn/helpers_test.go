package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/mixprec/internal/backend/cpu"
	"github.com/born-ml/mixprec/internal/tensor"
)

// idCollector records the order and shape of visited float parameters.
type idCollector[B tensor.Backend] struct {
	ids    []ParamID
	shapes []tensor.Shape
	values [][]float64
}

func (c *idCollector[B]) VisitFloat(id ParamID, t *tensor.Tensor[tensor.FloatKind, B]) error {
	c.ids = append(c.ids, id)
	c.shapes = append(c.shapes, t.Shape())
	c.values = append(c.values, t.Float64s())
	return nil
}

func (c *idCollector[B]) VisitInt(id ParamID, t *tensor.Tensor[tensor.IntKind, B]) error {
	c.ids = append(c.ids, id)
	c.shapes = append(c.shapes, t.Shape())
	return nil
}

func (c *idCollector[B]) VisitBool(id ParamID, t *tensor.Tensor[tensor.BoolKind, B]) error {
	c.ids = append(c.ids, id)
	c.shapes = append(c.shapes, t.Shape())
	return nil
}

func collect[B tensor.Backend](t *testing.T, m Module[B]) *idCollector[B] {
	t.Helper()
	c := &idCollector[B]{}
	require.NoError(t, m.Visit(c))
	return c
}

func newLinear(t *testing.T, in, out int, seed int64) *Linear[*cpu.CPUBackend] {
	t.Helper()
	l, err := NewLinear(in, out, cpu.New(), WithRand(rand.New(rand.NewSource(seed))))
	require.NoError(t, err)
	return l
}

func floatParam(t *testing.T, vals []float64, shape tensor.Shape) *Param[tensor.FloatKind, *cpu.CPUBackend] {
	t.Helper()
	w, err := tensor.FromFloat64s(vals, shape, cpu.New())
	require.NoError(t, err)
	return NewParam(w)
}

func scale[B tensor.Backend](k float64) MapperFunc[B] {
	return func(_ ParamID, t *tensor.Tensor[tensor.FloatKind, B]) (*tensor.Tensor[tensor.FloatKind, B], error) {
		return tensor.Apply(t, func(v float64) float64 { return k * v }), nil
	}
}
