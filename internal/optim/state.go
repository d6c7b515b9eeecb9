package optim

import (
	"fmt"

	"github.com/born-ml/mixprec/internal/nn"
	"github.com/born-ml/mixprec/internal/record"
	"github.com/born-ml/mixprec/internal/tensor"
)

// buffer is per-parameter optimizer state kept in float64.
type buffer struct {
	values []float64
}

// buffers maps parameter identities to state. Entries are created on first use.
type buffers map[nn.ParamID]*buffer

// peek returns a copy of the state of id, or zeros when there is none or its
// length is not n. The buffers are not modified.
func (b buffers) peek(id nn.ParamID, n int) []float64 {
	out := make([]float64, n)
	if buf, ok := b[id]; ok && len(buf.values) == n {
		copy(out, buf.values)
	}
	return out
}

func (b buffers) set(id nn.ParamID, values []float64) {
	b[id] = &buffer{values: values}
}

// item encodes the buffers as one flat parameter per ParamID.
func (b buffers) item(settings record.PrecisionSettings) (*record.Item, error) {
	fields := make([]record.Field, 0, len(b))
	for id, buf := range b {
		raw, err := tensor.NewRaw(tensor.Shape{len(buf.values)}, tensor.Float64, tensor.DefaultCPU)
		if err != nil {
			return nil, err
		}
		copy(raw.AsFloat64(), buf.values)

		p, err := record.NewParamItem(id.String(), tensor.KindFloat, raw, settings)
		if err != nil {
			return nil, err
		}
		fields = append(fields, record.Field{Name: id.String(), Item: p})
	}
	return record.NewStructItem(fields...), nil
}

func buffersFromItem(item *record.Item) (buffers, error) {
	out := make(buffers, len(item.Fields))
	for _, f := range item.Fields {
		if f.Item == nil || f.Item.Param == nil {
			return nil, fmt.Errorf("%w: optimizer state %q is not a parameter", record.ErrItemMismatch, f.Name)
		}
		id, err := nn.ParseParamID(f.Name)
		if err != nil {
			return nil, err
		}
		raw, err := f.Item.Param.Decode(tensor.Float64, tensor.DefaultCPU)
		if err != nil {
			return nil, err
		}
		out[id] = &buffer{values: append([]float64(nil), raw.AsFloat64()...)}
	}
	return out, nil
}
