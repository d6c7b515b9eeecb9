package record

import (
	"fmt"

	"github.com/born-ml/mixprec/internal/serialization"
	"github.com/born-ml/mixprec/internal/tensor"
)

// Convert returns a copy of the item with every parameter stored in the
// types s selects. Values that do not fit yield tensor.ErrPrecisionOverflow.
func (it *Item) Convert(s PrecisionSettings) (*Item, error) {
	if it == nil {
		return nil, nil
	}
	if it.Param != nil {
		p, err := it.Param.convert(s)
		if err != nil {
			return nil, err
		}
		return &Item{Param: p}, nil
	}

	out := &Item{Fields: make([]Field, 0, len(it.Fields))}
	for _, f := range it.Fields {
		sub, err := f.Item.Convert(s)
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, Field{Name: f.Name, Item: sub})
	}
	return out, nil
}

func (p *ParamItem) convert(s PrecisionSettings) (*ParamItem, error) {
	kind, err := p.KindID()
	if err != nil {
		return nil, fmt.Errorf("param %s: %w", p.ID, err)
	}
	raw, err := p.Decode(s.DTypeFor(kind), tensor.DefaultCPU)
	if err != nil {
		return nil, err
	}
	return &ParamItem{
		ID:    p.ID,
		Kind:  p.Kind,
		DType: raw.DType().String(),
		Shape: append([]int(nil), p.Shape...),
		Data:  raw.LittleEndianBytes(),
	}, nil
}

// toEntries flattens an item into serialization entries named by dotted path.
func toEntries(item *Item) ([]serialization.Entry, error) {
	var entries []serialization.Entry
	err := item.Walk(func(path string, p *ParamItem) error {
		dtype, err := tensor.ParseDataType(p.DType)
		if err != nil {
			return fmt.Errorf("param %s: %w", path, err)
		}
		entries = append(entries, serialization.Entry{
			Name:  path,
			ID:    p.ID,
			Kind:  p.Kind,
			DType: dtype,
			Shape: p.Shape,
			Data:  p.Data,
		})
		return nil
	})
	return entries, err
}

// fromEntries rebuilds the item tree, restoring the struct nodes listed in
// empty. Entries without a kind (files written without parameter identities)
// get the kind implied by their data type.
func fromEntries(entries []serialization.Entry, empty []string) (*Item, error) {
	params := make(map[string]*ParamItem, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		kind := e.Kind
		if kind == "" {
			kind = kindOf(e.DType).String()
		}
		params[e.Name] = &ParamItem{
			ID:    e.ID,
			Kind:  kind,
			DType: e.DType.String(),
			Shape: e.Shape,
			Data:  e.Data,
		}
		order = append(order, e.Name)
	}
	return Unflatten(params, order, empty...)
}

func kindOf(dt tensor.DataType) tensor.KindID {
	switch {
	case dt.IsFloat():
		return tensor.KindFloat
	case dt.IsInt():
		return tensor.KindInt
	default:
		return tensor.KindBool
	}
}
