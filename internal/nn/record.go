package nn

import (
	"fmt"

	"github.com/born-ml/mixprec/internal/record"
	"github.com/born-ml/mixprec/internal/tensor"
)

// NamedRecord is one field of a FieldsRecord.
type NamedRecord[B tensor.Backend] struct {
	Name   string
	Record Record[B]
}

// FieldsRecord is the record of a container module: one named record per
// child, in declaration order. Type names the producing module and guards
// LoadRecord against records of another module type.
type FieldsRecord[B tensor.Backend] struct {
	Type   string
	Fields []NamedRecord[B]
}

// NewFieldsRecord builds a container record.
func NewFieldsRecord[B tensor.Backend](typ string, fields ...NamedRecord[B]) *FieldsRecord[B] {
	return &FieldsRecord[B]{Type: typ, Fields: fields}
}

// Field returns the record stored under name.
func (r *FieldsRecord[B]) Field(name string) (Record[B], error) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Record, nil
		}
	}
	return nil, fmt.Errorf("%w: %s record has no field %q", ErrRecordMismatch, r.Type, name)
}

// IntoItem encodes every field in order.
func (r *FieldsRecord[B]) IntoItem(s record.PrecisionSettings) (*record.Item, error) {
	fields := make([]record.Field, 0, len(r.Fields))
	for _, f := range r.Fields {
		item, err := f.Record.IntoItem(s)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", r.Type, f.Name, err)
		}
		fields = append(fields, record.Field{Name: f.Name, Item: item})
	}
	return record.NewStructItem(fields...), nil
}

// FromItem decodes each field of item using the receiver's fields as templates.
func (r *FieldsRecord[B]) FromItem(item *record.Item, device tensor.Device) (Record[B], error) {
	if item == nil || item.Param != nil {
		return nil, fmt.Errorf("%w: %s expects a struct item", ErrRecordMismatch, r.Type)
	}
	if len(item.Fields) != len(r.Fields) {
		return nil, fmt.Errorf("%w: %s has %d fields, item has %d", ErrRecordMismatch, r.Type, len(r.Fields), len(item.Fields))
	}

	out := &FieldsRecord[B]{Type: r.Type, Fields: make([]NamedRecord[B], 0, len(r.Fields))}
	for _, f := range r.Fields {
		sub, err := item.Field(f.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRecordMismatch, r.Type, err)
		}
		rec, err := f.Record.FromItem(sub, device)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", r.Type, f.Name, err)
		}
		out.Fields = append(out.Fields, NamedRecord[B]{Name: f.Name, Record: rec})
	}
	return out, nil
}

// fieldsRecordOf checks that r is a FieldsRecord produced by a module of type typ.
func fieldsRecordOf[B tensor.Backend](r Record[B], typ string) (*FieldsRecord[B], error) {
	fr, ok := r.(*FieldsRecord[B])
	if !ok || fr == nil {
		return nil, fmt.Errorf("%w: want %s record, got %T", ErrRecordMismatch, typ, r)
	}
	if fr.Type != typ {
		return nil, fmt.Errorf("%w: want %s record, got %s", ErrRecordMismatch, typ, fr.Type)
	}
	return fr, nil
}

// loadField loads the parameter stored under name into p.
func loadField[K tensor.Kind, B tensor.Backend](fr *FieldsRecord[B], name string, p *Param[K, B]) (*Param[K, B], error) {
	r, err := fr.Field(name)
	if err != nil {
		return nil, err
	}
	q, err := p.load(r)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", fr.Type, name, err)
	}
	return q, nil
}
