package nn

import (
	"fmt"

	"github.com/born-ml/mixprec/internal/record"
	"github.com/born-ml/mixprec/internal/tensor"
)

// Param is a learnable (or tracked) tensor with a stable identity.
//
// Param is the leaf of the module tree and implements Module itself. The
// kind K decides which Visitor and Mapper method receives it.
//
// Example:
//
//	w, _ := tensor.FromFloat64s(data, tensor.Shape{3, 4}, backend)
//	weight := nn.NewParam(w)
//	fmt.Println(weight.ID(), weight.Tensor().Shape())
type Param[K tensor.Kind, B tensor.Backend] struct {
	id          ParamID
	value       *tensor.Tensor[K, B]
	requireGrad bool
}

// NewParam wraps t with a freshly minted ParamID.
// Float parameters require gradients by default; int and bool do not.
func NewParam[K tensor.Kind, B tensor.Backend](t *tensor.Tensor[K, B]) *Param[K, B] {
	return NewParamWithID(NewParamID(), t)
}

// NewParamWithID wraps t keeping an existing identity.
func NewParamWithID[K tensor.Kind, B tensor.Backend](id ParamID, t *tensor.Tensor[K, B]) *Param[K, B] {
	return &Param[K, B]{
		id:          id,
		value:       t,
		requireGrad: tensor.KindOf[K]() == tensor.KindFloat,
	}
}

// ID returns the parameter identity.
func (p *Param[K, B]) ID() ParamID {
	return p.id
}

// Tensor returns the parameter value.
func (p *Param[K, B]) Tensor() *tensor.Tensor[K, B] {
	return p.value
}

// RequireGrad reports whether optimizers should update the parameter.
// Visitors and mappers implementing TrainableOnly never see it when false.
func (p *Param[K, B]) RequireGrad() bool {
	return p.requireGrad
}

// NoGrad returns a copy of p excluded from gradient updates.
func (p *Param[K, B]) NoGrad() *Param[K, B] {
	return &Param[K, B]{id: p.id, value: p.value, requireGrad: false}
}

func (p *Param[K, B]) withTensor(t *tensor.Tensor[K, B]) *Param[K, B] {
	return &Param[K, B]{id: p.id, value: t, requireGrad: p.requireGrad}
}

// CollectDevices appends the parameter's device if absent.
func (p *Param[K, B]) CollectDevices(devices []tensor.Device) []tensor.Device {
	return appendDevice(devices, p.value.Device())
}

// Fork implements Module.
func (p *Param[K, B]) Fork(device tensor.Device) Module[B] {
	return p.fork(device)
}

// fork copies the value so the result shares no storage (and therefore no
// gradient history) with p.
func (p *Param[K, B]) fork(device tensor.Device) *Param[K, B] {
	return p.withTensor(p.value.To(device))
}

// ToDevice implements Module.
func (p *Param[K, B]) ToDevice(device tensor.Device) Module[B] {
	return p.toDevice(device)
}

func (p *Param[K, B]) toDevice(device tensor.Device) *Param[K, B] {
	if p.value.Device() == device {
		return p
	}
	return p.withTensor(p.value.To(device))
}

// Visit dispatches to the Visitor method matching K.
func (p *Param[K, B]) Visit(v Visitor[B]) error {
	if !p.requireGrad && trainableOnly(v) {
		return nil
	}
	switch q := any(p).(type) {
	case *Param[tensor.FloatKind, B]:
		return v.VisitFloat(q.id, q.value)
	case *Param[tensor.IntKind, B]:
		return v.VisitInt(q.id, q.value)
	case *Param[tensor.BoolKind, B]:
		return v.VisitBool(q.id, q.value)
	}
	return nil
}

// Map implements Module.
func (p *Param[K, B]) Map(m Mapper[B]) (Module[B], error) {
	q, err := p.mapWith(m)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (p *Param[K, B]) mapWith(m Mapper[B]) (*Param[K, B], error) {
	if !p.requireGrad && trainableOnly(m) {
		return p, nil
	}
	var (
		out any
		err error
	)
	switch q := any(p).(type) {
	case *Param[tensor.FloatKind, B]:
		out, err = m.MapFloat(q.id, q.value)
	case *Param[tensor.IntKind, B]:
		out, err = m.MapInt(q.id, q.value)
	case *Param[tensor.BoolKind, B]:
		out, err = m.MapBool(q.id, q.value)
	}
	if err != nil {
		return nil, err
	}

	t, _ := out.(*tensor.Tensor[K, B])
	if t == nil {
		return nil, fmt.Errorf("map: param %s: mapper returned no tensor", p.id)
	}
	return p.withTensor(t), nil
}

// IntoRecord implements Module.
func (p *Param[K, B]) IntoRecord() Record[B] {
	return &ParamRecord[K, B]{param: p}
}

// LoadRecord implements Module.
func (p *Param[K, B]) LoadRecord(r Record[B]) (Module[B], error) {
	q, err := p.load(r)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// load takes identity and value from r. The requireGrad flag stays with p.
func (p *Param[K, B]) load(r Record[B]) (*Param[K, B], error) {
	pr, ok := r.(*ParamRecord[K, B])
	if !ok || pr == nil {
		return nil, fmt.Errorf("%w: want %s parameter record, got %T", ErrRecordMismatch, tensor.KindOf[K](), r)
	}

	got := pr.param.value.Shape()
	if !got.Equal(p.value.Shape()) {
		return nil, fmt.Errorf("%w: param %s shape %v, record has %v", ErrRecordMismatch, p.id, p.value.Shape(), got)
	}

	return &Param[K, B]{id: pr.param.id, value: pr.param.value, requireGrad: p.requireGrad}, nil
}

// String returns a short description of the parameter.
func (p *Param[K, B]) String() string {
	return fmt.Sprintf("Param(%s, %s)", p.id, p.value)
}

// ParamRecord is the record of a single parameter.
type ParamRecord[K tensor.Kind, B tensor.Backend] struct {
	param *Param[K, B]
}

// Param returns the recorded parameter.
func (r *ParamRecord[K, B]) Param() *Param[K, B] {
	return r.param
}

// IntoItem encodes the parameter with the storage type s selects for K.
func (r *ParamRecord[K, B]) IntoItem(s record.PrecisionSettings) (*record.Item, error) {
	return record.NewParamItem(r.param.id.String(), tensor.KindOf[K](), r.param.value.Raw(), s)
}

// FromItem decodes a parameter item into B's native precision on device.
func (r *ParamRecord[K, B]) FromItem(item *record.Item, device tensor.Device) (Record[B], error) {
	if item == nil || item.Param == nil {
		return nil, fmt.Errorf("%w: expected a parameter item", ErrRecordMismatch)
	}

	kind, err := item.Param.KindID()
	if err != nil {
		return nil, err
	}
	if kind != tensor.KindOf[K]() {
		return nil, fmt.Errorf("%w: param %s is %s, want %s", ErrRecordMismatch, item.Param.ID, kind, tensor.KindOf[K]())
	}

	id, err := ParseParamID(item.Param.ID)
	if err != nil {
		return nil, err
	}

	b := r.param.value.Backend()
	raw, err := item.Param.Decode(tensor.NativeDType(b, kind), device)
	if err != nil {
		return nil, err
	}
	t, err := tensor.New[K](raw, b)
	if err != nil {
		return nil, err
	}

	return &ParamRecord[K, B]{param: &Param[K, B]{id: id, value: t, requireGrad: r.param.requireGrad}}, nil
}
