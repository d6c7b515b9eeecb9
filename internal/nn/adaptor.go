package nn

import (
	"errors"
	"fmt"

	"github.com/born-ml/mixprec/internal/tensor"
)

// FullPrecisionAdaptor runs a module written for backend F inside a network
// built on backend B, where F is B's full-precision counterpart.
//
// To every consumer the adaptor is a Module[B]. Float parameters cross the
// bridge on each access: visitors and mappers see B-precision copies, and a
// mapper's result is widened back before it is stored. Device handling and
// records are delegated to the inner module unchanged.
//
// Only float parameters can cross the bridge. Construction fails with
// ErrUnsupportedParamKind when the inner module holds int or bool parameters.
//
// Example:
//
//	inner, _ := nn.NewLinear(4, 3, cpu.New())
//	layer, err := nn.Adapt[*cpu.Half, *cpu.CPUBackend](cpu.NewHalf(), inner)
type FullPrecisionAdaptor[B, F tensor.Backend] struct {
	bridge tensor.Bridge[B, F]
	inner  Module[F]
}

// NewFullPrecisionAdaptor wraps inner behind bridge.
func NewFullPrecisionAdaptor[B, F tensor.Backend](bridge tensor.Bridge[B, F], inner Module[F]) (*FullPrecisionAdaptor[B, F], error) {
	if err := inner.Visit(kindCheck[F]{}); err != nil {
		return nil, err
	}
	return &FullPrecisionAdaptor[B, F]{bridge: bridge, inner: inner}, nil
}

// Adapt wraps inner using the full-precision bridge host declares.
func Adapt[B tensor.FullPrecisionBackend[B, F], F tensor.Backend](host B, inner Module[F]) (*FullPrecisionAdaptor[B, F], error) {
	return NewFullPrecisionAdaptor(host.FullPrecisionBridge(), inner)
}

// Inner returns the wrapped module.
func (a *FullPrecisionAdaptor[B, F]) Inner() Module[F] {
	return a.inner
}

// Bridge returns the precision bridge.
func (a *FullPrecisionAdaptor[B, F]) Bridge() tensor.Bridge[B, F] {
	return a.bridge
}

func (a *FullPrecisionAdaptor[B, F]) rewrap(inner Module[F]) *FullPrecisionAdaptor[B, F] {
	return &FullPrecisionAdaptor[B, F]{bridge: a.bridge, inner: inner}
}

// CollectDevices implements Module.
func (a *FullPrecisionAdaptor[B, F]) CollectDevices(devices []tensor.Device) []tensor.Device {
	return a.inner.CollectDevices(devices)
}

// Fork implements Module.
func (a *FullPrecisionAdaptor[B, F]) Fork(device tensor.Device) Module[B] {
	return a.rewrap(a.inner.Fork(device))
}

// ToDevice implements Module.
func (a *FullPrecisionAdaptor[B, F]) ToDevice(device tensor.Device) Module[B] {
	return a.rewrap(a.inner.ToDevice(device))
}

// Visit shows v a B-precision copy of every float parameter.
func (a *FullPrecisionAdaptor[B, F]) Visit(v Visitor[B]) error {
	return a.inner.Visit(&visitorAdaptor[B, F]{bridge: a.bridge, visitor: v})
}

// Map narrows each float parameter to B, applies m and widens the result
// back into the rebuilt inner module.
func (a *FullPrecisionAdaptor[B, F]) Map(m Mapper[B]) (Module[B], error) {
	inner, err := a.inner.Map(&mapperAdaptor[B, F]{bridge: a.bridge, mapper: m})
	if err != nil {
		return nil, err
	}
	return a.rewrap(inner), nil
}

// IntoRecord implements Module.
func (a *FullPrecisionAdaptor[B, F]) IntoRecord() Record[B] {
	return &RecordAdaptor[B, F]{inner: a.inner.IntoRecord()}
}

// LoadRecord accepts only records produced by an adaptor over the same backends.
func (a *FullPrecisionAdaptor[B, F]) LoadRecord(r Record[B]) (Module[B], error) {
	ra, ok := r.(*RecordAdaptor[B, F])
	if !ok || ra == nil {
		return nil, fmt.Errorf("%w: want adapted record, got %T", ErrRecordMismatch, r)
	}
	inner, err := a.inner.LoadRecord(ra.inner)
	if err != nil {
		return nil, err
	}
	return a.rewrap(inner), nil
}

// visitorAdaptor presents F parameters to a Visitor[B].
type visitorAdaptor[B, F tensor.Backend] struct {
	bridge  tensor.Bridge[B, F]
	visitor Visitor[B]
}

func (va *visitorAdaptor[B, F]) VisitFloat(id ParamID, t *tensor.Tensor[tensor.FloatKind, F]) error {
	host, err := va.bridge.FromFullPrecision(t)
	if err != nil {
		return fmt.Errorf("visit: param %s: %w", id, err)
	}
	return va.visitor.VisitFloat(id, host)
}

func (va *visitorAdaptor[B, F]) TrainableOnly() bool {
	return trainableOnly(va.visitor)
}

func (va *visitorAdaptor[B, F]) VisitInt(id ParamID, _ *tensor.Tensor[tensor.IntKind, F]) error {
	return &UnsupportedKindError{ID: id, Kind: tensor.KindInt, Op: "visit"}
}

func (va *visitorAdaptor[B, F]) VisitBool(id ParamID, _ *tensor.Tensor[tensor.BoolKind, F]) error {
	return &UnsupportedKindError{ID: id, Kind: tensor.KindBool, Op: "visit"}
}

// mapperAdaptor presents F parameters to a Mapper[B] and stores the results in F.
type mapperAdaptor[B, F tensor.Backend] struct {
	bridge tensor.Bridge[B, F]
	mapper Mapper[B]
}

func (ma *mapperAdaptor[B, F]) MapFloat(id ParamID, t *tensor.Tensor[tensor.FloatKind, F]) (*tensor.Tensor[tensor.FloatKind, F], error) {
	host, err := ma.bridge.FromFullPrecision(t)
	if err != nil {
		return nil, fmt.Errorf("map: param %s: %w", id, err)
	}

	mapped, err := ma.mapper.MapFloat(id, host)
	if err != nil {
		return nil, err
	}
	if mapped == nil {
		return nil, fmt.Errorf("map: param %s: mapper returned no tensor", id)
	}
	if !mapped.Shape().Equal(t.Shape()) {
		return nil, fmt.Errorf("%w: param %s %v -> %v", ErrShapeChanged, id, t.Shape(), mapped.Shape())
	}

	full, err := ma.bridge.IntoFullPrecision(mapped)
	if err != nil {
		return nil, fmt.Errorf("map: param %s: %w", id, err)
	}
	return full, nil
}

func (ma *mapperAdaptor[B, F]) TrainableOnly() bool {
	return trainableOnly(ma.mapper)
}

func (ma *mapperAdaptor[B, F]) MapInt(id ParamID, _ *tensor.Tensor[tensor.IntKind, F]) (*tensor.Tensor[tensor.IntKind, F], error) {
	return nil, &UnsupportedKindError{ID: id, Kind: tensor.KindInt, Op: "map"}
}

func (ma *mapperAdaptor[B, F]) MapBool(id ParamID, _ *tensor.Tensor[tensor.BoolKind, F]) (*tensor.Tensor[tensor.BoolKind, F], error) {
	return nil, &UnsupportedKindError{ID: id, Kind: tensor.KindBool, Op: "map"}
}

// kindCheck rejects the first non-float parameter of a module.
type kindCheck[F tensor.Backend] struct{}

func (kindCheck[F]) VisitFloat(ParamID, *tensor.Tensor[tensor.FloatKind, F]) error { return nil }

func (kindCheck[F]) VisitInt(id ParamID, _ *tensor.Tensor[tensor.IntKind, F]) error {
	return &UnsupportedKindError{ID: id, Kind: tensor.KindInt, Op: "adapt"}
}

func (kindCheck[F]) VisitBool(id ParamID, _ *tensor.Tensor[tensor.BoolKind, F]) error {
	return &UnsupportedKindError{ID: id, Kind: tensor.KindBool, Op: "adapt"}
}

// AsUnsupportedKind extracts the *UnsupportedKindError from err's chain.
func AsUnsupportedKind(err error) (*UnsupportedKindError, bool) {
	var uke *UnsupportedKindError
	if errors.As(err, &uke) {
		return uke, true
	}
	return nil, false
}

// Compile-time interface checks.
var (
	_ Visitor[tensor.Backend] = (*visitorAdaptor[tensor.Backend, tensor.Backend])(nil)
	_ Mapper[tensor.Backend]  = (*mapperAdaptor[tensor.Backend, tensor.Backend])(nil)
	_ Visitor[tensor.Backend] = kindCheck[tensor.Backend]{}
	_ Module[tensor.Backend]  = (*FullPrecisionAdaptor[tensor.Backend, tensor.Backend])(nil)
	_ Module[tensor.Backend]  = (*Param[tensor.FloatKind, tensor.Backend])(nil)
	_ Module[tensor.Backend]  = (*Linear[tensor.Backend])(nil)
	_ Module[tensor.Backend]  = (*MaskedLinear[tensor.Backend])(nil)
	_ Module[tensor.Backend]  = (*BatchNorm[tensor.Backend])(nil)
	_ Module[tensor.Backend]  = (*Sequential[tensor.Backend])(nil)
)
