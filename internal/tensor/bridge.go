package tensor

import (
	"errors"
	"fmt"
)

// ErrInvalidBridge is returned when a bridge would not lead to an equal or
// higher float precision.
var ErrInvalidBridge = errors.New("invalid full precision bridge")

// Bridge associates host backend B with its full-precision counterpart F and
// converts float tensors between the two.
//
// Conversions preserve shape, rank and device exactly; only the storage
// precision changes. Widening (B to F) is exact. Narrowing (F to B) rounds to
// nearest even; a strict bridge reports ErrPrecisionOverflow instead of
// producing infinities.
type Bridge[B, F Backend] struct {
	host   B
	target F
	strict bool
}

// BridgeOption configures a Bridge.
type BridgeOption func(*bridgeConfig)

type bridgeConfig struct {
	strict bool
}

// Strict makes narrowing report ErrPrecisionOverflow for finite values that
// do not fit the host precision.
func Strict() BridgeOption {
	return func(c *bridgeConfig) { c.strict = true }
}

// FullPrecisionBackend is a backend that names its full-precision counterpart F.
//
// Backends declare the association statically:
//
//	func (h *Half) FullPrecisionBridge() tensor.Bridge[*Half, *CPUBackend]
type FullPrecisionBackend[B, F Backend] interface {
	Backend
	FullPrecisionBridge() Bridge[B, F]
}

// NewBridge validates and returns the bridge from host to target.
func NewBridge[B, F Backend](host B, target F, opts ...BridgeOption) (Bridge[B, F], error) {
	var cfg bridgeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	hostDType, targetDType := host.FloatDType(), target.FloatDType()
	if !hostDType.IsFloat() || !targetDType.IsFloat() {
		return Bridge[B, F]{}, fmt.Errorf("%w: %s (%s) -> %s (%s): float types required",
			ErrInvalidBridge, host.Name(), hostDType, target.Name(), targetDType)
	}
	if hostDType.Size() > targetDType.Size() {
		return Bridge[B, F]{}, fmt.Errorf("%w: %s (%s) is wider than its counterpart %s (%s)",
			ErrInvalidBridge, host.Name(), hostDType, target.Name(), targetDType)
	}

	return Bridge[B, F]{host: host, target: target, strict: cfg.strict}, nil
}

// MustBridge is like NewBridge but panics on an invalid association.
// It is meant for package-level backend declarations.
func MustBridge[B, F Backend](host B, target F, opts ...BridgeOption) Bridge[B, F] {
	br, err := NewBridge(host, target, opts...)
	if err != nil {
		panic(err)
	}
	return br
}

// Host returns the host backend.
func (br Bridge[B, F]) Host() B {
	return br.host
}

// Target returns the full-precision counterpart backend.
func (br Bridge[B, F]) Target() F {
	return br.target
}

// IsStrict reports whether narrowing checks for overflow.
func (br Bridge[B, F]) IsStrict() bool {
	return br.strict
}

// IntoFullPrecision widens a host tensor to the counterpart backend.
func (br Bridge[B, F]) IntoFullPrecision(t *Tensor[FloatKind, B]) (*Tensor[FloatKind, F], error) {
	raw := Cast(t.Raw(), br.target.FloatDType())
	return &Tensor[FloatKind, F]{raw: raw, backend: br.target}, nil
}

// FromFullPrecision narrows a counterpart tensor to the host backend.
func (br Bridge[B, F]) FromFullPrecision(t *Tensor[FloatKind, F]) (*Tensor[FloatKind, B], error) {
	dtype := br.host.FloatDType()
	if !br.strict {
		return &Tensor[FloatKind, B]{raw: Cast(t.Raw(), dtype), backend: br.host}, nil
	}

	raw, err := CheckedCast(t.Raw(), dtype)
	if err != nil {
		return nil, fmt.Errorf("%s -> %s: %w", br.target.Name(), br.host.Name(), err)
	}
	return &Tensor[FloatKind, B]{raw: raw, backend: br.host}, nil
}
