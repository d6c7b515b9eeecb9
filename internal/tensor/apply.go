package tensor

import "fmt"

// Apply returns a new float tensor with fn applied to every element.
//
// Elements are widened to float64, transformed, and rounded back to the
// tensor's storage precision. Shape, device and backend are preserved.
//
// Example:
//
//	doubled := tensor.Apply(w, func(v float64) float64 { return 2 * v })
func Apply[B Backend](t *Tensor[FloatKind, B], fn func(float64) float64) *Tensor[FloatKind, B] {
	vals := ToFloat64s(t.raw)
	for i, v := range vals {
		vals[i] = fn(v)
	}

	out := t.raw.Clone()
	setFloats(out, vals)
	return &Tensor[FloatKind, B]{raw: out, backend: t.backend}
}

// ApplyPair is like Apply but combines t with other element-wise.
// Both tensors must have the same shape.
func ApplyPair[B Backend](t, other *Tensor[FloatKind, B], fn func(a, b float64) float64) (*Tensor[FloatKind, B], error) {
	if !t.Shape().Equal(other.Shape()) {
		return nil, fmt.Errorf("apply: shape mismatch %v vs %v", t.Shape(), other.Shape())
	}

	a, b := ToFloat64s(t.raw), ToFloat64s(other.raw)
	for i := range a {
		a[i] = fn(a[i], b[i])
	}

	out := t.raw.Clone()
	setFloats(out, a)
	return &Tensor[FloatKind, B]{raw: out, backend: t.backend}, nil
}

// Like returns a float tensor with the shape, device and backend of t
// holding vals, rounded to the backend's precision.
func Like[B Backend](t *Tensor[FloatKind, B], vals []float64) (*Tensor[FloatKind, B], error) {
	if len(vals) != t.NumElements() {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", t.Shape(), t.NumElements(), len(vals))
	}
	out := t.raw.Clone()
	setFloats(out, vals)
	return &Tensor[FloatKind, B]{raw: out, backend: t.backend}, nil
}
