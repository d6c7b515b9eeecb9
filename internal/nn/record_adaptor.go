package nn

import (
	"github.com/born-ml/mixprec/internal/record"
	"github.com/born-ml/mixprec/internal/tensor"
)

// RecordAdaptor is the record of a FullPrecisionAdaptor. It presents the
// inner module's Record[F] as a Record[B].
//
// The persisted item depends only on the precision settings, never on B or
// F, so an adapted module and its unwrapped inner module save identical items.
type RecordAdaptor[B, F tensor.Backend] struct {
	inner Record[F]
}

// NewRecordAdaptor wraps an inner record.
func NewRecordAdaptor[B, F tensor.Backend](inner Record[F]) *RecordAdaptor[B, F] {
	return &RecordAdaptor[B, F]{inner: inner}
}

// Inner returns the wrapped record.
func (r *RecordAdaptor[B, F]) Inner() Record[F] {
	return r.inner
}

// IntoItem delegates to the inner record.
func (r *RecordAdaptor[B, F]) IntoItem(s record.PrecisionSettings) (*record.Item, error) {
	return r.inner.IntoItem(s)
}

// FromItem rebuilds the inner record in F's precision and wraps it.
func (r *RecordAdaptor[B, F]) FromItem(item *record.Item, device tensor.Device) (Record[B], error) {
	inner, err := r.inner.FromItem(item, device)
	if err != nil {
		return nil, err
	}
	return &RecordAdaptor[B, F]{inner: inner}, nil
}
