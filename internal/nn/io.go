package nn

import (
	"fmt"

	"github.com/born-ml/mixprec/internal/record"
	"github.com/born-ml/mixprec/internal/tensor"
)

// Save writes m's parameters to path with the storage types of s.
//
// Example:
//
//	err := nn.Save[*cpu.Half]("model.born", model, record.NewFileRecorder(), record.HalfPrecision)
func Save[B tensor.Backend](path string, m Module[B], rec record.Recorder, s record.PrecisionSettings) error {
	item, err := m.IntoRecord().IntoItem(s)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := rec.Save(path, item, s); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Load reads parameters saved by Save into a module shaped like m, placing
// them on device. m itself is not modified.
func Load[B tensor.Backend](path string, m Module[B], rec record.Recorder, device tensor.Device) (Module[B], error) {
	item, err := rec.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	r, err := m.IntoRecord().FromItem(item, device)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	out, err := m.LoadRecord(r)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return out, nil
}
