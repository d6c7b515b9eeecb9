package nn

import (
	"fmt"
	"strconv"

	"github.com/born-ml/mixprec/internal/tensor"
)

// Sequential is a container module owning an ordered list of children.
//
// Children are traversed in order and their records are stored under their
// index ("0", "1", ...).
//
// Example:
//
//	model := nn.NewSequential[*cpu.CPUBackend](
//	    linear1,
//	    batchNorm,
//	    linear2,
//	)
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a new Sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Add returns a new container with module appended.
func (s *Sequential[B]) Add(module Module[B]) *Sequential[B] {
	modules := make([]Module[B], len(s.modules), len(s.modules)+1)
	copy(modules, s.modules)
	return &Sequential[B]{modules: append(modules, module)}
}

// Modules returns the children.
func (s *Sequential[B]) Modules() []Module[B] {
	return s.modules
}

// Len returns the number of children.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}

// CollectDevices implements Module.
func (s *Sequential[B]) CollectDevices(devices []tensor.Device) []tensor.Device {
	for _, m := range s.modules {
		devices = m.CollectDevices(devices)
	}
	return devices
}

// Fork implements Module.
func (s *Sequential[B]) Fork(device tensor.Device) Module[B] {
	out := make([]Module[B], len(s.modules))
	for i, m := range s.modules {
		out[i] = m.Fork(device)
	}
	return &Sequential[B]{modules: out}
}

// ToDevice implements Module.
func (s *Sequential[B]) ToDevice(device tensor.Device) Module[B] {
	out := make([]Module[B], len(s.modules))
	for i, m := range s.modules {
		out[i] = m.ToDevice(device)
	}
	return &Sequential[B]{modules: out}
}

// Visit implements Module.
func (s *Sequential[B]) Visit(v Visitor[B]) error {
	for _, m := range s.modules {
		if err := m.Visit(v); err != nil {
			return err
		}
	}
	return nil
}

// Map implements Module.
func (s *Sequential[B]) Map(mapper Mapper[B]) (Module[B], error) {
	out := make([]Module[B], len(s.modules))
	for i, m := range s.modules {
		mapped, err := m.Map(mapper)
		if err != nil {
			return nil, err
		}
		out[i] = mapped
	}
	return &Sequential[B]{modules: out}, nil
}

// IntoRecord implements Module.
func (s *Sequential[B]) IntoRecord() Record[B] {
	fields := make([]NamedRecord[B], len(s.modules))
	for i, m := range s.modules {
		fields[i] = NamedRecord[B]{Name: strconv.Itoa(i), Record: m.IntoRecord()}
	}
	return &FieldsRecord[B]{Type: "Sequential", Fields: fields}
}

// LoadRecord implements Module.
func (s *Sequential[B]) LoadRecord(r Record[B]) (Module[B], error) {
	fr, err := fieldsRecordOf(r, "Sequential")
	if err != nil {
		return nil, err
	}
	if len(fr.Fields) != len(s.modules) {
		return nil, fmt.Errorf("%w: Sequential has %d modules, record has %d", ErrRecordMismatch, len(s.modules), len(fr.Fields))
	}

	out := make([]Module[B], len(s.modules))
	for i, m := range s.modules {
		child, err := fr.Field(strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		if out[i], err = m.LoadRecord(child); err != nil {
			return nil, err
		}
	}
	return &Sequential[B]{modules: out}, nil
}
