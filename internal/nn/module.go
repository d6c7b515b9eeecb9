// Package nn implements the module abstraction of the Born ML Framework.
//
// A network is a tree of modules. Leaves are parameters (Param), containers
// own their children exclusively. Every module supports the same protocol:
//   - CollectDevices: gather the devices holding its parameters
//   - Fork / ToDevice: copy the module onto another device
//   - Visit / Map: depth-first traversal over parameters
//   - IntoRecord / LoadRecord: persistence through the record package
//
// Modules are values: Fork, ToDevice, Map and LoadRecord return a new module
// and never mutate the receiver.
//
// FullPrecisionAdaptor lets a module written for a backend's full-precision
// counterpart run inside a network built on the lower-precision host backend.
package nn

import (
	"errors"

	"github.com/born-ml/mixprec/internal/record"
	"github.com/born-ml/mixprec/internal/tensor"
)

// Sentinel errors.
var (
	// ErrRecordMismatch is returned when a record was not produced by a module
	// of the same type and shape.
	ErrRecordMismatch = errors.New("record does not match module")

	// ErrShapeChanged is returned when a mapper changes the shape of a
	// parameter that crosses a precision bridge.
	ErrShapeChanged = errors.New("mapper changed parameter shape")

	// ErrUnsupportedParamKind is returned when an integer or boolean
	// parameter reaches a float-only traversal.
	ErrUnsupportedParamKind = errors.New("unsupported parameter kind")
)

// Module is the base interface for all neural network components.
//
// Type parameter B is the backend the module's tensors live on.
//
//	model := nn.NewSequential[*cpu.CPUBackend](linear1, linear2)
//	devices := nn.CollectDevices[*cpu.CPUBackend](model)
type Module[B tensor.Backend] interface {
	// CollectDevices appends the devices of this module's parameters that are
	// not yet in devices, in depth-first declaration order.
	CollectDevices(devices []tensor.Device) []tensor.Device

	// Fork returns a copy on device with gradient state detached.
	Fork(device tensor.Device) Module[B]

	// ToDevice returns a copy on device.
	ToDevice(device tensor.Device) Module[B]

	// Visit calls v for every parameter. The first error stops the walk.
	Visit(v Visitor[B]) error

	// Map rebuilds the module with every parameter replaced by m's result.
	Map(m Mapper[B]) (Module[B], error)

	// IntoRecord captures the module's parameters.
	IntoRecord() Record[B]

	// LoadRecord returns a module whose parameters come from r.
	LoadRecord(r Record[B]) (Module[B], error)
}

// Record is the in-memory snapshot of a module's parameters.
//
// A record converts to and from a backend-independent record.Item whose data
// types are chosen by record.PrecisionSettings.
type Record[B tensor.Backend] interface {
	// IntoItem encodes the record with the storage types of s.
	IntoItem(s record.PrecisionSettings) (*record.Item, error)

	// FromItem decodes item into a new record shaped like the receiver,
	// placing tensors on device. The receiver is not modified.
	FromItem(item *record.Item, device tensor.Device) (Record[B], error)
}
