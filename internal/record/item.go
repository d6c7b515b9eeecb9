package record

import (
	"errors"
	"fmt"
	"strings"

	"github.com/born-ml/mixprec/internal/tensor"
)

// ErrItemMismatch is returned when an Item does not have the structure a
// record expects (missing field, parameter where a struct was expected...).
var ErrItemMismatch = errors.New("item does not match record structure")

// Item is the persisted form of a record: either a single parameter or an
// ordered list of named sub-items.
type Item struct {
	Param  *ParamItem `json:"param,omitempty"`
	Fields []Field    `json:"fields,omitempty"`
}

// Field is a named sub-item.
type Field struct {
	Name string `json:"name"`
	Item *Item  `json:"item"`
}

// ParamItem is one persisted parameter.
type ParamItem struct {
	ID    string `json:"id"`    // Parameter identifier (stable across save/load)
	Kind  string `json:"kind"`  // "float", "int" or "bool"
	DType string `json:"dtype"` // Persisted data type
	Shape []int  `json:"shape"` // Tensor shape
	Data  []byte `json:"data"`  // Little-endian element data
}

// NewParamItem encodes raw as a parameter item using the data type s selects
// for kind. Values that do not fit that data type yield
// tensor.ErrPrecisionOverflow.
func NewParamItem(id string, kind tensor.KindID, raw *tensor.RawTensor, s PrecisionSettings) (*Item, error) {
	converted, err := tensor.CheckedCast(raw, s.DTypeFor(kind))
	if err != nil {
		return nil, fmt.Errorf("param %s: %w", id, err)
	}

	return &Item{Param: &ParamItem{
		ID:    id,
		Kind:  kind.String(),
		DType: converted.DType().String(),
		Shape: append([]int(nil), converted.Shape()...),
		Data:  converted.LittleEndianBytes(),
	}}, nil
}

// NewStructItem builds an item from named fields, preserving order.
func NewStructItem(fields ...Field) *Item {
	return &Item{Fields: fields}
}

// Decode rebuilds the parameter as a RawTensor of dtype placed on device.
func (p *ParamItem) Decode(dtype tensor.DataType, device tensor.Device) (*tensor.RawTensor, error) {
	stored, err := tensor.ParseDataType(p.DType)
	if err != nil {
		return nil, fmt.Errorf("param %s: %w", p.ID, err)
	}

	raw, err := tensor.NewRawFromLittleEndian(tensor.Shape(p.Shape), stored, device, p.Data)
	if err != nil {
		return nil, fmt.Errorf("param %s: %w", p.ID, err)
	}

	out, err := tensor.CheckedCast(raw, dtype)
	if err != nil {
		return nil, fmt.Errorf("param %s: %w", p.ID, err)
	}
	return out, nil
}

// KindID parses the stored kind.
func (p *ParamItem) KindID() (tensor.KindID, error) {
	return tensor.ParseKind(p.Kind)
}

// Field returns the sub-item called name.
func (it *Item) Field(name string) (*Item, error) {
	for _, f := range it.Fields {
		if f.Name == name {
			return f.Item, nil
		}
	}
	return nil, fmt.Errorf("%w: no field %q", ErrItemMismatch, name)
}

// Walk calls fn for every parameter in depth-first field order with its
// dotted path (e.g. "0.weight").
func (it *Item) Walk(fn func(path string, p *ParamItem) error) error {
	return it.walk("", fn)
}

func (it *Item) walk(prefix string, fn func(string, *ParamItem) error) error {
	if it == nil {
		return nil
	}
	if it.Param != nil {
		return fn(prefix, it.Param)
	}
	for _, f := range it.Fields {
		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}
		if err := f.Item.walk(path, fn); err != nil {
			return err
		}
	}
	return nil
}

// NumParams returns the number of parameters in the tree.
func (it *Item) NumParams() int {
	n := 0
	_ = it.Walk(func(string, *ParamItem) error {
		n++
		return nil
	})
	return n
}

// Flatten returns the parameters keyed by dotted path, plus the paths in
// traversal order.
func (it *Item) Flatten() (map[string]*ParamItem, []string) {
	params := make(map[string]*ParamItem)
	var order []string
	_ = it.Walk(func(path string, p *ParamItem) error {
		params[path] = p
		order = append(order, path)
		return nil
	})
	return params, order
}

// EmptyNodes returns the dotted paths of struct nodes below the root that hold
// no fields, such as an empty container module. Flatten drops them.
func (it *Item) EmptyNodes() []string {
	var out []string
	var walk func(prefix string, node *Item)
	walk = func(prefix string, node *Item) {
		for _, f := range node.Fields {
			path := f.Name
			if prefix != "" {
				path = prefix + "." + f.Name
			}
			switch {
			case f.Item == nil || f.Item.Param == nil && len(f.Item.Fields) == 0:
				out = append(out, path)
			case f.Item.Param == nil:
				walk(path, f.Item)
			}
		}
	}
	if it != nil {
		walk("", it)
	}
	return out
}

// Unflatten rebuilds an item tree from dotted paths. Field order follows the
// order of paths; empty struct nodes are added after the parameters.
func Unflatten(params map[string]*ParamItem, order []string, empty ...string) (*Item, error) {
	root := &Item{}
	for _, path := range order {
		p, ok := params[path]
		if !ok {
			return nil, fmt.Errorf("%w: no parameter for path %q", ErrItemMismatch, path)
		}
		if path == "" {
			if len(order) != 1 {
				return nil, fmt.Errorf("%w: root parameter mixed with fields", ErrItemMismatch)
			}
			if len(empty) > 0 {
				return nil, fmt.Errorf("%w: root parameter mixed with empty nodes", ErrItemMismatch)
			}
			return &Item{Param: p}, nil
		}

		node, err := root.ensure(path)
		if err != nil {
			return nil, err
		}
		if node.Param != nil || len(node.Fields) > 0 {
			return nil, fmt.Errorf("%w: path %q used twice", ErrItemMismatch, path)
		}
		node.Param = p
	}

	for _, path := range empty {
		if path == "" {
			return nil, fmt.Errorf("%w: root cannot be an empty node", ErrItemMismatch)
		}
		node, err := root.ensure(path)
		if err != nil {
			return nil, err
		}
		if node.Param != nil || len(node.Fields) > 0 {
			return nil, fmt.Errorf("%w: empty node %q holds parameters", ErrItemMismatch, path)
		}
	}
	return root, nil
}

// ensure returns the node at path, creating missing struct nodes on the way.
func (it *Item) ensure(path string) (*Item, error) {
	node := it
	for _, name := range strings.Split(path, ".") {
		if node.Param != nil {
			return nil, fmt.Errorf("%w: path %q runs through a parameter", ErrItemMismatch, path)
		}
		child, err := node.Field(name)
		if err != nil {
			child = &Item{}
			node.Fields = append(node.Fields, Field{Name: name, Item: child})
		}
		node = child
	}
	return node, nil
}
