package serialization

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/born-ml/mixprec/internal/tensor"
)

// Limits applied to decoded headers.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // Largest JSON header accepted, in bytes
	MaxTensorCount   = 100_000           // Largest number of tensors per file
	MaxTensorNameLen = 4096              // Longest dotted tensor path
)

// ValidationLevel selects which header checks Decode runs.
type ValidationLevel int

const (
	// ValidationStrict runs every check, including the data section layout.
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks names, parameter metadata and empty nodes but
	// trusts tensor offsets.
	ValidationNormal
	// ValidationNone trusts the header. Only for files from a known source.
	ValidationNone
)

// ParseValidationLevel parses "strict", "normal" or "none".
func ParseValidationLevel(s string) (ValidationLevel, error) {
	switch s {
	case "strict", "":
		return ValidationStrict, nil
	case "normal":
		return ValidationNormal, nil
	case "none":
		return ValidationNone, nil
	default:
		return 0, fmt.Errorf("unknown validation level %q (want strict, normal or none)", s)
	}
}

// String returns the level name.
func (l ValidationLevel) String() string {
	switch l {
	case ValidationStrict:
		return "strict"
	case ValidationNormal:
		return "normal"
	case ValidationNone:
		return "none"
	default:
		return "unknown"
	}
}

// ValidateTensorOffsets checks that every tensor lies inside a data section of
// dataSize bytes and that no two tensors share bytes.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return tooManyTensors(len(tensors))
	}

	byOffset := slices.Clone(tensors)
	slices.SortFunc(byOffset, func(a, b TensorMeta) int { return cmp.Compare(a.Offset, b.Offset) })

	var prev *TensorMeta
	for i := range byOffset {
		t := &byOffset[i]
		switch {
		case t.Offset < 0 || t.Size < 0:
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d", t.Offset, t.Size),
			}
		case t.Offset+t.Size > dataSize:
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", t.Offset, t.Size, dataSize),
			}
		case prev != nil && prev.Offset+prev.Size > t.Offset:
			return &ValidationError{
				Type:    "offset_overlap",
				Tensor:  prev.Name,
				Tensor2: t.Name,
				Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
					prev.Offset, prev.Offset+prev.Size, t.Offset, t.Offset+t.Size),
			}
		}
		prev = t
	}
	return nil
}

// ValidateTensorName checks a dotted parameter path. The root path "" is
// allowed; separators, parent references and NUL bytes are not.
func ValidateTensorName(name string) error {
	invalid := func(details string) error {
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: details}
	}

	switch {
	case len(name) > MaxTensorNameLen:
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	case strings.Contains(name, ".."):
		return invalid("contains '..'")
	case strings.ContainsAny(name, `/\`):
		return invalid("contains path separator (/ or \\)")
	case strings.ContainsRune(name, 0):
		return invalid("contains null byte")
	}
	return nil
}

// ValidateTensorMeta checks the parameter metadata of one tensor: a declared
// kind must exist and agree with the stored data type.
func ValidateTensorMeta(t TensorMeta) error {
	if t.Kind == "" {
		return nil
	}
	kind, err := tensor.ParseKind(t.Kind)
	if err != nil {
		return &ValidationError{Type: "invalid_kind", Tensor: t.Name, Details: err.Error()}
	}
	dtype, ok := stringToDtype(t.DType)
	if !ok {
		return nil // reported as ErrUnknownDType when the entry is decoded
	}

	var agrees bool
	switch kind {
	case tensor.KindFloat:
		agrees = dtype.IsFloat()
	case tensor.KindInt:
		agrees = dtype.IsInt()
	default:
		agrees = dtype == tensor.Bool
	}
	if !agrees {
		return &ValidationError{
			Type:    "invalid_kind",
			Tensor:  t.Name,
			Details: fmt.Sprintf("%s parameter stored as %s", t.Kind, t.DType),
		}
	}
	return nil
}

// ValidateEmptyNodes checks the paths of parameterless struct nodes. Each must
// be a valid non-root path, appear once, and neither contain nor sit below a
// tensor.
func ValidateEmptyNodes(nodes []string, tensors []TensorMeta) error {
	seen := make(map[string]struct{}, len(nodes))
	for _, node := range nodes {
		if err := ValidateTensorName(node); err != nil {
			return err
		}
		if node == "" {
			return &ValidationError{Type: "invalid_node", Details: "root cannot be an empty node"}
		}
		if _, dup := seen[node]; dup {
			return &ValidationError{Type: "invalid_node", Tensor: node, Details: "duplicate empty node"}
		}
		seen[node] = struct{}{}

		for _, t := range tensors {
			if t.Name == "" || underPath(t.Name, node) || underPath(node, t.Name) {
				return &ValidationError{
					Type:    "invalid_node",
					Tensor:  node,
					Tensor2: t.Name,
					Details: "empty node overlaps a tensor path",
				}
			}
		}
	}
	return nil
}

// underPath reports whether path equals prefix or lies below it.
func underPath(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+".")
}

// ValidateHeader runs the checks level selects against a decoded header.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}
	if len(h.Tensors) > MaxTensorCount {
		return tooManyTensors(len(h.Tensors))
	}

	names := make(map[string]struct{}, len(h.Tensors))
	ids := make(map[string]string, len(h.Tensors))
	for _, t := range h.Tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
		if _, dup := names[t.Name]; dup {
			return &ValidationError{Type: "invalid_name", Tensor: t.Name, Details: "duplicate tensor name"}
		}
		names[t.Name] = struct{}{}

		if err := ValidateTensorMeta(t); err != nil {
			return err
		}
		if t.ID == "" {
			continue
		}
		if other, dup := ids[t.ID]; dup {
			return &ValidationError{
				Type:    "duplicate_id",
				Tensor:  other,
				Tensor2: t.Name,
				Details: fmt.Sprintf("both carry parameter id %s", t.ID),
			}
		}
		ids[t.ID] = t.Name
	}

	if err := ValidateEmptyNodes(h.EmptyNodes, h.Tensors); err != nil {
		return err
	}

	if level == ValidationStrict {
		return ValidateTensorOffsets(h.Tensors, dataSize)
	}
	return nil
}

func tooManyTensors(n int) error {
	return &ValidationError{
		Type:    "too_many_tensors",
		Details: fmt.Sprintf("got %d, max %d", n, MaxTensorCount),
	}
}
