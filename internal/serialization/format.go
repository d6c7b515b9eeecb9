package serialization

import (
	"fmt"
	"time"

	"github.com/born-ml/mixprec/internal/tensor"
)

// Format constants.
const (
	MagicBytes        = "BORN"
	FormatVersion     = 1    // v1: Basic format without checksum
	FormatVersionV2   = 2    // v2: With SHA-256 checksum
	HeaderAlignment   = 64   // Align tensor data to 64 bytes
	FixedHeaderSizeV1 = 20   // magic + version + flags + header size
	FixedHeaderSizeV2 = 64   // v2 fixed header size (0x40 bytes)
	ChecksumSize      = 32   // SHA-256 checksum size (32 bytes)
	ChecksumOffsetV2  = 0x20 // Checksum offset in v2 fixed header
)

// Data type string constants for serialization.
const (
	DTypeFloat16 = "float16"
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeInt16   = "int16"
	DTypeInt32   = "int32"
	DTypeInt64   = "int64"
	DTypeBool    = "bool"
)

// Flags for the .born format.
const (
	FlagCompressed  uint32 = 1 << 0 // bit 0: gzip compression (reserved)
	FlagHasParamIDs uint32 = 1 << 1 // bit 1: tensors carry parameter identities
	FlagHasMetadata uint32 = 1 << 2 // bit 2: custom metadata included
)

// Header represents the JSON header in a .born file.
type Header struct {
	FormatVersion int               `json:"format_version"`        // Version of the .born format
	BornVersion   string            `json:"born_version"`          // Version of Born that created this file
	ModelType     string            `json:"model_type"`            // Type of the root module (e.g. "Sequential")
	Precision     string            `json:"precision,omitempty"`   // Precision setting used for float/int storage
	CreatedAt     time.Time         `json:"created_at"`            // When the file was created
	Tensors       []TensorMeta      `json:"tensors"`               // Tensor metadata, in file order
	EmptyNodes    []string          `json:"empty_nodes,omitempty"` // Paths of struct nodes without parameters
	Metadata      map[string]string `json:"metadata"`              // Custom metadata
}

// TensorMeta describes a tensor in the .born file.
type TensorMeta struct {
	Name   string `json:"name"`           // Dotted path (e.g. "0.weight")
	ID     string `json:"id,omitempty"`   // Parameter identity
	Kind   string `json:"kind,omitempty"` // "float", "int" or "bool"
	DType  string `json:"dtype"`          // Data type (e.g. "float16")
	Shape  []int  `json:"shape"`          // Tensor shape
	Offset int64  `json:"offset"`         // Offset in the data section
	Size   int64  `json:"size"`           // Size in bytes
}

// Entry is one tensor to write or one tensor read back.
type Entry struct {
	Name  string
	ID    string
	Kind  string
	DType tensor.DataType
	Shape []int
	Data  []byte // Little-endian element data
}

// ByteSize returns the size the entry's shape and dtype require.
func (e *Entry) ByteSize() int {
	return tensor.Shape(e.Shape).NumElements() * e.DType.Size()
}

// File is a decoded .born file.
type File struct {
	Version  uint32
	Flags    uint32
	Checksum [32]byte // Zero for v1 files
	Header   Header
	Entries  []Entry
}

// Entry returns the entry called name.
func (f *File) Entry(name string) (*Entry, error) {
	for i := range f.Entries {
		if f.Entries[i].Name == name {
			return &f.Entries[i], nil
		}
	}
	return nil, fmt.Errorf("tensor %s not found", name)
}

// dtypeToString converts tensor.DataType to its serialized name.
func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float16:
		return DTypeFloat16
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	case tensor.Int16:
		return DTypeInt16
	case tensor.Int32:
		return DTypeInt32
	case tensor.Int64:
		return DTypeInt64
	case tensor.Bool:
		return DTypeBool
	default:
		return "unknown"
	}
}

// stringToDtype converts a serialized name to tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat16:
		return tensor.Float16, true
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	case DTypeInt16:
		return tensor.Int16, true
	case DTypeInt32:
		return tensor.Int32, true
	case DTypeInt64:
		return tensor.Int64, true
	case DTypeBool:
		return tensor.Bool, true
	default:
		return 0, false
	}
}

// padding returns the zero bytes needed to align pos to HeaderAlignment.
func padding(pos int64) int64 {
	return (HeaderAlignment - (pos % HeaderAlignment)) % HeaderAlignment
}
