package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/born-ml/mixprec/internal/tensor"
)

// SafeTensorHeader represents a tensor in the SafeTensors header.
type SafeTensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// WriteSafeTensors writes entries to a SafeTensors file at path.
//
// Format:
// [8 bytes: header_size (uint64 LE)]
// [header_size bytes: JSON header]
// [tensor data: raw bytes]
//
// Tensors are written in alphabetical order by name.
func WriteSafeTensors(path string, entries []Entry, metadata map[string]string) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return EncodeSafeTensors(file, entries, metadata)
}

// EncodeSafeTensors writes entries in SafeTensors format to writer.
func EncodeSafeTensors(writer io.Writer, entries []Entry, metadata map[string]string) error {
	// Sort tensor names alphabetically (SafeTensors requirement)
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	header := make(map[string]any, len(sorted)+1)
	if len(metadata) > 0 {
		header["__metadata__"] = metadata
	}

	var currentOffset int64
	for _, e := range sorted {
		dtype, err := dtypeToSafeTensors(e.DType)
		if err != nil {
			return fmt.Errorf("tensor %s: %w", e.Name, err)
		}

		// Convert shape to []int64 (SafeTensors requirement)
		shape := make([]int64, len(e.Shape))
		for i, dim := range e.Shape {
			shape[i] = int64(dim)
		}

		size := int64(len(e.Data))
		header[e.Name] = SafeTensorHeader{
			DType:       dtype,
			Shape:       shape,
			DataOffsets: [2]int64{currentOffset, currentOffset + size},
		}
		currentOffset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if err := binary.Write(writer, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := writer.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, e := range sorted {
		if _, err := writer.Write(e.Data); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", e.Name, err)
		}
	}
	return nil
}

// dtypeToSafeTensors converts tensor.DataType to SafeTensors dtype string.
func dtypeToSafeTensors(dt tensor.DataType) (string, error) {
	switch dt {
	case tensor.Float16:
		return "F16", nil
	case tensor.Float32:
		return "F32", nil
	case tensor.Float64:
		return "F64", nil
	case tensor.Int16:
		return "I16", nil
	case tensor.Int32:
		return "I32", nil
	case tensor.Int64:
		return "I64", nil
	case tensor.Bool:
		return "BOOL", nil
	default:
		return "", fmt.Errorf("%w: %v", ErrUnknownDType, dt)
	}
}
