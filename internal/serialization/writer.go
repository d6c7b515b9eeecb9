package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

const bornVersion = "0.6.0" // Version recorded in written headers

// BornWriter writes models in .born format.
type BornWriter struct {
	file   *os.File
	closed bool
}

// NewBornWriter creates a new .born file writer.
func NewBornWriter(path string) (*BornWriter, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &BornWriter{file: file}, nil
}

// WriteEntries writes entries in order with the given header.
func (w *BornWriter) WriteEntries(entries []Entry, header Header) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}
	return Encode(w.file, entries, header)
}

// Close closes the writer and the underlying file.
func (w *BornWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// WriteFile writes a complete .born file at path.
func WriteFile(path string, entries []Entry, header Header) (err error) {
	w, err := NewBornWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return w.WriteEntries(entries, header)
}

// Encode writes entries to writer in .born format.
//
// header.FormatVersion selects the layout: FormatVersion writes v1 (no
// checksum); zero or FormatVersionV2 writes v2 with a SHA-256 checksum of the
// data section. Tensors, BornVersion and CreatedAt are filled in by Encode.
//
//	v2 layout:
//	  0x00 magic "BORN" | 0x04 version | 0x08 flags | 0x0C reserved
//	  0x10 header size  | 0x18 data size | 0x20 SHA-256 of data
//	  0x40 JSON header, zero padding to 64 bytes, tensor data
func Encode(writer io.Writer, entries []Entry, header Header) error {
	version := uint32(FormatVersionV2)
	if header.FormatVersion == FormatVersion {
		version = FormatVersion
	}
	header.FormatVersion = int(version)
	header.BornVersion = bornVersion
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	// Calculate tensor offsets and collect tensor data
	var data bytes.Buffer
	header.Tensors = make([]TensorMeta, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		if err := ValidateTensorName(e.Name); err != nil {
			return err
		}
		if len(e.Data) != e.ByteSize() {
			return fmt.Errorf("tensor %s: %d bytes for shape %v of %s", e.Name, len(e.Data), e.Shape, e.DType)
		}

		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   e.Name,
			ID:     e.ID,
			Kind:   e.Kind,
			DType:  dtypeToString(e.DType),
			Shape:  e.Shape,
			Offset: int64(data.Len()),
			Size:   int64(len(e.Data)),
		})
		data.Write(e.Data)
	}

	if err := ValidateEmptyNodes(header.EmptyNodes, header.Tensors); err != nil {
		return err
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	for _, e := range entries {
		if e.ID != "" {
			flags |= FlagHasParamIDs
			break
		}
	}

	var fixed []byte
	if version == FormatVersion {
		fixed = make([]byte, FixedHeaderSizeV1)
		copy(fixed[0:4], MagicBytes)
		binary.LittleEndian.PutUint32(fixed[4:8], version)
		binary.LittleEndian.PutUint32(fixed[8:12], flags)
		binary.LittleEndian.PutUint64(fixed[12:20], uint64(len(headerJSON)))
	} else {
		checksum := ComputeChecksum(data.Bytes())
		fixed = make([]byte, FixedHeaderSizeV2)
		copy(fixed[0:4], MagicBytes)
		binary.LittleEndian.PutUint32(fixed[4:8], version)
		binary.LittleEndian.PutUint32(fixed[8:12], flags)
		binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
		binary.LittleEndian.PutUint64(fixed[24:32], uint64(data.Len()))
		copy(fixed[ChecksumOffsetV2:ChecksumOffsetV2+ChecksumSize], checksum[:])
	}

	if _, err := writer.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := writer.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}

	pad := padding(int64(len(fixed)) + int64(len(headerJSON)))
	if pad > 0 {
		if _, err := writer.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := writer.Write(data.Bytes()); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}
