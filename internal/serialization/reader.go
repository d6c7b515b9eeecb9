package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/mixprec/internal/tensor"
)

// ReaderOptions configures the behavior of Decode and ReadFile.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// DefaultReaderOptions verifies checksums and validates strictly.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{ValidationLevel: ValidationStrict}
}

// ReadFile reads and decodes the .born file at path.
func ReadFile(path string, opts ReaderOptions) (*File, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = f.Close() // Read-only, close error carries no information
	}()

	return Decode(bufio.NewReader(f), opts)
}

// Decode reads a complete v1 or v2 .born stream.
func Decode(reader io.Reader, opts ReaderOptions) (*File, error) {
	prefix := make([]byte, 8)
	if _, err := io.ReadFull(reader, prefix); err != nil {
		return nil, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	if string(prefix[0:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}

	file := &File{Version: binary.LittleEndian.Uint32(prefix[4:8])}

	var (
		headerSize uint64
		dataSize   int64 = -1
		fixedSize  int
	)
	switch file.Version {
	case FormatVersion:
		rest := make([]byte, FixedHeaderSizeV1-8)
		if _, err := io.ReadFull(reader, rest); err != nil {
			return nil, fmt.Errorf("failed to read fixed header: %w", err)
		}
		file.Flags = binary.LittleEndian.Uint32(rest[0:4])
		headerSize = binary.LittleEndian.Uint64(rest[4:12])
		fixedSize = FixedHeaderSizeV1
	case FormatVersionV2:
		rest := make([]byte, FixedHeaderSizeV2-8)
		if _, err := io.ReadFull(reader, rest); err != nil {
			return nil, fmt.Errorf("failed to read fixed header: %w", err)
		}
		file.Flags = binary.LittleEndian.Uint32(rest[0:4])
		headerSize = binary.LittleEndian.Uint64(rest[8:16])
		size := binary.LittleEndian.Uint64(rest[16:24])
		if size > 1<<40 {
			return nil, fmt.Errorf("%w: data size %d", ErrOutOfBounds, size)
		}
		dataSize = int64(size) //nolint:gosec // G115: bounded above
		copy(file.Checksum[:], rest[ChecksumOffsetV2-8:ChecksumOffsetV2-8+ChecksumSize])
		fixedSize = FixedHeaderSizeV2
	default:
		return nil, fmt.Errorf("%w: got %d, expected %d or %d", ErrUnsupportedVersion, file.Version, FormatVersion, FormatVersionV2)
	}

	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(reader, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if err := json.Unmarshal(headerBytes, &file.Header); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	pad := padding(int64(fixedSize) + int64(headerSize))
	if _, err := io.CopyN(io.Discard, reader, pad); err != nil {
		return nil, fmt.Errorf("failed to read padding: %w", err)
	}

	var data []byte
	if dataSize >= 0 {
		data = make([]byte, dataSize)
		if _, err := io.ReadFull(reader, data); err != nil {
			return nil, fmt.Errorf("failed to read tensor data: %w", err)
		}
		if !opts.SkipChecksumValidation {
			if err := ValidateChecksum(ComputeChecksum(data), file.Checksum); err != nil {
				return nil, err
			}
		}
	} else {
		var err error
		if data, err = io.ReadAll(reader); err != nil {
			return nil, fmt.Errorf("failed to read tensor data: %w", err)
		}
	}

	if err := ValidateHeader(&file.Header, int64(len(data)), opts.ValidationLevel); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	file.Entries = make([]Entry, 0, len(file.Header.Tensors))
	for _, meta := range file.Header.Tensors {
		e, err := entryFromMeta(meta, data)
		if err != nil {
			return nil, err
		}
		file.Entries = append(file.Entries, e)
	}
	return file, nil
}

// entryFromMeta slices one tensor out of the data section. Bounds are checked
// regardless of the validation level.
func entryFromMeta(meta TensorMeta, data []byte) (Entry, error) {
	dtype, ok := stringToDtype(meta.DType)
	if !ok {
		return Entry{}, fmt.Errorf("tensor %s: %w: %s", meta.Name, ErrUnknownDType, meta.DType)
	}

	shape := tensor.Shape(meta.Shape)
	if err := shape.Validate(); err != nil {
		return Entry{}, fmt.Errorf("invalid shape for tensor %s: %w", meta.Name, err)
	}

	if meta.Offset < 0 || meta.Size < 0 || meta.Offset+meta.Size > int64(len(data)) {
		return Entry{}, &ValidationError{
			Type:    "out_of_bounds",
			Tensor:  meta.Name,
			Details: fmt.Sprintf("offset %d + size %d > data_size %d", meta.Offset, meta.Size, len(data)),
		}
	}

	e := Entry{
		Name:  meta.Name,
		ID:    meta.ID,
		Kind:  meta.Kind,
		DType: dtype,
		Shape: shape.Clone(),
		Data:  append([]byte(nil), data[meta.Offset:meta.Offset+meta.Size]...),
	}
	if int64(e.ByteSize()) != meta.Size {
		return Entry{}, &ValidationError{
			Type:    "size_mismatch",
			Tensor:  meta.Name,
			Details: fmt.Sprintf("%d bytes stored, shape %v of %s needs %d", meta.Size, meta.Shape, meta.DType, e.ByteSize()),
		}
	}
	return e, nil
}
