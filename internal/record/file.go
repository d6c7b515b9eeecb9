package record

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/born-ml/mixprec/internal/serialization"
)

// Info describes a persisted record.
type Info struct {
	Version   uint32
	ModelType string
	Precision string
	CreatedAt time.Time
	Metadata  map[string]string
}

// FileRecorder stores items in .born v2 files with a SHA-256 checksum.
//
// The item tree is flattened to dotted tensor names; parameter identities
// and kinds are kept per tensor.
//
// Example:
//
//	rec := record.NewFileRecorder(record.WithLogger(logger))
//	err := rec.Save("model.born", item, record.HalfPrecision)
type FileRecorder struct {
	opts options
}

// NewFileRecorder creates a .born file recorder.
func NewFileRecorder(opts ...Option) *FileRecorder {
	return &FileRecorder{opts: newOptions(opts)}
}

// Save writes item to path using the storage types of s.
func (r *FileRecorder) Save(path string, item *Item, s PrecisionSettings) error {
	entries, err := encodeEntries(item, s)
	if err != nil {
		return err
	}
	if err := serialization.WriteFile(path, entries, newHeader(r.opts, item, s)); err != nil {
		return err
	}

	r.opts.logger.Debug("record saved",
		zap.String("path", path),
		zap.Int("params", len(entries)),
		zap.Stringer("precision", s))
	return nil
}

// Load reads the item stored at path.
func (r *FileRecorder) Load(path string) (*Item, error) {
	item, _, err := r.Inspect(path)
	return item, err
}

// Inspect reads the item stored at path together with its header information.
func (r *FileRecorder) Inspect(path string) (*Item, Info, error) {
	file, err := serialization.ReadFile(path, r.opts.reader)
	if err != nil {
		return nil, Info{}, err
	}
	item, info, err := decodeFile(file)
	if err != nil {
		return nil, Info{}, fmt.Errorf("%s: %w", path, err)
	}

	r.opts.logger.Debug("record loaded",
		zap.String("path", path),
		zap.Int("params", len(file.Entries)),
		zap.String("precision", info.Precision),
		zap.Uint32("version", info.Version))
	return item, info, nil
}

func newHeader(opts options, item *Item, s PrecisionSettings) serialization.Header {
	return serialization.Header{
		ModelType:  opts.modelType,
		Precision:  s.Name,
		EmptyNodes: item.EmptyNodes(),
		Metadata:   opts.metadata,
	}
}

// BytesRecorder encodes items in the .born format to and from streams.
type BytesRecorder struct {
	opts options
}

// NewBytesRecorder creates an in-memory recorder.
func NewBytesRecorder(opts ...Option) *BytesRecorder {
	return &BytesRecorder{opts: newOptions(opts)}
}

// Encode writes item to w using the storage types of s.
func (r *BytesRecorder) Encode(w io.Writer, item *Item, s PrecisionSettings) error {
	entries, err := encodeEntries(item, s)
	if err != nil {
		return err
	}
	return serialization.Encode(w, entries, newHeader(r.opts, item, s))
}

// Decode reads an item written by Encode.
func (r *BytesRecorder) Decode(rd io.Reader) (*Item, error) {
	file, err := serialization.Decode(rd, r.opts.reader)
	if err != nil {
		return nil, err
	}
	item, _, err := decodeFile(file)
	return item, err
}

// ToBytes encodes item into a new byte slice.
func (r *BytesRecorder) ToBytes(item *Item, s PrecisionSettings) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Encode(&buf, item, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FromBytes decodes an item from data.
func (r *BytesRecorder) FromBytes(data []byte) (*Item, error) {
	return r.Decode(bytes.NewReader(data))
}

func encodeEntries(item *Item, s PrecisionSettings) ([]serialization.Entry, error) {
	converted, err := item.Convert(s)
	if err != nil {
		return nil, err
	}
	return toEntries(converted)
}

func decodeFile(file *serialization.File) (*Item, Info, error) {
	item, err := fromEntries(file.Entries, file.Header.EmptyNodes)
	if err != nil {
		return nil, Info{}, err
	}
	return item, Info{
		Version:   file.Version,
		ModelType: file.Header.ModelType,
		Precision: file.Header.Precision,
		CreatedAt: file.Header.CreatedAt,
		Metadata:  file.Header.Metadata,
	}, nil
}

// ExportSafeTensors writes item to path in SafeTensors format using the
// storage types of s. The export is one-way: SafeTensors has no place for
// parameter identities, so the tensors are keyed by dotted path only.
func ExportSafeTensors(path string, item *Item, s PrecisionSettings) error {
	entries, err := encodeEntries(item, s)
	if err != nil {
		return err
	}
	return serialization.WriteSafeTensors(path, entries, map[string]string{
		"format":    "born",
		"precision": s.Name,
	})
}
