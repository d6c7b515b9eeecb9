package record

import (
	"go.uber.org/zap"

	"github.com/born-ml/mixprec/internal/serialization"
)

// Recorder persists Items.
//
// Save converts the item to the storage types of s before writing, so an item
// produced under one setting can be saved under another.
type Recorder interface {
	Save(path string, item *Item, s PrecisionSettings) error
	Load(path string) (*Item, error)
}

// Option configures a recorder.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	reader    serialization.ReaderOptions
	modelType string
	metadata  map[string]string
}

func newOptions(opts []Option) options {
	o := options{
		logger: zap.NewNop(),
		reader: serialization.DefaultReaderOptions(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger logs save and load operations at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithReaderOptions sets checksum and header validation for loading.
func WithReaderOptions(ro serialization.ReaderOptions) Option {
	return func(o *options) { o.reader = ro }
}

// WithModelType records the root module type in the file header.
func WithModelType(modelType string) Option {
	return func(o *options) { o.modelType = modelType }
}

// WithMetadata stores custom key/value pairs in the file header.
func WithMetadata(metadata map[string]string) Option {
	return func(o *options) { o.metadata = metadata }
}
