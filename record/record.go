// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package record persists module parameters independently of backend precision.
//
// PrecisionSettings pick the storage types (half, full or double). Recorders
// write the resulting Items as .born files, YAML documents or byte streams.
//
// Example:
//
//	rec := record.NewFileRecorder(record.WithModelType("Sequential"))
//	err := nn.Save("model.born", model, rec, record.HalfPrecision)
package record

import (
	"go.uber.org/zap"

	"github.com/born-ml/mixprec/internal/record"
)

// Core types.
type (
	PrecisionSettings = record.PrecisionSettings
	Item              = record.Item
	Field             = record.Field
	ParamItem         = record.ParamItem
	Recorder          = record.Recorder
	Option            = record.Option
	Info              = record.Info
	FileRecorder      = record.FileRecorder
	YAMLRecorder      = record.YAMLRecorder
	BytesRecorder     = record.BytesRecorder
)

// Built-in precision settings.
var (
	HalfPrecision   = record.HalfPrecision
	FullPrecision   = record.FullPrecision
	DoublePrecision = record.DoublePrecision
)

// ErrItemMismatch is returned when an item does not have the expected structure.
var ErrItemMismatch = record.ErrItemMismatch

// ParsePrecision returns the setting named "half", "full" or "double".
func ParsePrecision(name string) (PrecisionSettings, error) {
	return record.ParsePrecision(name)
}

// NewFileRecorder creates a .born file recorder.
func NewFileRecorder(opts ...Option) *FileRecorder {
	return record.NewFileRecorder(opts...)
}

// NewYAMLRecorder creates a YAML recorder.
func NewYAMLRecorder(opts ...Option) *YAMLRecorder {
	return record.NewYAMLRecorder(opts...)
}

// NewBytesRecorder creates a stream recorder.
func NewBytesRecorder(opts ...Option) *BytesRecorder {
	return record.NewBytesRecorder(opts...)
}

// WithLogger logs recorder operations at debug level.
func WithLogger(logger *zap.Logger) Option {
	return record.WithLogger(logger)
}

// WithModelType stores the root module type in the file header.
func WithModelType(modelType string) Option {
	return record.WithModelType(modelType)
}

// WithMetadata stores custom key/value pairs in the file header.
func WithMetadata(metadata map[string]string) Option {
	return record.WithMetadata(metadata)
}

// ExportSafeTensors writes item in the SafeTensors format.
func ExportSafeTensors(path string, item *Item, s PrecisionSettings) error {
	return record.ExportSafeTensors(path, item, s)
}
