package record

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/mixprec/internal/tensor"
)

// YAMLRecorder stores items as human-readable YAML.
//
// Values are written as decimal numbers after conversion to the storage
// types of the precision setting, so a reload reproduces them bit for bit.
type YAMLRecorder struct {
	opts options
}

// NewYAMLRecorder creates a YAML recorder.
func NewYAMLRecorder(opts ...Option) *YAMLRecorder {
	return &YAMLRecorder{opts: newOptions(opts)}
}

type yamlDocument struct {
	Precision string            `yaml:"precision"`
	ModelType string            `yaml:"model_type,omitempty"`
	Metadata  map[string]string `yaml:"metadata,omitempty"`
	Params    []yamlParam       `yaml:"params"`
	Empty     []string          `yaml:"empty,omitempty"`
}

type yamlParam struct {
	Path   string    `yaml:"path"`
	ID     string    `yaml:"id"`
	Kind   string    `yaml:"kind"`
	DType  string    `yaml:"dtype"`
	Shape  []int     `yaml:"shape,flow"`
	Floats []float64 `yaml:"floats,omitempty,flow"`
	Ints   []int64   `yaml:"ints,omitempty,flow"`
	Bools  []bool    `yaml:"bools,omitempty,flow"`
}

// Save writes item to path using the storage types of s.
func (r *YAMLRecorder) Save(path string, item *Item, s PrecisionSettings) error {
	converted, err := item.Convert(s)
	if err != nil {
		return err
	}

	doc := yamlDocument{
		Precision: s.Name,
		ModelType: r.opts.modelType,
		Metadata:  r.opts.metadata,
		Empty:     converted.EmptyNodes(),
	}
	err = converted.Walk(func(p string, param *ParamItem) error {
		yp, err := toYAMLParam(p, param)
		if err != nil {
			return err
		}
		doc.Params = append(doc.Params, yp)
		return nil
	})
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}

	r.opts.logger.Debug("record saved",
		zap.String("path", path),
		zap.Int("params", len(doc.Params)),
		zap.Stringer("precision", s),
		zap.String("format", "yaml"))
	return nil
}

// Load reads an item written by Save.
func (r *YAMLRecorder) Load(path string) (*Item, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	params := make(map[string]*ParamItem, len(doc.Params))
	order := make([]string, 0, len(doc.Params))
	for _, yp := range doc.Params {
		p, err := yp.paramItem()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if _, dup := params[yp.Path]; dup {
			return nil, fmt.Errorf("%s: %w: duplicate path %q", path, ErrItemMismatch, yp.Path)
		}
		params[yp.Path] = p
		order = append(order, yp.Path)
	}

	r.opts.logger.Debug("record loaded",
		zap.String("path", path),
		zap.Int("params", len(order)),
		zap.String("precision", doc.Precision),
		zap.String("format", "yaml"))
	return Unflatten(params, order, doc.Empty...)
}

func toYAMLParam(path string, p *ParamItem) (yamlParam, error) {
	yp := yamlParam{Path: path, ID: p.ID, Kind: p.Kind, DType: p.DType, Shape: p.Shape}

	dtype, err := tensor.ParseDataType(p.DType)
	if err != nil {
		return yamlParam{}, fmt.Errorf("param %s: %w", path, err)
	}
	raw, err := tensor.NewRawFromLittleEndian(tensor.Shape(p.Shape), dtype, tensor.DefaultCPU, p.Data)
	if err != nil {
		return yamlParam{}, fmt.Errorf("param %s: %w", path, err)
	}

	switch {
	case dtype.IsFloat():
		yp.Floats = tensor.ToFloat64s(raw)
	case dtype.IsInt():
		yp.Ints = tensor.ToInt64s(raw)
	default:
		yp.Bools = append([]bool(nil), raw.AsBool()...)
	}
	return yp, nil
}

func (yp yamlParam) paramItem() (*ParamItem, error) {
	dtype, err := tensor.ParseDataType(yp.DType)
	if err != nil {
		return nil, fmt.Errorf("param %s: %w", yp.Path, err)
	}
	if _, err := tensor.ParseKind(yp.Kind); err != nil {
		return nil, fmt.Errorf("param %s: %w", yp.Path, err)
	}

	shape := tensor.Shape(yp.Shape)
	var raw *tensor.RawTensor
	switch {
	case dtype.IsFloat():
		raw, err = rawFromValues(shape, dtype, yp.Floats, tensor.Float64, func(r *tensor.RawTensor) { copy(r.AsFloat64(), yp.Floats) })
	case dtype.IsInt():
		raw, err = rawFromValues(shape, dtype, yp.Ints, tensor.Int64, func(r *tensor.RawTensor) { copy(r.AsInt64(), yp.Ints) })
	default:
		raw, err = rawFromValues(shape, dtype, yp.Bools, tensor.Bool, func(r *tensor.RawTensor) { copy(r.AsBool(), yp.Bools) })
	}
	if err != nil {
		return nil, fmt.Errorf("param %s: %w", yp.Path, err)
	}

	return &ParamItem{
		ID:    yp.ID,
		Kind:  yp.Kind,
		DType: dtype.String(),
		Shape: append([]int(nil), yp.Shape...),
		Data:  raw.LittleEndianBytes(),
	}, nil
}

// rawFromValues fills a wide staging tensor and casts it to dtype.
func rawFromValues[T any](shape tensor.Shape, dtype tensor.DataType, vals []T, staging tensor.DataType, fill func(*tensor.RawTensor)) (*tensor.RawTensor, error) {
	if len(vals) != shape.NumElements() {
		return nil, fmt.Errorf("%w: shape %v needs %d values, got %d", ErrItemMismatch, shape, shape.NumElements(), len(vals))
	}
	raw, err := tensor.NewRaw(shape, staging, tensor.DefaultCPU)
	if err != nil {
		return nil, err
	}
	fill(raw)
	return tensor.CheckedCast(raw, dtype)
}
