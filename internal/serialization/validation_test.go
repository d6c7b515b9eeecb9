package serialization

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name     string
		tensors  []TensorMeta
		dataSize int64
		wantErr  error
	}{
		{
			name: "adjacent regions",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 100},
				{Name: "b", Offset: 100, Size: 100},
			},
			dataSize: 200,
		},
		{
			name: "overlap by one byte",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 100},
				{Name: "b", Offset: 99, Size: 100},
			},
			dataSize: 200,
			wantErr:  ErrOffsetOverlap,
		},
		{
			name:     "past the end",
			tensors:  []TensorMeta{{Name: "a", Offset: 150, Size: 100}},
			dataSize: 200,
			wantErr:  ErrOutOfBounds,
		},
		{
			name:     "negative size",
			tensors:  []TensorMeta{{Name: "a", Offset: 0, Size: -1}},
			dataSize: 200,
			wantErr:  ErrOutOfBounds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, tt.dataSize)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTensorName(t *testing.T) {
	valid := []string{"weight", "0.weight", "linear.mask", "running_mean", ""}
	for _, name := range valid {
		if err := ValidateTensorName(name); err != nil {
			t.Errorf("ValidateTensorName(%q) = %v", name, err)
		}
	}

	invalid := []string{"../etc/passwd", "a/b", "a\\b", "x\x00y", strings.Repeat("a", MaxTensorNameLen+1)}
	for _, name := range invalid {
		if err := ValidateTensorName(name); !errors.Is(err, ErrInvalidTensorName) {
			t.Errorf("ValidateTensorName(%q) = %v, want ErrInvalidTensorName", name, err)
		}
	}
}

func TestValidateHeaderLevels(t *testing.T) {
	overlapping := Header{Tensors: []TensorMeta{
		{Name: "a", Offset: 0, Size: 100},
		{Name: "b", Offset: 50, Size: 100},
	}}

	if err := ValidateHeader(&overlapping, 200, ValidationNormal); err != nil {
		t.Errorf("normal validation should skip offsets, got %v", err)
	}
	if err := ValidateHeader(&overlapping, 200, ValidationStrict); err == nil {
		t.Error("strict validation should reject overlapping tensors")
	}

	duplicate := Header{Tensors: []TensorMeta{
		{Name: "a", Offset: 0, Size: 4},
		{Name: "a", Offset: 4, Size: 4},
	}}
	if err := ValidateHeader(&duplicate, 8, ValidationNormal); !errors.Is(err, ErrInvalidTensorName) {
		t.Errorf("duplicate names: got %v", err)
	}

	hostile := Header{Tensors: []TensorMeta{{Name: "../../x", Offset: -1, Size: -1}}}
	if err := ValidateHeader(&hostile, 0, ValidationNone); err != nil {
		t.Errorf("ValidationNone should skip all checks, got %v", err)
	}
}

func TestValidateHeaderParamMeta(t *testing.T) {
	tests := []struct {
		name    string
		tensors []TensorMeta
		wantErr bool
	}{
		{"kind agrees", []TensorMeta{{Name: "w", ID: "a", Kind: "float", DType: DTypeFloat16, Size: 2}}, false},
		{"legacy entry without kind", []TensorMeta{{Name: "w", DType: DTypeInt32, Size: 4}}, false},
		{"unknown kind", []TensorMeta{{Name: "w", Kind: "complex", DType: DTypeFloat32, Size: 4}}, true},
		{"float kind stored as int", []TensorMeta{{Name: "w", Kind: "float", DType: DTypeInt16, Size: 2}}, true},
		{"bool kind stored as float", []TensorMeta{{Name: "m", Kind: "bool", DType: DTypeFloat32, Size: 4}}, true},
		{"duplicate id", []TensorMeta{
			{Name: "a", ID: "same", Kind: "float", DType: DTypeFloat32, Offset: 0, Size: 4},
			{Name: "b", ID: "same", Kind: "float", DType: DTypeFloat32, Offset: 4, Size: 4},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Header{Tensors: tt.tensors}
			err := ValidateHeader(&h, 8, ValidationNormal)
			if tt.wantErr && !errors.Is(err, ErrInvalidParamMeta) {
				t.Errorf("got %v, want ErrInvalidParamMeta", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateEmptyNodes(t *testing.T) {
	tensors := []TensorMeta{{Name: "0.weight"}, {Name: "0.bias"}}

	if err := ValidateEmptyNodes([]string{"1", "0.norm"}, tensors); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	for _, nodes := range [][]string{{"0"}, {"0.weight"}, {"0.weight.x"}, {""}, {"1", "1"}, {"../x"}} {
		if err := ValidateEmptyNodes(nodes, tensors); !errors.Is(err, ErrInvalidTensorName) {
			t.Errorf("ValidateEmptyNodes(%q) = %v, want ErrInvalidTensorName", nodes, err)
		}
	}

	root := []TensorMeta{{Name: ""}}
	if err := ValidateEmptyNodes([]string{"x"}, root); err == nil {
		t.Error("empty node next to a root tensor should be rejected")
	}
}

func TestParseValidationLevel(t *testing.T) {
	for _, level := range []ValidationLevel{ValidationStrict, ValidationNormal, ValidationNone} {
		got, err := ParseValidationLevel(level.String())
		if err != nil || got != level {
			t.Errorf("ParseValidationLevel(%q) = %v, %v", level, got, err)
		}
	}
	if _, err := ParseValidationLevel("paranoid"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Type: "offset_overlap", Tensor: "a", Tensor2: "b", Details: "regions [0-100] and [50-150] overlap"}
	want := `offset_overlap: tensors "a" and "b": regions [0-100] and [50-150] overlap`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

// FuzzValidateTensorName ensures name validation never panics on random input.
func FuzzValidateTensorName(f *testing.F) {
	f.Add("normal_tensor_name")
	f.Add("../malicious")
	f.Add("\x00null_byte")

	f.Fuzz(func(_ *testing.T, name string) {
		_ = ValidateTensorName(name)
	})
}
