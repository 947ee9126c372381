package serialization

import (
	"errors"
	"strings"
	"testing"
)

// meta builds a well-formed float64 table entry.
func meta(name string, offset int64, shape ...int) TensorMeta {
	m := TensorMeta{Name: name, DType: DTypeFloat64, Shape: shape, Offset: offset}
	m.Size = int64(m.Elements() * ElementSize)
	return m
}

func validationType(err error) string {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return ""
	}
	return ve.Type
}

// TestValidateTensorOffsets checks layout rules of the data section.
func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name     string
		tensors  []TensorMeta
		dataSize int64
		wantType string
	}{
		{
			name:     "contiguous",
			tensors:  []TensorMeta{{Name: "a", Offset: 0, Size: 80}, {Name: "b", Offset: 80, Size: 160}},
			dataSize: 240,
		},
		{
			name:     "unsorted table",
			tensors:  []TensorMeta{{Name: "b", Offset: 80, Size: 80}, {Name: "a", Offset: 0, Size: 80}},
			dataSize: 160,
		},
		{
			name:     "overlap by one byte",
			tensors:  []TensorMeta{{Name: "a", Offset: 0, Size: 80}, {Name: "b", Offset: 79, Size: 8}},
			dataSize: 160,
			wantType: "offset_overlap",
		},
		{
			name:     "past the end",
			tensors:  []TensorMeta{{Name: "a", Offset: 80, Size: 88}},
			dataSize: 160,
			wantType: "out_of_bounds",
		},
		{
			name:     "negative offset",
			tensors:  []TensorMeta{{Name: "a", Offset: -8, Size: 8}},
			dataSize: 160,
			wantType: "negative_offset",
		},
		{
			name:     "negative size",
			tensors:  []TensorMeta{{Name: "a", Offset: 0, Size: -8}},
			dataSize: 160,
			wantType: "negative_offset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, tt.dataSize)
			if tt.wantType == "" {
				if err != nil {
					t.Errorf("ValidateTensorOffsets() unexpected error: %v", err)
				}
				return
			}
			if got := validationType(err); got != tt.wantType {
				t.Errorf("ValidateTensorOffsets() error = %v, want type %s", err, tt.wantType)
			}
		})
	}
}

// TestValidateTensorOffsets_TooManyTensors bounds the table size.
func TestValidateTensorOffsets_TooManyTensors(t *testing.T) {
	tensors := make([]TensorMeta, MaxTensorCount+1)
	err := ValidateTensorOffsets(tensors, 0)
	if got := validationType(err); got != "too_many_tensors" {
		t.Errorf("Expected too_many_tensors, got %v", err)
	}
}

// TestValidateTensorName rejects path-like and malformed names.
func TestValidateTensorName(t *testing.T) {
	bad := []string{
		"",
		"../../../etc/passwd",
		"..\\..\\windows",
		"hidden/../secret",
		"layer/0/weight",
		"layer\\weight",
		"tensor\x00hidden",
		strings.Repeat("a", MaxTensorNameLen+1),
	}
	for _, name := range bad {
		err := ValidateTensorName(name)
		if !errors.Is(err, ErrInvalidTensorName) {
			t.Errorf("ValidateTensorName(%q) = %v, want ErrInvalidTensorName", name, err)
		}
	}

	good := []string{"w", "hidden.weight", "hidden.bias", "exp#3", "output:logits", strings.Repeat("a", MaxTensorNameLen)}
	for _, name := range good {
		if err := ValidateTensorName(name); err != nil {
			t.Errorf("ValidateTensorName(%q) unexpected error: %v", name, err)
		}
	}
}

// TestValidateTensorShape checks dtype, rank and byte size.
func TestValidateTensorShape(t *testing.T) {
	tests := []struct {
		name     string
		meta     TensorMeta
		wantType string
	}{
		{name: "flat", meta: meta("a", 0, 3)},
		{name: "matrix", meta: meta("a", 0, 2, 3)},
		{name: "empty", meta: meta("a", 0, 0)},
		{name: "float32", meta: TensorMeta{Name: "a", DType: "float32", Shape: []int{1}, Size: 4}, wantType: "bad_dtype"},
		{name: "rank 3", meta: meta("a", 0, 1, 2, 3), wantType: "bad_shape"},
		{name: "scalar", meta: TensorMeta{Name: "a", DType: DTypeFloat64, Size: 8}, wantType: "bad_shape"},
		{name: "negative dim", meta: TensorMeta{Name: "a", DType: DTypeFloat64, Shape: []int{-1, -8}, Size: 64}, wantType: "bad_shape"},
		{name: "size mismatch", meta: TensorMeta{Name: "a", DType: DTypeFloat64, Shape: []int{3}, Size: 16}, wantType: "bad_shape"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorShape(tt.meta)
			if got := validationType(err); got != tt.wantType {
				t.Errorf("ValidateTensorShape() error = %v, want type %q", err, tt.wantType)
			}
		})
	}
}

// TestValidateHeader_Levels checks what each level inspects.
func TestValidateHeader_Levels(t *testing.T) {
	overlapping := &Header{Tensors: []TensorMeta{meta("a", 0, 4), meta("b", 16, 4)}}
	badName := &Header{Tensors: []TensorMeta{meta("../a", 0, 4)}}
	duplicate := &Header{Tensors: []TensorMeta{meta("a", 0, 4), meta("a", 32, 4)}}
	sound := &Header{Tensors: []TensorMeta{meta("a", 0, 4), meta("b", 32, 2, 2)}}

	if err := ValidateHeader(sound, 64, ValidationStrict); err != nil {
		t.Errorf("Strict: unexpected error for sound header: %v", err)
	}
	if got := validationType(ValidateHeader(overlapping, 48, ValidationStrict)); got != "offset_overlap" {
		t.Errorf("Strict: expected offset_overlap, got %q", got)
	}
	if err := ValidateHeader(overlapping, 48, ValidationNormal); err != nil {
		t.Errorf("Normal: offsets should not be checked, got %v", err)
	}
	if got := validationType(ValidateHeader(badName, 32, ValidationNormal)); got != "invalid_name" {
		t.Errorf("Normal: expected invalid_name, got %q", got)
	}
	if got := validationType(ValidateHeader(duplicate, 64, ValidationNormal)); got != "duplicate_name" {
		t.Errorf("Normal: expected duplicate_name, got %q", got)
	}
	for _, h := range []*Header{overlapping, badName, duplicate} {
		if err := ValidateHeader(h, 0, ValidationNone); err != nil {
			t.Errorf("None: expected no checks, got %v", err)
		}
	}
}

// TestValidationError_ErrorMessages verifies error message formatting.
func TestValidationError_ErrorMessages(t *testing.T) {
	tests := []struct {
		err      *ValidationError
		expected string
	}{
		{
			err:      &ValidationError{Type: "out_of_bounds", Tensor: "hidden.weight", Details: "offset 80 + size 160 > data_size 200"},
			expected: `out_of_bounds: tensor "hidden.weight": offset 80 + size 160 > data_size 200`,
		},
		{
			err:      &ValidationError{Type: "offset_overlap", Tensor: "a", Tensor2: "b", Details: "regions [0-80] and [40-120] overlap"},
			expected: `offset_overlap: tensors "a" and "b": regions [0-80] and [40-120] overlap`,
		},
		{
			err:      &ValidationError{Type: "too_many_tensors", Details: "got 100001, max 100000"},
			expected: "too_many_tensors: got 100001, max 100000",
		},
	}
	for _, tt := range tests {
		if actual := tt.err.Error(); actual != tt.expected {
			t.Errorf("Error message mismatch\nExpected: %s\nGot:      %s", tt.expected, actual)
		}
	}
}

// FuzzValidateTensorName ensures name validation never panics on random input.
func FuzzValidateTensorName(f *testing.F) {
	f.Add("hidden.weight")
	f.Add("../malicious")
	f.Add("path/to/tensor")
	f.Add("\x00null_byte")

	f.Fuzz(func(_ *testing.T, name string) {
		_ = ValidateTensorName(name)
	})
}

// FuzzValidateTensorOffsets ensures offset validation never panics.
func FuzzValidateTensorOffsets(f *testing.F) {
	f.Add(int64(0), int64(80), int64(160))
	f.Add(int64(-80), int64(40), int64(1000))
	f.Add(int64(80), int64(-40), int64(1000))

	f.Fuzz(func(_ *testing.T, offset, size, dataSize int64) {
		_ = ValidateTensorOffsets([]TensorMeta{{Name: "fuzz", Offset: offset, Size: size}}, dataSize)
	})
}
