package errors

import (
	"math"
	"testing"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"dot", "dot", false},
		{"svg", "svg", false},
		{"upper case", "SVG", false},

		{"empty", "", true},
		{"unknown", "png", true},
		{"padded", " dot", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormat(tt.input, "dot", "svg")
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidFormat) {
				t.Errorf("ValidateFormat(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidFormat)
			}
		})
	}
}

func TestValidateRunLimit(t *testing.T) {
	tests := []struct {
		name    string
		input   int
		wantErr bool
	}{
		{"default", 0, false},
		{"small", 10, false},
		{"max", MaxRunLimit, false},

		{"negative", -1, true},
		{"too large", MaxRunLimit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRunLimit(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRunLimit(%d) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateWorkers(t *testing.T) {
	if err := ValidateWorkers(0); err != nil {
		t.Errorf("ValidateWorkers(0) error = %v, want nil", err)
	}
	if err := ValidateWorkers(8); err != nil {
		t.Errorf("ValidateWorkers(8) error = %v, want nil", err)
	}
	if err := ValidateWorkers(-2); !Is(err, ErrCodeInvalidInput) {
		t.Errorf("ValidateWorkers(-2) error = %v, want %v", err, ErrCodeInvalidInput)
	}
}

func TestValidateRatio(t *testing.T) {
	tests := []struct {
		name    string
		input   float64
		wantErr bool
	}{
		{"disabled", 0, false},
		{"balanced", 1, false},
		{"more houses", 1.5, false},

		{"negative", -0.5, true},
		{"nan", math.NaN(), true},
		{"inf", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRatio(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRatio(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidMarket,
		ErrCodeInvalidEngine,
		ErrCodeInvalidFormat,
		ErrCodeNotFound,
		ErrCodeFileNotFound,
		ErrCodeRunNotFound,
		ErrCodeIneligible,
		ErrCodeSolverExhausted,
		ErrCodeSearchSpace,
		ErrCodeTimeout,
		ErrCodeCanceled,
		ErrCodeUnavailable,
		ErrCodeInternal,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
