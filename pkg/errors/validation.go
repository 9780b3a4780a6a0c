package errors

import (
	"math"
	"slices"
	"strings"
)

// MaxRunLimit caps the number of runs a single listing may return.
const MaxRunLimit = 1000

// ValidateFormat checks that format is one of the allowed output formats.
// Comparison is case-insensitive.
func ValidateFormat(format string, allowed ...string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	if !slices.Contains(allowed, strings.ToLower(format)) {
		return New(ErrCodeInvalidFormat, "unsupported format %q (want %s)", format, strings.Join(allowed, ", "))
	}
	return nil
}

// ValidateRunLimit checks a run listing limit. Zero selects the caller's
// default and is accepted.
func ValidateRunLimit(limit int) error {
	if limit < 0 {
		return New(ErrCodeInvalidInput, "limit cannot be negative")
	}
	if limit > MaxRunLimit {
		return New(ErrCodeInvalidInput, "limit too large (max %d)", MaxRunLimit)
	}
	return nil
}

// ValidateWorkers checks a worker count. Zero means one worker per CPU.
func ValidateWorkers(n int) error {
	if n < 0 {
		return New(ErrCodeInvalidInput, "workers cannot be negative")
	}
	return nil
}

// ValidateRatio checks a house:household ratio used to balance a market.
// Zero disables balancing.
func ValidateRatio(r float64) error {
	if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
		return New(ErrCodeInvalidInput, "ratio must be a non-negative number (got %v)", r)
	}
	return nil
}
