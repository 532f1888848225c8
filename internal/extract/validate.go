package extract

import (
	"fmt"
	"strings"

	"diagnosisd/pkg/types"
)

// validationError signals malformed client input for 400 mapping.
type validationError struct{ msg string }

func (e validationError) Error() string { return e.msg }

// ErrValidation constructs a validationError.
func ErrValidation(msg string) error { return validationError{msg: msg} }

// IsValidation reports whether err indicates rejected client input.
func IsValidation(err error) bool {
	_, ok := err.(validationError)
	return ok
}

// ValidateRequest accepts a request only when the clinical note is present
// and non-empty and any sampling overrides are in range. No side effects.
func ValidateRequest(req types.GenerateRequest) error {
	if strings.TrimSpace(req.ClinicalNote) == "" {
		return ErrValidation("clinical_note is required")
	}
	if req.Temperature < 0 || req.Temperature > 1 {
		return ErrValidation(fmt.Sprintf("temperature must be in [0,1], got %v", req.Temperature))
	}
	if req.TopP < 0 || req.TopP > 1 {
		return ErrValidation(fmt.Sprintf("top_p must be in [0,1], got %v", req.TopP))
	}
	if req.TopK < 0 {
		return ErrValidation(fmt.Sprintf("top_k must not be negative, got %d", req.TopK))
	}
	if req.MaxLength < 0 {
		return ErrValidation(fmt.Sprintf("max_length must not be negative, got %d", req.MaxLength))
	}
	if req.FrequencyPenalty < 0 || req.FrequencyPenalty > 2 {
		return ErrValidation(fmt.Sprintf("frequency_penalty must be in [0,2], got %v", req.FrequencyPenalty))
	}
	return nil
}
