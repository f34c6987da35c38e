package profile

import (
	"fmt"
	"strings"
)

// FieldError describes one invalid form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of a submission.
type ValidationError []FieldError

func (v ValidationError) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "invalid profile: " + strings.Join(parts, "; ")
}

// Fields returns a field -> message map for API responses.
func (v ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(v))
	for _, fe := range v {
		out[fe.Field] = fe.Message
	}
	return out
}

func (v ValidationError) add(field, msg string) ValidationError {
	return append(v, FieldError{Field: field, Message: msg})
}

// enumField validates value against allowed, recording a failure into *dst.
// Optional fields accept the empty string.
func enumField(dst *ValidationError, field, value string, allowed []string, required bool) string {
	if strings.TrimSpace(value) == "" && !required {
		return ""
	}
	c, ok := canonical(value, allowed)
	if !ok {
		*dst = dst.add(field, fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", ")))
		return ""
	}
	return c
}
