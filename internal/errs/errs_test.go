package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"user_email":    "must be a valid email",
		"product.title": "is required",
	}}
	want := "validation failed: product.title: is required; user_email: must be a valid email"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got := (&ValidationError{}).Error(); got != "validation failed" {
		t.Errorf("empty Error() = %q", got)
	}
}

func TestValidationError_As(t *testing.T) {
	wrapped := fmt.Errorf("create: %w", &ValidationError{Fields: map[string]string{"user_name": "is required"}})
	var ve *ValidationError
	if !errors.As(wrapped, &ve) {
		t.Fatal("errors.As did not find *ValidationError")
	}
	if ve.Fields["user_name"] != "is required" {
		t.Errorf("Fields = %v", ve.Fields)
	}
}
