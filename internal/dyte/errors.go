package dyte

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ProviderError is returned for any failed provider call. StatusCode is 0 when no HTTP
// response was received.
type ProviderError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := "dyte: " + e.Op
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Body != "" {
		msg += ": " + truncate(e.Body, 512)
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsProviderError reports whether err wraps a *ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

func errMissing(what string) error {
	return fmt.Errorf("response missing %s", what)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// не режем многобайтовый символ посередине
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
