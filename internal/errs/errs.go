package errs

import (
	"errors"
	"sort"
	"strings"
)

// Доменные сентинель-ошибки для маппинга в HTTP коды в handlers.
var (
	ErrLiveRequestNotFound = errors.New("live request not found")
)

// ValidationError lists offending fields of a create payload, keyed by JSON path.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
