package service

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError carries publish-time field checks as a field → message
// map. It blocks the state transition and is fully recoverable by
// edit-and-retry; no store write happens when it is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}
