// Package form holds the per-field validation errors shared by the
// dashboard's pre-submit checks.
package form

import (
	"sort"
	"strings"
)

// Errors maps a field to its message
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e[k]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// OrNil returns nil when there are no errors
func (e Errors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
