package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"procurement/internal/workflow"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("invalid credentials")
)

// ValidationErrors maps a field name to its message
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// orNil returns nil for an empty set so callers can `return v.orNil()`
func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func invalid(field, msg string) error {
	return ValidationErrors{field: msg}
}

// notFound turns gorm.ErrRecordNotFound into ErrNotFound and wraps anything else
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// transition wraps a workflow rejection so handlers can map it to 409
func transition(err error) error {
	var te *workflow.TransitionError
	if errors.As(err, &te) {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, te.Error())
	}
	return err
}

// duplicate reports unique violations (SQLSTATE 23505) as ErrConflict
func duplicate(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "23505") {
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	}
	return err
}
