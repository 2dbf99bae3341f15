package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// NotFoundError reports a row that does not exist or is not visible to the caller.
type NotFoundError struct {
	Resource string
	UID      uint64
}

func (e *NotFoundError) Error() string {
	if e.UID == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %d not found", e.Resource, e.UID)
}

// DuplicateError reports a create that collides with a uniqueness rule.
type DuplicateError struct {
	Resource string
	Field    string
	Value    string
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s already exists", e.Resource)
	}
	return fmt.Sprintf("%s with %s %q already exists", e.Resource, e.Field, e.Value)
}

// InUseError reports a delete blocked by a restrict reference.
type InUseError struct {
	Resource string
	UID      uint64
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("%s %d is still referenced", e.Resource, e.UID)
}

// ConfigurationError reports an invalid filter or sort request.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid query: " + e.Reason
}

// InvalidPageError reports a non-positive page size.
type InvalidPageError struct {
	Size int
}

func (e *InvalidPageError) Error() string {
	return fmt.Sprintf("invalid page size %d", e.Size)
}

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewConfigurationError(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// TranslateWriteError maps driver constraint errors raised by inserts and updates.
func TranslateWriteError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &DuplicateError{Resource: resource}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &ValidationError{Field: resource, Reason: "references a missing row"}
	}
	return fmt.Errorf("%s write failed: %w", resource, err)
}

// TranslateDeleteError maps a restrict violation on delete to InUseError.
func TranslateDeleteError(err error, resource string, uid uint64) error {
	switch {
	case err == nil:
		return nil
	case errors.As(err, new(*InUseError)):
		return err
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &InUseError{Resource: resource, UID: uid}
	}
	return fmt.Errorf("%s delete failed: %w", resource, err)
}
