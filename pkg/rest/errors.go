package rest

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrIDMissing is returned when an id path parameter is empty or blank.
	ErrIDMissing = errors.New("Id shouldn't be null or empty!")

	// ErrNoRecord is returned by a Store when no record has the requested id.
	ErrNoRecord = errors.New("no record with given id")

	// ErrConflict is returned by a Store on insert of an id that is taken.
	ErrConflict = errors.New("duplicate id")
)

// ConflictError reports a write that would give a unique field a value
// another row already holds. It matches ErrConflict with errors.Is.
type ConflictError struct {
	Field string
	Value any
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NotFoundError reports a missing entity. Resource holds the humanized type name.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id [%s] doesn't exist in database!", e.Resource, e.ID)
}

// InvalidParameterError is a business rule violation, usually raised by a
// resource's Validate hook. Message is shown to the client as is.
type InvalidParameterError struct {
	Message string
}

func (e *InvalidParameterError) Error() string {
	return e.Message
}

// InvalidParameter returns an *InvalidParameterError with a formatted message.
func InvalidParameter(format string, args ...any) error {
	return &InvalidParameterError{Message: fmt.Sprintf(format, args...)}
}

// MalformedParameterError reports a query parameter whose value cannot be
// coerced to the expected kind.
type MalformedParameterError struct {
	Key   string
	Value string
	Kind  string
	Err   error
}

func (e *MalformedParameterError) Error() string {
	return fmt.Sprintf("parameter [%s] has malformed %s value [%s]", e.Key, e.Kind, e.Value)
}

func (e *MalformedParameterError) Unwrap() error {
	return e.Err
}

// ConfigurationError signals a programming defect in a resource declaration,
// such as a filter or sort order that references an undeclared field.
type ConfigurationError struct {
	Resource string
	Message  string
}

func (e *ConfigurationError) Error() string {
	if e.Resource == "" {
		return "configuration error: " + e.Message
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Resource, e.Message)
}

// StatusCode maps err to an HTTP status. notFound is the status used for
// *NotFoundError; zero means http.StatusNotFound.
func StatusCode(err error, notFound int) int {
	if notFound == 0 {
		notFound = http.StatusNotFound
	}

	var (
		nf  *NotFoundError
		inv *InvalidParameterError
		mal *MalformedParameterError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrIDMissing):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return notFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.As(err, &inv), errors.As(err, &mal):
		return http.StatusBadRequest
	default:
		// ConfigurationError and storage failures
		return http.StatusInternalServerError
	}
}
