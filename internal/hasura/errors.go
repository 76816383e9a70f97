package hasura

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrNotFound is returned when a root field resolves to null, e.g. a
	// <table>_by_pk lookup for a missing key.
	ErrNotFound = errors.New("hasura: not found")

	// ErrUnknownField is returned by the builder for fields, arguments or
	// columns the schema does not declare.
	ErrUnknownField = errors.New("hasura: unknown field")
)

// Hasura error codes found in extensions.code.
const (
	CodeValidationFailed   = "validation-failed"
	CodeConstraintViolated = "constraint-violation"
	CodeAccessDenied       = "access-denied"
	CodeInvalidJWT         = "invalid-jwt"
	CodeDataException      = "data-exception"
)

// GraphQLError is one entry of a GraphQL response errors array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Code returns extensions.code, empty when absent.
func (e *GraphQLError) Code() string {
	code, _ := e.Extensions["code"].(string)
	return code
}

func (e *GraphQLError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Path) > 0 {
		parts := make([]string, len(e.Path))
		for i, p := range e.Path {
			parts[i] = fmt.Sprint(p)
		}
		b.WriteString(" (path: " + strings.Join(parts, ".") + ")")
	}
	if code := e.Code(); code != "" {
		b.WriteString(" [" + code + "]")
	}
	return b.String()
}

// Errors is the non-empty errors array of a GraphQL response.
type Errors struct {
	merr *multierror.Error
}

func newErrors(list []*GraphQLError) *Errors {
	merr := &multierror.Error{ErrorFormat: formatErrors}
	for _, e := range list {
		merr = multierror.Append(merr, e)
	}
	return &Errors{merr: merr}
}

func (e *Errors) Error() string {
	return e.merr.Error()
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e *Errors) Unwrap() []error {
	return e.merr.WrappedErrors()
}

func formatErrors(es []error) string {
	if len(es) == 1 {
		return "graphql: " + es[0].Error()
	}
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("graphql: %d errors: %s", len(es), strings.Join(msgs, "; "))
}

// List returns the individual GraphQL errors.
func (e *Errors) List() []*GraphQLError {
	out := make([]*GraphQLError, 0, e.merr.Len())
	for _, err := range e.merr.WrappedErrors() {
		var gqlErr *GraphQLError
		if errors.As(err, &gqlErr) {
			out = append(out, gqlErr)
		}
	}
	return out
}

// HasCode reports whether any error carries the given extensions.code.
func (e *Errors) HasCode(code string) bool {
	for _, gqlErr := range e.List() {
		if gqlErr.Code() == code {
			return true
		}
	}
	return false
}

// IsCode reports whether err is a GraphQL response error with the given code.
func IsCode(err error, code string) bool {
	var errs *Errors
	return errors.As(err, &errs) && errs.HasCode(code)
}
