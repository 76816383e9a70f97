// Package domain holds typed rows for the futarchy tables mirrored from the
// GraphQL endpoint. JSON tags equal the Hasura column names.
package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"futarchy-graph/internal/solana"
)

// ErrInvalidRow is returned by Validate methods.
var ErrInvalidRow = errors.New("invalid row")

// Columns returns the column names of a row type in declaration order,
// taken from its JSON tags.
func Columns[T any]() []string {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() != reflect.Struct {
		return nil
	}
	cols := make([]string, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		tag := rt.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		cols = append(cols, name)
	}
	return cols
}

// checkAccounts validates name/value pairs of account keys. Empty values are
// treated as absent nullable columns.
func checkAccounts(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		name, value := pairs[i], pairs[i+1]
		if value == "" {
			if i == 0 {
				return fmt.Errorf("%w: %s is empty", ErrInvalidRow, name)
			}
			continue
		}
		if !solana.IsValidAccount(value) {
			return fmt.Errorf("%w: %s %q is not an account key", ErrInvalidRow, name, value)
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
