package hasura

import (
	"context"
	"fmt"

	"futarchy-graph/internal/schema"
)

// IntrospectionOperation is the introspection query as an Operation.
func IntrospectionOperation() *Operation {
	return &Operation{
		Type:      schema.Query,
		Name:      "IntrospectionQuery",
		RootField: "__schema",
		Document:  schema.IntrospectionQuery,
	}
}

// Introspect loads the schema the endpoint serves.
func Introspect(ctx context.Context, exec Executor) (*schema.Schema, error) {
	data, err := exec.Raw(ctx, IntrospectionOperation())
	if err != nil {
		return nil, fmt.Errorf("introspect: %w", err)
	}
	s, err := schema.FromIntrospection(data)
	if err != nil {
		return nil, fmt.Errorf("introspect: %w", err)
	}
	return s, nil
}
