package schema

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// ValidationError lists every problem found in a GraphQL document.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid graphql document: " + strings.Join(e.Messages, "; ")
}

// Validator checks GraphQL documents against a schema.
type Validator struct {
	schema *ast.Schema
}

// NewValidator loads the schema's SDL into gqlparser.
func NewValidator(s *Schema) (*Validator, error) {
	parsed, err := gqlparser.LoadSchema(&ast.Source{Name: "futarchy.graphql", Input: SDL(s)})
	if err != nil {
		return nil, fmt.Errorf("load schema sdl: %w", err)
	}
	return &Validator{schema: parsed}, nil
}

// Validate parses document and checks it against the schema.
func (v *Validator) Validate(document string) error {
	_, err := v.Parse(document)
	return err
}

// Parse validates document and returns its AST.
func (v *Validator) Parse(document string) (*ast.QueryDocument, error) {
	doc, errs := gqlparser.LoadQuery(v.schema, document)
	if len(errs) > 0 {
		ve := &ValidationError{Messages: make([]string, 0, len(errs))}
		for _, e := range errs {
			msg := e.Message
			if len(e.Locations) > 0 {
				msg = fmt.Sprintf("%d:%d: %s", e.Locations[0].Line, e.Locations[0].Column, e.Message)
			}
			ve.Messages = append(ve.Messages, msg)
		}
		return nil, ve
	}
	return doc, nil
}
