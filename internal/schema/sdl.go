package schema

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// WriteSDL renders the schema as GraphQL SDL. Built-in scalars are omitted.
func WriteSDL(w io.Writer, s *Schema) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("schema {\n")
	for _, op := range []OperationType{Query, Mutation, Subscription} {
		if root := s.Root(op); root != "" {
			bw.WriteString("  " + string(op) + ": " + root + "\n")
		}
	}
	bw.WriteString("}\n")

	for _, t := range s.Types {
		switch t.Kind {
		case KindScalar:
			if IsBuiltinScalar(t.Name) {
				continue
			}
			bw.WriteString("\nscalar " + t.Name + "\n")
		case KindEnum:
			bw.WriteString("\nenum " + t.Name + " {\n")
			for _, v := range t.EnumValues {
				bw.WriteString("  " + v + "\n")
			}
			bw.WriteString("}\n")
		case KindInputObject:
			bw.WriteString("\ninput " + t.Name + " {\n")
			for _, f := range t.InputFields {
				bw.WriteString("  " + inputValueSDL(f) + "\n")
			}
			bw.WriteString("}\n")
		case KindObject:
			bw.WriteString("\ntype " + t.Name + " {\n")
			for _, f := range t.Fields {
				bw.WriteString("  " + f.Name)
				if len(f.Args) > 0 {
					args := make([]string, len(f.Args))
					for i, a := range f.Args {
						args[i] = inputValueSDL(a)
					}
					bw.WriteString("(" + strings.Join(args, ", ") + ")")
				}
				bw.WriteString(": " + f.Type.String() + "\n")
			}
			bw.WriteString("}\n")
		}
	}
	return bw.Flush()
}

// SDL returns the schema rendered as GraphQL SDL.
func SDL(s *Schema) string {
	var buf bytes.Buffer
	_ = WriteSDL(&buf, s) // bytes.Buffer writes do not fail
	return buf.String()
}

func inputValueSDL(v InputValue) string {
	out := v.Name + ": " + v.Type.String()
	if v.DefaultValue != "" {
		out += " = " + v.DefaultValue
	}
	return out
}
