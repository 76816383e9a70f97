package httpapi

import (
	"encoding/json"
	"net/http"

	"futarchy-graph/internal/schema"
)

type apiStatusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func apiError(msg string) apiStatusMessage {
	return apiStatusMessage{Status: "error", Message: msg}
}

func doJSONWrite(w http.ResponseWriter, code int, obj any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// TypeView is the JSON form of a schema type. Type references use their
// GraphQL notation.
type TypeView struct {
	Name        string      `json:"name"`
	Kind        schema.Kind `json:"kind"`
	Fields      []FieldView `json:"fields,omitempty"`
	InputFields []InputView `json:"input_fields,omitempty"`
	EnumValues  []string    `json:"enum_values,omitempty"`
}

// FieldView is an output field with its arguments.
type FieldView struct {
	Name string      `json:"name"`
	Type string      `json:"type"`
	Args []InputView `json:"args,omitempty"`
}

// InputView is an argument or input field.
type InputView struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	DefaultValue string `json:"default_value,omitempty"`
}

func newTypeView(t *schema.Type) TypeView {
	v := TypeView{Name: t.Name, Kind: t.Kind, EnumValues: t.EnumValues}
	for _, f := range t.Fields {
		fv := FieldView{Name: f.Name, Type: f.Type.String()}
		for _, a := range f.Args {
			fv.Args = append(fv.Args, newInputView(a))
		}
		v.Fields = append(v.Fields, fv)
	}
	for _, in := range t.InputFields {
		v.InputFields = append(v.InputFields, newInputView(in))
	}
	return v
}

func newInputView(in schema.InputValue) InputView {
	return InputView{Name: in.Name, Type: in.Type.String(), DefaultValue: in.DefaultValue}
}
