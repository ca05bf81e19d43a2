package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/property-annotator/constants"
)

// BuildPropertyJSONSchema returns the JSON-Schema for one normalized property record.
// Unknown keys are tolerated. Name and value keys must be present but may be
// empty; reconciliation skips empty fields.
func BuildPropertyJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			constants.FieldName:  map[string]any{"type": "string"},
			constants.FieldValue: map[string]any{"type": "string"},
			constants.FieldUnit:  map[string]any{"type": "string"},
		},
		"required": []string{constants.FieldName, constants.FieldValue},
	}
}

var propertySchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return compileSchema(BuildPropertyJSONSchema())
})

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("property.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("property.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateRecord checks one normalized record against the property schema.
func ValidateRecord(rec map[string]any) error {
	schema, err := propertySchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(rec); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}
