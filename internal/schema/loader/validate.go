package loader

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

// object-schema.json describes the structural contract every platform object
// schema file must satisfy: a name, an optional documentation page link, and
// the full view matrix with nullable frame references.
//
//go:embed object-schema.json
var objectSchemaJSON []byte

var (
	objectSchemaOnce sync.Once
	objectSchema     *openapi3.Schema
	objectSchemaErr  error
)

// validateDocument checks a decoded schema document against the embedded
// object schema definition. Validation failures are per-file parse errors,
// never fatal to the load.
func validateDocument(doc map[string]any) error {
	schema, err := compiledObjectSchema()
	if err != nil {
		return err
	}
	if err := schema.VisitJSON(doc); err != nil {
		return fmt.Errorf("document does not match object schema: %w", err)
	}
	return nil
}

func compiledObjectSchema() (*openapi3.Schema, error) {
	objectSchemaOnce.Do(func() {
		schema := &openapi3.Schema{}
		if err := schema.UnmarshalJSON(objectSchemaJSON); err != nil {
			objectSchemaErr = fmt.Errorf("schema loader: compile embedded object schema: %w", err)
			return
		}
		objectSchema = schema
	})
	return objectSchema, objectSchemaErr
}
