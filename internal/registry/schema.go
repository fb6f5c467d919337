package registry

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var registrySchema []byte

const schemaURL = "registry.schema.json"

var (
	compiledSchema     *jsonschema.Schema
	compileSchemaOnce  sync.Once
	compileSchemaError error
)

func getSchema() (*jsonschema.Schema, error) {
	compileSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(registrySchema))
		if err != nil {
			compileSchemaError = fmt.Errorf("failed to parse embedded registry schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			compileSchemaError = fmt.Errorf("failed to add registry schema resource: %w", err)
			return
		}

		compiledSchema, compileSchemaError = compiler.Compile(schemaURL)
	})
	return compiledSchema, compileSchemaError
}

// ValidateRegistrySchema checks raw registry JSON against the embedded
// registry schema. It returns nil when the document conforms.
func ValidateRegistrySchema(data []byte) error {
	schema, err := getSchema()
	if err != nil {
		return err
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("registry data is not valid JSON: %w", err)
	}

	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("registry data failed schema validation: %w", err)
	}
	return nil
}

// ParseRegistry validates and parses raw registry JSON, filling in server
// names from their map keys.
func ParseRegistry(data []byte) (*Registry, error) {
	if err := ValidateRegistrySchema(data); err != nil {
		return nil, err
	}

	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry data: %w", err)
	}

	for name, srv := range reg.Servers {
		if srv.Name == "" {
			srv.Name = name
		}
	}
	for name, srv := range reg.RemoteServers {
		if srv.Name == "" {
			srv.Name = name
		}
	}

	return &reg, nil
}
