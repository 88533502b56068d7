// SPDX-License-Identifier: Apache-2.0

// Package jsonschema validates a decoded JSON document against a JSON Schema,
// the same way the teacher validates migration operation files, adapted from
// draft-07 (v5) to the 2020-12 compiler (v6).
package jsonschema

import (
	"bytes"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const resourceURL = "pgdiff://config-schema.json"

// Validate compiles schemaJSON and validates instance (typically a
// map[string]any produced by json.Unmarshal) against it.
func Validate(schemaJSON []byte, instance any) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return fmt.Errorf("invalid schema document: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceURL, doc); err != nil {
		return fmt.Errorf("invalid schema document: %w", err)
	}

	schema, err := compiler.Compile(resourceURL)
	if err != nil {
		return fmt.Errorf("invalid schema document: %w", err)
	}

	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
