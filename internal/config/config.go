// SPDX-License-Identifier: Apache-2.0

// Package config reads the optional pgdiff.yaml project config file:
// additional source directories and built-in name/function allow-list
// extensions that apply across every subcommand invocation.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/ClasicRando/pgdiff/internal/jsonschema"
	"github.com/ClasicRando/pgdiff/pkg/extract"
)

//go:embed schema.json
var schemaJSON []byte

// Config is the decoded contents of pgdiff.yaml.
type Config struct {
	SearchPaths                []string `json:"searchPaths,omitempty"`
	AdditionalBuiltInNames     []string `json:"additionalBuiltInNames,omitempty"`
	AdditionalBuiltInFunctions []string `json:"additionalBuiltInFunctions,omitempty"`
}

// Load reads and validates the project config file at path. A missing file
// is not an error: it returns the zero Config, so pgdiff.yaml stays optional.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	jsonBytes, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var instance any
	if err := json.Unmarshal(jsonBytes, &instance); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := jsonschema.Validate(schemaJSON, instance); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var cfg Config
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Apply registers this config's additional built-in names/functions with the
// reference extractor, so it elides project-specific search_path-resolved
// identifiers the same way it elides pg_catalog's own.
func (c *Config) Apply() {
	extract.RegisterBuiltInNames(c.AdditionalBuiltInNames...)
	extract.RegisterBuiltInFunctions(c.AdditionalBuiltInFunctions...)
}
