// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"io"

	"github.com/ClasicRando/pgdiff/pkg/pgdifferr"
)

// Schema is the catalog representation of a PostgreSQL schema (namespace).
type Schema struct {
	SchemaName string
	Owner      string
}

var _ Object = (*Schema)(nil)

func (s *Schema) Name() QualifiedName          { return SchemaOnly(s.SchemaName) }
func (s *Schema) KindLabel() string            { return "SCHEMA" }
func (s *Schema) Dependencies() []QualifiedName { return nil }

// Create emits the schema's CREATE statement.
func (s *Schema) Create(w io.Writer) error {
	_, err := fmt.Fprintf(w, "CREATE SCHEMA %s AUTHORIZATION %s;\n", s.Name().QuotedString(), s.Owner)
	return err
}

// Alter emits an ALTER SCHEMA ... OWNER TO statement only if the owner
// changed; schemas have no other mutable attribute.
func (s *Schema) Alter(newObject Object, w io.Writer) error {
	newSchema, ok := newObject.(*Schema)
	if !ok {
		return pgdifferr.InvalidMigrationError{ObjectName: s.Name(), Reason: "cannot alter a schema into a non-schema object"}
	}
	if s.Owner == newSchema.Owner {
		return nil
	}
	_, err := fmt.Fprintf(w, "ALTER SCHEMA %s OWNER TO %s;\n", s.Name().QuotedString(), newSchema.Owner)
	return err
}

// Drop emits the schema's DROP statement.
func (s *Schema) Drop(w io.Writer) error {
	_, err := fmt.Fprintf(w, "DROP SCHEMA %s;\n", s.Name().QuotedString())
	return err
}
