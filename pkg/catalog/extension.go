// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"io"

	"github.com/ClasicRando/pgdiff/pkg/pgdifferr"
)

// Extension is the catalog representation of a PostgreSQL extension.
// Extensions reside outside any schema, even though the objects they own
// live within SchemaName.
type Extension struct {
	ExtensionName string
	Version       string
	SchemaName    string
	IsRelocatable bool
	Deps          []QualifiedName
}

var _ Object = (*Extension)(nil)

func (e *Extension) Name() QualifiedName          { return QualifiedName{Local: e.ExtensionName} }
func (e *Extension) KindLabel() string            { return "EXTENSION" }
func (e *Extension) Dependencies() []QualifiedName { return e.Deps }

// Create emits the extension's CREATE statement.
func (e *Extension) Create(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "CREATE EXTENSION %s VERSION '%s'", e.ExtensionName, e.Version); err != nil {
		return err
	}
	if e.IsRelocatable {
		if _, err := fmt.Fprintf(w, " SCHEMA %s", e.SchemaName); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, ";\n")
	return err
}

// Alter emits SET SCHEMA when the extension is relocatable and its schema
// changed, and UPDATE TO when its version changed.
func (e *Extension) Alter(newObject Object, w io.Writer) error {
	newExt, ok := newObject.(*Extension)
	if !ok {
		return pgdifferr.InvalidMigrationError{ObjectName: e.Name(), Reason: "cannot alter an extension into a non-extension object"}
	}
	if e.SchemaName != newExt.SchemaName && e.IsRelocatable {
		if _, err := fmt.Fprintf(w, "ALTER EXTENSION %s SET SCHEMA %s;\n", e.ExtensionName, newExt.SchemaName); err != nil {
			return err
		}
	}
	if e.Version != newExt.Version {
		if _, err := fmt.Fprintf(w, "ALTER EXTENSION %s UPDATE TO '%s';\n", e.ExtensionName, newExt.Version); err != nil {
			return err
		}
	}
	return nil
}

// Drop emits the extension's DROP statement.
func (e *Extension) Drop(w io.Writer) error {
	_, err := fmt.Fprintf(w, "DROP EXTENSION %s;\n", e.ExtensionName)
	return err
}
