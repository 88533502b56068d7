// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/ClasicRando/pgdiff/pkg/pgdifferr"
)

// Table is the catalog representation of a PostgreSQL table, including
// partitioned and partition-of tables.
type Table struct {
	Oid                   uint32
	QName                 QualifiedName
	Columns               []Column
	PartitionKeyDef       *string
	PartitionValues       *string
	InheritedTables       []QualifiedName
	PartitionedParentName *QualifiedName
	Tablespace            *TableSpace
	With                  []StorageParameter
	Deps                  []QualifiedName
}

var _ Object = (*Table)(nil)

func (t *Table) Name() QualifiedName        { return t.QName }
func (t *Table) KindLabel() string          { return "TABLE" }
func (t *Table) Dependencies() []QualifiedName { return t.Deps }

func (t *Table) writeAlterPrefix(w io.Writer) error {
	_, err := fmt.Fprintf(w, "ALTER TABLE %s ", t.QName.QuotedString())
	return err
}

// Create emits the table's CREATE statement, including partition clauses,
// inheritance, storage options and tablespace.
func (t *Table) Create(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "CREATE TABLE %s", t.QName.QuotedString()); err != nil {
		return err
	}
	switch {
	case t.PartitionedParentName != nil:
		if _, err := fmt.Fprintf(w, " PARTITION OF %s", t.PartitionedParentName.QuotedString()); err != nil {
			return err
		}
	case len(t.Columns) > 0:
		if _, err := io.WriteString(w, " (\n\t"); err != nil {
			return err
		}
		defs := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			var b strings.Builder
			c.fieldDefinition(true, &b)
			defs[i] = b.String()
		}
		if _, err := io.WriteString(w, strings.Join(defs, ",\n\t")); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n)"); err != nil {
			return err
		}
	}
	switch {
	case t.PartitionValues != nil:
		if _, err := fmt.Fprintf(w, "\nFOR VALUES %s", *t.PartitionValues); err != nil {
			return err
		}
	case t.PartitionedParentName != nil:
		if _, err := io.WriteString(w, "\nDEFAULT"); err != nil {
			return err
		}
	}
	if len(t.InheritedTables) > 0 {
		names := make([]string, len(t.InheritedTables))
		for i, n := range t.InheritedTables {
			names[i] = n.QuotedString()
		}
		if _, err := fmt.Fprintf(w, "\nINHERITS (%s)", strings.Join(names, ",")); err != nil {
			return err
		}
	}
	if t.PartitionKeyDef != nil {
		if _, err := fmt.Fprintf(w, "\nPARTITION BY %s", *t.PartitionKeyDef); err != nil {
			return err
		}
	}
	if len(t.With) > 0 {
		parts := make([]string, len(t.With))
		for i, p := range t.With {
			parts[i] = string(p)
		}
		if _, err := fmt.Fprintf(w, "\nWITH (%s)", strings.Join(parts, ",")); err != nil {
			return err
		}
	}
	if t.Tablespace != nil {
		if _, err := fmt.Fprintf(w, "\nTABLESPACE %s", *t.Tablespace); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, ";\n")
	return err
}

// Alter emits the ALTER statements transforming t into newObject. Partition
// key, partition values and partition parent changes are fatal, per
// SPEC_FULL.md 4.1.1 and the carried-forward "partition value reordering"
// open question.
func (t *Table) Alter(newObject Object, w io.Writer) error {
	newTable, ok := newObject.(*Table)
	if !ok {
		return pgdifferr.InvalidMigrationError{ObjectName: t.QName, Reason: "cannot alter a table into a non-table object"}
	}

	if !stringPtrsEqual(t.PartitionKeyDef, newTable.PartitionKeyDef) {
		return pgdifferr.InvalidMigrationError{ObjectName: t.QName, Reason: "cannot update partition key definition"}
	}
	if !stringPtrsEqual(t.PartitionValues, newTable.PartitionValues) {
		return pgdifferr.InvalidMigrationError{ObjectName: t.QName, Reason: "cannot update partition values"}
	}
	if (t.PartitionedParentName == nil) != (newTable.PartitionedParentName == nil) ||
		(t.PartitionedParentName != nil && *t.PartitionedParentName != *newTable.PartitionedParentName) {
		return pgdifferr.InvalidMigrationError{ObjectName: t.QName, Reason: "cannot update parent partition table"}
	}

	containsName := func(list []QualifiedName, n QualifiedName) bool {
		for _, x := range list {
			if x == n {
				return true
			}
		}
		return false
	}
	for _, remove := range t.InheritedTables {
		if !containsName(newTable.InheritedTables, remove) {
			if _, err := fmt.Fprintf(w, "ALTER TABLE %s NO INHERIT %s;\n", t.QName.QuotedString(), remove.QuotedString()); err != nil {
				return err
			}
		}
	}
	for _, add := range newTable.InheritedTables {
		if !containsName(t.InheritedTables, add) {
			if _, err := fmt.Fprintf(w, "ALTER TABLE %s INHERIT %s;\n", t.QName.QuotedString(), add.QuotedString()); err != nil {
				return err
			}
		}
	}

	for i := range t.Columns {
		col := &t.Columns[i]
		if other := newTable.findColumn(col.Name); other != nil {
			if err := col.alterColumn(other, t, w); err != nil {
				return err
			}
		} else if err := col.dropColumn(t, w); err != nil {
			return err
		}
	}
	for i := range newTable.Columns {
		col := &newTable.Columns[i]
		if t.findColumn(col.Name) == nil {
			if err := col.addColumn(t, w); err != nil {
				return err
			}
		}
	}

	tablespaceDelta := TablespaceDelta{Old: t.Tablespace, New: newTable.Tablespace}
	if tablespaceDelta.HasDiff() {
		if _, err := fmt.Fprintf(w, "ALTER TABLE %s %s;\n", t.QName.QuotedString(), tablespaceDelta); err != nil {
			return err
		}
	}
	return WriteOptionListDelta(t, t.With, newTable.With, w)
}

// Drop emits the table's DROP statement.
func (t *Table) Drop(w io.Writer) error {
	_, err := fmt.Fprintf(w, "DROP TABLE %s;\n", t.QName.QuotedString())
	return err
}

func (t *Table) findColumn(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Storage is a column's TOAST storage strategy.
type Storage string

const (
	StoragePlain    Storage = "STORAGE PLAIN"
	StorageExternal Storage = "STORAGE EXTERNAL"
	StorageMain     Storage = "STORAGE MAIN"
	StorageExtended Storage = "STORAGE EXTENDED"
)

// ParseStorage decodes the single-character pg_attribute.attstorage code.
func ParseStorage(code string) (Storage, bool) {
	switch code {
	case "p":
		return StoragePlain, true
	case "e":
		return StorageExternal, true
	case "m":
		return StorageMain, true
	case "x":
		return StorageExtended, true
	default:
		return "", false
	}
}

// Compression is a column's TOAST compression method.
type Compression string

const (
	CompressionDefault Compression = ""
	CompressionPGLZ    Compression = "COMPRESSION pglz"
	CompressionLZ4     Compression = "COMPRESSION lz4"
)

// ParseCompression decodes the single-character pg_attribute.attcompression code.
func ParseCompression(code string) Compression {
	switch code {
	case "p":
		return CompressionPGLZ
	case "l":
		return CompressionLZ4
	default:
		return CompressionDefault
	}
}

// GeneratedColumnType is the kind of generation expression a column has.
type GeneratedColumnType string

const GeneratedColumnStored GeneratedColumnType = "STORED"

// GeneratedColumn describes a GENERATED ALWAYS AS (...) STORED column.
type GeneratedColumn struct {
	Expression     string
	GenerationType GeneratedColumnType
}

func (g GeneratedColumn) String() string {
	return fmt.Sprintf(" GENERATED ALWAYS AS (%s) %s", g.Expression, g.GenerationType)
}

// IdentityGeneration is GENERATED ALWAYS|BY DEFAULT AS IDENTITY.
type IdentityGeneration string

const (
	IdentityAlways  IdentityGeneration = "ALWAYS"
	IdentityDefault IdentityGeneration = "DEFAULT"
)

// IdentityColumn describes an identity column's generation mode and backing
// sequence options.
type IdentityColumn struct {
	Generation      IdentityGeneration
	SequenceOptions SequenceOptions
}

func (i IdentityColumn) String() string {
	return fmt.Sprintf("GENERATED %s AS IDENTITY (%s)", i.Generation, i.SequenceOptions)
}

// Column is a table's column. It is a child of Table and is not
// independently dependency-ordered.
type Column struct {
	Name               string
	DataType           string
	Size               int32
	Collation          *Collation
	NotNull            bool
	DefaultExpression  *string
	GeneratedColumn    *GeneratedColumn
	IdentityColumn     *IdentityColumn
	ColumnStorage      *Storage
	ColumnCompression  Compression
}

// IsNullable reports whether the column accepts NULL.
func (c Column) IsNullable() bool { return !c.NotNull }

// HasDefault reports whether the column has a default expression.
func (c Column) HasDefault() bool { return c.DefaultExpression != nil }

// IsGenerated reports whether the column is a generated column.
func (c Column) IsGenerated() bool { return c.GeneratedColumn != nil }

// IsIdentity reports whether the column is an identity column.
func (c Column) IsIdentity() bool { return c.IdentityColumn != nil }

func (c Column) fieldDefinition(includeStorage bool, b *strings.Builder) {
	fmt.Fprintf(b, "%s %s", c.Name, c.DataType)
	if includeStorage && c.ColumnStorage != nil {
		switch {
		case c.Size != -1 && *c.ColumnStorage == StorageMain:
			fmt.Fprintf(b, " %s", *c.ColumnStorage)
			if c.ColumnCompression != CompressionDefault {
				fmt.Fprintf(b, " %s", c.ColumnCompression)
			}
		case c.Size == -1 && *c.ColumnStorage == StorageExternal:
			fmt.Fprintf(b, " %s", *c.ColumnStorage)
			if c.ColumnCompression != CompressionDefault {
				fmt.Fprintf(b, " %s", c.ColumnCompression)
			}
		}
	}
	if c.Collation != nil && !c.Collation.IsDefault() {
		fmt.Fprintf(b, " %s", *c.Collation)
	}
	if c.NotNull {
		b.WriteString(" NOT NULL")
	} else {
		b.WriteString(" NULL")
	}
	if c.DefaultExpression != nil {
		fmt.Fprintf(b, " DEFAULT %s", *c.DefaultExpression)
	}
	if c.GeneratedColumn != nil {
		fmt.Fprintf(b, "%s", *c.GeneratedColumn)
	}
	if c.IdentityColumn != nil {
		fmt.Fprintf(b, " %s", *c.IdentityColumn)
	}
}

func (c Column) addColumn(table *Table, w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "ALTER TABLE %s ADD COLUMN ", table.QName.QuotedString())
	c.fieldDefinition(false, &b)
	b.WriteString(";\n")
	if c.ColumnStorage != nil {
		fmt.Fprintf(&b, "ALTER TABLE %s ALTER COLUMN %s SET %s;\n", table.QName.QuotedString(), c.Name, *c.ColumnStorage)
	}
	if c.ColumnCompression != CompressionDefault {
		fmt.Fprintf(&b, "ALTER TABLE %s ALTER COLUMN %s SET %s;\n", table.QName.QuotedString(), c.Name, c.ColumnCompression)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (c Column) dropColumn(table *Table, w io.Writer) error {
	_, err := fmt.Fprintf(w, "ALTER TABLE %s DROP COLUMN %s;\n", table.QName.QuotedString(), c.Name)
	return err
}

func (c Column) alterColumn(other *Column, table *Table, w io.Writer) error {
	if c.DataType != other.DataType {
		return pgdifferr.InvalidMigrationError{
			ObjectName: table.QName,
			Reason:     fmt.Sprintf("attempted to change the data type of column %q, which is not currently supported", c.Name),
		}
	}
	if c.NotNull != other.NotNull {
		clause := "SET NOT NULL"
		if c.NotNull {
			clause = "DROP NOT NULL"
		}
		if _, err := fmt.Fprintf(w, "ALTER TABLE %s ALTER COLUMN %s %s;\n", table.QName.QuotedString(), c.Name, clause); err != nil {
			return err
		}
	}

	switch {
	case c.DefaultExpression != nil && other.DefaultExpression != nil && *c.DefaultExpression != *other.DefaultExpression:
		if _, err := fmt.Fprintf(w, "ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;\n", table.QName.QuotedString(), c.Name); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;\n", table.QName.QuotedString(), c.Name, *other.DefaultExpression); err != nil {
			return err
		}
	case c.DefaultExpression != nil && other.DefaultExpression == nil:
		if _, err := fmt.Fprintf(w, "ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;\n", table.QName.QuotedString(), c.Name); err != nil {
			return err
		}
	case c.DefaultExpression == nil && other.DefaultExpression != nil:
		if _, err := fmt.Fprintf(w, "ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;\n", table.QName.QuotedString(), c.Name, *other.DefaultExpression); err != nil {
			return err
		}
	}

	switch {
	case c.GeneratedColumn != nil && other.GeneratedColumn != nil && *c.GeneratedColumn != *other.GeneratedColumn:
		return pgdifferr.InvalidMigrationError{
			ObjectName: table.QName,
			Reason:     fmt.Sprintf("attempted to change the generation expression of column %q; create a new column instead", c.Name),
		}
	case c.GeneratedColumn != nil && other.GeneratedColumn == nil:
		if _, err := fmt.Fprintf(w, "ALTER TABLE %s ALTER COLUMN %s DROP EXPRESSION;\n", table.QName.QuotedString(), c.Name); err != nil {
			return err
		}
	case c.GeneratedColumn == nil && other.GeneratedColumn != nil:
		return pgdifferr.InvalidMigrationError{
			ObjectName: table.QName,
			Reason:     fmt.Sprintf("attempted to add a generation expression to column %q; create a new column instead", c.Name),
		}
	}

	switch {
	case c.IdentityColumn != nil && other.IdentityColumn != nil && *c.IdentityColumn != *other.IdentityColumn:
		if c.IdentityColumn.Generation != other.IdentityColumn.Generation {
			if _, err := fmt.Fprintf(w, "ALTER TABLE %s ALTER COLUMN %s SET GENERATED %s;\n", table.QName.QuotedString(), c.Name, other.IdentityColumn.Generation); err != nil {
				return err
			}
		}
		if c.IdentityColumn.SequenceOptions != other.IdentityColumn.SequenceOptions {
			var b strings.Builder
			fmt.Fprintf(&b, "ALTER TABLE %s ALTER COLUMN %s ", table.QName.QuotedString(), c.Name)
			other.IdentityColumn.SequenceOptions.writeAlterClauses(&b)
			b.WriteString(";\n")
			if _, err := io.WriteString(w, b.String()); err != nil {
				return err
			}
		}
	case c.IdentityColumn != nil && other.IdentityColumn == nil:
		if _, err := fmt.Fprintf(w, "ALTER TABLE %s ALTER COLUMN %s DROP IDENTITY;\n", table.QName.QuotedString(), c.Name); err != nil {
			return err
		}
	case c.IdentityColumn == nil && other.IdentityColumn != nil:
		if _, err := fmt.Fprintf(w, "ALTER TABLE %s ALTER COLUMN %s ADD %s;\n", table.QName.QuotedString(), c.Name, *other.IdentityColumn); err != nil {
			return err
		}
	}

	if c.ColumnStorage != nil && other.ColumnStorage != nil && *c.ColumnStorage != *other.ColumnStorage {
		if _, err := fmt.Fprintf(w, "ALTER TABLE %s ALTER COLUMN %s SET %s;\n", table.QName.QuotedString(), c.Name, *other.ColumnStorage); err != nil {
			return err
		}
	}
	if c.ColumnCompression != other.ColumnCompression {
		if _, err := fmt.Fprintf(w, "ALTER TABLE %s ALTER COLUMN %s SET %s;\n", table.QName.QuotedString(), c.Name, other.ColumnCompression); err != nil {
			return err
		}
	}
	return nil
}
