// SPDX-License-Identifier: Apache-2.0

// Package catalog models the closed set of PostgreSQL catalog object kinds
// this planner understands: schemas, extensions, user-defined types, tables,
// columns, constraints, indexes, triggers, policies, sequences, functions
// and views. Every kind satisfies Object, giving it a uniform name/kind
// label/dependency/CREATE/ALTER/DROP contract.
package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/lib/pq"
)

// QualifiedName is a (schema, local) identifier pair used for cross-kind
// references. A schema-only name has an empty Local; a built-in/unqualified
// name has an empty Schema.
type QualifiedName struct {
	Schema string
	Local  string
}

// NewQualifiedName builds a QualifiedName from a "schema.local" string, or a
// bare "local" string when unqualified.
func NewQualifiedName(raw string) QualifiedName {
	if schema, local, ok := strings.Cut(raw, "."); ok {
		return QualifiedName{Schema: schema, Local: local}
	}
	return QualifiedName{Local: raw}
}

// SchemaOnly builds a QualifiedName naming a schema itself.
func SchemaOnly(schema string) QualifiedName {
	return QualifiedName{Schema: schema}
}

func (q QualifiedName) String() string {
	switch {
	case q.Schema == "":
		return q.Local
	case q.Local == "":
		return q.Schema
	default:
		return q.Schema + "." + q.Local
	}
}

// QuotedString renders the identifier with each non-empty part individually
// quoted, suitable for embedding in emitted DDL.
func (q QualifiedName) QuotedString() string {
	switch {
	case q.Schema == "":
		return pq.QuoteIdentifier(q.Local)
	case q.Local == "":
		return pq.QuoteIdentifier(q.Schema)
	default:
		return pq.QuoteIdentifier(q.Schema) + "." + pq.QuoteIdentifier(q.Local)
	}
}

// CatalogKind is the closed set of pg_catalog tables an object's catalog
// identifier can originate from. It is used only to correlate child objects
// (e.g. a constraint to its owning table) during scraping.
type CatalogKind string

const (
	CatalogNamespace  CatalogKind = "pg_namespace"
	CatalogProc       CatalogKind = "pg_proc"
	CatalogClass      CatalogKind = "pg_class"
	CatalogType       CatalogKind = "pg_type"
	CatalogConstraint CatalogKind = "pg_constraint"
	CatalogTrigger    CatalogKind = "pg_trigger"
	CatalogPolicy     CatalogKind = "pg_policy"
	CatalogExtension  CatalogKind = "pg_extension"
)

// Dependency correlates a scraped object to the catalog row it came from.
// It is used only to track "has this prerequisite already been created"
// during scraping; name-based comparison is used everywhere else.
type Dependency struct {
	Oid     uint32
	Catalog CatalogKind
}

// Object is the uniform contract every catalog kind satisfies.
type Object interface {
	Name() QualifiedName
	KindLabel() string
	Dependencies() []QualifiedName
	Create(w io.Writer) error
	Alter(newObject Object, w io.Writer) error
	Drop(w io.Writer) error
}

// Collation is a PostgreSQL collation name, rendered as "COLLATE name".
type Collation string

// IsDefault reports whether this is the database's default collation, which
// is elided from emitted DDL.
func (c Collation) IsDefault() bool {
	return string(c) == `"pg_catalog"."default"`
}

func (c Collation) String() string {
	return "COLLATE " + string(c)
}

// TableSpace is a PostgreSQL tablespace name.
type TableSpace string

func (t TableSpace) String() string { return string(t) }

// TablespaceDelta computes the ALTER clause, if any, needed to move an
// object from an old tablespace to a new one. Both present and equal is a
// no-op; both present and differing, or new-only, emits SET TABLESPACE new;
// old-only emits SET TABLESPACE pg_default.
type TablespaceDelta struct {
	Old *TableSpace
	New *TableSpace
}

// HasDiff reports whether applying this delta would emit any clause.
func (d TablespaceDelta) HasDiff() bool {
	switch {
	case d.Old != nil && d.New != nil:
		return *d.Old != *d.New
	case d.Old != nil || d.New != nil:
		return true
	default:
		return false
	}
}

func (d TablespaceDelta) String() string {
	switch {
	case d.Old != nil && d.New != nil && *d.Old != *d.New:
		return "SET TABLESPACE " + string(*d.New)
	case d.Old != nil && d.New == nil:
		return "SET TABLESPACE pg_default"
	case d.Old == nil && d.New != nil:
		return "SET TABLESPACE " + string(*d.New)
	default:
		return ""
	}
}

// StorageParameter is a single `key=value` (or bare `key`) storage option,
// as found in a table/index/view WITH clause.
type StorageParameter string

// Key returns the option's key, stripping any `=value` suffix.
func (p StorageParameter) Key() string {
	if key, _, ok := strings.Cut(string(p), "="); ok {
		return key
	}
	return string(p)
}

// IndexParameters renders the shared INCLUDE/WITH/USING INDEX TABLESPACE
// suffix used by both the Index kind and constraints that imply a supporting
// index (UNIQUE, PRIMARY KEY).
type IndexParameters struct {
	Include    []string
	With       []StorageParameter
	Tablespace *TableSpace
}

func (p IndexParameters) String() string {
	var b strings.Builder
	if len(p.Include) > 0 {
		b.WriteString(" INCLUDE(")
		b.WriteString(strings.Join(p.Include, ","))
		b.WriteString(")")
	}
	if len(p.With) > 0 {
		b.WriteString(" WITH(")
		parts := make([]string, len(p.With))
		for i, w := range p.With {
			parts[i] = string(w)
		}
		b.WriteString(strings.Join(parts, ","))
		b.WriteString(")")
	}
	if p.Tablespace != nil {
		b.WriteString(" USING INDEX TABLESPACE ")
		b.WriteString(string(*p.Tablespace))
	}
	return b.String()
}

// OptionListObject is implemented by kinds whose WITH storage option delta
// is rendered with `ALTER <KIND> <name> SET/RESET (...)`.
type OptionListObject interface {
	Object
	writeAlterPrefix(w io.Writer) error
}

// WriteOptionListDelta renders the SET (...) / RESET (...) clauses needed to
// move from old to new storage options, per SPEC_FULL.md 4.1.3: options
// present (added or changed) in new are SET; options present in old but
// absent from new are RESET using only their keys.
func WriteOptionListDelta(object OptionListObject, old, newOpts []StorageParameter, w io.Writer) error {
	contains := func(list []StorageParameter, p StorageParameter) bool {
		for _, o := range list {
			if o == p {
				return true
			}
		}
		return false
	}
	if len(newOpts) > 0 {
		var toSet []string
		for _, p := range newOpts {
			if !contains(old, p) {
				toSet = append(toSet, string(p))
			}
		}
		if len(toSet) > 0 {
			if err := object.writeAlterPrefix(w); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "SET (%s);\n", strings.Join(toSet, ",")); err != nil {
				return err
			}
		}
	}
	if len(old) > 0 {
		containsKey := func(list []StorageParameter, key string) bool {
			for _, o := range list {
				if o.Key() == key {
					return true
				}
			}
			return false
		}
		var toReset []string
		for _, p := range old {
			if !containsKey(newOpts, p.Key()) {
				toReset = append(toReset, p.Key())
			}
		}
		if len(toReset) > 0 {
			if err := object.writeAlterPrefix(w); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "RESET (%s);\n", strings.Join(toReset, ",")); err != nil {
				return err
			}
		}
	}
	return nil
}
