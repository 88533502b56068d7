// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"io"

	"github.com/ClasicRando/pgdiff/pkg/pgdifferr"
)

// Index is the catalog representation of a table index, scraped verbatim
// from pg_get_indexdef.
type Index struct {
	QName               QualifiedName
	OwnerTableName      QualifiedName
	Columns             []string
	IsValid             bool
	DefinitionStatement string
	Parameters          IndexParameters
	Deps                []QualifiedName
}

var _ Object = (*Index)(nil)
var _ OptionListObject = (*Index)(nil)

func (i *Index) Name() QualifiedName          { return i.QName }
func (i *Index) KindLabel() string            { return "INDEX" }
func (i *Index) Dependencies() []QualifiedName { return i.Deps }

// Create emits the index's CREATE statement verbatim.
func (i *Index) Create(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s;\n", i.DefinitionStatement)
	return err
}

func (i *Index) writeAlterPrefix(w io.Writer) error {
	_, err := fmt.Fprintf(w, "ALTER INDEX %s ", i.QName.QuotedString())
	return err
}

// Alter diffs the WITH storage options and tablespace in place when the
// index's columns and INCLUDE list are unchanged; any other difference
// requires dropping and recreating the index.
func (i *Index) Alter(newObject Object, w io.Writer) error {
	newIndex, ok := newObject.(*Index)
	if !ok {
		return pgdifferr.InvalidMigrationError{ObjectName: i.QName, Reason: "cannot alter an index into a non-index object"}
	}
	sameColumns := stringSlicesEqual(i.Columns, newIndex.Columns)
	sameInclude := stringSlicesEqual(i.Parameters.Include, newIndex.Parameters.Include)
	if sameColumns && sameInclude {
		if err := WriteOptionListDelta(i, i.Parameters.With, newIndex.Parameters.With, w); err != nil {
			return err
		}
		tsDelta := TablespaceDelta{Old: i.Parameters.Tablespace, New: newIndex.Parameters.Tablespace}
		if tsDelta.HasDiff() {
			_, err := fmt.Fprintf(w, "ALTER INDEX %s %s;\n", i.QName.QuotedString(), tsDelta)
			return err
		}
		return nil
	}
	if err := i.Drop(w); err != nil {
		return err
	}
	return newIndex.Create(w)
}

// Drop emits the index's DROP statement.
func (i *Index) Drop(w io.Writer) error {
	_, err := fmt.Fprintf(w, "DROP INDEX %s;\n", i.QName.QuotedString())
	return err
}
