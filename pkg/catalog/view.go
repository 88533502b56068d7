// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/ClasicRando/pgdiff/pkg/pgdifferr"
)

// View is the catalog representation of a (non-materialized) view.
type View struct {
	QName   QualifiedName
	Columns []string
	Query   string
	Options []StorageParameter
	Deps    []QualifiedName
}

var _ Object = (*View)(nil)
var _ OptionListObject = (*View)(nil)

func (v *View) Name() QualifiedName          { return v.QName }
func (v *View) KindLabel() string            { return "VIEW" }
func (v *View) Dependencies() []QualifiedName { return v.Deps }

// Create emits the view's CREATE OR REPLACE statement.
func (v *View) Create(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "CREATE OR REPLACE VIEW %s", v.QName.QuotedString()); err != nil {
		return err
	}
	if len(v.Columns) > 0 {
		if _, err := fmt.Fprintf(w, "(%s)", strings.Join(v.Columns, ",")); err != nil {
			return err
		}
	}
	if len(v.Options) > 0 {
		parts := make([]string, len(v.Options))
		for i, o := range v.Options {
			parts[i] = string(o)
		}
		if _, err := fmt.Fprintf(w, "WITH(%s)", strings.Join(parts, ",")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, " AS\n%s;\n", v.Query)
	return err
}

func (v *View) writeAlterPrefix(w io.Writer) error {
	_, err := fmt.Fprintf(w, "ALTER VIEW %s ", v.QName.QuotedString())
	return err
}

// Alter recreates the view if its query or column list changed; otherwise
// it diffs the WITH option list in place.
func (v *View) Alter(newObject Object, w io.Writer) error {
	newView, ok := newObject.(*View)
	if !ok {
		return pgdifferr.InvalidMigrationError{ObjectName: v.QName, Reason: "cannot alter a view into a non-view object"}
	}
	if v.Query != newView.Query || !stringSlicesEqual(v.Columns, newView.Columns) {
		if err := v.Drop(w); err != nil {
			return err
		}
		return newView.Create(w)
	}
	return WriteOptionListDelta(v, v.Options, newView.Options, w)
}

// Drop emits the view's DROP statement.
func (v *View) Drop(w io.Writer) error {
	_, err := fmt.Fprintf(w, "DROP VIEW %s;\n", v.QName.QuotedString())
	return err
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
