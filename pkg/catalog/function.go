// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"io"

	"github.com/ClasicRando/pgdiff/pkg/pgdifferr"
)

// FunctionDependency names another function/procedure this one's definition
// invokes, as identified by the reference extractor's procedural-AST walk.
type FunctionDependency struct {
	Name      QualifiedName
	Signature string
}

// Function is the catalog representation of a function or procedure. The
// two are modeled as a single kind distinguished by IsProcedure, matching
// how PostgreSQL stores both in pg_proc.
type Function struct {
	QName                QualifiedName
	IsProcedure          bool
	Signature            string
	Definition           string
	Language             string
	FunctionDependencies []FunctionDependency
	Deps                 []QualifiedName
}

var _ Object = (*Function)(nil)

func (f *Function) Name() QualifiedName { return f.QName }

func (f *Function) KindLabel() string {
	if f.IsProcedure {
		return "PROCEDURE"
	}
	return "FUNCTION"
}

func (f *Function) Dependencies() []QualifiedName { return f.Deps }

// Create emits the function's definition verbatim, as scraped from
// pg_get_functiondef.
func (f *Function) Create(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s;\n", f.Definition)
	return err
}

// Alter emits nothing when signature and definition are unchanged. It drops
// and recreates when the signature changed, otherwise relies on CREATE OR
// REPLACE already present in Definition.
func (f *Function) Alter(newObject Object, w io.Writer) error {
	newFn, ok := newObject.(*Function)
	if !ok {
		return pgdifferr.InvalidMigrationError{ObjectName: f.QName, Reason: "cannot alter a function into a non-function object"}
	}
	if f.Signature == newFn.Signature && f.Definition == newFn.Definition {
		return nil
	}
	if f.Signature != newFn.Signature {
		if err := f.Drop(w); err != nil {
			return err
		}
	}
	return newFn.Create(w)
}

// Drop emits the function's DROP statement.
func (f *Function) Drop(w io.Writer) error {
	_, err := fmt.Fprintf(w, "DROP %s %s;\n", f.KindLabel(), f.QName)
	return err
}
