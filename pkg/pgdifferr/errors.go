// SPDX-License-Identifier: Apache-2.0

// Package pgdifferr defines the typed error taxonomy produced by every layer
// of the planner: catalog model, reference extractor, staging executor and
// differ.
package pgdifferr

import (
	"fmt"
)

// SqlError wraps a database driver error surfaced verbatim.
type SqlError struct {
	Err error
}

func (e SqlError) Error() string { return fmt.Sprintf("sql error: %s", e.Err) }
func (e SqlError) Unwrap() error { return e.Err }

// IoError wraps a file or buffer failure.
type IoError struct {
	Err error
}

func (e IoError) Error() string { return fmt.Sprintf("io error: %s", e.Err) }
func (e IoError) Unwrap() error { return e.Err }

// PgQueryError reports a SQL text parse failure tied to a named source object.
type PgQueryError struct {
	ObjectName fmt.Stringer
	Cause      error
}

func (e PgQueryError) Error() string {
	return fmt.Sprintf("could not parse sql for %s: %s", e.ObjectName, e.Cause)
}

func (e PgQueryError) Unwrap() error { return e.Cause }

// FileQueryParseError reports a DDL file statement that matched no recognized
// root form.
type FileQueryParseError struct {
	Path    string
	Message string
}

func (e FileQueryParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// IncompatibleTypesError reports a UDT kind change between old and new states.
type IncompatibleTypesError struct {
	Name     fmt.Stringer
	Original string
	New      string
}

func (e IncompatibleTypesError) Error() string {
	return fmt.Sprintf("type %s changed kind from %s to %s, which is not a valid migration", e.Name, e.Original, e.New)
}

// InvalidMigrationError reports a well-formed delta the system refuses to
// express as an ALTER.
type InvalidMigrationError struct {
	ObjectName fmt.Stringer
	Reason     string
}

func (e InvalidMigrationError) Error() string {
	return fmt.Sprintf("invalid migration for %s: %s", e.ObjectName, e.Reason)
}

// SourceControlScriptError reports that the staging executor gave up after a
// full rotation through the failed set without making progress.
type SourceControlScriptError struct {
	Remaining []string
}

func (e SourceControlScriptError) Error() string {
	return fmt.Sprintf("could not apply %d statement(s) to the staging database: %v", len(e.Remaining), e.Remaining)
}

// GeneralError is the catch-all for everything else, including permission
// failures such as "user lacks CREATEDB".
type GeneralError struct {
	Message string
}

func (e GeneralError) Error() string { return e.Message }
