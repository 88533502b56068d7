// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"encoding/json"

	pgq "github.com/pganalyze/pg_query_go/v6"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
	"github.com/ClasicRando/pgdiff/pkg/pgdifferr"
)

// PlPgSqlDependencies parses a plpgsql function body (as produced by
// pg_get_functiondef, body only) and returns the catalog objects found in
// the SQL fragments embedded in its statements.
//
// The upstream AST is a deeply tagged tree (PLpgSQL_stmt_block,
// PLpgSQL_stmt_if, PLpgSQL_expr, ...) with one variant per statement and
// expression kind. Rather than a field-by-field struct per variant, this
// walks the decoded JSON generically: any string value reachable under a
// "query" object key is a SQL fragment and is re-parsed with the same
// SQL-AST walker used for plain SQL objects. Only the node kinds that walker
// handles are reported: tables and functions referenced only inside a
// SELECT, INSERT, UPDATE, DELETE or CALL are not found, and declared
// variable types are not read.
func PlPgSqlDependencies(objectName catalog.QualifiedName, functionBody string) ([]catalog.QualifiedName, error) {
	rawJSON, err := pgq.ParsePlPgSqlToJSON(functionBody)
	if err != nil {
		return nil, pgdifferr.PgQueryError{ObjectName: objectName, Cause: err}
	}

	var functions []map[string]any
	if err := json.Unmarshal([]byte(rawJSON), &functions); err != nil {
		return nil, pgdifferr.PgQueryError{ObjectName: objectName, Cause: err}
	}

	var deps []catalog.QualifiedName
	seen := make(map[string]bool)
	push := func(name catalog.QualifiedName) {
		key := name.String()
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		deps = append(deps, name)
	}

	for _, fn := range functions {
		walkPlPgSqlNode(fn, objectName, push)
	}
	return deps, nil
}

// plpgsqlQueryKeys are the JSON object keys the upstream grammar uses to
// carry an embedded SQL expression or query string (PLpgSQL_expr.query,
// which also holds dynamic EXECUTE strings).
var plpgsqlQueryKeys = map[string]bool{
	"query": true,
}

func walkPlPgSqlNode(node any, objectName catalog.QualifiedName, push func(catalog.QualifiedName)) {
	switch v := node.(type) {
	case map[string]any:
		for key, value := range v {
			if plpgsqlQueryKeys[key] {
				if text, ok := value.(string); ok {
					extractEmbeddedSQL(text, objectName, push)
					continue
				}
			}
			walkPlPgSqlNode(value, objectName, push)
		}
	case []any:
		for _, item := range v {
			walkPlPgSqlNode(item, objectName, push)
		}
	}
}

// extractEmbeddedSQL re-parses a SQL fragment found inside a plpgsql
// expression node. Fragments that are not valid standalone SQL (bare
// scalar expressions, %TYPE references, dynamic EXECUTE format strings
// with parameter placeholders) are silently skipped, matching the
// reference extractor's best-effort treatment of embedded SQL.
func extractEmbeddedSQL(text string, objectName catalog.QualifiedName, push func(catalog.QualifiedName)) {
	deps, err := Dependencies(objectName, text)
	if err != nil {
		return
	}
	for _, d := range deps {
		push(d)
	}
}
