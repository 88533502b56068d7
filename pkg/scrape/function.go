// SPDX-License-Identifier: Apache-2.0

package scrape

import (
	"context"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
	"github.com/ClasicRando/pgdiff/pkg/extract"
	"github.com/ClasicRando/pgdiff/pkg/pgdb"
)

func scrapeFunctions(ctx context.Context, db pgdb.DB) ([]*catalog.Function, error) {
	const query = `
SELECT n.nspname, p.proname, p.prokind, pg_get_function_identity_arguments(p.oid),
       pg_get_functiondef(p.oid), l.lanname, p.prosrc
FROM pg_catalog.pg_proc p
JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
JOIN pg_catalog.pg_language l ON l.oid = p.prolang
WHERE n.nspname NOT IN ('pg_catalog', 'information_schema')
  AND p.prokind IN ('f', 'p')`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, sqlErr(err)
	}
	defer rows.Close()

	var functions []*catalog.Function
	for rows.Next() {
		f := &catalog.Function{}
		var prokind, body string
		if err := rows.Scan(&f.QName.Schema, &f.QName.Local, &prokind, &f.Signature, &f.Definition, &f.Language, &body); err != nil {
			return nil, sqlErr(err)
		}
		f.IsProcedure = prokind == "p"

		deps, err := functionDependencies(f, body)
		if err != nil {
			return nil, err
		}
		f.Deps = deps
		functions = append(functions, f)
	}
	return functions, sqlErr(rows.Err())
}

// functionDependencies analyzes a function's body for the objects it
// references, dispatching to the SQL or procedural walker by language. body
// is pg_proc.prosrc: for an sql-language function this is itself a sequence
// of SQL statements; for a plpgsql-language function it is the procedural
// source the walker's ParsePlPgSqlToJSON call expects. Functions in any
// other language are left with no discovered dependencies; their CREATE
// statement still round-trips verbatim via pg_get_functiondef.
func functionDependencies(f *catalog.Function, body string) ([]catalog.QualifiedName, error) {
	switch f.Language {
	case "sql":
		return extract.Dependencies(f.QName, body)
	case "plpgsql":
		return extract.PlPgSqlDependencies(f.QName, body)
	default:
		return nil, nil
	}
}
