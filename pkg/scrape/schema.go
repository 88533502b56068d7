// SPDX-License-Identifier: Apache-2.0

package scrape

import (
	"context"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
	"github.com/ClasicRando/pgdiff/pkg/pgdb"
)

func scrapeSchemas(ctx context.Context, db pgdb.DB) ([]*catalog.Schema, error) {
	const query = `
SELECT n.nspname, pg_get_userbyid(n.nspowner)
FROM pg_catalog.pg_namespace n
WHERE n.nspname NOT IN ('pg_catalog', 'information_schema')
  AND n.nspname NOT LIKE 'pg\_%'
ORDER BY n.nspname`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, sqlErr(err)
	}
	defer rows.Close()

	var schemas []*catalog.Schema
	for rows.Next() {
		s := &catalog.Schema{}
		if err := rows.Scan(&s.SchemaName, &s.Owner); err != nil {
			return nil, sqlErr(err)
		}
		schemas = append(schemas, s)
	}
	return schemas, sqlErr(rows.Err())
}
