// SPDX-License-Identifier: Apache-2.0

package scrape

import (
	"context"
	"database/sql"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
	"github.com/ClasicRando/pgdiff/pkg/pgdb"
)

func scrapeExtensions(ctx context.Context, db pgdb.DB) ([]*catalog.Extension, error) {
	const query = `
SELECT e.extname, e.extversion, n.nspname, e.extrelocatable
FROM pg_catalog.pg_extension e
JOIN pg_catalog.pg_namespace n ON n.oid = e.extnamespace`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, sqlErr(err)
	}
	defer rows.Close()

	var extensions []*catalog.Extension
	for rows.Next() {
		e := &catalog.Extension{}
		var version sql.NullString
		if err := rows.Scan(&e.ExtensionName, &version, &e.SchemaName, &e.IsRelocatable); err != nil {
			return nil, sqlErr(err)
		}
		e.Version = version.String
		extensions = append(extensions, e)
	}
	return extensions, sqlErr(rows.Err())
}
