// SPDX-License-Identifier: Apache-2.0

package scrape

import (
	"context"

	"github.com/lib/pq"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
	"github.com/ClasicRando/pgdiff/pkg/pgdb"
)

func scrapeViews(ctx context.Context, db pgdb.DB) ([]*catalog.View, error) {
	const query = `
SELECT n.nspname, c.relname, pg_get_viewdef(c.oid, true), c.reloptions,
       array(SELECT a.attname FROM pg_catalog.pg_attribute a
             WHERE a.attrelid = c.oid AND a.attnum > 0 AND NOT a.attisdropped
             ORDER BY a.attnum)
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE c.relkind = 'v'
  AND n.nspname NOT IN ('pg_catalog', 'information_schema')`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, sqlErr(err)
	}
	defer rows.Close()

	var views []*catalog.View
	for rows.Next() {
		v := &catalog.View{}
		var reloptions []string
		if err := rows.Scan(&v.QName.Schema, &v.QName.Local, &v.Query, pq.Array(&reloptions), pq.Array(&v.Columns)); err != nil {
			return nil, sqlErr(err)
		}
		for _, opt := range reloptions {
			v.Options = append(v.Options, catalog.StorageParameter(opt))
		}
		deps, err := dependenciesOf(v.QName, v.Query)
		if err != nil {
			return nil, err
		}
		v.Deps = deps
		views = append(views, v)
	}
	return views, sqlErr(rows.Err())
}
