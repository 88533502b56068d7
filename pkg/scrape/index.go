// SPDX-License-Identifier: Apache-2.0

package scrape

import (
	"context"

	"github.com/lib/pq"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
	"github.com/ClasicRando/pgdiff/pkg/pgdb"
)

func scrapeIndexes(ctx context.Context, db pgdb.DB) ([]*catalog.Index, error) {
	const query = `
SELECT n.nspname, t.relname, i.relname, ix.indisvalid, pg_get_indexdef(ix.indexrelid),
       array(SELECT a.attname FROM pg_catalog.pg_attribute a
             WHERE a.attrelid = ix.indrelid AND a.attnum = ANY(ix.indkey[0:ix.indnkeyatts-1])
             ORDER BY array_position(ix.indkey, a.attnum)),
       array(SELECT a.attname FROM pg_catalog.pg_attribute a
             WHERE a.attrelid = ix.indrelid AND a.attnum = ANY(ix.indkey[ix.indnkeyatts:])
             ORDER BY array_position(ix.indkey, a.attnum)),
       i.reloptions, ts.spcname
FROM pg_catalog.pg_index ix
JOIN pg_catalog.pg_class i ON i.oid = ix.indexrelid
JOIN pg_catalog.pg_class t ON t.oid = ix.indrelid
JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
LEFT JOIN pg_catalog.pg_tablespace ts ON ts.oid = i.reltablespace
WHERE n.nspname NOT IN ('pg_catalog', 'information_schema')
  AND NOT ix.indisprimary
  AND NOT EXISTS (
      SELECT 1 FROM pg_catalog.pg_constraint c
      WHERE c.conindid = ix.indexrelid AND c.contype IN ('p', 'u')
  )`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, sqlErr(err)
	}
	defer rows.Close()

	var indexes []*catalog.Index
	for rows.Next() {
		idx := &catalog.Index{}
		var ownerTable string
		var columns, include, reloptions []string
		var tablespace *string
		if err := rows.Scan(
			&idx.QName.Schema, &ownerTable, &idx.QName.Local, &idx.IsValid, &idx.DefinitionStatement,
			pq.Array(&columns), pq.Array(&include), pq.Array(&reloptions), &tablespace,
		); err != nil {
			return nil, sqlErr(err)
		}
		idx.OwnerTableName = catalog.QualifiedName{Schema: idx.QName.Schema, Local: ownerTable}
		idx.Columns = columns
		idx.Parameters.Include = include
		for _, opt := range reloptions {
			idx.Parameters.With = append(idx.Parameters.With, catalog.StorageParameter(opt))
		}
		if tablespace != nil {
			ts := catalog.TableSpace(*tablespace)
			idx.Parameters.Tablespace = &ts
		}
		idx.Deps = []catalog.QualifiedName{idx.OwnerTableName}
		indexes = append(indexes, idx)
	}
	return indexes, sqlErr(rows.Err())
}
