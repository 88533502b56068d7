// SPDX-License-Identifier: Apache-2.0

package scrape

import (
	"context"

	"github.com/lib/pq"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
	"github.com/ClasicRando/pgdiff/pkg/pgdb"
)

func scrapeTables(ctx context.Context, db pgdb.DB) ([]*catalog.Table, error) {
	const query = `
SELECT c.oid, n.nspname, c.relname,
       pg_get_partkeydef(c.oid),
       CASE WHEN c.relispartition THEN pg_get_expr(c.relpartbound, c.oid) END,
       pn.nspname, pc.relname,
       ts.spcname,
       c.reloptions
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
LEFT JOIN pg_catalog.pg_inherits i ON i.inhrelid = c.oid AND c.relispartition
LEFT JOIN pg_catalog.pg_class pc ON pc.oid = i.inhparent
LEFT JOIN pg_catalog.pg_namespace pn ON pn.oid = pc.relnamespace
LEFT JOIN pg_catalog.pg_tablespace ts ON ts.oid = c.reltablespace
WHERE c.relkind IN ('r', 'p')
  AND n.nspname NOT IN ('pg_catalog', 'information_schema')
ORDER BY n.nspname, c.relname`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, sqlErr(err)
	}
	defer rows.Close()

	var tables []*catalog.Table
	for rows.Next() {
		t := &catalog.Table{}
		var partKeyDef, partValues, parentSchema, parentRel, tablespace *string
		var reloptions []string
		if err := rows.Scan(
			&t.Oid, &t.QName.Schema, &t.QName.Local,
			&partKeyDef, &partValues, &parentSchema, &parentRel, &tablespace,
			pq.Array(&reloptions),
		); err != nil {
			return nil, sqlErr(err)
		}
		t.PartitionKeyDef = partKeyDef
		t.PartitionValues = partValues
		if parentSchema != nil && parentRel != nil {
			t.PartitionedParentName = &catalog.QualifiedName{Schema: *parentSchema, Local: *parentRel}
		}
		if tablespace != nil {
			ts := catalog.TableSpace(*tablespace)
			t.Tablespace = &ts
		}
		for _, opt := range reloptions {
			t.With = append(t.With, catalog.StorageParameter(opt))
		}

		inherited, err := scrapeInheritedTables(ctx, db, t.Oid)
		if err != nil {
			return nil, err
		}
		t.InheritedTables = inherited

		columns, err := scrapeColumns(ctx, db, t.Oid)
		if err != nil {
			return nil, err
		}
		t.Columns = columns

		tables = append(tables, t)
	}
	return tables, sqlErr(rows.Err())
}

func scrapeInheritedTables(ctx context.Context, db pgdb.DB, relOid uint32) ([]catalog.QualifiedName, error) {
	const query = `
SELECT pn.nspname, pc.relname
FROM pg_catalog.pg_inherits i
JOIN pg_catalog.pg_class pc ON pc.oid = i.inhparent
JOIN pg_catalog.pg_namespace pn ON pn.oid = pc.relnamespace
JOIN pg_catalog.pg_class c ON c.oid = i.inhrelid
WHERE i.inhrelid = $1 AND NOT c.relispartition
ORDER BY i.inhseqno`

	rows, err := db.QueryContext(ctx, query, relOid)
	if err != nil {
		return nil, sqlErr(err)
	}
	defer rows.Close()

	var names []catalog.QualifiedName
	for rows.Next() {
		var name catalog.QualifiedName
		if err := rows.Scan(&name.Schema, &name.Local); err != nil {
			return nil, sqlErr(err)
		}
		names = append(names, name)
	}
	return names, sqlErr(rows.Err())
}

func scrapeColumns(ctx context.Context, db pgdb.DB, relOid uint32) ([]catalog.Column, error) {
	const query = `
SELECT a.attname, format_type(a.atttypid, a.atttypmod), a.attlen,
       co.collname, co.collnamespace::regnamespace::text, (a.attcollation = t.typcollation),
       a.attnotnull,
       pg_get_expr(ad.adbin, ad.adrelid),
       a.attgenerated,
       a.attidentity,
       a.attstorage,
       a.attcompression
FROM pg_catalog.pg_attribute a
JOIN pg_catalog.pg_type t ON t.oid = a.atttypid
LEFT JOIN pg_catalog.pg_collation co ON co.oid = a.attcollation
LEFT JOIN pg_catalog.pg_attrdef ad ON ad.adrelid = a.attrelid AND ad.adnum = a.attnum
WHERE a.attrelid = $1
  AND a.attnum > 0
  AND NOT a.attisdropped
ORDER BY a.attnum`

	rows, err := db.QueryContext(ctx, query, relOid)
	if err != nil {
		return nil, sqlErr(err)
	}
	defer rows.Close()

	var columns []catalog.Column
	for rows.Next() {
		var c catalog.Column
		var collName, collSchema, defaultExpr *string
		var isBaseCollation bool
		var generated, identity, storageCode, compressionCode string
		if err := rows.Scan(
			&c.Name, &c.DataType, &c.Size,
			&collName, &collSchema, &isBaseCollation,
			&c.NotNull, &defaultExpr, &generated, &identity, &storageCode, &compressionCode,
		); err != nil {
			return nil, sqlErr(err)
		}
		if collName != nil && !isBaseCollation {
			col := catalog.Collation(pq.QuoteIdentifier(*collSchema) + "." + pq.QuoteIdentifier(*collName))
			c.Collation = &col
		}
		if defaultExpr != nil && generated != "s" {
			c.DefaultExpression = defaultExpr
		}
		if generated == "s" && defaultExpr != nil {
			c.GeneratedColumn = &catalog.GeneratedColumn{
				Expression:     *defaultExpr,
				GenerationType: catalog.GeneratedColumnStored,
			}
		}
		if identity == "a" || identity == "d" {
			gen := catalog.IdentityDefault
			if identity == "a" {
				gen = catalog.IdentityAlways
			}
			options, err := scrapeIdentitySequence(ctx, db, relOid, c.Name)
			if err != nil {
				return nil, err
			}
			c.IdentityColumn = &catalog.IdentityColumn{Generation: gen, SequenceOptions: options}
		}
		if storage, ok := catalog.ParseStorage(storageCode); ok {
			c.ColumnStorage = &storage
		}
		c.ColumnCompression = catalog.ParseCompression(compressionCode)
		columns = append(columns, c)
	}
	return columns, sqlErr(rows.Err())
}

func scrapeIdentitySequence(ctx context.Context, db pgdb.DB, relOid uint32, column string) (catalog.SequenceOptions, error) {
	const query = `
SELECT s.seqincrement, s.seqmin, s.seqmax, s.seqstart, s.seqcache, s.seqcycle
FROM pg_catalog.pg_sequence s
JOIN pg_catalog.pg_depend d ON d.objid = s.seqrelid
JOIN pg_catalog.pg_attribute a ON a.attrelid = d.refobjid AND a.attnum = d.refobjsubid
WHERE d.refobjid = $1 AND a.attname = $2`

	rows, err := db.QueryContext(ctx, query, relOid, column)
	if err != nil {
		return catalog.SequenceOptions{}, sqlErr(err)
	}
	defer rows.Close()

	var o catalog.SequenceOptions
	if rows.Next() {
		if err := rows.Scan(&o.Increment, &o.MinValue, &o.MaxValue, &o.StartValue, &o.Cache, &o.Cycle); err != nil {
			return catalog.SequenceOptions{}, sqlErr(err)
		}
	}
	return o, sqlErr(rows.Err())
}
