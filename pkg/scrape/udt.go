// SPDX-License-Identifier: Apache-2.0

package scrape

import (
	"context"

	"github.com/lib/pq"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
	"github.com/ClasicRando/pgdiff/pkg/pgdb"
)

func scrapeUdts(ctx context.Context, db pgdb.DB) ([]*catalog.Udt, error) {
	enums, err := scrapeEnums(ctx, db)
	if err != nil {
		return nil, err
	}
	composites, err := scrapeComposites(ctx, db)
	if err != nil {
		return nil, err
	}
	ranges, err := scrapeRanges(ctx, db)
	if err != nil {
		return nil, err
	}
	udts := make([]*catalog.Udt, 0, len(enums)+len(composites)+len(ranges))
	udts = append(udts, enums...)
	udts = append(udts, composites...)
	udts = append(udts, ranges...)
	return udts, nil
}

func scrapeEnums(ctx context.Context, db pgdb.DB) ([]*catalog.Udt, error) {
	const query = `
SELECT n.nspname, t.typname,
       array(
           SELECT e.enumlabel
           FROM pg_catalog.pg_enum e
           WHERE e.enumtypid = t.oid
           ORDER BY e.enumsortorder
       )
FROM pg_catalog.pg_type t
JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
WHERE t.typtype = 'e'
  AND n.nspname NOT IN ('pg_catalog', 'information_schema')`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, sqlErr(err)
	}
	defer rows.Close()

	var udts []*catalog.Udt
	for rows.Next() {
		u := &catalog.Udt{Kind: catalog.UdtEnum}
		if err := rows.Scan(&u.QName.Schema, &u.QName.Local, pq.Array(&u.Labels)); err != nil {
			return nil, sqlErr(err)
		}
		udts = append(udts, u)
	}
	return udts, sqlErr(rows.Err())
}

func scrapeComposites(ctx context.Context, db pgdb.DB) ([]*catalog.Udt, error) {
	const query = `
SELECT n.nspname, t.typname, c.oid
FROM pg_catalog.pg_type t
JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
JOIN pg_catalog.pg_class c ON c.oid = t.typrelid
WHERE t.typtype = 'c'
  AND c.relkind = 'c'
  AND n.nspname NOT IN ('pg_catalog', 'information_schema')`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, sqlErr(err)
	}
	defer rows.Close()

	var udts []*catalog.Udt
	for rows.Next() {
		u := &catalog.Udt{Kind: catalog.UdtComposite}
		var relOid uint32
		if err := rows.Scan(&u.QName.Schema, &u.QName.Local, &relOid); err != nil {
			return nil, sqlErr(err)
		}
		fields, err := scrapeCompositeFields(ctx, db, relOid)
		if err != nil {
			return nil, err
		}
		u.Attributes = fields
		udts = append(udts, u)
	}
	return udts, sqlErr(rows.Err())
}

func scrapeCompositeFields(ctx context.Context, db pgdb.DB, relOid uint32) ([]catalog.CompositeField, error) {
	const query = `
SELECT a.attname, format_type(a.atttypid, a.atttypmod), a.attlen,
       co.collname, co.collnamespace::regnamespace::text,
       (a.attcollation = t.typcollation) AS is_base_collation
FROM pg_catalog.pg_attribute a
JOIN pg_catalog.pg_type t ON t.oid = a.atttypid
LEFT JOIN pg_catalog.pg_collation co ON co.oid = a.attcollation
WHERE a.attrelid = $1
  AND a.attnum > 0
  AND NOT a.attisdropped
ORDER BY a.attnum`

	rows, err := db.QueryContext(ctx, query, relOid)
	if err != nil {
		return nil, sqlErr(err)
	}
	defer rows.Close()

	var fields []catalog.CompositeField
	for rows.Next() {
		var f catalog.CompositeField
		var collName, collSchema *string
		var isBaseCollation bool
		if err := rows.Scan(&f.Name, &f.DataType, &f.Size, &collName, &collSchema, &isBaseCollation); err != nil {
			return nil, sqlErr(err)
		}
		if collName != nil && !isBaseCollation {
			c := catalog.Collation(pq.QuoteIdentifier(*collSchema) + "." + pq.QuoteIdentifier(*collName))
			f.Collation = &c
		}
		fields = append(fields, f)
	}
	return fields, sqlErr(rows.Err())
}

func scrapeRanges(ctx context.Context, db pgdb.DB) ([]*catalog.Udt, error) {
	const query = `
SELECT n.nspname, t.typname, st.typname
FROM pg_catalog.pg_type t
JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
JOIN pg_catalog.pg_range r ON r.rngtypid = t.oid
JOIN pg_catalog.pg_type st ON st.oid = r.rngsubtype
WHERE t.typtype = 'r'
  AND n.nspname NOT IN ('pg_catalog', 'information_schema')`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, sqlErr(err)
	}
	defer rows.Close()

	var udts []*catalog.Udt
	for rows.Next() {
		u := &catalog.Udt{Kind: catalog.UdtRange}
		if err := rows.Scan(&u.QName.Schema, &u.QName.Local, &u.Subtype); err != nil {
			return nil, sqlErr(err)
		}
		udts = append(udts, u)
	}
	return udts, sqlErr(rows.Err())
}
