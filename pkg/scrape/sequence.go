// SPDX-License-Identifier: Apache-2.0

package scrape

import (
	"context"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
	"github.com/ClasicRando/pgdiff/pkg/pgdb"
)

func scrapeSequences(ctx context.Context, db pgdb.DB) ([]*catalog.Sequence, error) {
	const query = `
SELECT n.nspname, c.relname, format_type(s.seqtypid, NULL),
       s.seqincrement, s.seqmin, s.seqmax, s.seqstart, s.seqcache, s.seqcycle,
       own.nspname, ownc.relname, owna.attname
FROM pg_catalog.pg_sequence s
JOIN pg_catalog.pg_class c ON c.oid = s.seqrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
LEFT JOIN pg_catalog.pg_depend d ON d.objid = s.seqrelid AND d.deptype = 'a'
LEFT JOIN pg_catalog.pg_class ownc ON ownc.oid = d.refobjid
LEFT JOIN pg_catalog.pg_namespace own ON own.oid = ownc.relnamespace
LEFT JOIN pg_catalog.pg_attribute owna ON owna.attrelid = d.refobjid AND owna.attnum = d.refobjsubid
WHERE n.nspname NOT IN ('pg_catalog', 'information_schema')
  AND c.relkind = 'S'
  AND NOT EXISTS (
      SELECT 1 FROM pg_catalog.pg_depend idep
      WHERE idep.objid = s.seqrelid AND idep.deptype = 'i'
  )`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, sqlErr(err)
	}
	defer rows.Close()

	var sequences []*catalog.Sequence
	for rows.Next() {
		s := &catalog.Sequence{}
		var ownSchema, ownTable, ownCol *string
		if err := rows.Scan(
			&s.QName.Schema, &s.QName.Local, &s.DataType,
			&s.Options.Increment, &s.Options.MinValue, &s.Options.MaxValue,
			&s.Options.StartValue, &s.Options.Cache, &s.Options.Cycle,
			&ownSchema, &ownTable, &ownCol,
		); err != nil {
			return nil, sqlErr(err)
		}
		if ownTable != nil && ownCol != nil {
			s.Owner = &catalog.SequenceOwner{
				Table:  catalog.QualifiedName{Schema: *ownSchema, Local: *ownTable},
				Column: *ownCol,
			}
			s.Deps = []catalog.QualifiedName{s.Owner.Table}
		}
		sequences = append(sequences, s)
	}
	return sequences, sqlErr(rows.Err())
}
