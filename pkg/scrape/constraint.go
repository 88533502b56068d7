// SPDX-License-Identifier: Apache-2.0

package scrape

import (
	"context"

	"github.com/lib/pq"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
	"github.com/ClasicRando/pgdiff/pkg/pgdb"
)

func scrapeConstraints(ctx context.Context, db pgdb.DB) ([]*catalog.Constraint, error) {
	const query = `
SELECT con.conname, n.nspname, c.relname, con.contype,
       array(SELECT a.attname FROM pg_catalog.pg_attribute a
             WHERE a.attrelid = con.conrelid AND a.attnum = ANY(con.conkey)
             ORDER BY array_position(con.conkey, a.attnum)),
       pg_get_expr(con.conbin, con.conrelid),
       NOT con.connoinherit,
       con.connullsnotdistinct,
       COALESCE(rn.nspname, ''), COALESCE(rc.relname, ''),
       array(SELECT a.attname FROM pg_catalog.pg_attribute a
             WHERE a.attrelid = con.confrelid AND a.attnum = ANY(con.confkey)
             ORDER BY array_position(con.confkey, a.attnum)),
       con.confmatchtype, con.confdeltype, con.confupdtype,
       con.condeferrable, NOT con.condeferred,
       array(SELECT a.attname FROM pg_catalog.pg_attribute a
             WHERE a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey[i.indnkeyatts:])
             ORDER BY array_position(i.indkey, a.attnum)),
       ts.spcname
FROM pg_catalog.pg_constraint con
JOIN pg_catalog.pg_class c ON c.oid = con.conrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
LEFT JOIN pg_catalog.pg_class rc ON rc.oid = con.confrelid
LEFT JOIN pg_catalog.pg_namespace rn ON rn.oid = rc.relnamespace
LEFT JOIN pg_catalog.pg_index i ON i.indexrelid = con.conindid
LEFT JOIN pg_catalog.pg_tablespace ts ON ts.oid = i.reltablespace
WHERE n.nspname NOT IN ('pg_catalog', 'information_schema')
  AND con.contype IN ('c', 'u', 'p', 'f')`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, sqlErr(err)
	}
	defer rows.Close()

	var constraints []*catalog.Constraint
	for rows.Next() {
		c := &catalog.Constraint{}
		var contype, refSchema, refRel string
		var matchType, onDelete, onUpdate string
		var checkCols, cols, refCols []string
		var checkExpr *string
		var isInheritable bool
		var nullsNotDistinct bool
		var deferrable, isImmediate bool
		var include []string
		var tablespace *string
		if err := rows.Scan(
			&c.ConstraintName, &c.OwnerTableName.Schema, &c.OwnerTableName.Local, &contype,
			pq.Array(&cols), &checkExpr, &isInheritable, &nullsNotDistinct,
			&refSchema, &refRel, pq.Array(&refCols),
			&matchType, &onDelete, &onUpdate,
			&deferrable, &isImmediate, pq.Array(&include), &tablespace,
		); err != nil {
			return nil, sqlErr(err)
		}
		c.QName = catalog.QualifiedName{
			Schema: c.OwnerTableName.Schema,
			Local:  c.OwnerTableName.Local + "." + c.ConstraintName,
		}
		c.Timing = catalog.ConstraintTiming{Deferrable: deferrable, IsImmediate: isImmediate}

		switch contype {
		case "c":
			checkCols = cols
			c.Type = catalog.ConstraintType{
				Kind:               catalog.ConstraintCheck,
				CheckColumns:       checkCols,
				CheckIsInheritable: isInheritable,
			}
			if checkExpr != nil {
				c.Type.CheckExpression = *checkExpr
			}
		case "u":
			c.Type = catalog.ConstraintType{
				Kind:                   catalog.ConstraintUnique,
				UniqueColumns:          cols,
				UniqueAreNullsDistinct: !nullsNotDistinct,
				UniqueIndexParameters:  indexParameters(include, tablespace),
			}
		case "p":
			c.Type = catalog.ConstraintType{
				Kind:                      catalog.ConstraintPrimaryKey,
				PrimaryKeyColumns:         cols,
				PrimaryKeyIndexParameters: indexParameters(include, tablespace),
			}
		case "f":
			c.Type = catalog.ConstraintType{
				Kind:              catalog.ConstraintForeignKey,
				ForeignKeyColumns: cols,
				RefTable:          catalog.QualifiedName{Schema: refSchema, Local: refRel},
				RefColumns:        refCols,
				MatchType:         foreignKeyMatch(matchType),
				OnDelete:          catalog.ForeignKeyAction{Kind: foreignKeyAction(onDelete)},
				OnUpdate:          catalog.ForeignKeyAction{Kind: foreignKeyAction(onUpdate)},
			}
		}
		constraints = append(constraints, c)
	}
	return constraints, sqlErr(rows.Err())
}

func indexParameters(include []string, tablespace *string) catalog.IndexParameters {
	p := catalog.IndexParameters{Include: include}
	if tablespace != nil {
		ts := catalog.TableSpace(*tablespace)
		p.Tablespace = &ts
	}
	return p
}

func foreignKeyMatch(code string) catalog.ForeignKeyMatch {
	switch code {
	case "f":
		return catalog.ForeignKeyMatchFull
	case "p":
		return catalog.ForeignKeyMatchPartial
	default:
		return catalog.ForeignKeyMatchSimple
	}
}

func foreignKeyAction(code string) catalog.ForeignKeyActionKind {
	switch code {
	case "r":
		return catalog.ForeignKeyActionRestrict
	case "c":
		return catalog.ForeignKeyActionCascade
	case "n":
		return catalog.ForeignKeyActionSetNull
	case "d":
		return catalog.ForeignKeyActionSetDefault
	default:
		return catalog.ForeignKeyActionNoAction
	}
}
