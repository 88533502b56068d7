// SPDX-License-Identifier: Apache-2.0

package scrape

import (
	"context"

	"github.com/lib/pq"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
	"github.com/ClasicRando/pgdiff/pkg/pgdb"
)

func scrapePolicies(ctx context.Context, db pgdb.DB) ([]*catalog.Policy, error) {
	const query = `
SELECT pol.polname, n.nspname, c.relname, pol.polpermissive, pol.polcmd,
       array(SELECT rolname FROM pg_catalog.pg_roles r WHERE r.oid = ANY(pol.polroles)),
       pg_get_expr(pol.polqual, pol.polrelid),
       pg_get_expr(pol.polwithcheck, pol.polrelid)
FROM pg_catalog.pg_policy pol
JOIN pg_catalog.pg_class c ON c.oid = pol.polrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname NOT IN ('pg_catalog', 'information_schema')`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, sqlErr(err)
	}
	defer rows.Close()

	var policies []*catalog.Policy
	for rows.Next() {
		p := &catalog.Policy{}
		var ownerTable string
		var cmd string
		var appliesTo []string
		var checkExpr, usingExpr *string
		if err := rows.Scan(
			&p.PolicyName, &p.QName.Schema, &ownerTable, &p.IsPermissive, &cmd,
			pq.Array(&appliesTo), &usingExpr, &checkExpr,
		); err != nil {
			return nil, sqlErr(err)
		}
		p.OwnerTableName = catalog.QualifiedName{Schema: p.QName.Schema, Local: ownerTable}
		p.QName = catalog.QualifiedName{Schema: p.QName.Schema, Local: ownerTable + "." + p.PolicyName}
		p.AppliesTo = appliesTo
		p.UsingExpression = usingExpr
		p.CheckExpression = checkExpr
		p.Command = policyCommand(cmd)
		p.Deps = []catalog.QualifiedName{p.OwnerTableName}
		policies = append(policies, p)
	}
	return policies, sqlErr(rows.Err())
}

func policyCommand(code string) catalog.PolicyCommand {
	switch code {
	case "r":
		return catalog.PolicySelect
	case "a":
		return catalog.PolicyInsert
	case "w":
		return catalog.PolicyUpdate
	case "d":
		return catalog.PolicyDelete
	default:
		return catalog.PolicyAll
	}
}
