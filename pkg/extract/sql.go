// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"fmt"

	pgq "github.com/pganalyze/pg_query_go/v6"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
	"github.com/ClasicRando/pgdiff/pkg/pgdifferr"
)

// Dependencies walks every statement in sql and returns the set of catalog
// objects it references, deduplicated and in first-seen order. objectName
// names the object sql belongs to, for error attribution.
func Dependencies(objectName catalog.QualifiedName, sql string) ([]catalog.QualifiedName, error) {
	tree, err := pgq.Parse(sql)
	if err != nil {
		return nil, pgdifferr.PgQueryError{ObjectName: objectName, Cause: err}
	}
	var deps []catalog.QualifiedName
	seen := make(map[string]bool)
	push := func(name catalog.QualifiedName) {
		key := name.String()
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		deps = append(deps, name)
	}
	for _, stmt := range tree.GetStmts() {
		walkNode(stmt.GetStmt(), push)
	}
	return deps, nil
}

// walkNode recurses through a single parse-tree node, pushing every object
// reference it finds into push. The node kinds handled, and how each is
// decomposed, mirror the reference extractor's SQL-AST walk.
func walkNode(node *pgq.Node, push func(catalog.QualifiedName)) {
	if node == nil {
		return
	}
	switch n := node.Node.(type) {
	case *pgq.Node_TableFunc:
		walkNodes(n.TableFunc.GetColtypes(), push)
		walkNode(n.TableFunc.GetRowexpr(), push)
	case *pgq.Node_CaseExpr:
		walkNodes(n.CaseExpr.GetArgs(), push)
		walkNode(n.CaseExpr.GetDefresult(), push)
	case *pgq.Node_CaseWhen:
		walkNode(n.CaseWhen.GetExpr(), push)
		walkNode(n.CaseWhen.GetResult(), push)
	case *pgq.Node_TypeName:
		queueNames(n.TypeName.GetNames(), push)
	case *pgq.Node_AExpr:
		// The reference implementation queues lexpr twice instead of lexpr
		// and rexpr; both operands are walked here. See DESIGN.md.
		walkNode(n.AExpr.GetLexpr(), push)
		walkNode(n.AExpr.GetRexpr(), push)
	case *pgq.Node_FuncCall:
		walkNodes(n.FuncCall.GetArgs(), push)
		queueNames(n.FuncCall.GetFuncname(), push)
	case *pgq.Node_ColumnDef:
		if tn := n.ColumnDef.GetTypeName(); tn != nil {
			queueNames(tn.GetNames(), push)
		}
	case *pgq.Node_AlterTableStmt:
		queueRelation(n.AlterTableStmt.GetRelation(), push)
		walkNodes(n.AlterTableStmt.GetCmds(), push)
	case *pgq.Node_AlterTableCmd:
		walkNode(n.AlterTableCmd.GetDef(), push)
	case *pgq.Node_CreateStmt:
		walkNodes(n.CreateStmt.GetConstraints(), push)
		walkNodes(n.CreateStmt.GetTableElts(), push)
	case *pgq.Node_Constraint:
		switch n.Constraint.GetContype() {
		case pgq.ConstrType_CONSTR_CHECK:
			walkNode(n.Constraint.GetRawExpr(), push)
		case pgq.ConstrType_CONSTR_FOREIGN:
			queueRelation(n.Constraint.GetPktable(), push)
		}
	case *pgq.Node_CreatePolicyStmt:
		queueRelation(n.CreatePolicyStmt.GetTable(), push)
		walkNode(n.CreatePolicyStmt.GetQual(), push)
		walkNode(n.CreatePolicyStmt.GetWithCheck(), push)
	case *pgq.Node_AlterPolicyStmt:
		queueRelation(n.AlterPolicyStmt.GetTable(), push)
		walkNode(n.AlterPolicyStmt.GetQual(), push)
		walkNode(n.AlterPolicyStmt.GetWithCheck(), push)
	case *pgq.Node_CreateTrigStmt:
		queueRelation(n.CreateTrigStmt.GetRelation(), push)
		queueNames(n.CreateTrigStmt.GetFuncname(), push)
	case *pgq.Node_IndexStmt:
		queueRelation(n.IndexStmt.GetRelation(), push)
	case *pgq.Node_CreateFunctionStmt:
		walkNode(n.CreateFunctionStmt.GetSqlBody(), push)
		if rt := n.CreateFunctionStmt.GetReturnType(); rt != nil {
			queueNames(rt.GetNames(), push)
		}
		walkNodes(n.CreateFunctionStmt.GetParameters(), push)
	case *pgq.Node_FunctionParameter:
		if at := n.FunctionParameter.GetArgType(); at != nil {
			queueNames(at.GetNames(), push)
		}
	case *pgq.Node_AlterFunctionStmt:
		walkNodes(n.AlterFunctionStmt.GetActions(), push)
	case *pgq.Node_AlterTypeStmt:
		walkNodes(n.AlterTypeStmt.GetOptions(), push)
	case *pgq.Node_CompositeTypeStmt:
		walkNodes(n.CompositeTypeStmt.GetColdeflist(), push)
	case *pgq.Node_ViewStmt:
		walkNode(n.ViewStmt.GetQuery(), push)
	}
}

func walkNodes(nodes []*pgq.Node, push func(catalog.QualifiedName)) {
	for _, n := range nodes {
		walkNode(n, push)
	}
}

func queueRelation(rv *pgq.RangeVar, push func(catalog.QualifiedName)) {
	if rv == nil {
		return
	}
	push(catalog.QualifiedName{Schema: rv.GetSchemaname(), Local: rv.GetRelname()})
}

// queueNames extracts a (possibly schema-qualified) name from a dotted
// identifier node list, applying the same elision rules as the reference
// extractor: pg_catalog-qualified names and unqualified built-ins are
// dropped.
func queueNames(nameNodes []*pgq.Node, push func(catalog.QualifiedName)) {
	switch len(nameNodes) {
	case 2:
		schema := extractString(nameNodes[0])
		local := extractString(nameNodes[1])
		if schema == "" || local == "" || schema == "pg_catalog" {
			return
		}
		push(catalog.QualifiedName{Schema: schema, Local: local})
	case 1:
		local := extractString(nameNodes[0])
		if local == "" || isBuiltIn(local) {
			return
		}
		push(catalog.QualifiedName{Local: local})
	}
}

func extractString(node *pgq.Node) string {
	if node == nil {
		return ""
	}
	if s, ok := node.Node.(*pgq.Node_String_); ok {
		return s.String_.GetSval()
	}
	return ""
}

// Deparse renders a parsed tree back to SQL text, used to feed a
// CREATE FUNCTION body written in plpgsql back through the procedural
// extractor.
func Deparse(tree *pgq.ParseResult) (string, error) {
	sql, err := pgq.Deparse(tree)
	if err != nil {
		return "", fmt.Errorf("deparse error: %w", err)
	}
	return sql, nil
}
