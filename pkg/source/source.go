// SPDX-License-Identifier: Apache-2.0

// Package source reads the directory of source control DDL files the
// desired database state is described in, splits each file into individual
// statements, and determines the catalog object each statement creates or
// alters along with the other objects it depends on.
package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	pgq "github.com/pganalyze/pg_query_go/v6"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
	"github.com/ClasicRando/pgdiff/pkg/extract"
	"github.com/ClasicRando/pgdiff/pkg/pgdifferr"
	"github.com/ClasicRando/pgdiff/pkg/stage"
)

// FromDirectory walks every ".sql"/".pgsql" file under dir (recursively),
// splits each into its constituent statements and parses each into a
// stage.Statement tagged with the object it creates/alters and the objects
// it depends on.
func FromDirectory(dir string) ([]*stage.Statement, error) {
	var statements []*stage.Statement
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") && !strings.HasSuffix(name, ".pgsql") {
			return nil
		}
		fileStatements, err := statementsFromFile(path)
		if err != nil {
			return err
		}
		statements = append(statements, fileStatements...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return statements, nil
}

func statementsFromFile(path string) ([]*stage.Statement, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, pgdifferr.IoError{Err: err}
	}
	fileName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	objectName := catalog.NewQualifiedName(fileName)

	queries, err := pgq.SplitWithParser(string(content), false)
	if err != nil {
		return nil, pgdifferr.PgQueryError{ObjectName: objectName, Cause: err}
	}

	statements := make([]*stage.Statement, 0, len(queries))
	for _, query := range queries {
		tree, err := pgq.Parse(query)
		if err != nil {
			return nil, pgdifferr.PgQueryError{ObjectName: objectName, Cause: err}
		}
		stmts := tree.GetStmts()
		if len(stmts) == 0 {
			continue
		}
		root := stmts[0].GetStmt()
		object, err := primaryObject(path, root)
		if err != nil {
			return nil, err
		}
		deps, err := extract.Dependencies(object, query)
		if err != nil {
			return nil, err
		}
		statements = append(statements, &stage.Statement{
			Text:         query,
			Object:       object,
			Dependencies: deps,
		})
	}
	return statements, nil
}

// primaryObject determines the catalog object a single top-level statement
// creates or alters, following the same root-node-kind dispatch as the
// reference extractor. Child objects (constraints, policies, triggers,
// indexes) that cannot stand alone in the catalog model are tagged with a
// composite "owner.child" name. Policies and triggers match how pkg/catalog
// keys them; pkg/catalog keys an index by its own name alone, and an ALTER
// TABLE statement is tagged "owner.(constraint,...)" with every constraint
// it adds.
func primaryObject(path string, node *pgq.Node) (catalog.QualifiedName, error) {
	switch n := node.Node.(type) {
	case *pgq.Node_AlterTableStmt:
		relation := n.AlterTableStmt.GetRelation()
		if relation == nil {
			return catalog.QualifiedName{}, fileParseError(path, "ALTER TABLE statement has no relation")
		}
		var constraintNames []string
		for _, cmd := range n.AlterTableStmt.GetCmds() {
			def := cmd.GetAlterTableCmd().GetDef()
			if c, ok := def.GetNode().(*pgq.Node_Constraint); ok {
				constraintNames = append(constraintNames, c.Constraint.GetConname())
			}
		}
		local := fmt.Sprintf("%s.(%s)", relation.GetRelname(), strings.Join(constraintNames, ","))
		return catalog.QualifiedName{Schema: relation.GetSchemaname(), Local: local}, nil

	case *pgq.Node_CreateSchemaStmt:
		return catalog.SchemaOnly(n.CreateSchemaStmt.GetSchemaname()), nil

	case *pgq.Node_CompositeTypeStmt:
		tv := n.CompositeTypeStmt.GetTypevar()
		if tv == nil {
			return catalog.QualifiedName{}, fileParseError(path, "CREATE TYPE ... AS statement has no type name")
		}
		return catalog.QualifiedName{Schema: tv.GetSchemaname(), Local: tv.GetRelname()}, nil

	case *pgq.Node_CreateExtensionStmt:
		return catalog.QualifiedName{Local: n.CreateExtensionStmt.GetExtname()}, nil

	case *pgq.Node_CreatePolicyStmt:
		relation := n.CreatePolicyStmt.GetTable()
		if relation == nil {
			return catalog.QualifiedName{}, fileParseError(path, "CREATE POLICY statement has no table")
		}
		local := relation.GetRelname() + "." + n.CreatePolicyStmt.GetPolicyName()
		return catalog.QualifiedName{Schema: relation.GetSchemaname(), Local: local}, nil

	case *pgq.Node_CreateTrigStmt:
		relation := n.CreateTrigStmt.GetRelation()
		if relation == nil {
			return catalog.QualifiedName{}, fileParseError(path, "CREATE TRIGGER statement has no table")
		}
		local := relation.GetRelname() + "." + n.CreateTrigStmt.GetTrigname()
		return catalog.QualifiedName{Schema: relation.GetSchemaname(), Local: local}, nil

	case *pgq.Node_CreateSeqStmt:
		seq := n.CreateSeqStmt.GetSequence()
		if seq == nil {
			return catalog.QualifiedName{}, fileParseError(path, "CREATE SEQUENCE statement has no name")
		}
		return catalog.QualifiedName{Schema: seq.GetSchemaname(), Local: seq.GetRelname()}, nil

	case *pgq.Node_CreateFunctionStmt:
		name, ok := extractNameList(n.CreateFunctionStmt.GetFuncname())
		if !ok {
			return catalog.QualifiedName{}, fileParseError(path, "could not extract function name")
		}
		return name, nil

	case *pgq.Node_CreateEnumStmt:
		name, ok := extractNameList(n.CreateEnumStmt.GetTypeName())
		if !ok {
			return catalog.QualifiedName{}, fileParseError(path, "could not extract enum type name")
		}
		return name, nil

	case *pgq.Node_CreateRangeStmt:
		name, ok := extractNameList(n.CreateRangeStmt.GetTypeName())
		if !ok {
			return catalog.QualifiedName{}, fileParseError(path, "could not extract range type name")
		}
		return name, nil

	case *pgq.Node_CreateStmt:
		relation := n.CreateStmt.GetRelation()
		if relation == nil {
			return catalog.QualifiedName{}, fileParseError(path, "CREATE TABLE statement has no relation")
		}
		return catalog.QualifiedName{Schema: relation.GetSchemaname(), Local: relation.GetRelname()}, nil

	case *pgq.Node_ViewStmt:
		view := n.ViewStmt.GetView()
		if view == nil {
			return catalog.QualifiedName{}, fileParseError(path, "CREATE VIEW statement has no relation")
		}
		return catalog.QualifiedName{Schema: view.GetSchemaname(), Local: view.GetRelname()}, nil

	case *pgq.Node_IndexStmt:
		relation := n.IndexStmt.GetRelation()
		if relation == nil {
			return catalog.QualifiedName{}, fileParseError(path, "CREATE INDEX statement has no relation")
		}
		local := relation.GetRelname() + "." + n.IndexStmt.GetIdxname()
		return catalog.QualifiedName{Schema: relation.GetSchemaname(), Local: local}, nil

	default:
		return catalog.QualifiedName{}, fileParseError(path, fmt.Sprintf("first node of statement is not recognized: %T", n))
	}
}

func extractNameList(nameNodes []*pgq.Node) (catalog.QualifiedName, bool) {
	switch len(nameNodes) {
	case 2:
		schema := stringValue(nameNodes[0])
		local := stringValue(nameNodes[1])
		if schema == "" || local == "" {
			return catalog.QualifiedName{}, false
		}
		return catalog.QualifiedName{Schema: schema, Local: local}, true
	case 1:
		local := stringValue(nameNodes[0])
		if local == "" {
			return catalog.QualifiedName{}, false
		}
		return catalog.QualifiedName{Local: local}, true
	default:
		return catalog.QualifiedName{}, false
	}
}

func stringValue(node *pgq.Node) string {
	if node == nil {
		return ""
	}
	if s, ok := node.Node.(*pgq.Node_String_); ok {
		return s.String_.GetSval()
	}
	return ""
}

func fileParseError(path, message string) error {
	return pgdifferr.FileQueryParseError{Path: path, Message: message}
}
