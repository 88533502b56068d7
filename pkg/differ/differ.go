// SPDX-License-Identifier: Apache-2.0

// Package differ implements the top-level orchestration (C4): scraping the
// target database, applying source control DDL to a sacrificial staging
// database, scraping that too, and comparing the two to produce a migration
// script.
package differ

import (
	"bytes"
	"context"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
	"github.com/ClasicRando/pgdiff/pkg/diag"
	"github.com/ClasicRando/pgdiff/pkg/pgdb"
	"github.com/ClasicRando/pgdiff/pkg/scrape"
	"github.com/ClasicRando/pgdiff/pkg/source"
	"github.com/ClasicRando/pgdiff/pkg/stage"
)

// Planner holds everything needed to plan a migration: the connection to
// the target database and the directories of source control files
// describing the desired state.
type Planner struct {
	TargetDB      pgdb.DB
	TargetConnStr string
	SourceDir     string
	// SearchPaths holds additional source directories, beyond SourceDir,
	// scanned for source control files. Populated from pgdiff.yaml's
	// searchPaths option.
	SearchPaths []string
	Logger      diag.Logger
}

// New builds a Planner, defaulting Logger to a no-op logger if not set.
// searchPaths names additional directories scanned alongside sourceDir.
func New(targetDB pgdb.DB, targetConnStr, sourceDir string, searchPaths []string, logger diag.Logger) *Planner {
	if logger == nil {
		logger = diag.NewNoopLogger()
	}
	return &Planner{
		TargetDB:      targetDB,
		TargetConnStr: targetConnStr,
		SourceDir:     sourceDir,
		SearchPaths:   searchPaths,
		Logger:        logger,
	}
}

// Plan scrapes the target database, applies the source control files to a
// throwaway staging database, scrapes that too, and returns the ordered
// CREATE/ALTER/DROP statements needed to migrate the target into the
// desired state.
func (p *Planner) Plan(ctx context.Context) ([]catalog.CompareResult, error) {
	targetDatabase, err := scrape.Database(ctx, p.TargetDB, p.Logger)
	if err != nil {
		return nil, err
	}

	var statements []*stage.Statement
	for _, dir := range append([]string{p.SourceDir}, p.SearchPaths...) {
		dirStatements, err := source.FromDirectory(dir)
		if err != nil {
			return nil, err
		}
		statements = append(statements, dirStatements...)
	}

	session, err := stage.Open(ctx, p.TargetDB, p.TargetConnStr, p.Logger)
	if err != nil {
		return nil, err
	}
	defer session.Close(ctx)

	if err := stage.Apply(ctx, session.DB(), p.Logger, statements); err != nil {
		return nil, err
	}

	desiredDatabase, err := scrape.Database(ctx, session.DB(), p.Logger)
	if err != nil {
		return nil, err
	}

	p.Logger.LogCompareStart()
	results, err := catalog.Compare(targetDatabase, desiredDatabase)
	if err != nil {
		return nil, err
	}
	creates, alters, drops := 0, 0, 0
	for _, r := range results {
		switch r.Action {
		case catalog.ActionCreate:
			creates++
		case catalog.ActionAlter:
			alters++
		case catalog.ActionDrop:
			drops++
		}
	}
	p.Logger.LogCompareComplete(creates, alters, drops)
	return results, nil
}

// PlanMigrationScript is Plan followed by rendering the result as a single
// SQL script.
func (p *Planner) PlanMigrationScript(ctx context.Context) (string, error) {
	results, err := p.Plan(ctx)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := catalog.WriteMigrationScript(results, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Script scrapes the target database alone and writes it out as a source
// control directory tree, without comparing against any desired state. This
// backs the `script` subcommand: bootstrapping a source control directory
// from an existing database.
func Script(ctx context.Context, targetDB pgdb.DB, logger diag.Logger, outputPath string) error {
	if logger == nil {
		logger = diag.NewNoopLogger()
	}
	database, err := scrape.Database(ctx, targetDB, logger)
	if err != nil {
		return err
	}
	return database.ScriptOut(outputPath)
}
