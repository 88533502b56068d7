// SPDX-License-Identifier: Apache-2.0

package stage

import (
	"context"
	"errors"
	"strings"

	"github.com/lib/pq"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
	"github.com/ClasicRando/pgdiff/pkg/diag"
	"github.com/ClasicRando/pgdiff/pkg/pgdb"
	"github.com/ClasicRando/pgdiff/pkg/pgdifferr"
)

// Apply executes statements against db in dependency order, healing the
// order as PostgreSQL reports "does not exist" errors for references the
// extractor missed. Any other database error is returned as a SqlError. It
// returns a SourceControlScriptError if a full rotation through the
// statements that have so far failed makes no further progress.
func Apply(ctx context.Context, db pgdb.DB, logger diag.Logger, statements []*Statement) error {
	iter := newStatementIter(statements)
	byObject := make(map[string]*Statement, len(statements))
	for _, s := range statements {
		byObject[s.Object.String()] = s
	}

	attempt := 0
	for {
		stmt, ok := iter.next()
		if !ok {
			break
		}
		attempt++
		logger.LogStatementApply("statement", stmt.Object.String())

		_, err := db.ExecContext(ctx, stmt.Text)
		if err == nil {
			continue
		}

		var pqErr *pq.Error
		if !errors.As(err, &pqErr) || !strings.HasSuffix(pqErr.Message, " does not exist") {
			return pgdifferr.SqlError{Err: err}
		}

		original, found := byObject[stmt.Object.String()]
		if !found {
			logger.LogStatementRetry("statement", stmt.Object.String(), attempt, pqErr.Message)
			iter.addBackFailed(stmt)
			continue
		}
		if dep, ok := missingDependency(pqErr.Message); ok {
			original.Dependencies = append(original.Dependencies, dep)
		}
		logger.LogStatementRetry("statement", original.Object.String(), attempt, pqErr.Message)
		iter.addBackFailed(original)
	}

	if iter.hasRemaining() {
		remaining := iter.takeRemaining()
		texts := make([]string, len(remaining))
		for i, s := range remaining {
			logger.LogStatementFailed("statement", s.Object.String(), "unresolved after full rotation")
			texts[i] = s.Text
		}
		return pgdifferr.SourceControlScriptError{Remaining: texts}
	}
	return nil
}

// missingDependency parses the name PostgreSQL reports in a
// "... does not exist" error (e.g. `relation "public.foo" does not exist`)
// into the dependency that should be added before retrying. Unlike the
// reference implementation's skip_while/take_while scan (a no-op over a
// string that starts with a non-quote character, so it never actually
// extracted anything), this finds the first quoted substring in the message
// directly.
func missingDependency(message string) (catalog.QualifiedName, bool) {
	if !strings.HasSuffix(message, " does not exist") {
		return catalog.QualifiedName{}, false
	}
	first := strings.IndexByte(message, '"')
	if first < 0 {
		return catalog.QualifiedName{}, false
	}
	rest := message[first+1:]
	second := strings.IndexByte(rest, '"')
	if second < 0 {
		return catalog.QualifiedName{}, false
	}
	name := rest[:second]
	if name == "" {
		return catalog.QualifiedName{}, false
	}
	return catalog.NewQualifiedName(name), true
}
