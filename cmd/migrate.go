// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
	"github.com/ClasicRando/pgdiff/pkg/diag"
	"github.com/ClasicRando/pgdiff/pkg/differ"
	"github.com/ClasicRando/pgdiff/pkg/pgdifferr"
)

func migrateCmd() *cobra.Command {
	var filesPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Perform the migration steps needed to bring the target database in line with the source files",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, connStr, err := NewTargetDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			logger := NewCmdLogger()
			planner := differ.New(db, connStr, filesPath, SearchPaths(), logger)
			results, err := planner.Plan(cmd.Context())
			if err != nil {
				return err
			}

			return applyResults(cmd.Context(), db.WithRetryableTransaction, logger, results)
		},
	}

	cmd.Flags().StringVarP(&filesPath, "files-path", "p", "", "Directory of source control SQL files describing the desired state")
	cmd.MarkFlagRequired("files-path")

	return cmd
}

// applyResults executes every CompareResult against the target database in
// order, each within its own retryable transaction so that a lock_timeout
// on one object doesn't abort objects already applied before it.
func applyResults(
	ctx context.Context,
	withTx func(context.Context, func(context.Context, *sql.Tx) error) error,
	logger diag.Logger,
	results []catalog.CompareResult,
) error {
	for _, result := range results {
		var buf bytes.Buffer
		var kind, name string
		switch result.Action {
		case catalog.ActionCreate:
			kind, name = result.New.KindLabel(), result.New.Name().String()
			if err := result.New.Create(&buf); err != nil {
				return err
			}
		case catalog.ActionAlter:
			kind, name = result.Old.KindLabel(), result.Old.Name().String()
			if err := result.Old.Alter(result.New, &buf); err != nil {
				return err
			}
		case catalog.ActionDrop:
			kind, name = result.Old.KindLabel(), result.Old.Name().String()
			if err := result.Old.Drop(&buf); err != nil {
				return err
			}
		}

		if buf.Len() == 0 {
			continue
		}

		err := withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, buf.String())
			return err
		})
		if err != nil {
			message := err.Error()
			if violation, ok := pgdifferr.ConstraintViolationKind(err); ok {
				message = violation + ": " + message
			}
			logger.LogStatementFailed(kind, name, message)
			return err
		}

		switch result.Action {
		case catalog.ActionCreate:
			logger.LogObjectCreate(kind, name)
		case catalog.ActionAlter:
			logger.LogObjectAlter(kind, name)
		case catalog.ActionDrop:
			logger.LogObjectDrop(kind, name)
		}
	}
	return nil
}
