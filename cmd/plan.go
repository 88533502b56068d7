// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ClasicRando/pgdiff/pkg/differ"
)

func planCmd() *cobra.Command {
	var filesPath string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan, but do not execute, the migration steps needed to bring the target database in line with the source files",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, connStr, err := NewTargetDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			planner := differ.New(db, connStr, filesPath, SearchPaths(), NewCmdLogger())
			script, err := planner.PlanMigrationScript(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), script)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filesPath, "files-path", "p", "", "Directory of source control SQL files describing the desired state")
	cmd.MarkFlagRequired("files-path")

	return cmd
}
