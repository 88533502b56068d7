// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ClasicRando/pgdiff/pkg/differ"
)

func scriptCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "script",
		Short: "Script the target database's objects out to a source control directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := NewTargetDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			return differ.Script(cmd.Context(), db, NewCmdLogger(), outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output-path", "o", "", "Directory the scripted source control files are written to")
	cmd.MarkFlagRequired("output-path")

	return cmd
}
