// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ClasicRando/pgdiff/cmd/flags"
	"github.com/ClasicRando/pgdiff/internal/config"
	"github.com/ClasicRando/pgdiff/internal/connstr"
	"github.com/ClasicRando/pgdiff/pkg/diag"
	"github.com/ClasicRando/pgdiff/pkg/pgdb"
)

// Version is the pgdiff version.
var Version = "development"

func init() {
	viper.SetEnvPrefix("PGDIFF")
	viper.AutomaticEnv()

	flags.PgConnectionFlags(rootCmd)

	rootCmd.PersistentFlags().String("config", "pgdiff.yaml", "Path to an optional project configuration file")
	viper.BindPFlag("CONFIG_PATH", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetString("CONFIG_PATH"))
		if err != nil {
			return err
		}
		cfg.Apply()
		loadedConfig = cfg
		return nil
	}
}

// loadedConfig is the project config loaded by rootCmd's PersistentPreRunE,
// populated before any subcommand's RunE runs.
var loadedConfig = &config.Config{}

// SearchPaths returns the additional source directories configured in
// pgdiff.yaml, scanned alongside the one given on the command line.
func SearchPaths() []string {
	return loadedConfig.SearchPaths
}

var rootCmd = &cobra.Command{
	Use:          "pgdiff",
	SilenceUsage: true,
	Version:      Version,
}

// Execute executes the root command.
func Execute() error {
	rootCmd.AddCommand(scriptCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(migrateCmd())

	return rootCmd.Execute()
}

// targetConnection resolves the --connection flag, overriding its password
// with PGPASSWORD when that environment variable is set.
func targetConnection() (string, error) {
	connStr := flags.PostgresURL()
	if password, ok := os.LookupEnv("PGPASSWORD"); ok {
		var err error
		connStr, err = connstr.ApplyPassword(connStr, password)
		if err != nil {
			return "", fmt.Errorf("invalid connection string: %w", err)
		}
	}
	return connStr, nil
}

// NewTargetDB opens a retryable connection to the target database described
// by --connection, applying --connect-timeout and --statement-timeout.
func NewTargetDB(ctx context.Context) (*pgdb.RDB, string, error) {
	connStr, err := targetConnection()
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open connection to target database: %w", err)
	}

	if timeout := flags.ConnectTimeout(); timeout > 0 {
		pingCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			db.Close()
			return nil, "", fmt.Errorf("failed to connect to target database: %w", err)
		}
	}

	if timeout := flags.StatementTimeout(); timeout > 0 {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("SET statement_timeout = %d", timeout*1000)); err != nil {
			db.Close()
			return nil, "", fmt.Errorf("failed to apply statement timeout: %w", err)
		}
	}

	return &pgdb.RDB{DB: db}, connStr, nil
}

// NewCmdLogger builds the diag.Logger used by every subcommand, honoring
// --log-level.
func NewCmdLogger() diag.Logger {
	return diag.NewLogger(flags.LogLevel())
}
