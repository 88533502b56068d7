// SPDX-License-Identifier: Apache-2.0

package stage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ClasicRando/pgdiff/internal/connstr"
	"github.com/ClasicRando/pgdiff/pkg/diag"
	"github.com/ClasicRando/pgdiff/pkg/pgdb"
	"github.com/ClasicRando/pgdiff/pkg/pgdifferr"
)

// options captures the target database's locale settings that CREATE
// DATABASE needs in order to produce a staging database that behaves
// identically for collation-sensitive comparisons.
type options struct {
	encoding          string
	collationVersion  string
	locale            sql.NullString
	localeProvider    string
	localeCollate     sql.NullString
	localeCType       sql.NullString
	icuLocale         sql.NullString
	icuRules          sql.NullString
}

func loadOptions(ctx context.Context, db pgdb.DB) (*options, error) {
	const query = `
SELECT d.encoding::text,
       d.datcollversion,
       d.datlocale,
       d.datlocprovider,
       d.datcollate,
       d.datctype,
       CASE WHEN d.datlocprovider = 'i' THEN d.daticulocale END,
       CASE WHEN d.datlocprovider = 'i' THEN d.daticurules END
FROM pg_database d
WHERE d.datname = current_database()`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, pgdifferr.SqlError{Err: err}
	}
	defer rows.Close()

	o := &options{}
	if !rows.Next() {
		return nil, pgdifferr.GeneralError{Message: "could not load current database options"}
	}
	if err := rows.Scan(
		&o.encoding, &o.collationVersion, &o.locale, &o.localeProvider,
		&o.localeCollate, &o.localeCType, &o.icuLocale, &o.icuRules,
	); err != nil {
		return nil, pgdifferr.SqlError{Err: err}
	}
	return o, rows.Err()
}

// createDatabaseOptions renders the WITH clause of a CREATE DATABASE
// statement that reproduces o, mirroring DatabaseOptions' Display impl.
func (o *options) createDatabaseOptions() string {
	var b strings.Builder
	fmt.Fprintf(&b, " WITH\n    ENCODING '%s'\n    COLLATION_VERSION '%s'", o.encoding, o.collationVersion)
	if o.locale.Valid {
		fmt.Fprintf(&b, "\n    LOCALE '%s'", o.locale.String)
	}
	switch o.localeProvider {
	case "i":
		fmt.Fprintf(&b, "\n    LOCALE_PROVIDER 'icu'\n    ICU_LOCALE '%s'", o.icuLocale.String)
		if o.icuRules.Valid {
			fmt.Fprintf(&b, "\n    ICU_RULES '%s'", o.icuRules.String)
		}
	default:
		fmt.Fprintf(&b, "\n    LOCALE_PROVIDER 'libc'\n    LC_COLLATE '%s'\n    LC_CTYPE '%s'",
			o.localeCollate.String, o.localeCType.String)
	}
	return b.String()
}

// Session owns the lifetime of the sacrificial database used to discover
// the schema a set of source control statements would produce: create it
// alongside the target connection, apply every statement to it, and drop it
// again once the caller is done, regardless of how the caller's context
// ends.
type Session struct {
	Name string

	targetDB pgdb.DB
	connStr  string
	logger   diag.Logger

	db     *sql.DB
	rdb    *pgdb.RDB
}

// Open creates a new sacrificial database on the same server as targetConnStr
// and returns a Session connected to it. The caller must call Close.
func Open(ctx context.Context, targetDB pgdb.DB, targetConnStr string, logger diag.Logger) (*Session, error) {
	canCreate, err := canCreateDatabase(ctx, targetDB)
	if err != nil {
		return nil, err
	}
	if !canCreate {
		return nil, pgdifferr.GeneralError{
			Message: "current user does not have permission to create a staging database",
		}
	}

	opts, err := loadOptions(ctx, targetDB)
	if err != nil {
		return nil, err
	}

	name := "pgdiff_" + strings.ReplaceAll(uuid.NewString(), "-", "_")
	createStmt := fmt.Sprintf("CREATE DATABASE %s%s;", pq.QuoteIdentifier(name), opts.createDatabaseOptions())
	if _, err := targetDB.ExecContext(ctx, createStmt); err != nil {
		return nil, pgdifferr.SqlError{Err: err}
	}
	logger.LogStagingDatabaseCreate(name)

	stagingConnStr, err := connstr.WithDatabase(targetConnStr, name)
	if err != nil {
		dropDatabase(ctx, targetDB, name, logger)
		return nil, err
	}
	sqlDB, err := sql.Open("postgres", stagingConnStr)
	if err != nil {
		dropDatabase(ctx, targetDB, name, logger)
		return nil, pgdifferr.SqlError{Err: err}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		dropDatabase(ctx, targetDB, name, logger)
		return nil, pgdifferr.SqlError{Err: err}
	}

	return &Session{
		Name:     name,
		targetDB: targetDB,
		connStr:  targetConnStr,
		logger:   logger,
		db:       sqlDB,
		rdb:      &pgdb.RDB{DB: sqlDB},
	}, nil
}

// DB returns the retryable connection to the staging database.
func (s *Session) DB() pgdb.DB {
	return s.rdb
}

// Close drops the staging database and closes the connection to it. It uses
// context.WithoutCancel so teardown still runs if the caller's context was
// cancelled, matching the reference implementation's unconditional drop on
// Drop.
func (s *Session) Close(ctx context.Context) error {
	if s.db != nil {
		_ = s.db.Close()
	}
	dropDatabase(context.WithoutCancel(ctx), s.targetDB, s.Name, s.logger)
	return nil
}

func dropDatabase(ctx context.Context, targetDB pgdb.DB, name string, logger diag.Logger) {
	dropStmt := fmt.Sprintf("DROP DATABASE IF EXISTS %s WITH (FORCE);", pq.QuoteIdentifier(name))
	if _, err := targetDB.ExecContext(ctx, dropStmt); err != nil {
		logger.Info("error dropping staging database", "name", name, "cause", err.Error())
		return
	}
	logger.LogStagingDatabaseDrop(name)
}

func canCreateDatabase(ctx context.Context, targetDB pgdb.DB) (bool, error) {
	const query = `
SELECT rolcreatedb OR rolsuper
FROM pg_roles
WHERE rolname = current_user`
	rows, err := targetDB.QueryContext(ctx, query)
	if err != nil {
		return false, pgdifferr.SqlError{Err: err}
	}
	defer rows.Close()
	var canCreate bool
	if err := pgdb.ScanFirstValue(rows, &canCreate); err != nil {
		return false, pgdifferr.SqlError{Err: err}
	}
	return canCreate, nil
}
