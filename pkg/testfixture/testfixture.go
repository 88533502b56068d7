// SPDX-License-Identifier: Apache-2.0

// Package testfixture provides the shared Postgres test container and
// source-tree fixtures used by integration tests across pkg/scrape,
// pkg/stage and pkg/differ: tests that need a real database rather than the
// pure decode/ordering logic covered by unit tests.
package testfixture

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/tools/txtar"

	"github.com/ClasicRando/pgdiff/pkg/pgdb"
)

const defaultPostgresVersion = "15.3"

var containerConnStr string

// SharedTestMain starts a single Postgres container for every test in a
// package's TestMain, torn down once all tests finish. Each test then calls
// NewDatabase to get its own isolated database within that container.
func SharedTestMain(m *testing.M) {
	ctx := context.Background()

	pgVersion := os.Getenv("POSTGRES_VERSION")
	if pgVersion == "" {
		pgVersion = defaultPostgresVersion
	}

	ctr, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:"+pgVersion),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "starting postgres container:", err)
		os.Exit(1)
	}

	containerConnStr, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintln(os.Stderr, "reading postgres container connection string:", err)
		os.Exit(1)
	}

	exitCode := m.Run()

	if err := ctr.Terminate(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "terminating postgres container:", err)
	}

	os.Exit(exitCode)
}

// NewDatabase creates a fresh, randomly-named database in the shared
// container and returns an *pgdb.RDB connected to it along with its
// connection string. The database is dropped when the test completes.
func NewDatabase(t *testing.T) (*pgdb.RDB, string) {
	t.Helper()
	ctx := context.Background()

	admin, err := sql.Open("postgres", containerConnStr)
	if err != nil {
		t.Fatalf("connecting to test container: %v", err)
	}
	t.Cleanup(func() { admin.Close() })

	dbName := randomDatabaseName()
	if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbName)); err != nil {
		t.Fatalf("creating test database %s: %v", dbName, err)
	}
	t.Cleanup(func() {
		admin.ExecContext(context.Background(), "DROP DATABASE IF EXISTS "+pq.QuoteIdentifier(dbName)+" WITH (FORCE)")
	})

	u, err := url.Parse(containerConnStr)
	if err != nil {
		t.Fatalf("parsing test container connection string: %v", err)
	}
	u.Path = "/" + dbName
	connStr := u.String()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("opening connection to %s: %v", dbName, err)
	}
	t.Cleanup(func() { db.Close() })

	return &pgdb.RDB{DB: db}, connStr
}

func randomDatabaseName() string {
	return fmt.Sprintf("pgdiff_test_%d", time.Now().UnixNano())
}

// LoadSourceTree unpacks a txtar archive of DDL files into a fresh temp
// directory and returns its path, ready to hand to pkg/source.FromDirectory.
// The archive comment, if present, is ignored; each archive file becomes a
// relative path under the returned directory.
func LoadSourceTree(t *testing.T, archive []byte) string {
	t.Helper()

	dir := t.TempDir()
	ar := txtar.Parse(archive)
	for _, f := range ar.Files {
		path := filepath.Join(dir, f.Name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating directory for %s: %v", f.Name, err)
		}
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			t.Fatalf("writing %s: %v", f.Name, err)
		}
	}
	return dir
}
