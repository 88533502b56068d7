// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
	"github.com/ClasicRando/pgdiff/pkg/diag"
	"github.com/ClasicRando/pgdiff/pkg/testfixture"
)

func TestMain(m *testing.M) {
	testfixture.SharedTestMain(m)
}

const fixtureSourceTree = `
-- customers.sql --
CREATE TABLE customers (
	id bigint PRIMARY KEY,
	email text NOT NULL
);
-- orders.sql --
CREATE TABLE orders (
	id bigint PRIMARY KEY,
	customer_id bigint NOT NULL REFERENCES customers (id),
	placed_at timestamptz NOT NULL DEFAULT now()
);
`

func TestPlannerPlanProposesCreatesAgainstAnEmptyTarget(t *testing.T) {
	db, connStr := testfixture.NewDatabase(t)
	dir := testfixture.LoadSourceTree(t, []byte(fixtureSourceTree))

	planner := New(db, connStr, dir, nil, diag.NewNoopLogger())
	results, err := planner.Plan(context.Background())
	require.NoError(t, err)

	require.Len(t, results, 5)
	for _, result := range results {
		assert.Equal(t, catalog.ActionCreate, result.Action)
		assert.Nil(t, result.Old)
		assert.NotNil(t, result.New)
	}
}

func TestPlannerPlanMigrationScriptReapplyingProducesNoFurtherChanges(t *testing.T) {
	db, connStr := testfixture.NewDatabase(t)
	dir := testfixture.LoadSourceTree(t, []byte(fixtureSourceTree))

	planner := New(db, connStr, dir, nil, diag.NewNoopLogger())
	ctx := context.Background()

	script, err := planner.PlanMigrationScript(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, script)

	_, err = db.ExecContext(ctx, script)
	require.NoError(t, err)

	results, err := planner.Plan(ctx)
	require.NoError(t, err)
	assert.Empty(t, results)
}

const fixtureSearchPathExtra = `
-- widgets.sql --
CREATE TABLE widgets (
	id bigint PRIMARY KEY
);
`

func TestPlannerPlanMergesStatementsFromSearchPaths(t *testing.T) {
	db, connStr := testfixture.NewDatabase(t)
	primaryDir := testfixture.LoadSourceTree(t, []byte(fixtureSourceTree))
	extraDir := testfixture.LoadSourceTree(t, []byte(fixtureSearchPathExtra))

	planner := New(db, connStr, primaryDir, []string{extraDir}, diag.NewNoopLogger())
	results, err := planner.Plan(context.Background())
	require.NoError(t, err)

	require.Len(t, results, 7)
	var names []string
	for _, result := range results {
		names = append(names, result.New.Name().String())
	}
	assert.Contains(t, names, "public.widgets")
}
