// SPDX-License-Identifier: Apache-2.0

package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestFromDirectoryNamesObjectsByStatementKind(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "customers.sql", `
CREATE TABLE public.customers (
    id serial PRIMARY KEY,
    name text NOT NULL
);
`)
	writeFile(t, dir, "orders.sql", `
CREATE TABLE public.orders (
    id serial PRIMARY KEY,
    customer_id integer NOT NULL REFERENCES public.customers (id)
);

CREATE INDEX orders_customer_id_idx ON public.orders (customer_id);

CREATE TRIGGER set_updated_at BEFORE UPDATE ON public.orders
    FOR EACH ROW EXECUTE FUNCTION public.touch_updated_at();
`)

	statements, err := FromDirectory(dir)
	require.NoError(t, err)
	require.Len(t, statements, 4)

	byObject := make(map[string]bool)
	for _, s := range statements {
		byObject[s.Object.String()] = true
	}

	assert.True(t, byObject["public.customers"])
	assert.True(t, byObject["public.orders"])
	assert.True(t, byObject["public.orders.orders_customer_id_idx"])
	assert.True(t, byObject["public.orders.set_updated_at"])
}

func TestFromDirectorySkipsFilesWithoutTheSqlOrPgsqlExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", "not sql")
	writeFile(t, dir, "schema.pgsql", "CREATE SCHEMA billing;")

	statements, err := FromDirectory(dir)
	require.NoError(t, err)
	require.Len(t, statements, 1)
	assert.Equal(t, "billing", statements[0].Object.String())
}
