// SPDX-License-Identifier: Apache-2.0

package connstr

import (
	"fmt"
	"net/url"
	"strings"
)

// AppendSearchPathOption take a Postgres connection string in URL format and
// produces the same connection string with the search_path option set to the
// provided schema.
func AppendSearchPathOption(connStr, schema string) (string, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse connection string: %w", err)
	}

	if schema == "" {
		return connStr, nil
	}

	q := u.Query()
	q.Set("options", fmt.Sprintf("-c search_path=%s", schema))
	encodedQuery := q.Encode()

	// Replace '+' with '%20' to ensure proper encoding of spaces within the
	// `options` query parameter.
	encodedQuery = strings.ReplaceAll(encodedQuery, "+", "%20")

	u.RawQuery = encodedQuery

	return u.String(), nil
}

// WithDatabase returns connStr redirected at a different database name on
// the same server, leaving host, credentials and options untouched. Used by
// the staging executor to connect to the sacrificial database it creates
// alongside the target connection.
func WithDatabase(connStr, database string) (string, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse connection string: %w", err)
	}
	u.Path = "/" + database
	return u.String(), nil
}

// ApplyPassword returns connStr with its password component set, overriding
// whatever (possibly absent) password is already encoded in it. Used to
// apply a PGPASSWORD environment override without requiring it be embedded
// in the `--connection` flag.
func ApplyPassword(connStr, password string) (string, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse connection string: %w", err)
	}
	if password == "" {
		return connStr, nil
	}
	username := u.User.Username()
	u.User = url.UserPassword(username, password)
	return u.String(), nil
}

// DatabaseName extracts the database name component from a Postgres
// connection string in URL format.
func DatabaseName(connStr string) (string, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse connection string: %w", err)
	}
	return strings.TrimPrefix(u.Path, "/"), nil
}
