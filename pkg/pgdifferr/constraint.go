// SPDX-License-Identifier: Apache-2.0

package pgdifferr

import (
	"errors"

	"github.com/lib/pq"
)

// Named Postgres constraint-violation condition classes, as reported by
// pq.Error.Code.Name(). These surface in CLI output so a failed migrate run
// reads as "unique_violation: ..." rather than a bare SQLSTATE.
const (
	CheckViolation      = "check_violation"
	ForeignKeyViolation = "foreign_key_violation"
	NotNullViolation    = "not_null_violation"
	UniqueViolation     = "unique_violation"
)

// ConstraintViolationKind reports the named condition class of err if it is a
// *pq.Error raised by one of the four constraint violation classes, and false
// otherwise.
func ConstraintViolationKind(err error) (string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return "", false
	}
	switch name := pqErr.Code.Name(); name {
	case CheckViolation, ForeignKeyViolation, NotNullViolation, UniqueViolation:
		return name, true
	default:
		return "", false
	}
}
