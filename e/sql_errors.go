package e

import (
	"errors"

	"github.com/lib/pq"
)

const (
	// PQErr23505UniqueViolation Postgres code for unique violation
	PQErr23505UniqueViolation = "23505"
	// PQErr42P01UndefinedTable Postgres code for undefined table
	PQErr42P01UndefinedTable = "42P01"
)

// IsPQError checks if the passed error is the specified Postgres error code
func IsPQError(err error, errorCode string) bool {
	var pqerr *pq.Error
	if ee := AsExtendedError(err); ee != nil {
		return ee.AsError(&pqerr) && string(pqerr.Code) == errorCode
	}

	return errors.As(err, &pqerr) && string(pqerr.Code) == errorCode
}
