package e

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNCarriesCodeAndMessage(t *testing.T) {
	err := N("030201", MsgMigrationNoVector)

	require.Error(t, err)
	assert.True(t, Contains(err, "030201"))
	assert.True(t, ContainsError(err, MsgMigrationNoVector))
}

func TestWWrapsNilAsNewError(t *testing.T) {
	err := W(nil, "020101", "Failed to connect to DB")

	require.Error(t, err)
	assert.True(t, Contains(err, "020101"))
	assert.True(t, ContainsError(err, "Failed to connect to DB"))
}

func TestWChainKeepsAllCodes(t *testing.T) {
	err := fmt.Errorf("connection refused")
	err = W(err, "020102")
	err = W(err, "030101")

	assert.True(t, Contains(err, "020102"))
	assert.True(t, Contains(err, "030101"))
	assert.True(t, ContainsError(err, "connection refused"))
}

func TestAsExtendedError(t *testing.T) {
	assert.Nil(t, AsExtendedError(nil))
	assert.Nil(t, AsExtendedError(fmt.Errorf("plain")))

	ee := AsExtendedError(N("010101", MsgConfigMissingEnv))
	require.NotNil(t, ee)
	assert.True(t, ContainsError(ee, MsgConfigMissingEnv))
}

func TestIsPQError(t *testing.T) {
	pqerr := &pq.Error{Code: pq.ErrorCode(PQErr23505UniqueViolation)}

	assert.True(t, IsPQError(pqerr, PQErr23505UniqueViolation))
	assert.False(t, IsPQError(pqerr, PQErr42P01UndefinedTable))

	wrapped := W(pqerr, "020601")
	assert.True(t, IsPQError(wrapped, PQErr23505UniqueViolation))

	assert.False(t, IsPQError(fmt.Errorf("not a pq error"), PQErr23505UniqueViolation))
}
