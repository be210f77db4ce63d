package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Postgres infers int4 for a bare parameter compared with a SERIAL column,
// so ids past the int32 range would fail instead of matching nothing.
func TestIDParametersAreBigint(t *testing.T) {
	for name, q := range map[string]string{
		"exists": sqlUserExists,
		"update": sqlUpdateUser,
		"delete": sqlDeleteUser,
	} {
		require.Contains(t, q, "AS BIGINT)", name)
	}
}
