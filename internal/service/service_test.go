package service

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/reelhub/internal/auth"
	"github.com/sakif/reelhub/internal/repository/sqlstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPasswords() *auth.PasswordService {
	return auth.NewPasswordServiceWithCost(bcrypt.MinCost)
}

// newTestStore returns a fresh in-memory gateway.
func newTestStore(t *testing.T) *sqlstore.DB {
	t.Helper()
	db, err := sqlstore.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
