package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/interntrack/internal/logging"
	"github.com/dmitrijs2005/interntrack/internal/server/auth"
	"github.com/dmitrijs2005/interntrack/internal/server/repositories/memory"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	db          *sql.DB
	mock        sqlmock.Sqlmock
	repos       *memory.Manager
	tokens      *auth.TokenService
	users       *UserService
	internships *InternshipService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	repos := memory.NewManager()
	return &fixture{
		db:          db,
		mock:        mock,
		repos:       repos,
		tokens:      tokens,
		users:       NewUserService(db, repos, hasher, tokens, logging.Nop()),
		internships: NewInternshipService(db, repos, logging.Nop()),
	}
}

func ptr(s string) *string { return &s }
