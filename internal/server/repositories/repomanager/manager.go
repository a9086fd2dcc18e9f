package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/interntrack/internal/dbx"
	"github.com/dmitrijs2005/interntrack/internal/server/repositories/internships"
	"github.com/dmitrijs2005/interntrack/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either the pool or an open
// transaction, so services can choose per call.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Internships(db dbx.DBTX) internships.Repository
}
