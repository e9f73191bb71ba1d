package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/userdirectory/internal/dbx"
	"github.com/dmitrijs2005/userdirectory/internal/server/repositories/clients"
	"github.com/dmitrijs2005/userdirectory/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Clients(db dbx.DBTX) clients.Repository
	Users(db dbx.DBTX) users.Repository
}
