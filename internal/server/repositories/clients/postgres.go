// Package clients provides the PostgreSQL-backed client registry used to
// resolve API keys.
package clients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userdirectory/internal/common"
	"github.com/dmitrijs2005/userdirectory/internal/dbx"
	"github.com/dmitrijs2005/userdirectory/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByAPIKey returns the client whose key equals apiKey exactly.
// Unknown keys yield common.ErrorNotFound.
func (r *PostgresRepository) FindByAPIKey(ctx context.Context, apiKey string) (*models.Client, error) {
	query :=
		`SELECT id, api_key, client_name FROM clients
		 WHERE api_key = $1
		 `

	client := &models.Client{}
	err := r.db.QueryRowContext(ctx, query, apiKey).Scan(&client.ID, &client.APIKey, &client.Name)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return client, nil
}

// Ping issues a trivial query so health checks work through DBTX.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
