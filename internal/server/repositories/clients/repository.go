package clients

import (
	"context"

	"github.com/dmitrijs2005/userdirectory/internal/server/models"
)

// Repository reads the client registry. Clients are provisioned out of band,
// so there is no write path.
type Repository interface {
	FindByAPIKey(ctx context.Context, apiKey string) (*models.Client, error)
	Ping(ctx context.Context) error
}
