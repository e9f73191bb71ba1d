package users

import (
	"context"

	"github.com/dmitrijs2005/userdirectory/internal/server/models"
	"github.com/google/uuid"
)

// Repository stores users. Every read and write is scoped to a client id;
// a user owned by another client is reported as common.ErrorNotFound.
type Repository interface {
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.User, error)
	GetByID(ctx context.Context, clientID, id uuid.UUID) (*models.User, error)
	GetByUserName(ctx context.Context, clientID uuid.UUID, userName string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, clientID, id uuid.UUID) error
}
