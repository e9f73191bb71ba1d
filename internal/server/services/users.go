// Package services contains server-side business logic. UserService manages
// the users of a client and verifies their passwords.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/userdirectory/internal/common"
	"github.com/dmitrijs2005/userdirectory/internal/cryptox"
	"github.com/dmitrijs2005/userdirectory/internal/dbx"
	"github.com/dmitrijs2005/userdirectory/internal/logging"
	"github.com/dmitrijs2005/userdirectory/internal/server/models"
	"github.com/dmitrijs2005/userdirectory/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// UserInput carries user data supplied by a client. ID may be uuid.Nil on
// create, in which case a new id is assigned.
type UserInput struct {
	ID                uuid.UUID
	UserName          string
	FullName          *string
	EMail             *string
	MobilePhoneNumber *string
	Language          string
	Culture           string
	Password          string
}

// UserService provides the user directory operations. Every call is scoped
// to a single client; users of other clients are invisible.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *cryptox.PasswordHasher
	logger      logging.Logger
	newID       func() uuid.UUID
}

// NewUserService constructs a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, h *cryptox.PasswordHasher, l logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      h,
		logger:      l.With("module", "user_service"),
		newID:       uuid.New,
	}
}

// List returns all users owned by clientID.
func (s *UserService) List(ctx context.Context, clientID uuid.UUID) ([]*models.User, error) {
	users, err := s.repomanager.Users(s.db).ListByClient(ctx, clientID)
	if err != nil {
		return nil, s.storeError(ctx, "list users", err)
	}
	return users, nil
}

// Get returns a single user of clientID.
func (s *UserService) Get(ctx context.Context, clientID, id uuid.UUID) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, clientID, id)
	if err != nil {
		return nil, s.repoError(ctx, "get user", err)
	}
	return user, nil
}

// Create validates in, hashes the password with the user id as salt and
// stores the new user. A duplicate user name yields common.ErrorConflict.
func (s *UserService) Create(ctx context.Context, clientID uuid.UUID, in UserInput) (*models.User, error) {
	if in.ID == uuid.Nil {
		in.ID = s.newID()
	}
	if err := validateUser(in); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrorValidation)
	}

	user := toModel(clientID, in)
	user.PasswordHash = s.hasher.Hash(user.ID, in.Password)

	created, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, s.repoError(ctx, "create user", err)
	}
	return created, nil
}

// Update replaces the data of an existing user of clientID. An empty
// password keeps the stored digest.
func (s *UserService) Update(ctx context.Context, clientID uuid.UUID, in UserInput) (*models.User, error) {
	if err := validateUser(in); err != nil {
		return nil, err
	}

	user := toModel(clientID, in)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		existing, err := repo.GetByID(ctx, clientID, in.ID)
		if err != nil {
			return err
		}

		if in.Password == "" {
			user.PasswordHash = existing.PasswordHash
		} else {
			user.PasswordHash = s.hasher.Hash(user.ID, in.Password)
		}

		_, err = repo.Update(ctx, user)
		return err
	})
	if err != nil {
		return nil, s.repoError(ctx, "update user", err)
	}
	return user, nil
}

// Delete removes a user of clientID.
func (s *UserService) Delete(ctx context.Context, clientID, id uuid.UUID) error {
	if err := s.repomanager.Users(s.db).Delete(ctx, clientID, id); err != nil {
		return s.repoError(ctx, "delete user", err)
	}
	return nil
}

// VerifyPassword looks up userName within clientID and checks password
// against the stored digest. A wrong password yields
// common.ErrVerificationMismatch.
func (s *UserService) VerifyPassword(ctx context.Context, clientID uuid.UUID, userName, password string) (*models.User, error) {
	if strings.TrimSpace(userName) == "" || strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: userName and password are required", common.ErrorValidation)
	}

	user, err := s.repomanager.Users(s.db).GetByUserName(ctx, clientID, userName)
	if err != nil {
		return nil, s.repoError(ctx, "find user", err)
	}

	ok, err := s.hasher.VerifyAsync(ctx, password, user.PasswordHash, user.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrVerificationMismatch
	}
	return user, nil
}

func (s *UserService) repoError(ctx context.Context, op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorConflict) {
		return err
	}
	return s.storeError(ctx, op, err)
}

func (s *UserService) storeError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	s.logger.Error(ctx, op+" failed", "error", err)
	return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
}

func toModel(clientID uuid.UUID, in UserInput) *models.User {
	return &models.User{
		ID:                in.ID,
		ClientID:          clientID,
		UserName:          in.UserName,
		FullName:          in.FullName,
		EMail:             in.EMail,
		MobilePhoneNumber: in.MobilePhoneNumber,
		Language:          in.Language,
		Culture:           in.Culture,
	}
}
