package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userdirectory/internal/common"
	"github.com/dmitrijs2005/userdirectory/internal/dbx"
	"github.com/dmitrijs2005/userdirectory/internal/server/models"
	"github.com/google/uuid"
)

const userColumns = `id, client_id, username, full_name, email, mobile_phone_number, language, culture, password_hash`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.ClientID, &u.UserName, &u.FullName, &u.EMail,
		&u.MobilePhoneNumber, &u.Language, &u.Culture, &u.PasswordHash)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE client_id = $1
		 ORDER BY username
		 `

	rows, err := r.db.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, clientID, id uuid.UUID) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE client_id = $1 AND id = $2
		 `

	return r.getOne(ctx, query, clientID, id)
}

func (r *PostgresRepository) GetByUserName(ctx context.Context, clientID uuid.UUID, userName string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE client_id = $1 AND username = $2
		 `

	return r.getOne(ctx, query, clientID, userName)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// Create inserts user with its caller-assigned id; the id doubles as the
// password salt so it must be known before hashing.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (` + userColumns + `)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.ClientID, user.UserName, user.FullName, user.EMail,
		user.MobilePhoneNumber, user.Language, user.Culture, user.PasswordHash)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`UPDATE users SET username = $3, full_name = $4, email = $5, mobile_phone_number = $6,
		        language = $7, culture = $8, password_hash = $9
		 WHERE client_id = $1 AND id = $2
		 `

	res, err := r.db.ExecContext(ctx, query,
		user.ClientID, user.ID, user.UserName, user.FullName, user.EMail,
		user.MobilePhoneNumber, user.Language, user.Culture, user.PasswordHash)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := expectOneRow(res); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, clientID, id uuid.UUID) error {
	query :=
		`DELETE FROM users
		 WHERE client_id = $1 AND id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, clientID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
