package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/openshelf/openshelf/internal/domain"
	"github.com/openshelf/openshelf/internal/domain/user"
)

const userColumns = `id, email, name, password_hash, role,
	COALESCE(tenant_id::text, ''), enabled, created_at, updated_at`

func scanUser(row scannable) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&u.TenantID, &u.Enabled, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFoundWrap(err, "get user %s", id)
	}
	return &u, nil
}

// GetUserByEmail looks up a user scoped to one tenant. Super-admin accounts
// have no tenant; pass an empty tenantID to search among those.
func (s *Store) GetUserByEmail(ctx context.Context, email, tenantID string) (*user.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE email = $1 AND COALESCE(tenant_id::text, '') = $2`, email, tenantID)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFoundWrap(err, "get user by email")
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, role, tenant_id, enabled)
		 VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, $6)
		 RETURNING `+userColumns,
		u.Email, u.Name, u.PasswordHash, u.Role, u.TenantID, u.Enabled)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("create user: email taken: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	*u = created
	return nil
}
