package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openshelf/openshelf/internal/domain"
	"github.com/openshelf/openshelf/internal/domain/tenant"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// scannable abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

// notFoundWrap checks whether err is pgx.ErrNoRows and, if so, wraps
// domain.ErrNotFound with the given message. Otherwise it wraps the
// original error.
func notFoundWrap(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", msg, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// execExpectOne verifies that an Exec affected exactly one row. If not
// (and err is nil), it returns domain.ErrNotFound with the given message.
func execExpectOne(tag pgconn.CommandTag, err error, format string, args ...any) error {
	if err != nil {
		return fmt.Errorf(fmt.Sprintf(format, args...)+": %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf(fmt.Sprintf(format, args...)+": %w", domain.ErrNotFound)
	}
	return nil
}

// --- Tenants ---

const tenantColumns = `id, name, subdomain, status,
	premium_bookcover_enabled, premium_national_catalog_enabled,
	max_libraries, max_books, created_at, updated_at`

func scanTenant(row scannable) (tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Subdomain, &t.Status,
		&t.Entitlements.BookcoverAPI, &t.Entitlements.NationalCatalog,
		&t.Limits.MaxLibraries, &t.Limits.MaxBooks, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *Store) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	t, err := scanTenant(row)
	if err != nil {
		return nil, notFoundWrap(err, "get tenant %s", id)
	}
	return &t, nil
}

func (s *Store) GetTenantBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE subdomain = $1`, subdomain)
	t, err := scanTenant(row)
	if err != nil {
		return nil, notFoundWrap(err, "get tenant by subdomain %s", subdomain)
	}
	return &t, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO tenants (name, subdomain, status,
		   premium_bookcover_enabled, premium_national_catalog_enabled,
		   max_libraries, max_books)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+tenantColumns,
		t.Name, t.Subdomain, t.Status,
		t.Entitlements.BookcoverAPI, t.Entitlements.NationalCatalog,
		t.Limits.MaxLibraries, t.Limits.MaxBooks)

	created, err := scanTenant(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("create tenant: subdomain %q taken: %w", t.Subdomain, domain.ErrConflict)
		}
		return fmt.Errorf("create tenant: %w", err)
	}
	*t = created
	return nil
}

func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET name = $2, subdomain = $3, status = $4,
		   premium_bookcover_enabled = $5, premium_national_catalog_enabled = $6,
		   max_libraries = $7, max_books = $8, updated_at = now()
		 WHERE id = $1`,
		t.ID, t.Name, t.Subdomain, t.Status,
		t.Entitlements.BookcoverAPI, t.Entitlements.NationalCatalog,
		t.Limits.MaxLibraries, t.Limits.MaxBooks)
	return execExpectOne(tag, err, "update tenant %s", t.ID)
}

func (s *Store) SubdomainTaken(ctx context.Context, subdomain string) (bool, error) {
	var taken bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE subdomain = $1)`, subdomain,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check subdomain %s: %w", subdomain, err)
	}
	return taken, nil
}
