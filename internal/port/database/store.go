// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/openshelf/openshelf/internal/domain/catalog"
	"github.com/openshelf/openshelf/internal/domain/tenant"
	"github.com/openshelf/openshelf/internal/domain/user"
)

// TenantStore is the slice of the store the tenant directory depends on.
type TenantStore interface {
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error)
}

// Store is the port interface for database operations.
type Store interface {
	TenantStore

	// Tenants
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	CreateTenant(ctx context.Context, t *tenant.Tenant) error
	UpdateTenant(ctx context.Context, t *tenant.Tenant) error
	SubdomainTaken(ctx context.Context, subdomain string) (bool, error)

	// Users
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email, tenantID string) (*user.User, error)
	CreateUser(ctx context.Context, u *user.User) error

	// Books
	ListBooks(ctx context.Context, tenantID string) ([]catalog.Book, error)
	GetBook(ctx context.Context, tenantID, id string) (*catalog.Book, error)
	GetBookByISBN(ctx context.Context, tenantID, isbn string) (*catalog.Book, error)
	CreateBook(ctx context.Context, b *catalog.Book) error
	UpdateBook(ctx context.Context, b *catalog.Book) error
	DeleteBook(ctx context.Context, tenantID, id string) error
	CountBooks(ctx context.Context, tenantID string) (int, error)

	// Loans
	ListLoans(ctx context.Context, tenantID string) ([]catalog.Loan, error)
	CreateLoan(ctx context.Context, l *catalog.Loan) error
	ReturnLoan(ctx context.Context, tenantID, id string) error
}
