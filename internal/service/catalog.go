package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openshelf/openshelf/internal/domain"
	"github.com/openshelf/openshelf/internal/domain/catalog"
	"github.com/openshelf/openshelf/internal/feature"
	"github.com/openshelf/openshelf/internal/feature/covers"
	"github.com/openshelf/openshelf/internal/feature/natcat"
	"github.com/openshelf/openshelf/internal/port/database"
	"github.com/openshelf/openshelf/internal/tenancy"
)

// DefaultLoanDays is the loan period when the request does not set one.
const DefaultLoanDays = 30

// CatalogService manages books and loans for one tenant at a time. The
// tenant always comes from the request context; there is no cross-tenant
// path through this service.
type CatalogService struct {
	store database.Store
	gate  *feature.Gate
}

// NewCatalogService creates a catalog service.
func NewCatalogService(store database.Store, gate *feature.Gate) *CatalogService {
	return &CatalogService{store: store, gate: gate}
}

// ListBooks returns the tenant's catalog.
func (s *CatalogService) ListBooks(ctx context.Context, tenantID string) ([]catalog.Book, error) {
	return s.store.ListBooks(ctx, tenantID)
}

// GetBook returns one book by id within the tenant.
func (s *CatalogService) GetBook(ctx context.Context, tenantID, id string) (*catalog.Book, error) {
	return s.store.GetBook(ctx, tenantID, id)
}

// CreateBook adds a book to the tenant's catalog, enforcing the tenant's
// book limit when one is set. When the bookcover feature is available a
// cover URL is attached; lookup failure never fails the create.
func (s *CatalogService) CreateBook(ctx context.Context, tenantID string, req catalog.CreateBookRequest) (*catalog.Book, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	rc := tenancy.FromContext(ctx)
	if rc.HasTenant() && rc.Tenant.Limits.MaxBooks != nil {
		n, err := s.store.CountBooks(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("count books: %w", err)
		}
		if n >= *rc.Tenant.Limits.MaxBooks {
			return nil, fmt.Errorf("book limit reached: %w", domain.ErrConflict)
		}
	}

	b := &catalog.Book{
		TenantID:  tenantID,
		ISBN:      req.ISBN,
		Title:     req.Title,
		Author:    req.Author,
		Year:      req.Year,
		Available: true,
	}

	if url, ok := s.gate.Call(ctx, rc, covers.FeatureID, "cover_by_isbn",
		feature.Args{"isbn": req.ISBN}); ok {
		b.CoverURL, _ = url.(string)
	}

	if err := s.store.CreateBook(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateBook applies the request to a book within the tenant.
func (s *CatalogService) UpdateBook(ctx context.Context, tenantID, id string, req catalog.UpdateBookRequest) (*catalog.Book, error) {
	b, err := s.store.GetBook(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		b.Title = req.Title
	}
	if req.Author != "" {
		b.Author = req.Author
	}
	if req.Year != 0 {
		b.Year = req.Year
	}
	if req.CoverURL != "" {
		b.CoverURL = req.CoverURL
	}
	if req.Available != nil {
		b.Available = *req.Available
	}

	if err := s.store.UpdateBook(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBook removes a book from the tenant's catalog.
func (s *CatalogService) DeleteBook(ctx context.Context, tenantID, id string) error {
	return s.store.DeleteBook(ctx, tenantID, id)
}

// LookupISBN builds the richest BookInfo the request is entitled to. The
// local catalog row (if any) is the base; the national catalog fills blanks
// and the cover feature attaches an image URL. Premium failures are soft:
// the base result is always returned.
func (s *CatalogService) LookupISBN(ctx context.Context, tenantID, isbn string) (*catalog.BookInfo, error) {
	if len(isbn) != 10 && len(isbn) != 13 {
		return nil, fmt.Errorf("%w: isbn must be 10 or 13 digits", domain.ErrValidation)
	}

	info := &catalog.BookInfo{ISBN: isbn}

	b, err := s.store.GetBookByISBN(ctx, tenantID, isbn)
	switch {
	case err == nil:
		info.InCatalog = true
		info.Title = b.Title
		info.Author = b.Author
		info.Year = b.Year
		info.CoverURL = b.CoverURL
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	rc := tenancy.FromContext(ctx)
	args := feature.Args{"isbn": isbn}

	if res, ok := s.gate.Call(ctx, rc, natcat.FeatureID, "metadata_by_isbn", args); ok {
		if md, ok := res.(*natcat.Metadata); ok {
			if info.Title == "" {
				info.Title = md.Title
			}
			if info.Author == "" {
				info.Author = md.Author
			}
			if info.Year == 0 {
				info.Year = md.Year
			}
			info.Publisher = md.Publisher
		}
	}

	if info.CoverURL == "" {
		if res, ok := s.gate.Call(ctx, rc, covers.FeatureID, "cover_by_isbn", args); ok {
			info.CoverURL, _ = res.(string)
		}
	}

	return info, nil
}

// ListLoans returns the tenant's loans.
func (s *CatalogService) ListLoans(ctx context.Context, tenantID string) ([]catalog.Loan, error) {
	return s.store.ListLoans(ctx, tenantID)
}

// CreateLoan checks a book out. The book must exist in the tenant and be
// available; the loan marks it unavailable.
func (s *CatalogService) CreateLoan(ctx context.Context, tenantID string, req catalog.CreateLoanRequest) (*catalog.Loan, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	b, err := s.store.GetBook(ctx, tenantID, req.BookID)
	if err != nil {
		return nil, err
	}
	if !b.Available {
		return nil, fmt.Errorf("book %s is on loan: %w", b.ID, domain.ErrConflict)
	}

	days := req.Days
	if days == 0 {
		days = DefaultLoanDays
	}

	now := time.Now().UTC()
	l := &catalog.Loan{
		TenantID: tenantID,
		BookID:   req.BookID,
		UserID:   req.UserID,
		LoanedAt: now,
		DueAt:    now.AddDate(0, 0, days),
	}
	if err := s.store.CreateLoan(ctx, l); err != nil {
		return nil, err
	}

	b.Available = false
	if err := s.store.UpdateBook(ctx, b); err != nil {
		return nil, fmt.Errorf("mark book on loan: %w", err)
	}
	return l, nil
}

// ReturnLoan closes a loan and marks its book available again.
func (s *CatalogService) ReturnLoan(ctx context.Context, tenantID, id string) error {
	loans, err := s.store.ListLoans(ctx, tenantID)
	if err != nil {
		return err
	}

	var bookID string
	for _, l := range loans {
		if l.ID == id && l.ReturnedAt == nil {
			bookID = l.BookID
			break
		}
	}

	if err := s.store.ReturnLoan(ctx, tenantID, id); err != nil {
		return err
	}

	if bookID != "" {
		if b, err := s.store.GetBook(ctx, tenantID, bookID); err == nil {
			b.Available = true
			if err := s.store.UpdateBook(ctx, b); err != nil {
				return fmt.Errorf("mark book available: %w", err)
			}
		}
	}
	return nil
}
