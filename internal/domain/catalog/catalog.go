// Package catalog defines the book and loan domain models. Catalog business
// rules live in the service layer; these types are storage-shaped.
package catalog

import (
	"errors"
	"time"
)

// Book is one catalog entry owned by a tenant.
type Book struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	ISBN      string    `json:"isbn"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Year      int       `json:"year"`
	CoverURL  string    `json:"cover_url,omitempty"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateBookRequest is the input for adding a book to a tenant's catalog.
type CreateBookRequest struct {
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   int    `json:"year"`
}

// Validate checks required fields.
func (r *CreateBookRequest) Validate() error {
	if r.ISBN == "" {
		return errors.New("isbn is required")
	}
	if len(r.ISBN) != 10 && len(r.ISBN) != 13 {
		return errors.New("isbn must be 10 or 13 digits")
	}
	if r.Title == "" {
		return errors.New("title is required")
	}
	return nil
}

// UpdateBookRequest holds the mutable book fields.
type UpdateBookRequest struct {
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	Year      int    `json:"year,omitempty"`
	CoverURL  string `json:"cover_url,omitempty"`
	Available *bool  `json:"available,omitempty"`
}

// Loan records a book checked out by a user.
type Loan struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	BookID     string     `json:"book_id"`
	UserID     string     `json:"user_id"`
	LoanedAt   time.Time  `json:"loaned_at"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

// CreateLoanRequest is the input for checking out a book.
type CreateLoanRequest struct {
	BookID string `json:"book_id"`
	UserID string `json:"user_id"`
	Days   int    `json:"days,omitempty"`
}

// Validate checks required fields.
func (r *CreateLoanRequest) Validate() error {
	if r.BookID == "" {
		return errors.New("book_id is required")
	}
	if r.UserID == "" {
		return errors.New("user_id is required")
	}
	if r.Days < 0 {
		return errors.New("days must be non-negative")
	}
	return nil
}

// BookInfo is an ISBN lookup result. Cover and metadata fields are filled
// only when the corresponding premium features ran; the base fields always
// carry whatever the local catalog knows.
type BookInfo struct {
	ISBN      string `json:"isbn"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	Year      int    `json:"year,omitempty"`
	CoverURL  string `json:"cover_url,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	InCatalog bool   `json:"in_catalog"`
}
