package postgres

import (
	"context"
	"fmt"

	"github.com/openshelf/openshelf/internal/domain/catalog"
)

// --- Books ---

const bookColumns = `id, tenant_id, isbn, title, author, year,
	COALESCE(cover_url, ''), available, created_at, updated_at`

func scanBook(row scannable) (catalog.Book, error) {
	var b catalog.Book
	err := row.Scan(&b.ID, &b.TenantID, &b.ISBN, &b.Title, &b.Author, &b.Year,
		&b.CoverURL, &b.Available, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (s *Store) ListBooks(ctx context.Context, tenantID string) ([]catalog.Book, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+bookColumns+` FROM books
		 WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []catalog.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (s *Store) GetBook(ctx context.Context, tenantID, id string) (*catalog.Book, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1 AND tenant_id = $2`,
		id, tenantID)
	b, err := scanBook(row)
	if err != nil {
		return nil, notFoundWrap(err, "get book %s", id)
	}
	return &b, nil
}

func (s *Store) GetBookByISBN(ctx context.Context, tenantID, isbn string) (*catalog.Book, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+bookColumns+` FROM books WHERE isbn = $1 AND tenant_id = $2`,
		isbn, tenantID)
	b, err := scanBook(row)
	if err != nil {
		return nil, notFoundWrap(err, "get book by isbn %s", isbn)
	}
	return &b, nil
}

func (s *Store) CreateBook(ctx context.Context, b *catalog.Book) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO books (tenant_id, isbn, title, author, year, cover_url, available)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		 RETURNING `+bookColumns,
		b.TenantID, b.ISBN, b.Title, b.Author, b.Year, b.CoverURL, b.Available)

	created, err := scanBook(row)
	if err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	*b = created
	return nil
}

func (s *Store) UpdateBook(ctx context.Context, b *catalog.Book) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE books SET title = $3, author = $4, year = $5,
		   cover_url = NULLIF($6, ''), available = $7, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2`,
		b.ID, b.TenantID, b.Title, b.Author, b.Year, b.CoverURL, b.Available)
	return execExpectOne(tag, err, "update book %s", b.ID)
}

func (s *Store) DeleteBook(ctx context.Context, tenantID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM books WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	return execExpectOne(tag, err, "delete book %s", id)
}

func (s *Store) CountBooks(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM books WHERE tenant_id = $1`, tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

// --- Loans ---

const loanColumns = `id, tenant_id, book_id, user_id, loaned_at, due_at, returned_at`

func scanLoan(row scannable) (catalog.Loan, error) {
	var l catalog.Loan
	err := row.Scan(&l.ID, &l.TenantID, &l.BookID, &l.UserID,
		&l.LoanedAt, &l.DueAt, &l.ReturnedAt)
	return l, err
}

func (s *Store) ListLoans(ctx context.Context, tenantID string) ([]catalog.Loan, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+loanColumns+` FROM loans
		 WHERE tenant_id = $1 ORDER BY loaned_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var loans []catalog.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

func (s *Store) CreateLoan(ctx context.Context, l *catalog.Loan) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO loans (tenant_id, book_id, user_id, loaned_at, due_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+loanColumns,
		l.TenantID, l.BookID, l.UserID, l.LoanedAt, l.DueAt)

	created, err := scanLoan(row)
	if err != nil {
		return fmt.Errorf("create loan: %w", err)
	}
	*l = created
	return nil
}

func (s *Store) ReturnLoan(ctx context.Context, tenantID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE loans SET returned_at = now()
		 WHERE id = $1 AND tenant_id = $2 AND returned_at IS NULL`, id, tenantID)
	return execExpectOne(tag, err, "return loan %s", id)
}
