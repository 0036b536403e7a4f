package http

import (
	"net/http"

	"github.com/openshelf/openshelf/internal/domain/catalog"
)

// ListBooks handles GET /api/v1/books.
func (h *Handlers) ListBooks(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	books, err := h.Catalog.ListBooks(r.Context(), tenantID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if books == nil {
		books = []catalog.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

// GetBook handles GET /api/v1/books/{id}.
func (h *Handlers) GetBook(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	b, err := h.Catalog.GetBook(r.Context(), tenantID, urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "book not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// CreateBook handles POST /api/v1/books.
func (h *Handlers) CreateBook(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	req, ok := readJSON[catalog.CreateBookRequest](w, r)
	if !ok {
		return
	}

	b, err := h.Catalog.CreateBook(r.Context(), tenantID, req)
	if err != nil {
		writeDomainError(w, err, "book not created")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// UpdateBook handles PUT /api/v1/books/{id}.
func (h *Handlers) UpdateBook(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	req, ok := readJSON[catalog.UpdateBookRequest](w, r)
	if !ok {
		return
	}

	b, err := h.Catalog.UpdateBook(r.Context(), tenantID, urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "book not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// DeleteBook handles DELETE /api/v1/books/{id}.
func (h *Handlers) DeleteBook(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	if err := h.Catalog.DeleteBook(r.Context(), tenantID, urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "book not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LookupISBN handles GET /api/v1/books/isbn/{isbn}. The response is always
// usable; premium enrichment is attached only when the tenant's features allow.
func (h *Handlers) LookupISBN(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	info, err := h.Catalog.LookupISBN(r.Context(), tenantID, urlParam(r, "isbn"))
	if err != nil {
		writeDomainError(w, err, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ListLoans handles GET /api/v1/loans.
func (h *Handlers) ListLoans(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	loans, err := h.Catalog.ListLoans(r.Context(), tenantID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if loans == nil {
		loans = []catalog.Loan{}
	}
	writeJSON(w, http.StatusOK, loans)
}

// CreateLoan handles POST /api/v1/loans.
func (h *Handlers) CreateLoan(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	req, ok := readJSON[catalog.CreateLoanRequest](w, r)
	if !ok {
		return
	}

	l, err := h.Catalog.CreateLoan(r.Context(), tenantID, req)
	if err != nil {
		writeDomainError(w, err, "book not found")
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// ReturnLoan handles POST /api/v1/loans/{id}/return.
func (h *Handlers) ReturnLoan(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	if err := h.Catalog.ReturnLoan(r.Context(), tenantID, urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "loan not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "returned"})
}
