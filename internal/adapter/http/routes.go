package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/openshelf/openshelf/internal/domain/actor"
	"github.com/openshelf/openshelf/internal/middleware"
)

// MountRoutes registers all routes on the given chi router. The access
// policy has already run by the time any of these handlers execute; route
// guards here add role requirements on top of the policy decision.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Auth
		r.Post("/auth/login", h.Login)
		r.Post("/auth/register", h.Register)
		r.Post("/auth/logout", h.Logout)
		r.Get("/auth/me", h.Me)

		// Features visible to the tenant
		r.Get("/features", h.ListFeatures)

		// Books
		r.Get("/books", h.ListBooks)
		r.Get("/books/{id}", h.GetBook)
		r.Get("/books/isbn/{isbn}", h.LookupISBN)
		r.With(middleware.RequireRole(actor.RoleManager, actor.RoleAdmin)).
			Post("/books", h.CreateBook)
		r.With(middleware.RequireRole(actor.RoleManager, actor.RoleAdmin)).
			Put("/books/{id}", h.UpdateBook)
		r.With(middleware.RequireRole(actor.RoleAdmin)).
			Delete("/books/{id}", h.DeleteBook)

		// Loans
		r.Get("/loans", h.ListLoans)
		r.Post("/loans", h.CreateLoan)
		r.Post("/loans/{id}/return", h.ReturnLoan)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireSuperAdmin)

		r.Get("/tenants", h.AdminListTenants)
		r.Post("/tenants", h.AdminCreateTenant)
		r.Get("/tenants/{id}", h.AdminGetTenant)
		r.Put("/tenants/{id}", h.AdminUpdateTenant)
		r.Put("/tenants/{id}/entitlements", h.AdminSetEntitlements)

		r.Get("/features", h.AdminListFeatures)
		r.Get("/licenses", h.AdminListLicenses)
		r.Post("/licenses/reload", h.AdminReloadLicenses)
	})
}
