// internal/app/features/catalog/routes.go
package catalog

import (
	"github.com/dalemusser/residenthub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /catalog.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(auth.RoleTeacher, auth.RoleAdmin))
	r.Get("/rotations", h.ServeRotations)
	r.Get("/residents", h.ServeResidents)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(auth.RoleAdmin))
		r.Post("/rotations", h.UpsertRotation)
		r.Post("/residents", h.UpsertResident)
	})
	return r
}
