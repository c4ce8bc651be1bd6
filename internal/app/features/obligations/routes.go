// internal/app/features/obligations/routes.go
package obligations

import (
	"github.com/dalemusser/residenthub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /obligations.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(auth.RoleTeacher, auth.RoleAdmin))
	r.Get("/", h.Serve)
	return r
}
