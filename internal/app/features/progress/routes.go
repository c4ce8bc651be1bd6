// internal/app/features/progress/routes.go
package progress

import (
	"github.com/dalemusser/residenthub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /progress. Logging is a resident
// entry point and validation a supervisor one; neither is reachable from the
// other role.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.With(sm.RequireRole(auth.RoleResident)).
		Post("/rotations/{rotationID}/procedures/{procedureID}/log", h.ServeLog)

	r.Get("/residents/{residentID}/rotations/{rotationID}", h.ServeReport)

	r.With(sm.RequireRole(auth.RoleTeacher, auth.RoleAdmin)).
		Post("/residents/{residentID}/rotations/{rotationID}/validate", h.ServeValidate)

	return r
}
