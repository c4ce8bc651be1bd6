// internal/app/features/progress/handler.go
package progress

import (
	"net/http"

	apierrors "github.com/dalemusser/residenthub/internal/app/features/errors"
	"github.com/dalemusser/residenthub/internal/app/ledger"
	"github.com/dalemusser/residenthub/internal/app/system/auth"
	"github.com/dalemusser/residenthub/internal/app/system/authz"
	"github.com/dalemusser/residenthub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the procedure ledger.
type Handler struct {
	Ledger *ledger.Service
	Log    *zap.Logger
}

// NewHandler creates a progress handler.
func NewHandler(svc *ledger.Service, logger *zap.Logger) *Handler {
	return &Handler{Ledger: svc, Log: logger}
}

// ServeLog handles POST /progress/rotations/{rotationID}/procedures/{procedureID}/log.
// The resident is always the signed-in user; nobody logs on another's behalf.
func (h *Handler) ServeLog(w http.ResponseWriter, r *http.Request) {
	_, _, residentID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	rotationID, ok := objectIDParam(w, r, "rotationID")
	if !ok {
		return
	}
	procedureID := chi.URLParam(r, "procedureID")
	if procedureID == "" {
		apierrors.BadRequest(w, "procedure id is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "log procedure")
	defer cancel()

	row, err := h.Ledger.LogProcedure(ctx, residentID, rotationID, procedureID)
	if err != nil {
		apierrors.Write(w, r, h.Log, "log procedure", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, row)
}

// ServeReport handles GET /progress/residents/{residentID}/rotations/{rotationID}.
// Residents may read their own progress; teachers the rotations they teach;
// admins everything.
func (h *Handler) ServeReport(w http.ResponseWriter, r *http.Request) {
	role, _, callerID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	residentID, ok := objectIDParam(w, r, "residentID")
	if !ok {
		return
	}
	rotationID, ok := objectIDParam(w, r, "rotationID")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "progress report")
	defer cancel()

	switch role {
	case auth.RoleResident:
		if callerID != residentID {
			apierrors.Forbidden(w)
			return
		}
	case auth.RoleTeacher, auth.RoleAdmin:
		rot, err := h.Ledger.RotationOf(ctx, rotationID)
		if err != nil {
			apierrors.Write(w, r, h.Log, "progress report", err)
			return
		}
		if !authz.CanValidate(r, rot.TaughtBy) {
			apierrors.Forbidden(w)
			return
		}
	default:
		apierrors.Forbidden(w)
		return
	}

	rep, err := h.Ledger.Report(ctx, residentID, rotationID)
	if err != nil {
		apierrors.Write(w, r, h.Log, "progress report", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, rep)
}

// ServeValidate handles POST /progress/residents/{residentID}/rotations/{rotationID}/validate.
func (h *Handler) ServeValidate(w http.ResponseWriter, r *http.Request) {
	_, _, validatorID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	residentID, ok := objectIDParam(w, r, "residentID")
	if !ok {
		return
	}
	rotationID, ok := objectIDParam(w, r, "rotationID")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "validate procedures")
	defer cancel()

	rot, err := h.Ledger.RotationOf(ctx, rotationID)
	if err != nil {
		apierrors.Write(w, r, h.Log, "validate procedures", err)
		return
	}
	if !authz.CanValidate(r, rot.TaughtBy) {
		apierrors.Forbidden(w)
		return
	}

	res, err := h.Ledger.ValidateAll(ctx, residentID, rotationID, validatorID)
	if err != nil {
		apierrors.Write(w, r, h.Log, "validate procedures", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, res)
}

func objectIDParam(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		apierrors.BadRequest(w, "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}
