// internal/app/features/obligations/handler.go
package obligations

import (
	"net/http"
	"strings"

	apierrors "github.com/dalemusser/residenthub/internal/app/features/errors"
	"github.com/dalemusser/residenthub/internal/app/obligations"
	"github.com/dalemusser/residenthub/internal/app/system/authz"
	"github.com/dalemusser/residenthub/internal/app/system/timeouts"
	"github.com/dalemusser/residenthub/internal/domain/compliance"
	"github.com/dalemusser/residenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the missing-evaluation worklist.
type Handler struct {
	Obligations *obligations.Service
	Log         *zap.Logger
}

// NewHandler creates an obligations handler.
func NewHandler(svc *obligations.Service, logger *zap.Logger) *Handler {
	return &Handler{Obligations: svc, Log: logger}
}

type response struct {
	Scope       string                        `json:"scope"`
	Obligations []models.Obligation           `json:"obligations"`
	Counts      map[models.ObligationKind]int `json:"counts"`
}

// Serve handles GET /obligations[?rotation_id=<hex>].
// Teachers get their own rotations; admins get all of them.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	scope, ok := authz.ComplianceScope(r)
	if !ok {
		apierrors.Forbidden(w)
		return
	}

	var filter compliance.Filter
	if raw := strings.TrimSpace(r.URL.Query().Get("rotation_id")); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			apierrors.BadRequest(w, "invalid rotation_id")
			return
		}
		filter.RotationID = id
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "compute obligations")
	defer cancel()

	out, err := h.Obligations.Compute(ctx, scope, filter)
	if err != nil {
		apierrors.Write(w, r, h.Log, "compute obligations", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, response{
		Scope:       scope.Kind.String(),
		Obligations: out,
		Counts:      compliance.Count(out),
	})
}
