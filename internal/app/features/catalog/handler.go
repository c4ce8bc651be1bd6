// internal/app/features/catalog/handler.go
package catalog

import (
	"context"
	"encoding/json"
	"net/http"

	apierrors "github.com/dalemusser/residenthub/internal/app/features/errors"
	"github.com/dalemusser/residenthub/internal/app/system/paging"
	"github.com/dalemusser/residenthub/internal/app/system/timeouts"
	"github.com/dalemusser/residenthub/internal/domain/models"
	"go.uber.org/zap"
)

// maxBody bounds upsert request bodies.
const maxBody = 1 << 20

// Store is the slice of the catalog store this feature uses.
type Store interface {
	PageRotations(ctx context.Context, req paging.Request) ([]models.Rotation, paging.Result, error)
	PageResidents(ctx context.Context, req paging.Request) ([]models.Resident, paging.Result, error)
	UpsertRotation(ctx context.Context, r models.Rotation) (models.Rotation, error)
	UpsertResident(ctx context.Context, r models.Resident) (models.Resident, error)
}

// Handler lists rotations and residents for supervisors and lets admins
// seed them.
type Handler struct {
	Catalog Store
	Log     *zap.Logger
}

func NewHandler(s Store, logger *zap.Logger) *Handler {
	return &Handler{Catalog: s, Log: logger}
}

type page[T any] struct {
	Items []T `json:"items"`
	paging.Result
}

// ServeRotations handles GET /catalog/rotations?after=&before=&limit=.
func (h *Handler) ServeRotations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list rotations")
	defer cancel()

	rows, res, err := h.Catalog.PageRotations(ctx, paging.ParseRequest(r))
	if err != nil {
		apierrors.Write(w, r, h.Log, "list rotations", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, page[models.Rotation]{Items: rows, Result: res})
}

// ServeResidents handles GET /catalog/residents?after=&before=&limit=.
func (h *Handler) ServeResidents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list residents")
	defer cancel()

	rows, res, err := h.Catalog.PageResidents(ctx, paging.ParseRequest(r))
	if err != nil {
		apierrors.Write(w, r, h.Log, "list residents", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, page[models.Resident]{Items: rows, Result: res})
}

// UpsertRotation handles POST /catalog/rotations. A body without an id
// creates a rotation; procedure ids left blank are generated.
func (h *Handler) UpsertRotation(w http.ResponseWriter, r *http.Request) {
	var in models.Rotation
	if !decode(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "upsert rotation")
	defer cancel()

	out, err := h.Catalog.UpsertRotation(ctx, in)
	if err != nil {
		apierrors.Write(w, r, h.Log, "upsert rotation", err)
		return
	}
	h.Log.Info("rotation saved",
		zap.String("rotation_id", out.ID.Hex()),
		zap.Int("procedures", len(out.Procedures)))
	apierrors.JSON(w, http.StatusOK, out)
}

// UpsertResident handles POST /catalog/residents.
func (h *Handler) UpsertResident(w http.ResponseWriter, r *http.Request) {
	var in models.Resident
	if !decode(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "upsert resident")
	defer cancel()

	out, err := h.Catalog.UpsertResident(ctx, in)
	if err != nil {
		apierrors.Write(w, r, h.Log, "upsert resident", err)
		return
	}
	h.Log.Info("resident saved", zap.String("resident_id", out.ID.Hex()))
	apierrors.JSON(w, http.StatusOK, out)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return false
	}
	return true
}
