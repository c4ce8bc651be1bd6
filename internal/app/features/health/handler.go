// Package health answers load-balancer probes with the state of MongoDB.
package health

import (
	"context"
	"net/http"
	"time"

	apierrors "github.com/dalemusser/residenthub/internal/app/features/errors"
	"github.com/dalemusser/residenthub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type Handler struct {
	Client *mongo.Client
	Log    *zap.Logger
}

func NewHandler(client *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Log: logger}
}

type report struct {
	Status    string  `json:"status"`
	Database  string  `json:"database"`
	LatencyMS float64 `json:"latency_ms"`
	Error     string  `json:"error,omitempty"`
}

// Serve handles GET and HEAD /health. It answers 200 with
// {"status":"ok","database":"connected"} when a primary answers a ping within
// timeouts.Ping(), and 503 with {"status":"error","database":"disconnected"}
// otherwise.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	start := time.Now()
	err := h.Client.Ping(ctx, readpref.Primary())
	rep := report{
		Status:    "ok",
		Database:  "connected",
		LatencyMS: float64(time.Since(start).Microseconds()) / 1000,
	}
	status := http.StatusOK
	if err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		status = http.StatusServiceUnavailable
		rep.Status = "error"
		rep.Database = "disconnected"
		rep.Error = err.Error()
	}

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		return
	}
	apierrors.JSON(w, status, rep)
}
