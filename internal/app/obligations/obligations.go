// Package obligations computes the missing-evaluation worklist for a scope.
package obligations

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/residenthub/internal/app/system/metrics"
	"github.com/dalemusser/residenthub/internal/app/system/timeouts"
	"github.com/dalemusser/residenthub/internal/domain/compliance"
	"github.com/dalemusser/residenthub/internal/domain/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SnapshotSource loads one consistent snapshot of the rule inputs.
type SnapshotSource interface {
	Load(ctx context.Context) (compliance.Snapshot, error)
}

// Service loads snapshots and runs the compliance rules over them.
type Service struct {
	source  SnapshotSource
	metrics *metrics.Metrics
	log     *zap.Logger
	tracer  trace.Tracer
	group   singleflight.Group
}

// New builds a Service. m may be nil.
func New(source SnapshotSource, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source:  source,
		metrics: m,
		log:     logger,
		tracer:  otel.Tracer("residenthub/obligations"),
	}
}

// Compute returns the obligations outstanding in scope, narrowed by filter.
// Identical concurrent requests share one snapshot load and one result.
// The shared load is detached from any single caller's cancellation and
// bounded by timeouts.Long; each caller still returns when its own ctx ends.
// The returned slice is never nil and is owned by the caller.
func (s *Service) Compute(ctx context.Context, scope compliance.Scope, filter compliance.Filter) ([]models.Obligation, error) {
	ctx, span := s.tracer.Start(ctx, "obligations.Compute", trace.WithAttributes(
		attribute.String("scope", scope.Key()),
		attribute.String("rotation_id", filterKey(filter)),
	))
	defer span.End()

	key := scope.Key() + "|" + filterKey(filter)
	ch := s.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Long())
		defer cancel()

		start := time.Now()
		snap, err := s.source.Load(loadCtx)
		if err != nil {
			return nil, fmt.Errorf("load compliance snapshot: %w", err)
		}
		out := compliance.Compute(snap, scope, filter)
		s.metrics.ObserveComputeLatency(time.Since(start))
		s.log.Debug("obligations computed",
			zap.String("scope", scope.Key()),
			zap.Int("rotations", len(snap.Rotations)),
			zap.Int("obligations", len(out)),
			zap.Duration("took", time.Since(start)))
		return out, nil
	})

	var r singleflight.Result
	select {
	case r = <-ch:
	case <-ctx.Done():
		r = singleflight.Result{Err: ctx.Err()}
	}
	if r.Err != nil {
		span.RecordError(r.Err)
		span.SetStatus(codes.Error, r.Err.Error())
		return nil, r.Err
	}
	if r.Shared {
		s.metrics.IncrementShared()
	}

	res := r.Val.([]models.Obligation)
	out := make([]models.Obligation, len(res))
	copy(out, res)

	for kind, n := range compliance.Count(out) {
		s.metrics.AddObligations(string(kind), scope.Kind.String(), n)
	}
	span.SetAttributes(attribute.Int("obligations", len(out)))
	return out, nil
}

func filterKey(f compliance.Filter) string {
	if f.RotationID.IsZero() {
		return "*"
	}
	return f.RotationID.Hex()
}
