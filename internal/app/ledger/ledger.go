// Package ledger records procedure performances and their validation.
//
// A ledger row is an aggregate counter per (resident, rotation, procedure).
// Residents add to it one performance at a time; a supervisor validates
// everything pending for a (resident, rotation) pair in one call.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	procedurelogstore "github.com/dalemusser/residenthub/internal/app/store/procedurelogs"
	"github.com/dalemusser/residenthub/internal/app/system/metrics"
	"github.com/dalemusser/residenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrNotFound is returned when the resident, the rotation, or the procedure
// within the rotation does not exist.
var ErrNotFound = errors.New("ledger: not found")

// Catalog is the read side of rotations and residents the ledger checks
// against.
type Catalog interface {
	GetRotation(ctx context.Context, id primitive.ObjectID) (models.Rotation, error)
	GetResident(ctx context.Context, id primitive.ObjectID) (models.Resident, error)
}

// Store persists ledger rows. Increment and ValidateAll must be atomic per row.
type Store interface {
	Increment(ctx context.Context, k procedurelogstore.Key, at time.Time) (models.ProcedureLog, error)
	ListPair(ctx context.Context, residentID, rotationID primitive.ObjectID) ([]models.ProcedureLog, error)
	ValidateAll(ctx context.Context, residentID, rotationID, validatorID primitive.ObjectID, at time.Time) (int64, error)
}

// ValidateResult reports how many rows a ValidateAll call advanced.
type ValidateResult struct {
	ValidatedRows int64 `json:"validated_rows"`
}

// Service is the procedure ledger.
type Service struct {
	catalog Catalog
	store   Store
	metrics *metrics.Metrics
	log     *zap.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// New builds a Service. m may be nil.
func New(catalog Catalog, store Store, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog: catalog,
		store:   store,
		metrics: m,
		log:     logger,
		tracer:  otel.Tracer("residenthub/ledger"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// LogProcedure records one performance of procedureID by the resident on the
// rotation and returns the row after the increment. Calling it twice logs
// two performances.
func (s *Service) LogProcedure(ctx context.Context, residentID, rotationID primitive.ObjectID, procedureID string) (models.ProcedureLog, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.LogProcedure", trace.WithAttributes(
		attribute.String("resident_id", residentID.Hex()),
		attribute.String("rotation_id", rotationID.Hex()),
		attribute.String("procedure_id", procedureID),
	))
	defer span.End()

	row, err := s.logProcedure(ctx, residentID, rotationID, procedureID)
	switch {
	case err == nil:
		s.metrics.IncrementLogged("ok")
	case errors.Is(err, ErrNotFound):
		s.metrics.IncrementLogged("not_found")
		span.SetStatus(codes.Error, "not found")
	default:
		s.metrics.IncrementLogged("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return row, err
}

func (s *Service) logProcedure(ctx context.Context, residentID, rotationID primitive.ObjectID, procedureID string) (models.ProcedureLog, error) {
	if _, err := s.catalog.GetResident(ctx, residentID); err != nil {
		return models.ProcedureLog{}, s.lookupErr("resident", residentID.Hex(), err)
	}
	rot, err := s.catalog.GetRotation(ctx, rotationID)
	if err != nil {
		return models.ProcedureLog{}, s.lookupErr("rotation", rotationID.Hex(), err)
	}
	if _, ok := rot.Procedure(procedureID); !ok {
		return models.ProcedureLog{}, fmt.Errorf("procedure %q on rotation %s: %w", procedureID, rotationID.Hex(), ErrNotFound)
	}

	row, err := s.store.Increment(ctx, procedurelogstore.Key{
		ResidentID:  residentID,
		RotationID:  rotationID,
		ProcedureID: procedureID,
	}, s.now())
	if err != nil {
		return models.ProcedureLog{}, fmt.Errorf("increment procedure log: %w", err)
	}

	s.log.Debug("procedure logged",
		zap.String("resident_id", residentID.Hex()),
		zap.String("rotation_id", rotationID.Hex()),
		zap.String("procedure_id", procedureID),
		zap.Int64("count", row.Count))
	return row, nil
}

// GetProgress returns one row per procedure the rotation requires, keyed by
// procedure id. Procedures never logged get a zero row.
func (s *Service) GetProgress(ctx context.Context, residentID, rotationID primitive.ObjectID) (map[string]models.ProcedureLog, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.GetProgress")
	defer span.End()

	rot, rows, err := s.load(ctx, residentID, rotationID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return progressOf(rot, residentID, rows), nil
}

// ValidateAll marks every pending performance of the resident on the rotation
// as validated. It validates the counts committed when each row is reached; a
// pair with nothing pending yields ValidatedRows 0 and no error.
func (s *Service) ValidateAll(ctx context.Context, residentID, rotationID, validatorID primitive.ObjectID) (ValidateResult, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.ValidateAll", trace.WithAttributes(
		attribute.String("resident_id", residentID.Hex()),
		attribute.String("rotation_id", rotationID.Hex()),
	))
	defer span.End()

	n, err := s.store.ValidateAll(ctx, residentID, rotationID, validatorID, s.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ValidateResult{}, fmt.Errorf("validate procedure logs: %w", err)
	}
	span.SetAttributes(attribute.Int64("validated_rows", n))
	s.metrics.ObserveValidation(n)

	s.log.Info("procedure logs validated",
		zap.String("resident_id", residentID.Hex()),
		zap.String("rotation_id", rotationID.Hex()),
		zap.String("validator_id", validatorID.Hex()),
		zap.Int64("validated_rows", n))
	return ValidateResult{ValidatedRows: n}, nil
}

// load fetches the rotation and the pair's stored rows.
func (s *Service) load(ctx context.Context, residentID, rotationID primitive.ObjectID) (models.Rotation, []models.ProcedureLog, error) {
	rot, err := s.catalog.GetRotation(ctx, rotationID)
	if err != nil {
		return models.Rotation{}, nil, s.lookupErr("rotation", rotationID.Hex(), err)
	}
	rows, err := s.store.ListPair(ctx, residentID, rotationID)
	if err != nil {
		return models.Rotation{}, nil, fmt.Errorf("list procedure logs: %w", err)
	}
	return rot, rows, nil
}

func progressOf(rot models.Rotation, residentID primitive.ObjectID, rows []models.ProcedureLog) map[string]models.ProcedureLog {
	byID := make(map[string]models.ProcedureLog, len(rows))
	for _, r := range rows {
		byID[r.ProcedureID] = r
	}
	out := make(map[string]models.ProcedureLog, len(rot.Procedures))
	for _, p := range rot.Procedures {
		row, ok := byID[p.ID]
		if !ok {
			row = models.ProcedureLog{ResidentID: residentID, RotationID: rot.ID, ProcedureID: p.ID}
		}
		out[p.ID] = row
	}
	return out
}

// lookupErr maps a catalog miss onto ErrNotFound and passes other failures
// through.
func (s *Service) lookupErr(what, id string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("get %s %s: %w", what, id, err)
}
