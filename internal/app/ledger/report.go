package ledger

import (
	"context"
	"errors"

	catalogstore "github.com/dalemusser/residenthub/internal/app/store/catalog"
	"github.com/dalemusser/residenthub/internal/domain/models"
	"github.com/dalemusser/residenthub/internal/domain/progress"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
)

// ProcedureProgress is one required procedure with its counts and bars.
type ProcedureProgress struct {
	ProcedureID    string `json:"procedure_id"`
	Name           string `json:"name"`
	Goal           int64  `json:"goal"`
	Count          int64  `json:"count"`
	ValidatedCount int64  `json:"validated_count"`
	progress.Projection
}

// Report is a resident's progress on one rotation.
type Report struct {
	ResidentID   primitive.ObjectID  `json:"resident_id"`
	RotationID   primitive.ObjectID  `json:"rotation_id"`
	RotationName string              `json:"rotation_name"`
	Procedures   []ProcedureProgress `json:"procedures"`
	Totals       progress.Totals     `json:"totals"`
}

// Report joins GetProgress with the rotation's goals, in rotation order.
func (s *Service) Report(ctx context.Context, residentID, rotationID primitive.ObjectID) (Report, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Report")
	defer span.End()

	rot, rows, err := s.load(ctx, residentID, rotationID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Report{}, err
	}
	byID := progressOf(rot, residentID, rows)

	rep := Report{
		ResidentID:   residentID,
		RotationID:   rot.ID,
		RotationName: rot.Name,
		Procedures:   make([]ProcedureProgress, 0, len(rot.Procedures)),
	}
	lines := make([]progress.Line, 0, len(rot.Procedures))
	for _, p := range rot.Procedures {
		row := byID[p.ID]
		rep.Procedures = append(rep.Procedures, ProcedureProgress{
			ProcedureID:    p.ID,
			Name:           p.Name,
			Goal:           p.Goal,
			Count:          row.Count,
			ValidatedCount: row.ValidatedCount,
			Projection:     progress.Project(row, p.Goal),
		})
		lines = append(lines, progress.Line{Row: row, Goal: p.Goal})
	}
	rep.Totals = progress.Summarize(lines)
	return rep, nil
}

// RotationOf exposes the catalog lookup so handlers can check who teaches the
// rotation before validating.
func (s *Service) RotationOf(ctx context.Context, rotationID primitive.ObjectID) (models.Rotation, error) {
	rot, err := s.catalog.GetRotation(ctx, rotationID)
	if err != nil {
		return models.Rotation{}, s.lookupErr("rotation", rotationID.Hex(), err)
	}
	return rot, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, catalogstore.ErrNotFound) || errors.Is(err, ErrNotFound)
}
