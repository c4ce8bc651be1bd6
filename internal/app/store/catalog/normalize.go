package catalogstore

import (
	"fmt"
	"time"

	"github.com/dalemusser/residenthub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/residenthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// prepareRotation cleans a rotation for storage: plain-text names, folded
// name, generated ids, and non-negative goals.
func prepareRotation(r models.Rotation, now time.Time) (models.Rotation, error) {
	r.Name = htmlsanitize.PlainText(r.Name)
	if r.Name == "" {
		return models.Rotation{}, ErrNameRequired
	}
	r.NameCI = text.Fold(r.Name)
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}

	seen := make(map[string]struct{}, len(r.Procedures))
	procs := make([]models.RequiredProcedure, 0, len(r.Procedures))
	for _, p := range r.Procedures {
		p.Name = htmlsanitize.PlainText(p.Name)
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if _, dup := seen[p.ID]; dup {
			return models.Rotation{}, fmt.Errorf("%w: %s", ErrDuplicateProcedure, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Goal < 0 {
			p.Goal = 0
		}
		procs = append(procs, p)
	}
	r.Procedures = procs
	r.ParticipatingTeacherIDs = append([]primitive.ObjectID(nil), r.ParticipatingTeacherIDs...)

	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	return r, nil
}

// checkProceduresLocked rejects next when it drops a procedure of prev or
// changes its goal. Renames and new procedures are allowed.
func checkProceduresLocked(prev, next models.Rotation) error {
	goals := make(map[string]int64, len(next.Procedures))
	for _, p := range next.Procedures {
		goals[p.ID] = p.Goal
	}
	for _, p := range prev.Procedures {
		g, ok := goals[p.ID]
		if !ok {
			return fmt.Errorf("%w: procedure %s removed", ErrProcedureLocked, p.ID)
		}
		if g != p.Goal {
			return fmt.Errorf("%w: procedure %s goal %d -> %d", ErrProcedureLocked, p.ID, p.Goal, g)
		}
	}
	return nil
}

func prepareResident(res models.Resident, now time.Time) (models.Resident, error) {
	res.FullName = htmlsanitize.PlainText(res.FullName)
	if res.FullName == "" {
		return models.Resident{}, ErrNameRequired
	}
	res.FullNameCI = text.Fold(res.FullName)
	res.Level = htmlsanitize.PlainText(res.Level)
	if res.Status == "" {
		res.Status = "active"
	}
	if res.ID.IsZero() {
		res.ID = primitive.NewObjectID()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = now
	}
	res.UpdatedAt = now
	return res, nil
}

func cloneRotation(r models.Rotation) models.Rotation {
	r.Procedures = append([]models.RequiredProcedure(nil), r.Procedures...)
	r.ParticipatingTeacherIDs = append([]primitive.ObjectID(nil), r.ParticipatingTeacherIDs...)
	return r
}
