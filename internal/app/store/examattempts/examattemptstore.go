// internal/app/store/examattempts/examattemptstore.go
package examattemptstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/residenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrUnknownState is returned when recording an attempt with an unrecognised state.
var ErrUnknownState = errors.New("exam attempt: unknown state")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("exam_attempts")}
}

func knownState(s models.AttemptState) bool {
	switch s {
	case models.AttemptDraft, models.AttemptSubmitted, models.AttemptPendingReview,
		models.AttemptGraded, models.AttemptAbandoned:
		return true
	}
	return false
}

// Record inserts an attempt. Submitted and pending-review attempts get a
// SubmittedAt stamp if the caller left it empty.
func (s *Store) Record(ctx context.Context, a models.ExamAttempt) (models.ExamAttempt, error) {
	if !knownState(a.State) {
		return models.ExamAttempt{}, fmt.Errorf("%w: %q", ErrUnknownState, a.State)
	}
	now := time.Now().UTC()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.State.HasWrittenGrade() && a.SubmittedAt == nil {
		a.SubmittedAt = &now
	}
	a.CreatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.ExamAttempt{}, err
	}
	return a, nil
}

// ListQualifying returns the attempts whose state counts as a written grade.
func (s *Store) ListQualifying(ctx context.Context) ([]models.ExamAttempt, error) {
	filter := bson.M{"state": bson.M{"$in": bson.A{models.AttemptSubmitted, models.AttemptPendingReview}}}
	cur, err := s.c.Find(ctx, filter, options.Find().SetProjection(bson.M{
		"resident_id": 1, "quiz_id": 1, "state": 1,
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.ExamAttempt{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByResident returns a resident's attempts, newest first.
func (s *Store) ListByResident(ctx context.Context, residentID primitive.ObjectID) ([]models.ExamAttempt, error) {
	cur, err := s.c.Find(ctx, bson.M{"resident_id": residentID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.ExamAttempt{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
