// internal/app/store/evaluations/evaluationstore.go
package evaluationstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/residenthub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/residenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection returns the collection that stores evaluations of kind.
func Collection(kind models.ObligationKind) string {
	return string(kind) + "_evaluations"
}

// Store reads and records one kind of evaluation (competency or presentation).
type Store struct {
	c    *mongo.Collection
	kind models.ObligationKind
}

func New(db *mongo.Database, kind models.ObligationKind) *Store {
	return &Store{c: db.Collection(Collection(kind)), kind: kind}
}

// Kind returns the evaluation kind this store holds.
func (s *Store) Kind() models.ObligationKind { return s.kind }

// Record inserts an evaluation. Notes are sanitized; scores are kept as given.
func (s *Store) Record(ctx context.Context, e models.Evaluation) (models.Evaluation, error) {
	if e.ResidentID.IsZero() || e.RotationID.IsZero() {
		return models.Evaluation{}, fmt.Errorf("%s evaluation: resident and rotation are required", s.kind)
	}
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	e.Notes = htmlsanitize.Notes(e.Notes)
	e.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Evaluation{}, err
	}
	return e, nil
}

// ListKeys returns every evaluation with only its resident and rotation ids
// loaded; existence is all the compliance rules look at.
func (s *Store) ListKeys(ctx context.Context) ([]models.Evaluation, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{
		"resident_id": 1, "rotation_id": 1,
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Evaluation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Exists reports whether an evaluation exists for the pair.
func (s *Store) Exists(ctx context.Context, residentID, rotationID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"resident_id": residentID, "rotation_id": rotationID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
