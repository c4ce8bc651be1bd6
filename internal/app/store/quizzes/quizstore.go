// internal/app/store/quizzes/quizstore.go
package quizstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/residenthub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/residenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrSubjectRequired is returned when a non-interdisciplinary quiz has no subject.
var ErrSubjectRequired = errors.New("quiz: subject name is required unless interdisciplinary")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("quizzes")}
}

// Create inserts a quiz. SubjectName must match the rotation name exactly for
// the quiz to count toward that rotation.
func (s *Store) Create(ctx context.Context, q models.Quiz) (models.Quiz, error) {
	q.Title = htmlsanitize.PlainText(q.Title)
	q.SubjectName = htmlsanitize.PlainText(q.SubjectName)
	if q.SubjectName == "" && !q.Interdisciplinary {
		return models.Quiz{}, ErrSubjectRequired
	}
	if q.ID.IsZero() {
		q.ID = primitive.NewObjectID()
	}
	q.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, q); err != nil {
		return models.Quiz{}, err
	}
	return q, nil
}

// List returns every quiz.
func (s *Store) List(ctx context.Context) ([]models.Quiz, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Quiz{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
