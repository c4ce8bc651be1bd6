package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/residenthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateResident inserts a resident with the given name and level.
func (f *Fixtures) CreateResident(ctx context.Context, fullName, level string) models.Resident {
	f.t.Helper()

	now := time.Now().UTC()
	r := models.Resident{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Level:      level,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("residents").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("failed to create test resident: %v", err)
	}
	return r
}

// Procedure builds a required procedure with a fresh id.
func Procedure(name string, goal int64) models.RequiredProcedure {
	return models.RequiredProcedure{ID: uuid.NewString(), Name: name, Goal: goal}
}

// CreateRotation inserts a rotation led by leadTeacherID.
func (f *Fixtures) CreateRotation(ctx context.Context, name string, leadTeacherID primitive.ObjectID, procedures ...models.RequiredProcedure) models.Rotation {
	f.t.Helper()

	now := time.Now().UTC()
	r := models.Rotation{
		ID:            primitive.NewObjectID(),
		Name:          name,
		NameCI:        text.Fold(name),
		LeadTeacherID: leadTeacherID,
		Procedures:    procedures,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if r.Procedures == nil {
		r.Procedures = []models.RequiredProcedure{}
	}
	if _, err := f.db.Collection("rotations").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("failed to create test rotation: %v", err)
	}
	return r
}

// CreateQuiz inserts a quiz attached to a rotation by subject name.
func (f *Fixtures) CreateQuiz(ctx context.Context, title, subjectName string, interdisciplinary bool) models.Quiz {
	f.t.Helper()

	q := models.Quiz{
		ID:                primitive.NewObjectID(),
		Title:             title,
		SubjectName:       subjectName,
		Interdisciplinary: interdisciplinary,
		CreatedAt:         time.Now().UTC(),
	}
	if _, err := f.db.Collection("quizzes").InsertOne(ctx, q); err != nil {
		f.t.Fatalf("failed to create test quiz: %v", err)
	}
	return q
}

// CreateAttempt inserts an exam attempt in the given state.
func (f *Fixtures) CreateAttempt(ctx context.Context, residentID, quizID primitive.ObjectID, state models.AttemptState) models.ExamAttempt {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.ExamAttempt{
		ID:         primitive.NewObjectID(),
		ResidentID: residentID,
		QuizID:     quizID,
		State:      state,
		CreatedAt:  now,
	}
	if state.HasWrittenGrade() {
		a.SubmittedAt = &now
	}
	if _, err := f.db.Collection("exam_attempts").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test exam attempt: %v", err)
	}
	return a
}

// CreateEvaluation inserts an evaluation into collection
// ("competency_evaluations" or "presentation_evaluations").
func (f *Fixtures) CreateEvaluation(ctx context.Context, collection string, residentID, rotationID primitive.ObjectID) models.Evaluation {
	f.t.Helper()

	e := models.Evaluation{
		ID:          primitive.NewObjectID(),
		ResidentID:  residentID,
		RotationID:  rotationID,
		EvaluatorID: primitive.NewObjectID(),
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := f.db.Collection(collection).InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test evaluation: %v", err)
	}
	return e
}
