// internal/domain/models/exam.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Quiz is a written exam. It belongs to a rotation by subject name, or to
// every rotation when Interdisciplinary is set.
type Quiz struct {
	ID                primitive.ObjectID `bson:"_id" json:"id"`
	Title             string             `bson:"title" json:"title"`
	SubjectName       string             `bson:"subject_name" json:"subject_name"`
	Interdisciplinary bool               `bson:"interdisciplinary,omitempty" json:"interdisciplinary,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
}

// AttemptState is the submission state of an exam attempt.
type AttemptState string

const (
	AttemptDraft         AttemptState = "draft"
	AttemptSubmitted     AttemptState = "submitted"
	AttemptPendingReview AttemptState = "pending_review"
	AttemptGraded        AttemptState = "graded"
	AttemptAbandoned     AttemptState = "abandoned"
)

// HasWrittenGrade reports whether an attempt in this state counts as a
// written grade (the trigger that opens the evaluation window).
func (s AttemptState) HasWrittenGrade() bool {
	return s == AttemptSubmitted || s == AttemptPendingReview
}

// ExamAttempt records a resident's attempt at a quiz.
type ExamAttempt struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	ResidentID  primitive.ObjectID `bson:"resident_id" json:"resident_id"`
	QuizID      primitive.ObjectID `bson:"quiz_id" json:"quiz_id"`
	State       AttemptState       `bson:"state" json:"state"`
	SubmittedAt *time.Time         `bson:"submitted_at,omitempty" json:"submitted_at,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
