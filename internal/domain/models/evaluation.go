// internal/domain/models/evaluation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Evaluation is a competency or presentation evaluation performed for a
// resident on a rotation. Which one it is depends on the collection it lives
// in; existence of a document is what matters to compliance.
type Evaluation struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	ResidentID  primitive.ObjectID `bson:"resident_id" json:"resident_id"`
	RotationID  primitive.ObjectID `bson:"rotation_id" json:"rotation_id"`
	EvaluatorID primitive.ObjectID `bson:"evaluator_id,omitempty" json:"evaluator_id,omitempty"`
	Score       *float64           `bson:"score,omitempty" json:"score,omitempty"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
