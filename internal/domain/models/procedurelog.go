// internal/domain/models/procedurelog.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProcedureLog is the ledger row for one (resident, rotation, procedure).
//
// It is an aggregate counter, not an event log. Count only grows (one per
// logged performance) and ValidatedCount catches up to Count when a
// supervisor validates; ValidatedCount <= Count always holds.
type ProcedureLog struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ResidentID  primitive.ObjectID `bson:"resident_id" json:"resident_id"`
	RotationID  primitive.ObjectID `bson:"rotation_id" json:"rotation_id"`
	ProcedureID string             `bson:"procedure_id" json:"procedure_id"`

	Count          int64 `bson:"count" json:"count"`
	ValidatedCount int64 `bson:"validated_count" json:"validated_count"`

	LastLoggedAt time.Time           `bson:"last_logged_at,omitempty" json:"last_logged_at,omitempty"`
	ValidatedAt  *time.Time          `bson:"validated_at,omitempty" json:"validated_at,omitempty"`
	ValidatedBy  *primitive.ObjectID `bson:"validated_by,omitempty" json:"validated_by,omitempty"`

	CreatedAt time.Time `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// Pending returns how many logged performances still await validation.
func (l ProcedureLog) Pending() int64 {
	if l.Count <= l.ValidatedCount {
		return 0
	}
	return l.Count - l.ValidatedCount
}
