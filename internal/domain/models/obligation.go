// internal/domain/models/obligation.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ObligationKind names the evaluation that is missing.
type ObligationKind string

const (
	ObligationCompetency   ObligationKind = "competency"
	ObligationPresentation ObligationKind = "presentation"
)

// Obligation is a derived, never-persisted record: the resident has a written
// grade on the rotation but the evaluation of Kind has not been performed.
type Obligation struct {
	ResidentID primitive.ObjectID `json:"resident_id"`
	RotationID primitive.ObjectID `json:"rotation_id"`
	Kind       ObligationKind     `json:"kind"`
}
