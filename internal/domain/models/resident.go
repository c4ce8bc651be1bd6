// internal/domain/models/resident.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Resident is a trainee whose procedure counts and evaluations are tracked.
// Residents are created and edited by the administrative module; this
// service only reads them (and upserts them when seeding).
type Resident struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Level      string             `bson:"level" json:"level"`                // e.g. "R1", "R2"
	Status     string             `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
