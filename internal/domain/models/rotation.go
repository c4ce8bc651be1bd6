// internal/domain/models/rotation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rotation is a clinical assignment ("subject") with the procedures a
// resident must perform while on it.
//
// NOTE:
//   - Procedures are embedded; their IDs are stable strings so ledger rows
//     keep pointing at them when the rotation is edited.
//   - A procedure's Goal must not be renumbered once ledger rows reference it.
type Rotation struct {
	ID                      primitive.ObjectID   `bson:"_id" json:"id"`
	Name                    string               `bson:"name" json:"name"`
	NameCI                  string               `bson:"name_ci" json:"name_ci"`
	LeadTeacherID           primitive.ObjectID   `bson:"lead_teacher_id" json:"lead_teacher_id"`
	ParticipatingTeacherIDs []primitive.ObjectID `bson:"participating_teacher_ids,omitempty" json:"participating_teacher_ids,omitempty"`
	Procedures              []RequiredProcedure  `bson:"procedures" json:"procedures"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// RequiredProcedure is a procedure a rotation requires, with its target count.
type RequiredProcedure struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
	Goal int64  `bson:"goal" json:"goal"`
}

// Procedure looks up a required procedure by id.
func (r Rotation) Procedure(id string) (RequiredProcedure, bool) {
	for _, p := range r.Procedures {
		if p.ID == id {
			return p, true
		}
	}
	return RequiredProcedure{}, false
}

// TaughtBy reports whether the teacher leads or participates in the rotation.
func (r Rotation) TaughtBy(teacherID primitive.ObjectID) bool {
	if teacherID.IsZero() {
		return false
	}
	if r.LeadTeacherID == teacherID {
		return true
	}
	for _, id := range r.ParticipatingTeacherIDs {
		if id == teacherID {
			return true
		}
	}
	return false
}
