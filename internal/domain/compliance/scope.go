package compliance

import (
	"github.com/dalemusser/residenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScopeKind says whose worklist is being computed.
type ScopeKind int

const (
	// ScopeTeacher limits the worklist to rotations the teacher leads or
	// participates in.
	ScopeTeacher ScopeKind = iota + 1
	// ScopeAdmin covers every rotation.
	ScopeAdmin
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeTeacher:
		return "teacher"
	case ScopeAdmin:
		return "admin"
	default:
		return "none"
	}
}

// Scope is the viewing scope passed by the caller. The zero value covers
// nothing.
type Scope struct {
	Kind      ScopeKind
	TeacherID primitive.ObjectID
}

// AdminScope returns the administrative "all rotations" scope.
func AdminScope() Scope {
	return Scope{Kind: ScopeAdmin}
}

// TeacherScope returns the scope of one teacher.
func TeacherScope(teacherID primitive.ObjectID) Scope {
	return Scope{Kind: ScopeTeacher, TeacherID: teacherID}
}

// Covers reports whether rotation r is inside the scope.
func (s Scope) Covers(r models.Rotation) bool {
	switch s.Kind {
	case ScopeAdmin:
		return true
	case ScopeTeacher:
		return r.TaughtBy(s.TeacherID)
	default:
		return false
	}
}

// Key identifies the scope for request collapsing and logging.
func (s Scope) Key() string {
	if s.Kind == ScopeTeacher {
		return s.Kind.String() + ":" + s.TeacherID.Hex()
	}
	return s.Kind.String()
}
