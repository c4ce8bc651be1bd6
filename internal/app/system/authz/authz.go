// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/residenthub/internal/app/system/auth"
	"github.com/dalemusser/residenthub/internal/domain/compliance"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "visitor", "", NilObjectID, false. ok=true means a signed-in user with a
// valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session; fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == auth.RoleAdmin
}

// IsTeacher reports whether the current request's user is a teacher.
func IsTeacher(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == auth.RoleTeacher
}

// IsResident reports whether the current request's user is a resident.
func IsResident(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == auth.RoleResident
}

// ComplianceScope maps the caller onto the scope used for obligation queries.
// Admins see every rotation; teachers see the rotations they lead or teach in.
// Anyone else gets ok=false.
func ComplianceScope(r *http.Request) (compliance.Scope, bool) {
	role, _, id, ok := UserCtx(r)
	if !ok {
		return compliance.Scope{}, false
	}
	switch role {
	case auth.RoleAdmin:
		return compliance.AdminScope(), true
	case auth.RoleTeacher:
		return compliance.TeacherScope(id), true
	}
	return compliance.Scope{}, false
}

// CanValidate reports whether the caller may validate logs on a rotation.
// Admins always can; teachers only on rotations they teach.
func CanValidate(r *http.Request, taughtBy func(teacherID primitive.ObjectID) bool) bool {
	role, _, id, ok := UserCtx(r)
	if !ok {
		return false
	}
	switch role {
	case auth.RoleAdmin:
		return true
	case auth.RoleTeacher:
		return taughtBy != nil && taughtBy(id)
	}
	return false
}
