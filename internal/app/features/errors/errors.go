// internal/app/features/errors/errors.go
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/residenthub/internal/app/ledger"
	catalogstore "github.com/dalemusser/residenthub/internal/app/store/catalog"
	"go.uber.org/zap"
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Error string `json:"error"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes {"error": msg} with the given status.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Error: msg})
}

// BadRequest is used for malformed ids and bodies.
func BadRequest(w http.ResponseWriter, msg string) {
	Message(w, http.StatusBadRequest, msg)
}

// Forbidden is used when the caller is signed in but may not act here.
func Forbidden(w http.ResponseWriter) {
	Message(w, http.StatusForbidden, "forbidden")
}

// Unauthorized is used when no session user is present.
func Unauthorized(w http.ResponseWriter) {
	Message(w, http.StatusUnauthorized, "unauthorized")
}

// NotFound serves unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Message(w, http.StatusNotFound, "not found")
}

// MethodNotAllowed serves known routes with the wrong verb.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Message(w, http.StatusMethodNotAllowed, "method not allowed")
}

// Write maps err onto a status code. Missing entities are 404, rejected
// catalog input is 400, deadlines are 504, everything else is logged and
// returned as 500 without detail.
func Write(w http.ResponseWriter, r *http.Request, log *zap.Logger, op string, err error) {
	switch {
	case stderrors.Is(err, ledger.ErrNotFound), stderrors.Is(err, catalogstore.ErrNotFound):
		Message(w, http.StatusNotFound, err.Error())
	case stderrors.Is(err, catalogstore.ErrNameRequired), stderrors.Is(err, catalogstore.ErrDuplicateProcedure),
		stderrors.Is(err, catalogstore.ErrProcedureLocked):
		Message(w, http.StatusBadRequest, err.Error())
	case stderrors.Is(err, context.DeadlineExceeded):
		log.Warn(op+" timed out", zap.String("path", r.URL.Path), zap.Error(err))
		Message(w, http.StatusGatewayTimeout, "timed out")
	default:
		log.Error(op+" failed", zap.String("path", r.URL.Path), zap.Error(err))
		Message(w, http.StatusInternalServerError, "internal error")
	}
}
