package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical detail and the request id, and is
// returned to the client as the mapped user message with its code.

import (
	"net/http"

	"github.com/JonMunkholm/exportsync/internal/core"
	"github.com/JonMunkholm/exportsync/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its user message as JSON.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	writeJSON(w, statusCode, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// outcomeStatus maps a run outcome to the response status of the request
// that started it. Failures the caller can fix in the export are 422; a
// saturated service is 503.
func outcomeStatus(o core.Outcome) int {
	switch o.Status {
	case core.StatusSucceeded:
		return http.StatusOK
	case core.StatusSourceNotFound, core.StatusUnparsableSource, core.StatusHeaderNotFound:
		return http.StatusUnprocessableEntity
	}
	switch o.Code {
	case core.MapError(core.ErrMissingColumn).Code:
		return http.StatusUnprocessableEntity
	case core.MapError(core.ErrTooManyRuns).Code:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
