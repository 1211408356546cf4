package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as user-friendly messages with action suggestions
//   - Formatted as JSON for API clients and as an HTML page otherwise
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. Error is mapped via mapError to a user-friendly message and status
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is rendered in appropriate format for the client
//
// Validation failures from request structs get code VAL001; everything else
// uses the codes documented in core.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/tidycsv/internal/core"
	"github.com/JonMunkholm/tidycsv/internal/logging"
	"github.com/JonMunkholm/tidycsv/internal/storage"
	"github.com/JonMunkholm/tidycsv/internal/table"
	"github.com/JonMunkholm/tidycsv/internal/web/templates"
	"github.com/a-h/templ"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Action  string   `json:"action,omitempty"`
	Code    string   `json:"code"`
	Fields  []string `json:"fields,omitempty"`
}

// errNoFile is returned when the multipart form carries no file part.
var errNoFile = errors.New("no file provided")

// respondError logs the technical error server-side and returns a
// user-friendly response in the format the client asked for.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg, fields := mapError(err)
	status := statusFor(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if wantsJSON(r) {
		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
			Fields:  fields,
		})
		return
	}

	templ.Handler(templates.ErrorPage(userMsg, status), templ.WithStatus(status)).ServeHTTP(w, r)
}

// mapError adds request validation failures on top of core.MapError.
func mapError(err error) (core.UserMessage, []string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return core.UserMessage{
			Message: "The request is invalid: " + strings.Join(fields, ", "),
			Action:  "Check the submitted values and try again",
			Code:    "VAL001",
		}, fields
	}
	return core.MapError(err), nil
}

// statusFor picks the HTTP status for an error.
func statusFor(err error) int {
	var (
		parseErr *table.ParseError
		emptyErr *table.EmptyInputError
		tooLarge *http.MaxBytesError
		verrs    validator.ValidationErrors
	)
	switch {
	case errors.As(err, &verrs),
		errors.As(err, &parseErr),
		errors.As(err, &emptyErr),
		errors.Is(err, storage.ErrInvalidName),
		errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge), core.MapError(err).Code == "FILE001":
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, table.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, core.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// Client went away; the status is only seen in logs.
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	// API routes default to JSON
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}

	// Check Accept header
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
