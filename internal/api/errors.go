package api

import (
	"errors"
	"net/http"

	"github.com/kumar-mithlesh/headless-api/internal/api/shared"
	"github.com/kumar-mithlesh/headless-api/internal/domain"
	"github.com/kumar-mithlesh/headless-api/internal/service/auth"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

// MapErrorToStatusCode maps the error taxonomy onto HTTP status codes.
// Anything unrecognized is a 500.
func MapErrorToStatusCode(err error) int {
	var tokenErr *auth.TokenError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &tokenErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMalformedRequest),
		errors.Is(err, domain.ErrUnsupportedInclude),
		errors.Is(err, store.ErrInvalidScope):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAccessDenied),
		errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrRecordNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidationFailed),
		errors.Is(err, domain.ErrConflictingDiscard),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ErrorName is the machine-readable name rendered beside the message.
func ErrorName(err error) string {
	var tokenErr *auth.TokenError
	switch {
	case errors.As(err, &tokenErr):
		return string(tokenErr.Kind)
	case errors.Is(err, domain.ErrMalformedRequest), errors.Is(err, store.ErrInvalidScope):
		return "MalformedRequest"
	case errors.Is(err, domain.ErrUnsupportedInclude):
		return "UnsupportedInclude"
	case errors.Is(err, domain.ErrAccessDenied):
		return "AccessDenied"
	case errors.Is(err, domain.ErrNotAuthorized):
		return "NotAuthorized"
	case errors.Is(err, domain.ErrRecordNotFound), errors.Is(err, store.ErrNotFound):
		return "RecordNotFound"
	case errors.Is(err, domain.ErrValidationFailed),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrInvalidEntity):
		return "ValidationFailed"
	case errors.Is(err, domain.ErrConflictingDiscard):
		return "ConflictingDiscard"
	default:
		return "InternalError"
	}
}

// GetSafeErrorMessage returns a client-safe message. Internal errors never
// leak their text.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}
	var (
		tokenErr *auth.TokenError
		verrs    *domain.ValidationErrors
	)
	switch {
	case errors.As(err, &tokenErr):
		return tokenErr.Message()
	case errors.As(err, &verrs) && !verrs.Empty():
		return verrs.Summary()
	case errors.Is(err, domain.ErrMalformedRequest), errors.Is(err, store.ErrInvalidScope):
		return "The request is malformed"
	case errors.Is(err, domain.ErrUnsupportedInclude):
		return "The requested include is not supported"
	case errors.Is(err, domain.ErrAccessDenied):
		return "You are not authorized to access this page."
	case errors.Is(err, domain.ErrNotAuthorized):
		return "You are not authorized to perform this action."
	case errors.Is(err, domain.ErrRecordNotFound), errors.Is(err, store.ErrNotFound):
		return "Resource not found"
	case errors.Is(err, domain.ErrConflictingDiscard):
		return "Cannot delete record because dependent records exist"
	case errors.Is(err, store.ErrDuplicate):
		return "Record already exists"
	case errors.Is(err, domain.ErrValidationFailed), errors.Is(err, store.ErrInvalidEntity):
		return "Validation failed"
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError renders err once, at the edge of a handler. Field-level
// validation errors are included under "errors".
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	body := shared.ErrorResponse{
		Error: GetSafeErrorMessage(err),
		Name:  ErrorName(err),
	}
	var verrs *domain.ValidationErrors
	if errors.As(err, &verrs) && !verrs.Empty() {
		body.Errors = verrs.Fields()
	}

	var (
		opts     []shared.ResponseOption
		tokenErr *auth.TokenError
	)
	if status == http.StatusForbidden || errors.As(err, &tokenErr) {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, body, err, opts...)
}
