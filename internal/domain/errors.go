package domain

import "errors"

// Error taxonomy raised by the finder, authorization and persistence layers and
// mapped once at the API boundary.
var (
	// ErrRecordNotFound is returned when a single-record lookup resolves nothing.
	ErrRecordNotFound = errors.New("record not found")

	// ErrAccessDenied is returned when an action requires a principal and none
	// was resolved from the request.
	ErrAccessDenied = errors.New("you are not authorized to access this page")

	// ErrNotAuthorized is returned when a policy denies an action to a resolved
	// principal.
	ErrNotAuthorized = errors.New("you are not authorized to perform this action")

	// ErrValidationFailed is the sentinel wrapped by *ValidationErrors.
	ErrValidationFailed = errors.New("validation failed")

	// ErrMalformedRequest is returned for missing or unparseable request input.
	ErrMalformedRequest = errors.New("malformed request")

	// ErrUnsupportedInclude is returned when an include path names a
	// relationship the resource type does not declare.
	ErrUnsupportedInclude = errors.New("unsupported include")

	// ErrConflictingDiscard is returned when a hard delete would orphan active
	// records that still reference the target.
	ErrConflictingDiscard = errors.New("record is referenced by active records")
)
