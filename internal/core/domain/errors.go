package domain

import "errors"

// Sentinel errors returned by the engine. Validation failures are not
// errors; they travel as ValidationErrors maps.
var (
	ErrSessionClosed      = errors.New("verification session is closed")
	ErrSessionVerified    = errors.New("verification session is already verified")
	ErrSubmissionInFlight = errors.New("a step submission is already in flight")
	ErrIllegalStepJump    = errors.New("illegal step jump")
	ErrStepOutOfRange     = errors.New("step index out of range")
	ErrInvalidFile        = errors.New("invalid file")
	ErrUploadInFlight     = errors.New("an upload is already in flight for this document type")
	ErrIllegalTransition  = errors.New("illegal upload state transition")
	ErrUnknownDocument    = errors.New("document type is not required by any step")
	ErrSubmissionFailed   = errors.New("step submission could not be persisted")
)

// Error codes used by the field validator. The step validator adds
// synthetic "doc_<type>" keys for missing documents.
const (
	ErrCodeRequired  = "required"
	ErrCodeFormat    = "invalid_format"
	ErrCodeMinLength = "min_length"
	ErrCodeMaxLength = "max_length"
	ErrCodeMin       = "min"
	ErrCodeMax       = "max"
	ErrCodeCustom    = "custom"
)

// FieldError describes why a single field value was rejected.
type FieldError struct {
	FieldID string
	Code    string
	Message string
}

// ValidationErrors maps field IDs (or "doc_<type>" keys) to messages.
// A step is valid iff the map is empty.
type ValidationErrors map[string]string

// Valid reports whether the map carries no errors.
func (v ValidationErrors) Valid() bool { return len(v) == 0 }
