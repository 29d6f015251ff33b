package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvariantViolation = "INVARIANT_VIOLATION"
	ErrCodeOutOfRange         = "OUT_OF_RANGE"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeNothingToUndo      = "NOTHING_TO_UNDO"
	ErrCodeNothingToRedo      = "NOTHING_TO_REDO"
	ErrCodeMalformedPattern   = "MALFORMED_PATTERN"
	ErrCodeImportParse        = "IMPORT_PARSE_ERROR"
	ErrCodeStore              = "STORE_ERROR"
)

// ForgeError is the structured error type for all FormForge operations.
type ForgeError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	FieldID string         `json:"field_id,omitempty"`
	Cause   error          `json:"-"`
}

func (e *ForgeError) Error() string {
	if e.FieldID != "" {
		return fmt.Sprintf("[%s] field %s: %s", e.Code, e.FieldID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ForgeError) Unwrap() error {
	return e.Cause
}

// NewError creates a new ForgeError.
func NewError(code, message string) *ForgeError {
	return &ForgeError{Code: code, Message: message}
}

// NewErrorf creates a new ForgeError with a formatted message.
func NewErrorf(code, format string, args ...any) *ForgeError {
	return &ForgeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithField attaches a field ID to the error.
func (e *ForgeError) WithField(fieldID string) *ForgeError {
	e.FieldID = fieldID
	return e
}

// WithCause attaches an underlying cause.
func (e *ForgeError) WithCause(err error) *ForgeError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *ForgeError) WithDetails(details map[string]any) *ForgeError {
	e.Details = details
	return e
}

// CodeOf returns the ForgeError code of err, or "" for any other error.
func CodeOf(err error) string {
	if fe, ok := err.(*ForgeError); ok {
		return fe.Code
	}
	return ""
}
