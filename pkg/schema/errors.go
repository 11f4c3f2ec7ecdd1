package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeDecode     = "DECODE_ERROR"
	ErrCodeExpression = "EXPRESSION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeIO         = "IO_ERROR"
	ErrCodeSink       = "SINK_ERROR"
)

// Error is the structured error type returned by flagbridge's outer surfaces
// (decoding, expressions, I/O). Context conversion itself never fails.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Source  string         `json:"source,omitempty"`
	Cause   error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Source, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates a new Error with a formatted message.
func NewErrorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithSource attaches the input source (file name, "stdin", tool name).
func (e *Error) WithSource(source string) *Error {
	e.Source = source
	return e
}

// WithCause attaches an underlying cause.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}
