package schema

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationResult_EmptyIsValid(t *testing.T) {
	r := &ValidationResult{}
	assert.True(t, r.Valid())
}

func TestValidationResult_AddError(t *testing.T) {
	r := &ValidationResult{}
	r.AddError("conversion/0/goalId", ErrCodeValidation, "goalId is not numeric")

	assert.False(t, r.Valid())
	require.Len(t, r.Errors, 1)
	assert.Equal(t, "conversion/0/goalId", r.Errors[0].Path)
	assert.Equal(t, ErrCodeValidation, r.Errors[0].Code)
	assert.Equal(t, "goalId is not numeric", r.Errors[0].Message)
	assert.Equal(t, SeverityError, r.Errors[0].Severity)
}

func TestValidationResult_AddWarning(t *testing.T) {
	r := &ValidationResult{}
	r.AddWarning("customData/values/1", ErrCodeValidation, "value is not a string")

	assert.True(t, r.Valid(), "warnings alone should not make result invalid")
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, SeverityWarning, r.Warnings[0].Severity)
}

func TestValidationResult_Merge(t *testing.T) {
	r1 := &ValidationResult{}
	r1.AddError("/", ErrCodeValidation, "err1")
	r1.AddWarning("/", ErrCodeValidation, "warn1")

	r2 := &ValidationResult{}
	r2.AddError("conversion", ErrCodeDecode, "err2")
	r2.AddWarning("customData", ErrCodeValidation, "warn2")

	r1.Merge(r2)

	assert.Len(t, r1.Errors, 2)
	assert.Len(t, r1.Warnings, 2)
}

func TestValidationResult_MergeNil(t *testing.T) {
	r := &ValidationResult{}
	r.AddError("/", ErrCodeValidation, "err")
	r.Merge(nil)
	assert.Len(t, r.Errors, 1)
}

func TestValidationResult_ToError_Valid(t *testing.T) {
	r := &ValidationResult{}
	r.AddWarning("/", ErrCodeValidation, "just a warning")
	assert.Nil(t, r.ToError())
}

func TestValidationResult_ToError_SingleError(t *testing.T) {
	r := &ValidationResult{}
	r.AddError("conversion/0/goalId", ErrCodeValidation, "goalId is not numeric")

	err := r.ToError()
	require.NotNil(t, err)

	fbErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrCodeValidation, fbErr.Code)
	assert.Equal(t, "goalId is not numeric", fbErr.Message)
	assert.Equal(t, 1, fbErr.Details["error_count"])
}

func TestValidationResult_ToError_MultipleErrors(t *testing.T) {
	r := &ValidationResult{}
	r.AddError("/", ErrCodeValidation, "err1")
	r.AddError("/", ErrCodeValidation, "err2")
	r.AddWarning("/", ErrCodeValidation, "warn1")

	err := r.ToError()
	require.NotNil(t, err)

	fbErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Contains(t, fbErr.Message, "2 errors")
	assert.Equal(t, 2, fbErr.Details["error_count"])
	assert.Equal(t, 1, fbErr.Details["warning_count"])
}

func TestValidationResult_Promote(t *testing.T) {
	r := &ValidationResult{}
	r.AddWarning("/conversion/goalId", ErrCodeValidation, "expected number")
	r.AddWarning("/customData/values/0", ErrCodeValidation, "expected string")
	require.True(t, r.Valid())

	r.Promote()

	assert.False(t, r.Valid())
	assert.Empty(t, r.Warnings)
	require.Len(t, r.Errors, 2)
	assert.Equal(t, SeverityError, r.Errors[0].Severity)
	assert.Equal(t, "/conversion/goalId", r.Errors[0].Path)
}

func TestError_Format(t *testing.T) {
	err := NewError(ErrCodeDecode, "invalid JSON context")
	assert.Equal(t, "[DECODE_ERROR] invalid JSON context", err.Error())

	err = NewErrorf(ErrCodeIO, "cannot read %s", "ctx.json").WithSource("ctx.json")
	assert.Equal(t, "[IO_ERROR] ctx.json: cannot read ctx.json", err.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(ErrCodeSink, "sink failed").WithCause(cause)
	assert.ErrorIs(t, err, cause)

	var fbErr *Error
	require.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &fbErr)
	assert.Equal(t, ErrCodeSink, fbErr.Code)
}
