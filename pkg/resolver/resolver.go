// Package resolver defines the flag-resolution contract that consumes
// evaluation contexts, plus a decorator that forwards the analytics records
// found in each context to a Sink.
package resolver

import (
	"context"

	"github.com/rendis/flagbridge/pkg/evalctx"
)

// Reason explains how a value was resolved.
type Reason string

const (
	ReasonStatic         Reason = "STATIC"
	ReasonDefault        Reason = "DEFAULT"
	ReasonTargetingMatch Reason = "TARGETING_MATCH"
	ReasonSplit          Reason = "SPLIT"
	ReasonDisabled       Reason = "DISABLED"
	ReasonUnknown        Reason = "UNKNOWN"
	ReasonError          Reason = "ERROR"
)

// ErrorCode classifies a failed resolution.
type ErrorCode string

const (
	ErrorFlagNotFound   ErrorCode = "FLAG_NOT_FOUND"
	ErrorParse          ErrorCode = "PARSE_ERROR"
	ErrorTypeMismatch   ErrorCode = "TYPE_MISMATCH"
	ErrorInvalidContext ErrorCode = "INVALID_CONTEXT"
	ErrorGeneral        ErrorCode = "GENERAL"
)

// ResolveParams is the input of a single flag resolution.
type ResolveParams struct {
	FlagKey      string
	DefaultValue any
	Context      *evalctx.Context
	// IsAnyType disables type checking of the resolved value.
	IsAnyType bool
}

// ResolutionDetails is the outcome of a flag resolution.
type ResolutionDetails struct {
	Value        any            `json:"value"`
	Variant      string         `json:"variant,omitempty"`
	Reason       Reason         `json:"reason,omitempty"`
	ErrorCode    ErrorCode      `json:"errorCode,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	FlagMetadata map[string]any `json:"flagMetadata,omitempty"`
}

// Failed reports whether the resolution carries an error code.
func (d ResolutionDetails) Failed() bool {
	return d.ErrorCode != ""
}

// Resolver evaluates a flag for an evaluation context. Implementations never
// return Go errors; failures are reported through ErrorCode and the default
// value is returned.
type Resolver interface {
	Resolve(ctx context.Context, params ResolveParams) ResolutionDetails
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, params ResolveParams) ResolutionDetails

func (f ResolverFunc) Resolve(ctx context.Context, params ResolveParams) ResolutionDetails {
	return f(ctx, params)
}
