package core

import (
	"fmt"
)

// ConfigurationError reports a deployment-level problem: a missing
// environment setting, a missing required record field, or an unsupported
// enum value. It is always fatal to the current invocation and is never
// shown verbatim to the end user.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}

// NewConfigurationError builds a ConfigurationError from a format string.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// ValidationError reports an invalid request or use-case configuration:
// unrecognized model parameters, RAG enabled without a knowledge base, a
// missing conversation or user id. Fatal to the current invocation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// LLMBuildError wraps a failure while constructing or invoking the upstream
// model provider. The wrapped cause is logged server-side only.
type LLMBuildError struct {
	Reason string
	Err    error
}

func (e *LLMBuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *LLMBuildError) Unwrap() error {
	return e.Err
}

// NewLLMBuildError wraps err with a user-safe reason.
func NewLLMBuildError(err error, format string, args ...any) *LLMBuildError {
	return &LLMBuildError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// UserFacingMessage is the generic response returned for any failure. The
// detailed cause stays in the server-side logs; the trace id lets an
// administrator correlate the two.
func UserFacingMessage(traceID string) string {
	return fmt.Sprintf(
		"Chat service failed to respond. Please contact your system administrator for support and quote the following trace id: %s",
		traceID,
	)
}
