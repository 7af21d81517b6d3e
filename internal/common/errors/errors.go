// Package errors provides the structured error type surfaced by the wizard API.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode is a stable, machine-readable error identifier.
type ErrorCode string

const (
	ErrCodeStepValidationFailed ErrorCode = "STEP_VALIDATION_FAILED"
	ErrCodeStepOutOfRange       ErrorCode = "STEP_OUT_OF_RANGE"
	ErrCodeStepNotReached       ErrorCode = "STEP_NOT_REACHED"
	ErrCodeInvalidField         ErrorCode = "INVALID_FIELD"

	ErrCodeSubmissionInProgress ErrorCode = "SUBMISSION_IN_PROGRESS"
	ErrCodeNotOnLastStep        ErrorCode = "NOT_ON_LAST_STEP"
	ErrCodeSubmissionFailed     ErrorCode = "SUBMISSION_FAILED"

	ErrCodeSnapshotMalformed ErrorCode = "SNAPSHOT_MALFORMED"
	ErrCodeStoreUnavailable  ErrorCode = "STORE_UNAVAILABLE"

	ErrCodeCredentialRequired ErrorCode = "CREDENTIAL_REQUIRED"
	ErrCodeSuggestionFailed   ErrorCode = "SUGGESTION_FAILED"
	ErrCodeSuggestionTimeout  ErrorCode = "SUGGESTION_TIMEOUT"
	ErrCodeSuggestionInFlight ErrorCode = "SUGGESTION_IN_FLIGHT"
	ErrCodeNoSuggestion       ErrorCode = "NO_SUGGESTION"
	ErrCodeRateLimited        ErrorCode = "SUGGESTION_RATE_LIMITED"

	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewStepValidationFailedError(step, errorCount int) *StandardError {
	return newError(ErrCodeStepValidationFailed,
		"Step data failed validation",
		fmt.Sprintf("step: %d, errors: %d", step, errorCount),
		false, nil)
}

func NewStepOutOfRangeError(step, total int) *StandardError {
	return newError(ErrCodeStepOutOfRange,
		"Step index out of range",
		fmt.Sprintf("step: %d, allowed: 1..%d", step, total),
		false, nil)
}

func NewStepNotReachedError(step, current int) *StandardError {
	return newError(ErrCodeStepNotReached,
		"Step has not been reached yet",
		fmt.Sprintf("step: %d, currentStep: %d", step, current),
		false, nil)
}

func NewInvalidFieldError(field string) *StandardError {
	return newError(ErrCodeInvalidField,
		"Unknown narrative field",
		fmt.Sprintf("field: %s", field),
		false, nil)
}

func NewSubmissionInProgressError() *StandardError {
	return newError(ErrCodeSubmissionInProgress,
		"A submission is already in progress",
		"", false, nil)
}

func NewNotOnLastStepError(current int) *StandardError {
	return newError(ErrCodeNotOnLastStep,
		"Submission is only allowed from the last step",
		fmt.Sprintf("currentStep: %d", current),
		false, nil)
}

// NewSubmissionFailedError is retryable: the wizard stays editable and the
// user may resubmit.
func NewSubmissionFailedError(message string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return newError(ErrCodeSubmissionFailed, message, details, true, err)
}

func NewSnapshotMalformedError(err error) *StandardError {
	return newError(ErrCodeSnapshotMalformed,
		"Saved wizard state is malformed",
		err.Error(), false, err)
}

func NewStoreUnavailableError(op string, err error) *StandardError {
	return newError(ErrCodeStoreUnavailable,
		"Durable store unavailable",
		fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		true, err)
}

func NewCredentialRequiredError() *StandardError {
	return newError(ErrCodeCredentialRequired,
		"An API key is required for AI assistance",
		"", false, nil)
}

func NewSuggestionFailedError(err error) *StandardError {
	return newError(ErrCodeSuggestionFailed,
		"Failed to generate suggestion",
		err.Error(), true, err)
}

func NewSuggestionTimeoutError(err error) *StandardError {
	return newError(ErrCodeSuggestionTimeout,
		"Suggestion service timeout",
		err.Error(), true, err)
}

func NewSuggestionInFlightError(field string) *StandardError {
	return newError(ErrCodeSuggestionInFlight,
		"A suggestion request is already loading",
		fmt.Sprintf("field: %s", field),
		false, nil)
}

func NewNoSuggestionError(status string) *StandardError {
	return newError(ErrCodeNoSuggestion,
		"No suggestion is ready to resolve",
		fmt.Sprintf("status: %s", status),
		false, nil)
}

func NewRateLimitedError(key string) *StandardError {
	return newError(ErrCodeRateLimited,
		"Too many suggestion requests",
		fmt.Sprintf("key: %s", key),
		true, nil)
}

func NewBadRequestError(details string) *StandardError {
	return newError(ErrCodeBadRequest, "Malformed request", details, false, nil)
}

// Normalize converts any error into a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "STEP") || strings.Contains(codeStr, "FIELD"):
		return "VALIDATION"
	case strings.Contains(codeStr, "SUBMISSION") || codeStr == string(ErrCodeNotOnLastStep):
		return "SUBMISSION"
	case strings.Contains(codeStr, "SNAPSHOT") || strings.Contains(codeStr, "STORE"):
		return "PERSISTENCE"
	case strings.Contains(codeStr, "SUGGESTION") || strings.Contains(codeStr, "CREDENTIAL"):
		return "AI"
	default:
		return "OTHER"
	}
}
