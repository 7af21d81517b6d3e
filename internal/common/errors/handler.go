package errors

import (
	"encoding/json"
	"net/http"
)

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler renders errors as JSON HTTP responses.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HTTPStatus maps an error code to the response status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeStepValidationFailed, ErrCodeInvalidField:
		return http.StatusUnprocessableEntity
	case ErrCodeStepOutOfRange, ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeStepNotReached, ErrCodeSubmissionInProgress, ErrCodeNotOnLastStep, ErrCodeSuggestionInFlight, ErrCodeNoSuggestion:
		return http.StatusConflict
	case ErrCodeCredentialRequired:
		return http.StatusUnauthorized
	case ErrCodeSubmissionFailed, ErrCodeSuggestionFailed:
		return http.StatusBadGateway
	case ErrCodeSuggestionTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Write normalizes err and writes it with the mapped status.
func (h *ErrorHandler) Write(w http.ResponseWriter, err error) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", map[string]interface{}{
			"errorCode":     string(stdErr.Code),
			"message":       stdErr.Message,
			"details":       stdErr.Details,
			"retryable":     stdErr.Retryable,
			"errorCategory": GetErrorCategory(stdErr.Code),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(stdErr)
}
