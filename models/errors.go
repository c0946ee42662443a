package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeTimeout      = "FETCH_TIMEOUT"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeReportFailed = "REPORT_FAILED"
	ErrCodeInternal     = "INTERNAL_ERROR"

	// LLM-related error codes. These normally degrade a single dimension
	// rather than fail the request; they surface at the API boundary only
	// when the LLM cannot be reached for configuration reasons.
	ErrCodeLLMFailure     = "LLM_FAILURE"
	ErrCodeLLMAuthFailure = "LLM_AUTH_FAILURE"
	ErrCodeLLMRateLimited = "LLM_RATE_LIMITED"
	ErrCodeModelParse     = "MODEL_PARSE_FAILURE"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AssessError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type AssessError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *AssessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AssessError) Unwrap() error {
	return e.Err
}

// NewAssessError creates a new AssessError.
func NewAssessError(code, message string, err error) *AssessError {
	return &AssessError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *AssessError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
