package scraper

import "fmt"

// ErrorType categorizes different types of scraper errors
type ErrorType string

const (
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypeNetwork         ErrorType = "network"
	ErrorTypeHTTPStatus      ErrorType = "http_status"
	ErrorTypeExtraction      ErrorType = "extraction"
	ErrorTypeInvalidID       ErrorType = "invalid_id"
	ErrorTypeInvalidResponse ErrorType = "invalid_response"
	ErrorTypeCancelled       ErrorType = "cancelled"
)

// ScraperError is a structured error from fetching or parsing a Transfermarkt page
type ScraperError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface
func (e *ScraperError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *ScraperError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns true if the error is likely to succeed on retry
func (e *ScraperError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	case ErrorTypeHTTPStatus:
		return e.StatusCode == 429 || e.StatusCode >= 500
	default:
		return false
	}
}

// UserMessage returns the short form recorded in a task's error list
func (e *ScraperError) UserMessage() string {
	switch e.Type {
	case ErrorTypeTimeout:
		return "Timeout"
	case ErrorTypeNetwork:
		return "Network error"
	case ErrorTypeHTTPStatus:
		return fmt.Sprintf("Status %d", e.StatusCode)
	case ErrorTypeExtraction:
		return e.Message
	case ErrorTypeInvalidID:
		return fmt.Sprintf("Invalid Transfermarkt id: %s", e.Message)
	case ErrorTypeCancelled:
		return "Scraping was cancelled."
	default:
		return e.Message
	}
}

func newTimeoutError(cause error) *ScraperError {
	return &ScraperError{
		Type:    ErrorTypeTimeout,
		Message: "Request timed out",
		Cause:   cause,
	}
}

func newNetworkError(cause error) *ScraperError {
	return &ScraperError{
		Type:    ErrorTypeNetwork,
		Message: "Network error",
		Cause:   cause,
	}
}

func newStatusError(code int) *ScraperError {
	return &ScraperError{
		Type:       ErrorTypeHTTPStatus,
		Message:    fmt.Sprintf("unexpected status %d", code),
		StatusCode: code,
	}
}

func newExtractionError(message string) *ScraperError {
	return &ScraperError{
		Type:    ErrorTypeExtraction,
		Message: message,
	}
}

func newInvalidIDError(value string) *ScraperError {
	return &ScraperError{
		Type:    ErrorTypeInvalidID,
		Message: value,
	}
}

func newInvalidResponseError(message string, cause error) *ScraperError {
	return &ScraperError{
		Type:    ErrorTypeInvalidResponse,
		Message: message,
		Cause:   cause,
	}
}

func newCancelledError(cause error) *ScraperError {
	return &ScraperError{
		Type:    ErrorTypeCancelled,
		Message: "Operation cancelled",
		Cause:   cause,
	}
}
