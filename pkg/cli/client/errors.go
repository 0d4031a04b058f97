package client

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind categorizes request failures
type ErrorKind string

const (
	ErrorKindNetwork         ErrorKind = "network"
	ErrorKindHTTP            ErrorKind = "http"
	ErrorKindInvalidResponse ErrorKind = "invalid_response"
	ErrorKindCancelled       ErrorKind = "cancelled"

	// ErrorKindInvalidRequest marks a call rejected before anything was sent.
	ErrorKindInvalidRequest ErrorKind = "invalid_request"
)

// FallbackMessage is shown when the server gave no detail
const FallbackMessage = "Please try again"

// RequestError is returned by every Client call that fails
type RequestError struct {
	Kind       ErrorKind
	StatusCode int    // 0 unless Kind is ErrorKindHTTP
	Detail     string // server-provided "detail", verbatim
	Cause      error
}

// Error implements the error interface
func (e *RequestError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Detail != "":
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Detail)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s (%d)", e.Kind, e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return string(e.Kind)
}

// Unwrap returns the underlying error for error unwrapping
func (e *RequestError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the server detail when present, else a fallback
func (e *RequestError) UserMessage() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Kind == ErrorKindCancelled {
		return "Request was cancelled."
	}
	return FallbackMessage
}

// UserMessage extracts a user-facing message from any error returned by the client.
func UserMessage(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.UserMessage()
	}
	return FallbackMessage
}

func newNetworkError(cause error) *RequestError {
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return &RequestError{Kind: ErrorKindCancelled, Cause: cause}
	}
	return &RequestError{Kind: ErrorKindNetwork, Cause: cause}
}

func newHTTPError(status int, detail string) *RequestError {
	return &RequestError{Kind: ErrorKindHTTP, StatusCode: status, Detail: detail}
}

func newInvalidResponseError(cause error) *RequestError {
	return &RequestError{Kind: ErrorKindInvalidResponse, Cause: cause}
}

func newInvalidRequestError(cause error) *RequestError {
	return &RequestError{Kind: ErrorKindInvalidRequest, Cause: cause}
}
