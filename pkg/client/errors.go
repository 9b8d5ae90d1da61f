package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of request errors.
type ErrorClass string

const (
	// ErrorClassAuth represents authentication failures (401, 403).
	ErrorClassAuth ErrorClass = "auth"

	// ErrorClassClient represents other 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 rate limit errors.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents response-body decode failures.
	ErrorClassDecode ErrorClass = "decode"
)

// RequestError is a classified request failure. Retryable marks failures a
// repeated attempt could fix (network faults, 5xx, rate limiting); everything
// else is fatal and short-circuits the retry loop. Message retains the
// backend's diagnostic text so nothing is lost on the way up.
type RequestError struct {
	Message    string
	Retryable  bool
	Class      ErrorClass
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fleet %s error (status %d): %s", e.Class, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fleet %s error: %s", e.Class, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorClassAuth
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// newStatusError builds a RequestError from a non-200 response. The response
// body is carried verbatim in the message. 429 and 5xx are retryable; 401/403
// and the remaining 4xx are not.
func newStatusError(status int, body []byte) *RequestError {
	class := classifyStatus(status)
	return &RequestError{
		Message:    fmt.Sprintf("request failed: %s", string(body)),
		Retryable:  class == ErrorClassServer || class == ErrorClassRateLimit,
		Class:      class,
		StatusCode: status,
	}
}

// newNetworkError wraps a transport-level failure. Always retryable,
// timeouts included.
func newNetworkError(err error) *RequestError {
	return &RequestError{
		Message:   err.Error(),
		Retryable: true,
		Class:     ErrorClassNetwork,
		Err:       err,
	}
}

// newDecodeError wraps a response-body decode failure.
func newDecodeError(err error, retryable bool) *RequestError {
	return &RequestError{
		Message:   fmt.Sprintf("decode response: %v", err),
		Retryable: retryable,
		Class:     ErrorClassDecode,
		Err:       err,
	}
}

// IsRetryable reports whether a repeated attempt may fix err. Classified
// errors carry the answer themselves; exhaustion is final; anything else
// (raw transport errors) defaults to retryable.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRetryExhausted) {
		return false
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Retryable
	}
	return true
}
