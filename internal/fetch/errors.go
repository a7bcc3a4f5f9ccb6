package fetch

import (
	"fmt"
	"net/http"
)

// ErrorType classifies transport failures.
type ErrorType string

const (
	ErrTypeRateLimited ErrorType = "rate_limited"
	ErrTypeForbidden   ErrorType = "forbidden"
	ErrTypeNotFound    ErrorType = "not_found"
	ErrTypeGone        ErrorType = "gone"
	ErrTypeUpstream    ErrorType = "upstream_failure"
	ErrTypeNetwork     ErrorType = "network"
	ErrTypeUnexpected  ErrorType = "unexpected"
)

// Error is a classified transport failure.
type Error struct {
	Type       ErrorType
	StatusCode int
	URL        string
	Cause      error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: HTTP %d for %s", e.Type, e.StatusCode, e.URL)
	}

	return fmt.Sprintf("fetch %s: %v for %s", e.Type, e.Cause, e.URL)
}

func (e *Error) Unwrap() error { return e.Cause }

const (
	statusServerErrorLow  = 500
	statusServerErrorHigh = 599
)

// ClassifyHTTPStatus creates an Error from a non-2xx status code.
func ClassifyHTTPStatus(statusCode int, url string) *Error {
	e := &Error{StatusCode: statusCode, URL: url, Cause: fmt.Errorf("HTTP %d", statusCode)}

	switch {
	case statusCode == http.StatusTooManyRequests:
		e.Type = ErrTypeRateLimited
	case statusCode == http.StatusForbidden:
		e.Type = ErrTypeForbidden
	case statusCode == http.StatusNotFound:
		e.Type = ErrTypeNotFound
	case statusCode == http.StatusGone:
		e.Type = ErrTypeGone
	case statusCode >= statusServerErrorLow && statusCode <= statusServerErrorHigh:
		e.Type = ErrTypeUpstream
	default:
		e.Type = ErrTypeUnexpected
	}

	return e
}

// ClassifyNetworkError creates an Error for DNS, timeout and connection failures.
func ClassifyNetworkError(cause error, url string) *Error {
	return &Error{Type: ErrTypeNetwork, URL: url, Cause: cause}
}
