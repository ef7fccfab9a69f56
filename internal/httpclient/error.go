package httpclient

import (
	"errors"
	"fmt"

	"billdesk/internal/common"
)

// Error is a non-2xx upstream response.
type Error struct {
	StatusCode int
	Response   []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("http client error: status %d", e.StatusCode)
}

// Is lets errors.Is match upstream failures against the taxonomy.
func (e *Error) Is(target error) bool {
	return target == common.ErrBadGateway
}

func NewError(statusCode int, response []byte) *Error {
	return &Error{StatusCode: statusCode, Response: response}
}

// IsHTTPError checks if an error is an HTTP client error
func IsHTTPError(err error) (*Error, bool) {
	var httpErr *Error
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
