package remote

import (
	"errors"
	"fmt"
)

// ErrNotConfigured indicates no remote URL was configured
var ErrNotConfigured = errors.New("remote dataset URL is not configured")

// ErrUnauthorized indicates the API key was rejected
var ErrUnauthorized = errors.New("remote dataset rejected the API key")

// ErrRateLimited indicates the API rate limit was exceeded
var ErrRateLimited = errors.New("remote dataset rate limit exceeded")

// ErrVersionMissing indicates the version table is empty or holds an empty value
var ErrVersionMissing = errors.New("remote dataset version is missing")

// ServerError represents a 5xx error from the remote dataset
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("remote dataset server error: status %d", e.StatusCode)
}

// IsServerError checks if the error is a server error
func IsServerError(err error) bool {
	var serverErr *ServerError
	return errors.As(err, &serverErr)
}
