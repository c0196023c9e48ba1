package errors

import (
	"errors"
	"fmt"
)

// AuthRequiredError signals that the content system rejected our credentials
// and the client has dropped back to the unauthenticated state.
type AuthRequiredError struct {
	StatusCode int
	Message    string
}

func (e *AuthRequiredError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("authentication required (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("authentication required: %s", e.Message)
}

// NewAuthRequiredError creates an AuthRequiredError.
func NewAuthRequiredError(statusCode int, message string) *AuthRequiredError {
	return &AuthRequiredError{StatusCode: statusCode, Message: message}
}

// IsAuthRequiredError reports whether err is an AuthRequiredError (even when wrapped).
func IsAuthRequiredError(err error) bool {
	var authErr *AuthRequiredError
	return errors.As(err, &authErr)
}
