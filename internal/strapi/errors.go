package strapi

import (
	"errors"
	"fmt"
)

// ErrUnauthorized indicates the API token is missing, invalid or lacks permission.
var ErrUnauthorized = errors.New("strapi rejected the API token")

// ErrMissingToken is returned for writes attempted without a token.
var ErrMissingToken = errors.New("strapi API token is not set")

// APIError represents a non-2xx response from the content API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s → %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from the content API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
