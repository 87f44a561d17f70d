package oaipmh

import (
	"errors"
	"fmt"
)

// OAI-PMH error codes the harvester treats specially.
const (
	CodeNoRecordsMatch = "noRecordsMatch"
	CodeIDDoesNotExist = "idDoesNotExist"
)

var (
	// ErrNoRecordsMatch means the request was valid but selected nothing.
	ErrNoRecordsMatch = errors.New("oai-pmh: no records match")

	// ErrIDDoesNotExist means GetRecord was asked for an unknown identifier.
	ErrIDDoesNotExist = errors.New("oai-pmh: identifier does not exist")
)

// ProtocolError is an <error> element returned by the repository.
type ProtocolError struct {
	Code    string
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("oai-pmh error [%s]: %s", e.Code, e.Message)
}

// Is maps well-known codes onto the package sentinels.
func (e *ProtocolError) Is(target error) bool {
	switch target {
	case ErrNoRecordsMatch:
		return e.Code == CodeNoRecordsMatch
	case ErrIDDoesNotExist:
		return e.Code == CodeIDDoesNotExist
	}
	return false
}

// HTTPError is a non-2xx response from the repository.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("oai-pmh repository returned HTTP %d", e.StatusCode)
}
