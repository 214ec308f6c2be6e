package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrTemplateNotFound means no instruction template is registered for a
	// specialization.
	ErrTemplateNotFound = errors.New("instruction template not found")

	// ErrEmptyInput means the transcript had no text to extract from.
	ErrEmptyInput = errors.New("transcript is empty")
)

// ServiceError wraps a failed call to the extraction service.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("extraction service: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// MalformedResponseError means the service reply did not match the expected
// JSON schema.
type MalformedResponseError struct {
	Content string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed extraction response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
