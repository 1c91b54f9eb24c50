package core

import (
	"errors"
	"fmt"
)

var (
	// ErrResource marks failures to reach the sales data: missing file,
	// worksheet or column.
	ErrResource = errors.New("resource error")
	// ErrParse marks malformed cell values.
	ErrParse = errors.New("parse error")
)

// ResourceError reports a missing or unreadable input resource.
type ResourceError struct {
	Resource string
	Err      error
}

func (e *ResourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("resource %q unavailable", e.Resource)
	}
	return fmt.Sprintf("resource %q unavailable: %v", e.Resource, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// Is matches ErrResource.
func (e *ResourceError) Is(target error) bool { return target == ErrResource }

// ParseError reports a cell that could not be parsed. Row is 1-based and
// counts data rows after the header.
type ParseError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d column %q: cannot parse %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is matches ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// NewResourceError wraps err as a ResourceError for resource.
func NewResourceError(resource string, err error) error {
	return &ResourceError{Resource: resource, Err: err}
}
