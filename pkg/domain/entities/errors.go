package entities

import (
	"errors"
	"fmt"
)

// ConnectionError means the collaborator database could not be reached
type ConnectionError struct {
	Driver string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Driver, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError is a statement failure reported by the collaborator
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ParseError is a source value that could not be coerced
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("parse %s %q", e.Field, e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsFatal reports whether err must abort a pipeline run
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var connErr *ConnectionError
	var queryErr *QueryError
	var parseErr *ParseError
	return errors.As(err, &connErr) || errors.As(err, &queryErr) || errors.As(err, &parseErr)
}
