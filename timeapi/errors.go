package timeapi

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is.
var (
	ErrNetwork = errors.New("time service unreachable")
	ErrParse   = errors.New("time service response malformed")
)

// NetworkError is a transport failure or a non-2xx response.
type NetworkError struct {
	Zone   string
	Status int // 0 when no response was received
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch time for %s: status %d", e.Zone, e.Status)
	}
	return fmt.Sprintf("fetch time for %s: %v", e.Zone, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ParseError is a response body that does not describe a valid timestamp.
type ParseError struct {
	Zone string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse time for %s: %v", e.Zone, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
