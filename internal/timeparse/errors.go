package timeparse

import (
	"errors"
	"fmt"
)

// ErrParse is wrapped by every ParseError.
var ErrParse = errors.New("unparseable time")

// ParseError reports time text that could not be turned into an interval.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot parse time %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("cannot parse time %q", e.Input)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}
