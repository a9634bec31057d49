package sensorconfig

import (
	"errors"
	"fmt"
)

// Parse failure kinds. A *ParseError wraps exactly one of these, so callers
// can branch with errors.Is:
//
//	if errors.Is(err, sensorconfig.ErrMalformedLine) {
//	    // highlight the offending line
//	}
var (
	// ErrEmptyInput is returned when the text is empty.
	ErrEmptyInput = errors.New("sensorconfig: empty input")

	// ErrEmptySectionName is returned for a section header with a blank name.
	ErrEmptySectionName = errors.New("sensorconfig: empty section name")

	// ErrEmptyKey is returned for a key=value line whose key is blank.
	ErrEmptyKey = errors.New("sensorconfig: empty key")

	// ErrMalformedLine is returned for a line that is neither blank, a
	// comment, a section header nor a key=value pair.
	ErrMalformedLine = errors.New("sensorconfig: malformed line")

	// ErrEmptyConfig is returned when well-formed text yields no keys.
	ErrEmptyConfig = errors.New("sensorconfig: no configuration keys")

	// ErrInvalidJSON is returned when a stored configuration blob is not a
	// JSON object.
	ErrInvalidJSON = errors.New("sensorconfig: invalid JSON object")

	// ErrInvalidName is returned for a key or section name that cannot be
	// written as configuration text and read back unchanged.
	ErrInvalidName = errors.New("sensorconfig: invalid name")

	// ErrNonFiniteNumber is returned for NaN or infinite numbers, which
	// have no JSON or text form.
	ErrNonFiniteNumber = errors.New("sensorconfig: number is not finite")

	// ErrMultilineValue is returned for a string value containing a line
	// break, which cannot be written on a single key=value line.
	ErrMultilineValue = errors.New("sensorconfig: value contains a line break")
)

// ParseError describes where parsing stopped.
//
// Line is the 1-based line number and Raw the line exactly as it appeared in
// the input (untrimmed). Both are zero for errors that concern the document
// as a whole (ErrEmptyInput, ErrEmptyConfig).
type ParseError struct {
	Err  error
	Line int
	Raw  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v at line %d: %q", e.Err, e.Line, e.Raw)
}

// Unwrap returns the sentinel error kind.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Code returns a stable snake_case identifier for the error kind, suitable
// for API responses.
func (e *ParseError) Code() string {
	switch {
	case errors.Is(e.Err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(e.Err, ErrEmptySectionName):
		return "empty_section_name"
	case errors.Is(e.Err, ErrEmptyKey):
		return "empty_key"
	case errors.Is(e.Err, ErrMalformedLine):
		return "malformed_line"
	case errors.Is(e.Err, ErrEmptyConfig):
		return "empty_config"
	default:
		return "invalid_config"
	}
}
