package engine

import (
	"errors"
	"fmt"
)

// ErrInputEmpty is reported when no text or table candidates were supplied.
// It is surfaced as an issue on the result, never as an abort.
var ErrInputEmpty = errors.New("no text or table candidates supplied")

// NumberFormatError indicates a token that could not be parsed as a number.
// The token is discarded and extraction continues with the remaining tokens.
type NumberFormatError struct {
	Raw    string
	Reason string
}

func (e *NumberFormatError) Error() string {
	return fmt.Sprintf("cannot parse %q as a number: %s", e.Raw, e.Reason)
}

// NoViableExtractionError indicates that no strategy produced a validated
// line item for a given line. The caller decides whether to drop the line
// or fall back to document-level total extraction.
type NoViableExtractionError struct {
	Line string
}

func (e *NoViableExtractionError) Error() string {
	return fmt.Sprintf("no viable extraction for line %q", e.Line)
}

// IsNoViableExtraction reports whether err wraps a NoViableExtractionError.
func IsNoViableExtraction(err error) bool {
	var nve *NoViableExtractionError
	return errors.As(err, &nve)
}
