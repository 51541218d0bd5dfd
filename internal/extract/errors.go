package extract

import "fmt"

// Kind classifies extraction failures.
type Kind string

const (
	// KindCorruptSource means the source file could not be opened or parsed.
	KindCorruptSource Kind = "corrupt_source"
	// KindOutOfRange means a requested page index does not exist in the
	// source document.
	KindOutOfRange Kind = "out_of_range"
)

// Error is the typed extraction error. It carries the failure kind and the
// offending source path so callers can report exactly what failed.
type Error struct {
	// Kind classifies the failure.
	Kind Kind
	// Source is the file path of the offending document.
	Source string
	// Page is the offending page index for out-of-range failures (-1 otherwise).
	Page int
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindOutOfRange:
		return fmt.Sprintf("extract: page %d out of range in %s", e.Page, e.Source)
	default:
		if e.Err != nil {
			return fmt.Sprintf("extract: cannot read %s: %v", e.Source, e.Err)
		}
		return fmt.Sprintf("extract: cannot read %s", e.Source)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// corruptErr builds a CorruptSource error for the given path.
func corruptErr(source string, err error) *Error {
	return &Error{Kind: KindCorruptSource, Source: source, Page: -1, Err: err}
}

// rangeErr builds an OutOfRange error for the given path and page.
func rangeErr(source string, page int) *Error {
	return &Error{Kind: KindOutOfRange, Source: source, Page: page}
}
