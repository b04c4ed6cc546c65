package workoutlog

import "fmt"

// ErrorCode identifies the kind of parse failure.
type ErrorCode string

const (
	CodeEmptyInput            ErrorCode = "EMPTY_INPUT"
	CodeMissingCategoryMarker ErrorCode = "MISSING_CATEGORY_MARKER"
	CodeInsufficientFields    ErrorCode = "INSUFFICIENT_FIELDS"
	CodeNonNumericField       ErrorCode = "NON_NUMERIC_FIELD"
)

// ParseError describes why a workout log was rejected. Block is 1-based;
// Field and Raw are set for field-level failures.
type ParseError struct {
	Code  ErrorCode
	Block int
	Field string
	Raw   string
}

func (e *ParseError) Error() string {
	switch e.Code {
	case CodeEmptyInput:
		return "workout string is empty"
	case CodeMissingCategoryMarker:
		return fmt.Sprintf("block %d: missing category marker '#'", e.Block)
	case CodeInsufficientFields:
		return fmt.Sprintf("block %d: expected category, name, sets/reps, weight and duration lines", e.Block)
	case CodeNonNumericField:
		return fmt.Sprintf("block %d: %s is not a number: %q", e.Block, e.Field, e.Raw)
	}
	return fmt.Sprintf("block %d: %s", e.Block, e.Code)
}

// Is matches on Code so callers can use the sentinels below with errors.Is.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrEmptyInput            = &ParseError{Code: CodeEmptyInput}
	ErrMissingCategoryMarker = &ParseError{Code: CodeMissingCategoryMarker}
	ErrInsufficientFields    = &ParseError{Code: CodeInsufficientFields}
	ErrNonNumericField       = &ParseError{Code: CodeNonNumericField}
)
