package core

import "fmt"

// FormatError describes a record line that could not be decoded.
// errors.Is(err, ErrFormat) holds for every FormatError.
type FormatError struct {
	Kind  string // record kind, e.g. "transaction"
	Field string // offending field, empty when the field count is wrong
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed %s record: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("malformed %s record: field %s=%q: %v", e.Kind, e.Field, e.Value, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }
