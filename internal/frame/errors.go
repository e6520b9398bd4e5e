package frame

import (
	"fmt"
	"strings"
)

// UnknownColumnError indicates a caller referenced a column the dataset does not have.
type UnknownColumnError struct {
	Column    string
	Available []string
}

func (e *UnknownColumnError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown column %q", e.Column)
	}
	return fmt.Sprintf("unknown column %q (available: %s)", e.Column, strings.Join(e.Available, ", "))
}

// CoercionError indicates a value could not be cast to a column's declared type.
type CoercionError struct {
	Column string
	Row    int
	Value  string
	Type   string
	Err    error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("column %q row %d: cannot convert %q to %s", e.Column, e.Row, e.Value, e.Type)
}

func (e *CoercionError) Unwrap() error { return e.Err }
