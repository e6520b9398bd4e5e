package source

import "fmt"

// UnavailableError indicates the source could not be reached or rejected the query.
type UnavailableError struct {
	Driver string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e == nil {
		return "source unavailable"
	}
	if e.Driver != "" {
		return fmt.Sprintf("source unavailable (%s): %v", e.Driver, e.Err)
	}
	return fmt.Sprintf("source unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
