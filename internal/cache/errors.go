package cache

import "fmt"

// WriteError indicates the cache could not be persisted.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write cache %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ParseError indicates an existing cache file is malformed.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse cache %s line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse cache %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
