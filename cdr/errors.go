package cdr

import (
	"errors"
	"fmt"
)

var (
	ErrHeaderNotFound  = errors.New("header row not found")
	ErrInvalidEncoding = errors.New("input is not valid UTF-8")
	ErrEmptyInput      = errors.New("input is empty")
)

// ParseError is the fatal failure of one file; no partial table accompanies it.
type ParseError struct {
	Op     string // detect, header, read, decode
	Path   string
	Format Format
	Line   int // 1-based, 0 when not tied to a line
	Err    error
}

func (e *ParseError) Error() string {
	msg := "parse " + e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Format != "" {
		msg += fmt.Sprintf(" (%s)", e.Format)
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" line %d", e.Line)
	}
	return msg + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }
