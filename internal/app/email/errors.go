package email

import (
	"errors"
	"fmt"
)

var (
	ErrDecode     = errors.New("message unavailable")
	ErrOutOfRange = errors.New("ordinal out of range")
	ErrNoMessage  = errors.New("no message selected")
	ErrTooLarge   = errors.New("part exceeds extraction size limit")
)

// DecodeError reports a message source which could not be loaded or parsed.
// It matches ErrDecode with errors.Is.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrDecode, e.Source, e.Err)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// RangeError reports an ordinal outside [1, Count] of one ordinal space.
type RangeError struct {
	Space   string // "attachment" or "body part".
	Ordinal int
	Count   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s ordinal %d outside [1, %d]", e.Space, e.Ordinal, e.Count)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// IOError reports a failure to write extracted content to its destination.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("save %s: %s", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
