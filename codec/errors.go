package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned for zero-length input.
	ErrEmpty = errors.New("codec: empty input")
	// ErrUnsupportedFormat is returned when no decoder handles the input.
	ErrUnsupportedFormat = errors.New("codec: unsupported format")
	// ErrTruncated is returned when a container declares more data than is
	// present.
	ErrTruncated = errors.New("codec: truncated data")
)

// DecodeError reports a payload that could not be turned into samples.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("decode: %v", e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(format string, err error) error {
	return &DecodeError{Format: format, Err: err}
}
