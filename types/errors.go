package types

import "errors"

type ErrorKind int

const (
	ERR_IO ErrorKind = iota
	ERR_CUSTOM
	ERR_JSON
)

// Error is the only error type that leaves the save engine.
// I/O errors come from files, custom errors from anything wrong with the save
// or the request, and JSON errors from broken resource tables.
type Error struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ERR_IO:
		return "I/O error: " + e.cause()
	case ERR_JSON:
		return "JSON error: " + e.cause()
	}
	return "Save error: " + e.cause()
}

func (e *Error) cause() string {
	if e.Reason != "" {
		return e.Reason
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown"
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Io_error(err error) error {
	return &Error{Kind: ERR_IO, Err: err}
}

func Json_error(err error) error {
	return &Error{Kind: ERR_JSON, Err: err}
}

func Custom_error(reason string) error {
	return &Error{Kind: ERR_CUSTOM, Reason: reason}
}

// Kind_of reports the kind of a save engine error; anything else counts as custom.
func Kind_of(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ERR_CUSTOM
}
