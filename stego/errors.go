package stego

import (
	"errors"
	"strings"
)

// Kind categorizes a failure of an encode or decode run.
type Kind string

const (
	KindInputValidation      Kind = "input_validation"
	KindIO                   Kind = "io"
	KindInsufficientCapacity Kind = "insufficient_capacity"
	KindEmptySecret          Kind = "empty_secret"
	KindSignatureMismatch    Kind = "signature_mismatch"
)

// Error is the structured error returned by every stego operation.
type Error struct {
	Cause  error
	Kind   Kind
	Op     string
	Detail string
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(string(e.Kind))
	if e.Op != "" {
		b.WriteString(" during ")
		b.WriteString(e.Op)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

var (
	ErrInputValidation      = &Error{Kind: KindInputValidation}
	ErrIO                   = &Error{Kind: KindIO}
	ErrInsufficientCapacity = &Error{Kind: KindInsufficientCapacity}
	ErrEmptySecret          = &Error{Kind: KindEmptySecret}
	ErrSignatureMismatch    = &Error{Kind: KindSignatureMismatch}
)

func newError(kind Kind, op, detail string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail, Cause: cause}
}

func ioError(op string, cause error) *Error {
	return newError(KindIO, op, "", cause)
}

// KindOf returns the kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// ExitCode maps err to a process exit status. nil maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case KindInputValidation:
		return 2
	case KindIO:
		return 3
	case KindInsufficientCapacity:
		return 4
	case KindEmptySecret:
		return 5
	case KindSignatureMismatch:
		return 6
	default:
		return 1
	}
}
