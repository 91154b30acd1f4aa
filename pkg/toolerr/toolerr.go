// Package toolerr defines the failure kinds that can end an xtool run.
package toolerr

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal failure. Kinds are themselves errors so that callers can
// write errors.Is(err, toolerr.WriteFailed).
type Kind int

const (
	Unknown Kind = iota
	InvalidAddress
	InvalidPort
	InvalidBaudRate
	InvalidHexByte
	ConnectFailed
	PortOpenFailed
	NotImplemented
	WriteFailed
)

func (k Kind) Error() string {
	switch k {
	case InvalidAddress:
		return "invalid address"
	case InvalidPort:
		return "invalid port"
	case InvalidBaudRate:
		return "invalid baud rate"
	case InvalidHexByte:
		return "invalid hex byte"
	case ConnectFailed:
		return "connect failed"
	case PortOpenFailed:
		return "serial port open failed"
	case NotImplemented:
		return "not implemented"
	case WriteFailed:
		return "write failed"
	default:
		return fmt.Sprintf("unknown failure %d", int(k))
	}
}

// Error carries a Kind together with what was being processed and the underlying cause
type Error struct {
	Kind   Kind
	Detail string // e.g. the offending token, or the address being dialed
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is this error's Kind
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New creates an Error of the given kind
func New(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// Newf creates an Error of the given kind with a formatted detail and no cause
func Newf(kind Kind, format string, parts ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, parts...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return Unknown
}
