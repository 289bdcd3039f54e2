// Package bserr defines the error taxonomy shared by every bsdiff/bspatch
// component: callers can test the kind of failure with errors.Is, or pull
// the wrapped cause out with errors.As.
package bserr

import (
	"errors"
	"fmt"
)

// Kind identifies which of the documented failure modes occurred.
type Kind int

const (
	// UnknownFormat means no registered magic matched the patch stream.
	UnknownFormat Kind = iota
	// FormatMismatch means the caller requested a format that doesn't
	// match what was detected.
	FormatMismatch
	// CorruptPatch means the magic was present but a structural check
	// downstream failed (bad size, truncated stream, bad integer).
	CorruptPatch
	// CorruptIndex means an index file's header, unit size, or length
	// didn't match what was expected.
	CorruptIndex
	// Io wraps an underlying stream failure.
	Io
	// ConfigError means an environment value couldn't be parsed.
	ConfigError
)

func (k Kind) String() string {
	switch k {
	case UnknownFormat:
		return "unknown format"
	case FormatMismatch:
		return "format mismatch"
	case CorruptPatch:
		return "corrupt patch"
	case CorruptIndex:
		return "corrupt index"
	case Io:
		return "io error"
	case ConfigError:
		return "config error"
	default:
		return "unknown error kind"
	}
}

// Error is a taxonomy-tagged error. The zero value is not usable; build one
// with New or Wrap.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, bserr.ErrCorruptPatch) work by comparing Kind: any
// *Error of the same Kind matches, whatever its message or wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an *Error of the given kind with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf builds an *Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around an existing error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// sentinels usable with errors.Is(err, bserr.ErrCorruptPatch), etc.
var (
	ErrUnknownFormat  = &Error{Kind: UnknownFormat, Msg: "no registered format matched"}
	ErrFormatMismatch = &Error{Kind: FormatMismatch, Msg: "detected format does not match requested format"}
	ErrCorruptPatch   = &Error{Kind: CorruptPatch, Msg: "patch stream is corrupt"}
	ErrCorruptIndex   = &Error{Kind: CorruptIndex, Msg: "index file is corrupt"}
	ErrConfig         = &Error{Kind: ConfigError, Msg: "invalid configuration value"}
)

// OfKind reports whether err (or something it wraps) is a *Error of kind k.
func OfKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
