package imageproc

import (
	"errors"
	"fmt"
)

// Kind classifies why an ingestion failed.
type Kind string

const (
	KindUnsupportedType   Kind = "unsupported_type"
	KindDecode            Kind = "decode"
	KindDimensionTooLarge Kind = "dimension_too_large"
	KindResolutionTooHigh Kind = "resolution_too_high"
	KindEncode            Kind = "encode"
	KindStorage           Kind = "storage"
	KindCanceled          Kind = "canceled"
	KindInvalidConfig     Kind = "invalid_config"
)

// Error is the only error type returned by Ingest.
// Op names the stage or artifact that failed; Err is the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrUnsupportedType   = &Error{Kind: KindUnsupportedType}
	ErrDecode            = &Error{Kind: KindDecode}
	ErrDimensionTooLarge = &Error{Kind: KindDimensionTooLarge}
	ErrResolutionTooHigh = &Error{Kind: KindResolutionTooHigh}
	ErrEncode            = &Error{Kind: KindEncode}
	ErrStorage           = &Error{Kind: KindStorage}
	ErrCanceled          = &Error{Kind: KindCanceled}
	ErrInvalidConfig     = &Error{Kind: KindInvalidConfig}
)

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind carried by err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}
