package entities

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindMethodNotAllowed
	KindUnsupportedInputFormat
	KindUnsupportedOutputFormat
	KindTracingFailed
	KindServiceNotConfigured
	KindUpstreamFailure
	KindSizeLimitExceeded
	KindNotImplemented
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "BadRequest"
	case KindMethodNotAllowed:
		return "MethodNotAllowed"
	case KindUnsupportedInputFormat:
		return "UnsupportedInputFormat"
	case KindUnsupportedOutputFormat:
		return "UnsupportedOutputFormat"
	case KindTracingFailed:
		return "TracingFailed"
	case KindServiceNotConfigured:
		return "ServiceNotConfigured"
	case KindUpstreamFailure:
		return "UpstreamFailure"
	case KindSizeLimitExceeded:
		return "SizeLimitExceeded"
	case KindNotImplemented:
		return "NotImplemented"
	case KindNotFound:
		return "NotFound"
	default:
		return "InternalError"
	}
}

// Error is the single error type crossing the handler boundary. Message is
// safe to show to the caller; Err keeps the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind and message, which lets the sentinels below
// work with errors.Is even after wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrNoFile               = &Error{Kind: KindBadRequest, Message: "No file uploaded"}
	ErrMethodNotAllowed     = &Error{Kind: KindMethodNotAllowed, Message: "Method not allowed"}
	ErrServiceNotConfigured = &Error{Kind: KindServiceNotConfigured, Message: "Conversion service is not configured"}
	ErrPDFToWordUnavailable = &Error{Kind: KindNotImplemented, Message: "PDF to Word conversion is not available"}
	ErrNotFound             = &Error{Kind: KindNotFound, Message: "Not found"}
)

// KindOf reports the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
