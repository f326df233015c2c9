package util

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable failure class carried by extraction and
// analysis results.
type ErrorKind string

const (
	KindInvalidInput       ErrorKind = "invalid_input"
	KindUnsupportedFormat  ErrorKind = "unsupported_format"
	KindDecodeFailed       ErrorKind = "decode_failed"
	KindExtractionFailed   ErrorKind = "extraction_failed"
	KindAuthentication     ErrorKind = "authentication"
	KindQuotaExceeded      ErrorKind = "quota_exceeded"
	KindNetwork            ErrorKind = "network"
	KindServerError        ErrorKind = "server_error"
	KindMaxRetriesExceeded ErrorKind = "max_retries_exceeded"
	KindParseFailure       ErrorKind = "parse_failure"
	KindUnknown            ErrorKind = "unknown"
)

// Terminal reports whether a failure of this kind must not be retried.
func (k ErrorKind) Terminal() bool {
	switch k {
	case KindAuthentication, KindQuotaExceeded, KindInvalidInput:
		return true
	}
	return false
}

var (
	ErrEmptyUpload      = errors.New("no file provided or file is empty")
	ErrMissingFilename  = errors.New("no filename provided")
	ErrNoModelAvailable = errors.New("no generative model backend available")
	ErrRequestCancelled = errors.New("request cancelled")
)

// Error pairs a failure with its kind. Msg is safe to show to callers.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a kinded error with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind and message to an underlying error.
func WrapError(kind ErrorKind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindUnknown when there is none.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
