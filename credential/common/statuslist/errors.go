package statuslist

import (
	"errors"
	"fmt"
)

// Code identifies a status list failure category. The values match the error
// types defined by the Bitstring Status List vocabulary.
type Code string

const (
	CodeStatusRetrieval    Code = "STATUS_RETRIEVAL_ERROR"
	CodeStatusVerification Code = "STATUS_VERIFICATION_ERROR"
	CodeStatusListLength   Code = "STATUS_LIST_LENGTH_ERROR"
	CodeMalformedValue     Code = "MALFORMED_VALUE_ERROR"
	CodeRange              Code = "RANGE_ERROR"
)

// ErrorURIPrefix is joined with a Code to form the error type URI.
const ErrorURIPrefix = "https://www.w3.org/ns/credentials/status-list#"

// Sentinels for errors.Is comparisons. Matching is by code only.
var (
	ErrStatusRetrieval    = &Error{Code: CodeStatusRetrieval}
	ErrStatusVerification = &Error{Code: CodeStatusVerification}
	ErrStatusListLength   = &Error{Code: CodeStatusListLength}
	ErrMalformedValue     = &Error{Code: CodeMalformedValue}
	ErrRange              = &Error{Code: CodeRange}
)

// Error is a status list failure with a stable code and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// URI returns the error type URI, e.g.
// https://www.w3.org/ns/credentials/status-list#RANGE_ERROR.
func (e *Error) URI() string {
	return ErrorURIPrefix + string(e.Code)
}

// NewError creates an error with the given code and formatted message.
func NewError(code Code, format string, args ...interface{}) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an error with the given code that retains err as its cause.
func WrapError(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether err is, or wraps, a status list error with code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the first status list error in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// IsClientError reports whether err was caused by caller input: a malformed
// value, a list below the length floor, or an out of range index or value.
func IsClientError(err error) bool {
	code, ok := CodeOf(err)
	if !ok {
		return false
	}
	switch code {
	case CodeMalformedValue, CodeStatusListLength, CodeRange:
		return true
	default:
		return false
	}
}
