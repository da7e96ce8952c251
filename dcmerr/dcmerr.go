// Package dcmerr defines the closed set of error kinds this module's
// components raise, modeled on Orthanc's OrthancException/ErrorCode
// vocabulary (ErrorCode_ParameterOutOfRange, ErrorCode_AlreadyExistingTag,
// ErrorCode_BadFileFormat, ...) but expressed as idiomatic Go errors rather
// than exceptions: every fallible call returns (T, error), and callers use
// errors.As to recover the Code when they need to branch on it.
package dcmerr

import "fmt"

// Code is the closed set of error kinds every component in this module can
// raise.
type Code int

const (
	InvalidTag Code = iota
	BadFileFormat
	BadParameterType
	ParameterOutOfRange
	UnknownDicomTag
	AlreadyExistingTag
	MissingFile
	InternalError
	NotImplemented
)

func (c Code) String() string {
	switch c {
	case InvalidTag:
		return "InvalidTag"
	case BadFileFormat:
		return "BadFileFormat"
	case BadParameterType:
		return "BadParameterType"
	case ParameterOutOfRange:
		return "ParameterOutOfRange"
	case UnknownDicomTag:
		return "UnknownDicomTag"
	case AlreadyExistingTag:
		return "AlreadyExistingTag"
	case MissingFile:
		return "MissingFile"
	case InternalError:
		return "InternalError"
	case NotImplemented:
		return "NotImplemented"
	default:
		return "Unknown"
	}
}

// Error is a typed error carrying one of the closed Code values plus a
// human-readable message. User-visible write-path failures include both the
// offending tag and value in Message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds an *Error with the given code and formatted message.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error that carries an underlying cause for errors.Unwrap.
func Wrap(code Code, cause error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}
