package asset

import (
	"errors"
	"time"

	"github.com/zeusync/assetpack/pkg/encoding"
)

var (
	// Lookup errors

	ErrNotFound        = errors.New("not found")
	ErrNullHandle      = errors.New("null handle")
	ErrDuplicateHandle = errors.New("handle already registered")

	// Format errors

	ErrParse          = errors.New("parse error")
	ErrUnknownTag     = errors.New("unknown type tag")
	ErrBufferOverflow = encoding.ErrOverflow

	// Environment errors

	ErrIO = errors.New("i/o error")
)

// ErrorCode classifies persistence failures.
type ErrorCode int

const (
	CodeOK             ErrorCode = 0
	CodeNotFound       ErrorCode = 1001
	CodeNullHandle     ErrorCode = 1002
	CodeDuplicate      ErrorCode = 1003
	CodeParse          ErrorCode = 2001
	CodeUnknownTag     ErrorCode = 2002
	CodeBufferOverflow ErrorCode = 2003
	CodeSizeMismatch   ErrorCode = 2004
	CodeIO             ErrorCode = 3001
	CodeUnknown        ErrorCode = 9999
)

func (c ErrorCode) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeNotFound:
		return "not_found"
	case CodeNullHandle:
		return "null_handle"
	case CodeDuplicate:
		return "duplicate"
	case CodeParse:
		return "parse"
	case CodeUnknownTag:
		return "unknown_tag"
	case CodeBufferOverflow:
		return "buffer_overflow"
	case CodeSizeMismatch:
		return "size_mismatch"
	case CodeIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is a persistence error with a code and optional context.
type Error struct {
	Code      ErrorCode
	Message   string
	Cause     error
	Context   map[string]any
	Timestamp int64
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Context:   make(map[string]any),
		Timestamp: time.Now().Unix(),
	}
}

// Is matches the sentinel that corresponds to e.Code, so a coded error
// satisfies errors.Is for its class even when its cause is foreign.
func (e *Error) Is(target error) bool {
	for _, c := range errorCodes {
		if c.target == target {
			return c.code == e.Code
		}
	}
	return false
}

func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

// Structural reports failures that abort a whole load or save rather than a
// single record.
func (e *Error) Structural() bool {
	switch e.Code {
	case CodeParse, CodeIO:
		return true
	default:
		return false
	}
}

var errorCodes = []struct {
	target error
	code   ErrorCode
}{
	{ErrNotFound, CodeNotFound},
	{ErrNullHandle, CodeNullHandle},
	{ErrDuplicateHandle, CodeDuplicate},
	{ErrParse, CodeParse},
	{ErrUnknownTag, CodeUnknownTag},
	{encoding.ErrOverflow, CodeBufferOverflow},
	{encoding.ErrSizeMismatch, CodeSizeMismatch},
	{ErrIO, CodeIO},
}

// GetErrorCode classifies err, looking through wrapping.
func GetErrorCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var assetErr *Error
	if errors.As(err, &assetErr) {
		return assetErr.Code
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.target) {
			return c.code
		}
	}
	return CodeUnknown
}

// WrapError attaches message and the matching code to err.
func WrapError(err error, message string) *Error {
	return NewError(GetErrorCode(err), message, err)
}

// IOError wraps an operating system failure; errors.Is(err, ErrIO) holds for it.
func IOError(message string, cause error) *Error {
	return NewError(CodeIO, message, cause)
}
