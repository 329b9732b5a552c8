package hashengine

import (
	"errors"
	"fmt"
)

// Code is the stable error code reported across the C boundary.
// The numeric values are part of the ABI and must not be reordered.
type Code uint32

const (
	CodeOk Code = iota
	CodeGeneral
	CodeException
	CodeMemory
	CodeLogEmpty
	CodeArgumentInvalid
	CodeArgumentNull
	CodeNotInitialized
	CodeAlreadyInitialized
)

func (c Code) String() string {
	switch c {
	case CodeOk:
		return "ok"
	case CodeGeneral:
		return "general error"
	case CodeException:
		return "exception"
	case CodeMemory:
		return "memory allocation failed"
	case CodeLogEmpty:
		return "log empty"
	case CodeArgumentInvalid:
		return "invalid argument"
	case CodeArgumentNull:
		return "null argument"
	case CodeNotInitialized:
		return "not initialised"
	case CodeAlreadyInitialized:
		return "already initialised"
	default:
		return fmt.Sprintf("code(%d)", uint32(c))
	}
}

// Error carries a Code together with the operation that failed and an optional cause.
type Error struct {
	Code Code
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Code, so that
// errors.Is(err, ErrLogEmpty) matches regardless of Op and cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinel errors, one per non-Ok code that callers test for
var (
	ErrGeneral            = &Error{Code: CodeGeneral}
	ErrException          = &Error{Code: CodeException}
	ErrMemory             = &Error{Code: CodeMemory}
	ErrLogEmpty           = &Error{Code: CodeLogEmpty}
	ErrArgumentInvalid    = &Error{Code: CodeArgumentInvalid}
	ErrArgumentNull       = &Error{Code: CodeArgumentNull}
	ErrNotInitialized     = &Error{Code: CodeNotInitialized}
	ErrAlreadyInitialized = &Error{Code: CodeAlreadyInitialized}
)

func newError(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// CodeOf maps an error to its boundary code. nil is CodeOk and any error
// that does not carry a Code is CodeGeneral.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOk
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeGeneral
}
