package state

import (
	"errors"
	"fmt"
)

// ErrorCode enumerates every failure mode the engine can report. The codes
// fall into five categories (argument validation, structural, resource,
// semantic, runtime), but they are not listed by category: the ordering
// matches the fixed list the FFI
// boundary would map to negative integers; the in-process Go API never
// surfaces the integers directly, only this enum wrapped in *Error.
type ErrorCode int

const (
	NullPointer ErrorCode = iota + 1
	PointerMisaligned
	InvalidArgument
	ArgumentOutOfRange
	Utf8Encoding
	Io
	InvalidOperation
	ResourceLimitReached
	WireWidthMismatch
	WireWidthIncompatible
	OffsetOutOfRange
	TooFewInputs
	InvalidInputCount
	InvalidComponentType
	Conflict
	InvalidWireId
	InvalidComponentId
	MalformedFormat
	Unsupported
)

var codeNames = [...]string{
	NullPointer:           "NullPointer",
	PointerMisaligned:     "PointerMisaligned",
	InvalidArgument:       "InvalidArgument",
	ArgumentOutOfRange:    "ArgumentOutOfRange",
	Utf8Encoding:          "Utf8Encoding",
	Io:                    "Io",
	InvalidOperation:      "InvalidOperation",
	ResourceLimitReached:  "ResourceLimitReached",
	WireWidthMismatch:     "WireWidthMismatch",
	WireWidthIncompatible: "WireWidthIncompatible",
	OffsetOutOfRange:      "OffsetOutOfRange",
	TooFewInputs:          "TooFewInputs",
	InvalidInputCount:     "InvalidInputCount",
	InvalidComponentType:  "InvalidComponentType",
	Conflict:              "Conflict",
	InvalidWireId:         "InvalidWireId",
	InvalidComponentId:    "InvalidComponentId",
	MalformedFormat:       "MalformedFormat",
	Unsupported:           "Unsupported",
}

// Name returns the code's identifier, e.g. "WireWidthMismatch".
func (c ErrorCode) Name() string {
	if int(c) < len(codeNames) && codeNames[c] != "" {
		return codeNames[c]
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

func (c ErrorCode) String() string { return c.Name() }

// Error is the single error type the engine returns. Argument and structural
// errors are raised at the operation that receives the bad input and are
// never deferred; semantic errors surface from Build; Conflict surfaces only
// from RunSim.
type Error struct {
	Code ErrorCode
	Op   string // operation that failed, e.g. "AddWire", "Build"
	Msg  string
	Err  error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Code.Name(), e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code.Name(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is supports errors.Is(err, state.NewError("", Conflict, "")) style matching by
// comparing codes only, ignoring Op/Msg/Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError builds an *Error for the given failing operation.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// Wrap builds an *Error that also carries the underlying cause.
func Wrap(op string, code ErrorCode, msg string, cause error) *Error {
	return &Error{Op: op, Code: code, Msg: msg, Err: cause}
}

// CodeOf extracts the ErrorCode carried by err, if any.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}
