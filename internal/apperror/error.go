// Package apperror defines the error kinds surfaced at the request boundary.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes. Each maps to one HTTP status at the API boundary.
const (
	EInternal     = "internal error"
	EInvalid      = "invalid"
	EBusinessRule = "business rule violation"
	ENotFound     = "not found"
)

// Error is a classified error.
//
// Code drives the HTTP status. Msg is safe to show to the caller and may be
// localized; Key, when set, names the message catalog entry used for that.
// Op and Err chain the error for operators.
type Error struct {
	Code string
	Key  string
	Args []any
	Msg  string
	Op   string
	Err  error
}

// Error implements the error interface by writing out the recursive messages.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		b.WriteString(e.Msg)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		fmt.Fprintf(&b, "<%s>", e.Code)
	}
	return b.String()
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error { return e.Err }

// Code returns the code of the first *Error in err's chain, or EInternal.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return EInternal
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Invalid builds an EInvalid error for request-shape and validation failures.
func Invalid(op, msg string) *Error {
	return &Error{Code: EInvalid, Op: op, Msg: msg}
}

// BusinessRule builds an EBusinessRule error whose user-facing message comes
// from the catalog entry key, formatted with args.
func BusinessRule(op, key, msg string, args ...any) *Error {
	return &Error{Code: EBusinessRule, Op: op, Key: key, Msg: msg, Args: args}
}

// NotFound builds an ENotFound error.
func NotFound(op, msg string) *Error {
	return &Error{Code: ENotFound, Op: op, Msg: msg}
}

// Internal wraps err as EInternal.
func Internal(op string, err error) *Error {
	return &Error{Code: EInternal, Op: op, Err: err}
}
