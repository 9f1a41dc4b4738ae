// Package domainerrors provides coded errors for the succession engine.
//
// Every failure a service or entity reports carries a Code so handlers and
// callers can branch on the class of failure without string matching. The
// taxonomy mirrors the engine's error design:
//
//   - CodeInvalidInput: malformed input caught at a construction boundary.
//     The entity is never partially mutated.
//   - CodePreconditionFailed: the operation was invoked in a state that
//     forbids it (paying a settled debt, including an uncalculated gift).
//   - CodeLegalRuleViolation: the operation would breach a hard statutory
//     rule (writing off a tier-1 debt, clearing tax with a balance).
//     Never coerced, never clamped.
//   - CodeConflict: the operation lost to a competing fact (duplicate
//     membership, entity owned by another estate).
//   - CodeNotFound: the referenced entity does not exist.
//   - CodeInternal: infrastructure failure surfaced through the domain.
package domainerrors

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeInvalidInput       Code = "invalid_input"
	CodePreconditionFailed Code = "precondition_failed"
	CodeLegalRuleViolation Code = "legal_rule_violation"
	CodeConflict           Code = "conflict"
	CodeNotFound           Code = "not_found"
	CodeInternal           Code = "internal"
)

// Error is a coded domain error. Construct via New, Newf or Wrap.
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

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with a static message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates an underlying error with a domain code. The cause remains
// reachable through errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, or CodeInternal when err is not a
// domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
