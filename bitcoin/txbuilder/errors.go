// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import "fmt"

// Kind tags the family an Error belongs to, so callers can branch with
// errors.Is against the package-level sentinel kinds below.
type Kind string

const (
	// KindInvalidArgument marks out-of-range values, unrecognized
	// references, and other caller-supplied data the builder rejects
	// outright.
	KindInvalidArgument Kind = "invalid_argument"
	// KindInvalidState marks a call refused because of the builder's
	// current state — a mutation that would invalidate signatures,
	// signing with missing outputs, building with no inputs/outputs.
	KindInvalidState Kind = "invalid_state"
	// KindDuplicate marks an outpoint or signature slot that already
	// exists.
	KindDuplicate Kind = "duplicate"
	// KindIncomplete marks a build() call before every input carries a
	// signature.
	KindIncomplete Kind = "incomplete"
	// KindAbsurdFee marks a computed fee rate above maximumFeeRate.
	KindAbsurdFee Kind = "absurd_fee"
	// KindUnimplemented marks a path deliberately left for future
	// work.
	KindUnimplemented Kind = "unimplemented"
	// KindInvariant marks a redeem-script / prevOutScript mismatch
	// caught during signing-context inference.
	KindInvariant Kind = "invariant"
	// KindUnsupported marks a redeem script whose inner type the
	// builder cannot expand.
	KindUnsupported Kind = "unsupported"
)

// Error is the builder's single error type. Every failure path
// constructs one with a Kind and the exact literal message the caller
// is meant to see.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

// newError builds an Error of the given kind with a literal message.
func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// newErrorf builds an Error of the given kind with a formatted
// message.
func newErrorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// withCause records an underlying error without changing the
// reported message, for callers that want %w-style chains via errors.Unwrap.
func (e *Error) withCause(cause error) *Error {
	e.cause = cause

	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause, if any, to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error of the same Kind, letting
// callers write errors.Is(err, txbuilder.InvalidState) against the
// sentinel values below.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.Kind == other.Kind
}

// Sentinel values each carrying only a Kind, for use with errors.Is.
var (
	// InvalidArgument matches any *Error of kind KindInvalidArgument.
	InvalidArgument = &Error{Kind: KindInvalidArgument}
	// InvalidState matches any *Error of kind KindInvalidState.
	InvalidState = &Error{Kind: KindInvalidState}
	// Duplicate matches any *Error of kind KindDuplicate.
	Duplicate = &Error{Kind: KindDuplicate}
	// Incomplete matches any *Error of kind KindIncomplete.
	Incomplete = &Error{Kind: KindIncomplete}
	// AbsurdFee matches any *Error of kind KindAbsurdFee.
	AbsurdFee = &Error{Kind: KindAbsurdFee}
	// Unimplemented matches any *Error of kind KindUnimplemented.
	Unimplemented = &Error{Kind: KindUnimplemented}
	// Invariant matches any *Error of kind KindInvariant.
	Invariant = &Error{Kind: KindInvariant}
	// Unsupported matches any *Error of kind KindUnsupported.
	Unsupported = &Error{Kind: KindUnsupported}
)
