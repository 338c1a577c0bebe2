package ir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes a rejected operation.
type ErrorCode string

const (
	// ErrCodeInvalidNamespace indicates a namespace outside the enumeration.
	ErrCodeInvalidNamespace ErrorCode = "INVALID_NAMESPACE"

	// ErrCodeAddressAlreadyInUse indicates the derived address is occupied.
	ErrCodeAddressAlreadyInUse ErrorCode = "ADDRESS_ALREADY_IN_USE"

	// ErrCodeInvalidUserAddress indicates the user record does not re-derive
	// to the supplied address.
	ErrCodeInvalidUserAddress ErrorCode = "INVALID_USER_ADDRESS"

	// ErrCodeInvalidProfileAddress indicates the profile record does not
	// re-derive to the supplied address.
	ErrCodeInvalidProfileAddress ErrorCode = "INVALID_PROFILE_ADDRESS"

	// ErrCodeUnauthorized indicates the caller is not the user's authority.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// ErrCodeProfileUserMismatch indicates the profile references another user.
	ErrCodeProfileUserMismatch ErrorCode = "PROFILE_USER_MISMATCH"

	// ErrCodeDerivationExhausted indicates no index produced a valid address.
	ErrCodeDerivationExhausted ErrorCode = "DERIVATION_EXHAUSTED"

	// ErrCodeAccountNotFound indicates no record exists at the address.
	ErrCodeAccountNotFound ErrorCode = "ACCOUNT_NOT_FOUND"

	// ErrCodeSignatureInvalid indicates the caller failed signer verification.
	ErrCodeSignatureInvalid ErrorCode = "SIGNATURE_INVALID"
)

// Sentinels for errors.Is. Any *Error with the same code matches.
var (
	ErrInvalidNamespace      = &Error{Code: ErrCodeInvalidNamespace}
	ErrAddressAlreadyInUse   = &Error{Code: ErrCodeAddressAlreadyInUse}
	ErrInvalidUserAddress    = &Error{Code: ErrCodeInvalidUserAddress}
	ErrInvalidProfileAddress = &Error{Code: ErrCodeInvalidProfileAddress}
	ErrUnauthorized          = &Error{Code: ErrCodeUnauthorized}
	ErrProfileUserMismatch   = &Error{Code: ErrCodeProfileUserMismatch}
	ErrDerivationExhausted   = &Error{Code: ErrCodeDerivationExhausted}
	ErrAccountNotFound       = &Error{Code: ErrCodeAccountNotFound}
	ErrSignatureInvalid      = &Error{Code: ErrCodeSignatureInvalid}
)

// Error is a rejected operation. Every check in the core fails with one.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Address is the record the check was about, zero if none.
	Address Address
}

// NewError creates an Error with no address.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewAddressError creates an Error about a specific record.
func NewAddressError(code ErrorCode, message string, addr Address) *Error {
	return &Error{Code: code, Message: message, Address: addr}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "operation rejected"
	}
	if !e.Address.IsZero() {
		return fmt.Sprintf("%s: %s (address=%s)", e.Code, msg, e.Address)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// IsCode reports whether err wraps an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code from err, or "" if err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
