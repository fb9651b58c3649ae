package authcore

import "errors"

// Error kinds. Callers match on these with [errors.Is]; every error the
// engine returns wraps exactly one kind.
var (
	// ErrUnauthorized covers bad credentials, missing or expired sessions,
	// and refresh tokens that fail verification or were superseded.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument covers malformed input, a wrong verification code,
	// and password confirmation mismatch.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExhausted is returned when the resend or retry cap is reached.
	ErrExhausted = errors.New("attempt limit exhausted")
	// ErrUpstream is returned when an OAuth provider call fails.
	ErrUpstream = errors.New("upstream provider error")
	// ErrInternal covers cryptographic, serialization, and store failures
	// not attributable to caller input.
	ErrInternal = errors.New("internal error")
)

// Machine codes carried by [Error.Code].
const (
	CodeCredentialsInvalid = "credentials_invalid"
	CodeTokenExpired       = "token_expired"
	CodeTokenInvalid       = "token_invalid"
	CodeSessionExpired     = "session_expired"
	CodeResendExhausted    = "resend_exhausted"
	CodeRetryExhausted     = "retry_exhausted"
	CodeMismatch           = "code_mismatch"
	CodePasswordMismatch   = "password_mismatch"
	CodeEmailDuplicated    = "email_duplicated"
	CodeOAuthUpstream      = "oauth_upstream"
	CodeStoreFailure       = "store_failure"
	CodeCryptoFailure      = "crypto_failure"
	CodeUserStoreFailure   = "user_store_failure"
	CodeMailFailure        = "mail_failure"
)

// Error is the structured error returned by every Engine operation. Kind is
// one of the sentinel vars above, Code is a stable machine code, Field names
// the offending input field when one exists, and Message is display text.
type Error struct {
	Kind    error
	Code    string
	Field   string
	Message string
	cause   error
}

func (e *Error) Error() string {
	msg := e.Kind.Error() + ": " + e.Code
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Is reports whether target is this error's kind, so
// errors.Is(err, ErrUnauthorized) works without exposing the struct.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.cause
}

func unauthorized(code, message string) error {
	return &Error{Kind: ErrUnauthorized, Code: code, Message: message}
}

func invalidArgument(field, code, message string) error {
	return &Error{Kind: ErrInvalidArgument, Field: field, Code: code, Message: message}
}

func exhausted(field, code, message string) error {
	return &Error{Kind: ErrExhausted, Field: field, Code: code, Message: message}
}

func upstream(code string, cause error) error {
	return &Error{Kind: ErrUpstream, Code: code, Message: "provider request failed", cause: cause}
}

func internalError(code string, cause error) error {
	return &Error{Kind: ErrInternal, Code: code, Message: "internal error", cause: cause}
}
