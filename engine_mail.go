package authcore

import (
	"context"

	"github.com/google/uuid"

	"github.com/codyon/authcore/cache"
	"github.com/codyon/authcore/internal"
)

// RequestMailCode opens a verification session for email: it generates a
// numeric code, stores it under auth-mail:<sessionID> with zeroed attempt
// counters, and dispatches it through the mailer. The returned session id is
// the caller's handle for resend, validation, and the eventual sign-up.
//
// The session is written before the mail goes out. If dispatch fails the
// orphaned session simply expires; it holds no secret worth cleaning up.
func (e *Engine) RequestMailCode(ctx context.Context, email string) (sessionID string, err error) {
	sessionID = uuid.NewString()

	code, err := internal.NewNumericCode(e.config.Mail.CodeDigits)
	if err != nil {
		return "", internalError(CodeCryptoFailure, err)
	}

	fields := []cache.Field{
		{Name: "email", Value: email},
		{Name: "code", Value: code},
		{Name: "resend", Value: 0},
		{Name: "retry", Value: 0},
	}
	if err := e.store.HMSet(ctx, authMailKey(sessionID), fields, e.config.Mail.CodeTTL+graceTTL); err != nil {
		return "", internalError(CodeStoreFailure, err)
	}

	if err := e.mailer.SendVerificationCode(ctx, email, code); err != nil {
		return "", internalError(CodeMailFailure, err)
	}
	return sessionID, nil
}

// ResendMailCode replaces the session's code with a fresh one and mails it
// again, resetting the retry counter and the session TTL. The resend counter
// is incremented atomically on the server, so two racing resends cannot both
// squeeze under the cap.
func (e *Engine) ResendMailCode(ctx context.Context, sessionID string) error {
	key := authMailKey(sessionID)

	values, err := e.store.HMGet(ctx, key, "email", "resend")
	if err != nil {
		return internalError(CodeStoreFailure, err)
	}

	var email string
	found, err := values.Decode("email", &email)
	if err != nil {
		return internalError(CodeStoreFailure, err)
	}
	if !found {
		return unauthorized(CodeSessionExpired, "verification session expired, request a new code")
	}

	var resend int
	if _, err := values.Decode("resend", &resend); err != nil {
		return internalError(CodeStoreFailure, err)
	}
	if resend >= e.config.Mail.MaxResend {
		return exhausted("resend_count", CodeResendExhausted, "resend limit reached, request a new code")
	}

	n, err := e.store.HIncrBy(ctx, key, "resend", 1)
	if err != nil {
		return internalError(CodeStoreFailure, err)
	}
	if n > int64(e.config.Mail.MaxResend) {
		return exhausted("resend_count", CodeResendExhausted, "resend limit reached, request a new code")
	}

	code, err := internal.NewNumericCode(e.config.Mail.CodeDigits)
	if err != nil {
		return internalError(CodeCryptoFailure, err)
	}

	fields := []cache.Field{
		{Name: "code", Value: code},
		{Name: "retry", Value: 0},
	}
	if err := e.store.HMSet(ctx, key, fields, e.config.Mail.CodeTTL+graceTTL); err != nil {
		return internalError(CodeStoreFailure, err)
	}

	if err := e.mailer.SendVerificationCode(ctx, email, code); err != nil {
		return internalError(CodeMailFailure, err)
	}
	return nil
}

// ValidateMailCode compares candidate against the session's current code.
//
// The retry cap is checked before the comparison, so a session that has
// burned its attempts rejects even the correct code. On a mismatch the
// retry counter bumps atomically; on a match the session is marked confirmed
// and its lifetime extends to the confirmation window, within which the
// sign-up must complete.
func (e *Engine) ValidateMailCode(ctx context.Context, sessionID, candidate string) error {
	key := authMailKey(sessionID)

	values, err := e.store.HMGet(ctx, key, "code", "retry")
	if err != nil {
		return internalError(CodeStoreFailure, err)
	}

	var code string
	found, err := values.Decode("code", &code)
	if err != nil {
		return internalError(CodeStoreFailure, err)
	}
	if !found {
		return unauthorized(CodeSessionExpired, "verification session expired, request a new code")
	}

	var retry int
	if _, err := values.Decode("retry", &retry); err != nil {
		return internalError(CodeStoreFailure, err)
	}
	if retry >= e.config.Mail.MaxRetry {
		return exhausted("retry_count", CodeRetryExhausted, "attempt limit reached, request a new code")
	}

	if candidate != code {
		if _, err := e.store.HIncrBy(ctx, key, "retry", 1); err != nil {
			return internalError(CodeStoreFailure, err)
		}
		return invalidArgument("code", CodeMismatch, "verification code does not match")
	}

	if err := e.store.HSet(ctx, key, "status", "confirmed", e.config.Mail.ConfirmTTL); err != nil {
		return internalError(CodeStoreFailure, err)
	}
	return nil
}

// CheckMailConfirmed reports whether sessionID holds a confirmed verification
// for exactly this email. It never errors on a missing or mismatched session;
// that is simply false.
func (e *Engine) CheckMailConfirmed(ctx context.Context, sessionID, email string) (bool, error) {
	values, err := e.store.HMGet(ctx, authMailKey(sessionID), "email", "status")
	if err != nil {
		return false, internalError(CodeStoreFailure, err)
	}

	var storedEmail, status string
	if _, err := values.Decode("email", &storedEmail); err != nil {
		return false, internalError(CodeStoreFailure, err)
	}
	if _, err := values.Decode("status", &status); err != nil {
		return false, internalError(CodeStoreFailure, err)
	}
	return storedEmail == email && status == "confirmed", nil
}
