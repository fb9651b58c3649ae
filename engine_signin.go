package authcore

import "context"

// SignIn verifies a password credential and issues a fresh token pair,
// replacing any refresh record the user already had.
//
// A wrong password and an unknown email both come back as ErrUnauthorized
// with the same code, so the response does not leak which half was wrong.
// A verification-library failure (corrupt hash, algorithm mismatch) is
// ErrInternal instead: that is a data-integrity bug, not a routine miss.
func (e *Engine) SignIn(ctx context.Context, email, passwd string) (*TokenPair, error) {
	user, err := e.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, internalError(CodeUserStoreFailure, err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, unauthorized(CodeCredentialsInvalid, "check your email or password")
	}

	ok, err := e.hasher.Verify(passwd, user.PasswordHash)
	if err != nil {
		return nil, internalError(CodeCryptoFailure, err)
	}
	if !ok {
		return nil, unauthorized(CodeCredentialsInvalid, "check your email or password")
	}

	return e.IssueTokenPair(ctx, user.UserID)
}
