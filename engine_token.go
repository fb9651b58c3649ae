package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/codyon/authcore/token"
)

// renewRotateThreshold is the remaining refresh lifetime below which renewal
// rotates the refresh token. Above it, only a new access token is issued:
// the session cannot die mid-use, and normal browsing does not pay for
// refresh-token churn on every renewal.
const renewRotateThreshold = time.Hour

// IssueTokenPair mints an access and a refresh token for userID and persists
// the refresh token under refresh-token:<userID>. The write unconditionally
// replaces any previous record, so at most one refresh token per user is
// ever live and issuing a new pair revokes the old session.
//
// The returned expiry timestamps are the human-facing lifetimes (now +
// configured TTL); the signing grace is not advertised.
func (e *Engine) IssueTokenPair(ctx context.Context, userID string) (*TokenPair, error) {
	access, err := e.tokens.CreateAccess(userID)
	if err != nil {
		return nil, internalError(CodeCryptoFailure, err)
	}
	refresh, err := e.tokens.CreateRefresh(userID)
	if err != nil {
		return nil, internalError(CodeCryptoFailure, err)
	}

	if err := e.store.Set(ctx, refreshKey(userID), refresh, e.config.Token.RefreshTTL+graceTTL); err != nil {
		return nil, internalError(CodeStoreFailure, err)
	}

	now := time.Now()
	return &TokenPair{
		TokenType:        "Bearer",
		AccessToken:      access,
		AccessExpiresAt:  now.Add(e.config.Token.AccessTTL),
		RefreshToken:     refresh,
		RefreshExpiresAt: now.Add(e.config.Token.RefreshTTL),
	}, nil
}

// Renew exchanges a refresh token for new credentials.
//
// The submitted token must verify against the refresh secret and be
// byte-equal to the stored record for its user; a superseded or revoked
// token fails here even though its signature is still good. With more than
// an hour left on the token the result is access-only and the stored record
// is untouched; otherwise the whole pair rotates.
func (e *Engine) Renew(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := e.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, unauthorized(CodeTokenExpired, "expired token, sign in again")
		}
		return nil, unauthorized(CodeTokenInvalid, "invalid token, sign in again")
	}

	var stored string
	found, err := e.store.Get(ctx, refreshKey(claims.UserID), &stored)
	if err != nil {
		return nil, internalError(CodeStoreFailure, err)
	}
	if !found || stored != refreshToken {
		return nil, unauthorized(CodeTokenExpired, "expired token, sign in again")
	}

	if time.Until(claims.ExpiresAt) > renewRotateThreshold {
		access, err := e.tokens.CreateAccess(claims.UserID)
		if err != nil {
			return nil, internalError(CodeCryptoFailure, err)
		}
		return &TokenPair{
			TokenType:       "Bearer",
			AccessToken:     access,
			AccessExpiresAt: time.Now().Add(e.config.Token.AccessTTL),
		}, nil
	}

	return e.IssueTokenPair(ctx, claims.UserID)
}
