package authcore

import (
	"context"

	"github.com/google/uuid"

	"github.com/codyon/authcore/cache"
)

// OAuthAuthorizeURL returns the provider page to redirect a browser to.
func (e *Engine) OAuthAuthorizeURL() string {
	return e.oauth.AuthorizeURL()
}

// OAuthLogin completes the provider callback: it exchanges the authorization
// code, fetches the provider profile, and resolves it against the local
// account base.
//
// A known email yields a token pair, tagging the account with the provider
// first if this is its first provider login. An unknown email yields a
// pending sign-up session under oauth-sign-up:<sessionID> carrying the
// provider profile; [Engine.CompleteOAuthSignUp] consumes it.
func (e *Engine) OAuthLogin(ctx context.Context, code string) (*OAuthLoginResult, error) {
	accessToken, err := e.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, upstream(CodeOAuthUpstream, err)
	}
	info, err := e.oauth.FetchProfile(ctx, accessToken)
	if err != nil {
		return nil, upstream(CodeOAuthUpstream, err)
	}

	user, err := e.users.FindUserByEmail(ctx, info.Email)
	if err != nil {
		return nil, internalError(CodeUserStoreFailure, err)
	}

	if user == nil {
		sessionID := uuid.NewString()
		fields := []cache.Field{
			{Name: "email", Value: info.Email},
			{Name: "provider", Value: string(e.oauth.Name())},
			{Name: "profile_img", Value: info.ProfileImage},
		}
		if err := e.store.HMSet(ctx, oauthSignUpKey(sessionID), fields, e.config.Mail.ConfirmTTL); err != nil {
			return nil, internalError(CodeStoreFailure, err)
		}
		return &OAuthLoginResult{
			NeedSignUp: true,
			SessionID:  sessionID,
			Profile:    *info,
		}, nil
	}

	if !user.HasProvider(e.oauth.Name()) {
		providers := append(user.Providers, e.oauth.Name())
		if err := e.users.SetProviders(ctx, user.UserID, providers); err != nil {
			return nil, internalError(CodeUserStoreFailure, err)
		}
	}

	tokens, err := e.IssueTokenPair(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	return &OAuthLoginResult{Tokens: tokens}, nil
}
