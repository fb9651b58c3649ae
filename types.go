package authcore

import (
	"context"
	"time"
)

// Provider identifies a third-party login provider. Provider values are
// persisted on the user record, so constants must never be renamed.
type Provider string

const (
	// ProviderKakao is the only provider the engine currently bridges.
	ProviderKakao Provider = "kakao"
)

// TokenPair is the result of token issuance. TokenType is always "Bearer".
// A cheap renewal (more than an hour left on the refresh token) returns an
// access-only pair: RefreshToken is empty and RefreshExpiresAt is zero.
//
// The pair itself is never persisted; only the refresh token half is written
// to the session store, keyed by user id.
type TokenPair struct {
	TokenType        string
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AccessOnly reports whether this pair came from the cheap renewal path.
func (p *TokenPair) AccessOnly() bool {
	return p.RefreshToken == ""
}

// OAuthUserInfo is the normalized profile fetched from a provider.
// Nickname and ProfileImage are optional and empty when the provider did not
// supply them. It is transient and never persisted as-is.
type OAuthUserInfo struct {
	Email        string
	Name         string
	Gender       string
	Nickname     string
	ProfileImage string
}

// OAuthLoginResult is returned by [Engine.OAuthLogin]. Exactly one of the
// two outcomes is populated: NeedSignUp with SessionID and Profile when the
// provider email has no local account yet, or Tokens when it does.
type OAuthLoginResult struct {
	NeedSignUp bool
	SessionID  string
	Profile    OAuthUserInfo
	Tokens     *TokenPair
}

// UserRecord is the account view the engine reads from the durable store.
// PasswordHash is empty for OAuth-only accounts.
type UserRecord struct {
	UserID       string
	Email        string
	PasswordHash string
	Providers    []Provider
}

// HasProvider reports whether the record's provider list contains p.
func (u *UserRecord) HasProvider(p Provider) bool {
	for _, existing := range u.Providers {
		if existing == p {
			return true
		}
	}
	return false
}

// Profile carries the profile fields created together with a user row.
// The engine never edits profiles after creation.
type Profile struct {
	Nickname     string
	Gender       string
	ProfileImage string
}

// CreateUserInput is passed to [UserStore.CreateUser]. The store must create
// the user row and its profile in one transaction.
type CreateUserInput struct {
	Email        string
	PasswordHash string
	Providers    []Provider
	Profile      Profile
}

// UserStore is the durable-store collaborator the embedding application must
// implement. Find methods return (nil, nil) when no account matches; an
// error always means the store itself failed.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*UserRecord, error)
	FindUserByID(ctx context.Context, userID string) (*UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (userID string, err error)
	SetProviders(ctx context.Context, userID string, providers []Provider) error
}

// Mailer dispatches verification codes. Implementations own templating and
// transport; the engine only hands over the recipient and the code.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// OAuthProvider is the provider-side surface of the OAuth bridge.
// [KakaoProvider] is the bundled implementation; tests substitute their own.
type OAuthProvider interface {
	Name() Provider
	AuthorizeURL() string
	ExchangeCode(ctx context.Context, code string) (accessToken string, err error)
	FetchProfile(ctx context.Context, accessToken string) (*OAuthUserInfo, error)
}
