package authcore

import (
	"github.com/codyon/authcore/cache"
	"github.com/codyon/authcore/password"
	"github.com/codyon/authcore/token"
)

// Key prefixes in the session store. They match the layout of the original
// deployment so a rolling migration sees the same keys.
const (
	refreshKeyPrefix     = "refresh-token:"
	authMailKeyPrefix    = "auth-mail:"
	oauthSignUpKeyPrefix = "oauth-sign-up:"
)

// Engine orchestrates credential verification, token issuance and rotation,
// email verification codes, and the OAuth bridge. Configure it once through
// [Builder.Build] and treat it as immutable afterwards.
type Engine struct {
	config Config
	store  *cache.Store
	tokens *token.Manager
	hasher *password.Hasher
	users  UserStore
	mailer Mailer
	oauth  OAuthProvider
}

func refreshKey(userID string) string {
	return refreshKeyPrefix + userID
}

func authMailKey(sessionID string) string {
	return authMailKeyPrefix + sessionID
}

func oauthSignUpKey(sessionID string) string {
	return oauthSignUpKeyPrefix + sessionID
}
