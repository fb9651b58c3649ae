package authcore

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// graceTTL is the slack added on top of every configured lifetime when
// signing tokens and when setting store TTLs, so a token presented at the
// edge of its human-facing lifetime still verifies.
const graceTTL = 10 * time.Second

// Config carries every secret and lifetime the engine needs. It is injected
// at construction; the engine performs no ambient configuration lookup.
type Config struct {
	Token TokenConfig
	Mail  MailConfig
	OAuth OAuthConfig
}

// TokenConfig configures the token issuer. Secrets are independent so a
// leaked access secret cannot mint refresh tokens.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// MailConfig bounds the email verification state machine.
type MailConfig struct {
	CodeDigits int
	CodeTTL    time.Duration
	ConfirmTTL time.Duration
	MaxResend  int
	MaxRetry   int
}

// OAuthConfig configures the Kakao bridge. The URL fields exist so tests can
// point the provider at a local server; empty values fall back to the real
// Kakao endpoints.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthorizeURL string
	TokenURL     string
	ProfileURL   string
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  2 * time.Hour,
			RefreshTTL: 14 * 24 * time.Hour,
		},
		Mail: MailConfig{
			CodeDigits: 4,
			CodeTTL:    3 * time.Minute,
			ConfirmTTL: 10 * time.Minute,
			MaxResend:  3,
			MaxRetry:   3,
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.Token.AccessSecret == "" || c.Token.RefreshSecret == "" {
		return errors.New("token secrets are required")
	}
	if c.Token.AccessSecret == c.Token.RefreshSecret {
		return errors.New("access and refresh secrets must differ")
	}
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.Token.RefreshTTL <= c.Token.AccessTTL {
		return errors.New("refresh lifetime must exceed access lifetime")
	}
	if c.Mail.CodeDigits < 4 || c.Mail.CodeDigits > 10 {
		return errors.New("mail code digits must be between 4 and 10")
	}
	if c.Mail.CodeTTL <= 0 || c.Mail.ConfirmTTL <= 0 {
		return errors.New("mail lifetimes must be positive")
	}
	if c.Mail.MaxResend <= 0 || c.Mail.MaxRetry <= 0 {
		return errors.New("mail attempt caps must be positive")
	}
	return nil
}

// envConfig mirrors the environment variable names of the original CodyOn
// deployment, so the same .env keeps working.
type envConfig struct {
	AccessSecret  string        `env:"ACCESSTOKEN_SECRET"`
	RefreshSecret string        `env:"REFRESHTOKEN_SECRET"`
	AccessTTL     time.Duration `env:"ACCESSTOKEN_EXPIRE" envDefault:"2h"`
	RefreshTTL    time.Duration `env:"REFRESHTOKEN_EXPIRE" envDefault:"336h"`

	KakaoClientID     string `env:"KAKAO_CLIENT_ID"`
	KakaoClientSecret string `env:"KAKAO_CLIENT_SECRET"`
	RedirectURI       string `env:"REDIRECT_URL"`
	KakaoAuthorize    string `env:"REQ_KAKAO_OAUTH_URL"`
}

// LoadConfig builds a Config from environment variables on top of the
// defaults. It does not validate; Build does.
func LoadConfig() (Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return Config{}, err
	}

	cfg := defaultConfig()
	cfg.Token.AccessSecret = raw.AccessSecret
	cfg.Token.RefreshSecret = raw.RefreshSecret
	cfg.Token.AccessTTL = raw.AccessTTL
	cfg.Token.RefreshTTL = raw.RefreshTTL
	cfg.OAuth.ClientID = raw.KakaoClientID
	cfg.OAuth.ClientSecret = raw.KakaoClientSecret
	cfg.OAuth.RedirectURI = raw.RedirectURI
	cfg.OAuth.AuthorizeURL = raw.KakaoAuthorize
	return cfg, nil
}
