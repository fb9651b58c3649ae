// Package token mints and verifies the signed access and refresh tokens.
// Both token families carry a single `id` claim and are signed HS256 with
// independent secrets.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired means the signature checked out but the expiry has passed.
	// The correct client reaction is a silent re-authentication.
	ErrExpired = errors.New("token expired")
	// ErrInvalid means the signature or format check failed, which may
	// indicate tampering. The correct client reaction is a hard logout.
	ErrInvalid = errors.New("token invalid")
)

// Config holds the two signing secrets and the human-facing lifetimes.
// Grace is added on top of each lifetime when signing, so a token presented
// right at its advertised expiry still verifies.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Grace         time.Duration
}

// Manager signs and verifies tokens. It is immutable after construction.
type Manager struct {
	config Config
}

type claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// RefreshClaims is the verified content of a refresh token.
type RefreshClaims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewManager validates the configuration and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("token secrets required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	if cfg.Grace < 0 {
		return nil, errors.New("token grace must not be negative")
	}
	return &Manager{config: cfg}, nil
}

// CreateAccess signs an access token for userID.
func (m *Manager) CreateAccess(userID string) (string, error) {
	return m.create(userID, m.config.AccessSecret, m.config.AccessTTL)
}

// CreateRefresh signs a refresh token for userID.
func (m *Manager) CreateRefresh(userID string) (string, error) {
	return m.create(userID, m.config.RefreshSecret, m.config.RefreshTTL)
}

func (m *Manager) create(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		ID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl + m.config.Grace)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

// VerifyRefresh checks a refresh token against the refresh secret and
// returns its claims. Expiry and signature failures are distinguishable via
// [ErrExpired] and [ErrInvalid].
func (m *Manager) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	var c claims
	token, err := parser.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (any, error) {
		return m.config.RefreshSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !token.Valid || c.ID == "" || c.ExpiresAt == nil {
		return nil, ErrInvalid
	}

	rc := &RefreshClaims{
		UserID:    c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}
	if c.IssuedAt != nil {
		rc.IssuedAt = c.IssuedAt.Time
	}
	return rc, nil
}
