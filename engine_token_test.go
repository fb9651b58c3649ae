package authcore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signRefresh builds a refresh token with an arbitrary expiry, bypassing the
// manager so tests can control the remaining lifetime.
func signRefresh(t *testing.T, secret, userID string, expiresIn time.Duration) string {
	t.Helper()

	now := time.Now()
	claims := jwt.MapClaims{
		"id":  userID,
		"iat": now.Unix(),
		"exp": now.Add(expiresIn).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign refresh failed: %v", err)
	}
	return signed
}

func TestIssueTokenPairStoresRefreshWithGrace(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	engine := newTestEngine(t, rdb, newMockUserStore(), &mockMailer{})

	pair, err := engine.IssueTokenPair(ctx, "u1")
	if err != nil {
		t.Fatalf("IssueTokenPair failed: %v", err)
	}

	var stored string
	found, err := engine.store.Get(ctx, "refresh-token:u1", &stored)
	if err != nil || !found {
		t.Fatalf("expected stored refresh record, found=%v err=%v", found, err)
	}
	if stored != pair.RefreshToken {
		t.Fatal("stored refresh token does not match issued token")
	}

	want := engine.config.Token.RefreshTTL + graceTTL
	got := mr.TTL("refresh-token:u1")
	if got < want-ttlSlack || got > want+ttlSlack {
		t.Fatalf("expected store TTL near %v, got %v", want, got)
	}

	if remaining := time.Until(pair.AccessExpiresAt); remaining > engine.config.Token.AccessTTL {
		t.Fatalf("advertised access expiry exceeds configured lifetime: %v", remaining)
	}
}

func TestRenewCheapPathLeavesRefreshUntouched(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	engine := newTestEngine(t, rdb, newMockUserStore(), &mockMailer{})

	pair, err := engine.IssueTokenPair(ctx, "u1")
	if err != nil {
		t.Fatalf("IssueTokenPair failed: %v", err)
	}

	// Fresh token has two weeks left, far above the rotation threshold.
	renewed, err := engine.Renew(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Renew failed: %v", err)
	}
	if !renewed.AccessOnly() {
		t.Fatal("expected access-only result on cheap renewal path")
	}
	if renewed.AccessToken == "" {
		t.Fatal("expected a fresh access token")
	}

	var stored string
	if _, err := engine.store.Get(ctx, "refresh-token:u1", &stored); err != nil {
		t.Fatalf("store read failed: %v", err)
	}
	if stored != pair.RefreshToken {
		t.Fatal("cheap renewal must not rewrite the stored refresh token")
	}

	// The untouched refresh token keeps working.
	if _, err := engine.Renew(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("second cheap renewal failed: %v", err)
	}
}

func TestRenewRotatesNearExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	cfg := testConfig()
	engine := newTestEngineWithConfig(t, rdb, cfg, newMockUserStore(), &mockMailer{})

	old := signRefresh(t, cfg.Token.RefreshSecret, "u1", 30*time.Minute)
	if err := engine.store.Set(ctx, "refresh-token:u1", old, time.Hour); err != nil {
		t.Fatalf("seed refresh record failed: %v", err)
	}

	renewed, err := engine.Renew(ctx, old)
	if err != nil {
		t.Fatalf("Renew failed: %v", err)
	}
	if renewed.AccessOnly() {
		t.Fatal("expected full rotation below the threshold")
	}
	if renewed.RefreshToken == old {
		t.Fatal("expected a fresh refresh token")
	}

	var stored string
	if _, err := engine.store.Get(ctx, "refresh-token:u1", &stored); err != nil {
		t.Fatalf("store read failed: %v", err)
	}
	if stored != renewed.RefreshToken {
		t.Fatal("store must hold the rotated refresh token")
	}

	// The rotated-out token is now revoked.
	if _, err := engine.Renew(ctx, old); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected old token to be rejected after rotation, got %v", err)
	}
}

func TestRenewExpiredToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	cfg := testConfig()
	engine := newTestEngineWithConfig(t, rdb, cfg, newMockUserStore(), &mockMailer{})

	expired := signRefresh(t, cfg.Token.RefreshSecret, "u1", -time.Minute)

	_, err := engine.Renew(context.Background(), expired)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	var ae *Error
	if !errors.As(err, &ae) || ae.Code != CodeTokenExpired {
		t.Fatalf("expected code %q, got %v", CodeTokenExpired, err)
	}
}

func TestRenewTamperedToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newTestEngine(t, rdb, newMockUserStore(), &mockMailer{})

	forged := signRefresh(t, "some-other-secret", "u1", time.Hour)

	_, err := engine.Renew(context.Background(), forged)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	var ae *Error
	if !errors.As(err, &ae) || ae.Code != CodeTokenInvalid {
		t.Fatalf("expected code %q, got %v", CodeTokenInvalid, err)
	}
}

func TestRenewAccessTokenRejectedAsRefresh(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	engine := newTestEngine(t, rdb, newMockUserStore(), &mockMailer{})

	pair, err := engine.IssueTokenPair(ctx, "u1")
	if err != nil {
		t.Fatalf("IssueTokenPair failed: %v", err)
	}

	// Signed with the access secret, so it must fail refresh verification.
	_, err = engine.Renew(ctx, pair.AccessToken)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRenewMissingStoreRecord(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	engine := newTestEngine(t, rdb, newMockUserStore(), &mockMailer{})

	pair, err := engine.IssueTokenPair(ctx, "u1")
	if err != nil {
		t.Fatalf("IssueTokenPair failed: %v", err)
	}

	// Simulates store-side expiry or an explicit revocation.
	if err := engine.store.Del(ctx, "refresh-token:u1"); err != nil {
		t.Fatalf("del failed: %v", err)
	}

	_, err = engine.Renew(ctx, pair.RefreshToken)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	var ae *Error
	if !errors.As(err, &ae) || ae.Code != CodeTokenExpired {
		t.Fatalf("expected code %q, got %v", CodeTokenExpired, err)
	}
}

func TestRenewRecordExpiresWithStoreTTL(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	engine := newTestEngine(t, rdb, newMockUserStore(), &mockMailer{})

	pair, err := engine.IssueTokenPair(ctx, "u1")
	if err != nil {
		t.Fatalf("IssueTokenPair failed: %v", err)
	}

	mr.FastForward(engine.config.Token.RefreshTTL + graceTTL + time.Second)

	_, err = engine.Renew(ctx, pair.RefreshToken)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after store expiry, got %v", err)
	}
}
