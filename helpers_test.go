package authcore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/codyon/authcore/cache"
	"github.com/codyon/authcore/password"
	"github.com/codyon/authcore/token"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func newTestHasher(t *testing.T) *password.Hasher {
	t.Helper()

	// Minimum allowed costs keep the suite fast.
	h, err := password.NewHasher(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	return h
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Token.AccessSecret = "test-access-secret"
	cfg.Token.RefreshSecret = "test-refresh-secret"
	return cfg
}

func newTestEngine(t *testing.T, rdb *redis.Client, users *mockUserStore, mailer *mockMailer) *Engine {
	t.Helper()
	return newTestEngineWithConfig(t, rdb, testConfig(), users, mailer)
}

func newTestEngineWithConfig(t *testing.T, rdb *redis.Client, cfg Config, users *mockUserStore, mailer *mockMailer) *Engine {
	t.Helper()

	tokens, err := token.NewManager(token.Config{
		AccessSecret:  []byte(cfg.Token.AccessSecret),
		RefreshSecret: []byte(cfg.Token.RefreshSecret),
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshTTL:    cfg.Token.RefreshTTL,
		Grace:         graceTTL,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	return &Engine{
		config: cfg,
		store:  cache.NewStore(rdb, nil),
		tokens: tokens,
		hasher: newTestHasher(t),
		users:  users,
		mailer: mailer,
		oauth:  &mockOAuth{},
	}
}

// ---------------------------------------------------------------------------
// Mock collaborators
// ---------------------------------------------------------------------------

type mockUserStore struct {
	mu        sync.Mutex
	users     map[string]UserRecord
	byEmail   map[string]string
	nextID    int
	findErr   error
	createErr error
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:   make(map[string]UserRecord),
		byEmail: make(map[string]string),
	}
}

func (m *mockUserStore) put(u UserRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.UserID] = u
	m.byEmail[u.Email] = u.UserID
}

func (m *mockUserStore) get(userID string) UserRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[userID]
}

func (m *mockUserStore) FindUserByEmail(_ context.Context, email string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}
	id, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	u := m.users[id]
	return &u, nil
}

func (m *mockUserStore) FindUserByID(_ context.Context, userID string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *mockUserStore) CreateUser(_ context.Context, input CreateUserInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return "", m.createErr
	}
	m.nextID++
	id := fmt.Sprintf("u%d", m.nextID)
	m.users[id] = UserRecord{
		UserID:       id,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Providers:    input.Providers,
	}
	m.byEmail[input.Email] = id
	return id, nil
}

func (m *mockUserStore) SetProviders(_ context.Context, userID string, providers []Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("user %q not found", userID)
	}
	u.Providers = providers
	m.users[userID] = u
	return nil
}

type sentMail struct {
	email string
	code  string
}

type mockMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	sendErr error
}

func (m *mockMailer) SendVerificationCode(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMail{email: email, code: code})
	return nil
}

func (m *mockMailer) lastCode(t *testing.T) string {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no mail was sent")
	}
	return m.sent[len(m.sent)-1].code
}

func (m *mockMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type mockOAuth struct {
	info        *OAuthUserInfo
	exchangeErr error
	profileErr  error
}

func (m *mockOAuth) Name() Provider { return ProviderKakao }

func (m *mockOAuth) AuthorizeURL() string { return "https://oauth.test/authorize" }

func (m *mockOAuth) ExchangeCode(_ context.Context, code string) (string, error) {
	if m.exchangeErr != nil {
		return "", m.exchangeErr
	}
	return "provider-access-token", nil
}

func (m *mockOAuth) FetchProfile(_ context.Context, accessToken string) (*OAuthUserInfo, error) {
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	if m.info == nil {
		return &OAuthUserInfo{Email: "oauth@example.com", Name: "O Auth"}, nil
	}
	info := *m.info
	return &info, nil
}

// seedPasswordUser hashes pw with the test hasher and registers the account.
func seedPasswordUser(t *testing.T, e *Engine, users *mockUserStore, userID, email, pw string) {
	t.Helper()

	hash, err := e.hasher.Hash(pw)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	users.put(UserRecord{UserID: userID, Email: email, PasswordHash: hash})
}

// ttlSlack absorbs clock skew in miniredis TTL comparisons.
const ttlSlack = 2 * time.Second
