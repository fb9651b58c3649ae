package authcore

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/codyon/authcore/cache"
	"github.com/codyon/authcore/password"
	"github.com/codyon/authcore/token"
)

// Builder assembles an Engine. Collaborators are supplied with With* calls;
// nothing touches the network until the Engine is used.
type Builder struct {
	config    Config
	redis     *redis.Client
	users     UserStore
	mailer    Mailer
	oauth     OAuthProvider
	onState   cache.StateHandler
	passwdCfg password.Config
	built     bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config:    defaultConfig(),
		passwdCfg: password.DefaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the session-store client, typically from
// [cache.NewClient].
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUserStore supplies the durable-store collaborator.
func (b *Builder) WithUserStore(users UserStore) *Builder {
	b.users = users
	return b
}

// WithMailer supplies the verification-code dispatcher.
func (b *Builder) WithMailer(mailer Mailer) *Builder {
	b.mailer = mailer
	return b
}

// WithOAuthProvider overrides the provider. When omitted, Build constructs a
// [KakaoProvider] from the OAuth section of the config.
func (b *Builder) WithOAuthProvider(provider OAuthProvider) *Builder {
	b.oauth = provider
	return b
}

// WithConnectionStateHandler observes session-store connectivity changes.
func (b *Builder) WithConnectionStateHandler(h cache.StateHandler) *Builder {
	b.onState = h
	return b
}

// WithPasswordConfig overrides the argon2id cost parameters.
func (b *Builder) WithPasswordConfig(cfg password.Config) *Builder {
	b.passwdCfg = cfg
	return b
}

// Build validates the configuration and wires the Engine. A Builder can be
// used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(token.Config{
		AccessSecret:  []byte(b.config.Token.AccessSecret),
		RefreshSecret: []byte(b.config.Token.RefreshSecret),
		AccessTTL:     b.config.Token.AccessTTL,
		RefreshTTL:    b.config.Token.RefreshTTL,
		Grace:         graceTTL,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(b.passwdCfg)
	if err != nil {
		return nil, err
	}

	oauth := b.oauth
	if oauth == nil {
		oauth = NewKakaoProvider(b.config.OAuth)
	}

	return &Engine{
		config: b.config,
		store:  cache.NewStore(b.redis, b.onState),
		tokens: tokens,
		hasher: hasher,
		users:  b.users,
		mailer: b.mailer,
		oauth:  oauth,
	}, nil
}
