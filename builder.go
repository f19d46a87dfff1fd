package authkit

import (
	"errors"

	"github.com/halcyon-labs/authkit/internal/rate"
	"github.com/halcyon-labs/authkit/jwt"
	"github.com/halcyon-labs/authkit/password"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Construction is allocation-only until
// Build, which validates the configuration and wires the collaborators.
type Builder struct {
	config   Config
	redis    redis.UniversalClient
	store    UserStore
	sink     AuditSink
	notifier ResetNotifier

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecrets sets the two signing secrets without replacing the rest of
// the configuration.
func (b *Builder) WithSecrets(secret, resetSecret []byte) *Builder {
	b.config.JWT.Secret = append([]byte(nil), secret...)
	b.config.JWT.ResetSecret = append([]byte(nil), resetSecret...)
	return b
}

// WithUserStore sets the credential store adapter. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.store = store
	return b
}

// WithRedis sets the Redis client backing the optional throttles.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithResetNotifier sets the collaborator that delivers reset tokens.
func (b *Builder) WithResetNotifier(notifier ResetNotifier) *Builder {
	b.notifier = notifier
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("user store required")
	}
	if b.redis == nil && (cfg.Throttle.EnableLoginThrottle || cfg.Throttle.EnableResetThrottle) {
		return nil, errors.New("throttling requires a redis client")
	}

	jwtManager, err := jwt.NewManager(jwt.Config{
		Secret:      cfg.JWT.Secret,
		ResetSecret: cfg.JWT.ResetSecret,
		AccessTTL:   cfg.JWT.AccessTTL,
		ResetTTL:    cfg.JWT.ResetTTL,
		Issuer:      cfg.JWT.Issuer,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		store:        b.store,
		jwtManager:   jwtManager,
		passwordHash: hasher,
		totp:         newTOTPManager(cfg.TOTP),
		audit:        newAuditDispatcher(cfg.Audit, b.sink),
		metrics:      newMetrics(),
		notifier:     b.notifier,
	}
	if b.redis != nil {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			KeyPrefix:        cfg.Throttle.RedisPrefix,
			MaxLoginAttempts: cfg.Throttle.MaxLoginAttempts,
			LoginCooldown:    cfg.Throttle.LoginCooldown,
			MaxResetRequests: cfg.Throttle.MaxResetRequests,
			ResetCooldown:    cfg.Throttle.ResetCooldown,
		})
	}

	b.built = true
	return engine, nil
}
