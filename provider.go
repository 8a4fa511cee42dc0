package membership

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
)

// Provider wires the membership components together. Create one per
// process and pass it to the HTTP layers.
type Provider struct {
	cfg      Config
	store    UserStore
	logger   Logger
	sink     AuditSink
	now      func() time.Time
	codec    TokenCodec
	verifier CredentialVerifier

	cookies       *CookieManager
	binder        *PrincipalBinder
	resolver      *Resolver
	authenticator *SessionAuthenticator

	warmOnce sync.Once
	warmErr  error
}

var _ CurrentUserProvider = (*Provider)(nil)

// ProviderOption customizes provider construction.
type ProviderOption func(*Provider)

// WithLogger overrides the logger
func WithLogger(logger Logger) ProviderOption {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithAuditSink sets the sink receiving login audit entries
func WithAuditSink(sink AuditSink) ProviderOption {
	return func(p *Provider) {
		p.sink = normalizeAuditSink(sink)
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) ProviderOption {
	return func(p *Provider) {
		if clock != nil {
			p.now = clock
		}
	}
}

// WithTokenCodec replaces the codec built from the JWT secret
func WithTokenCodec(codec TokenCodec) ProviderOption {
	return func(p *Provider) {
		if codec != nil {
			p.codec = codec
		}
	}
}

// WithCredentialVerifier replaces the default digest verifier
func WithCredentialVerifier(verifier CredentialVerifier) ProviderOption {
	return func(p *Provider) {
		if verifier != nil {
			p.verifier = verifier
		}
	}
}

// New validates cfg and builds a Provider backed by store
func New(store UserStore, cfg Config, opts ...ProviderOption) (*Provider, error) {
	if store == nil {
		return nil, errors.New("user store is required", errors.CategoryValidation).
			WithTextCode(TextCodeInvalidConfig).
			WithCode(errors.CodeBadRequest)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	p := &Provider{
		cfg:    cfg,
		store:  store,
		logger: defLogger{},
		sink:   noopAuditSink{},
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	if p.codec == nil {
		codec, err := NewJWTCodec(cfg.GetJwtSecret())
		if err != nil {
			return nil, err
		}
		p.codec = codec
	}

	if p.verifier == nil {
		p.verifier = NewDigestVerifier(cfg.GetAllowPasswordless())
	}

	if cfg.GetAllowPasswordless() {
		p.logger.Warn("accounts with an empty password accept any credential; disable AllowPasswordless to reject them")
	}

	timeout := time.Duration(cfg.GetSessionTimeout()) * time.Second

	p.cookies = NewCookieManager(p.codec, p.store, p.sink, p.logger, p.now)
	p.binder = NewPrincipalBinder()
	p.resolver = NewResolver(cfg.GetSessionKey(), p.cookies, p.binder, p.logger)
	p.authenticator = NewSessionAuthenticator(p.store, p.verifier, p.resolver, p.cookies, p.sink, timeout, p.logger, p.now)

	return p, nil
}

// Warmup touches the store once per process
func (p *Provider) Warmup(ctx context.Context) error {
	p.warmOnce.Do(func() {
		w, ok := p.store.(Warmer)
		if !ok {
			return
		}

		p.logger.Info("warming up user store")
		if err := w.Warmup(ctx); err != nil {
			p.logger.Error("user store warmup failed", "error", err)
			p.warmErr = err
		}
	})
	return p.warmErr
}

// GetCurrent returns the current user of the request
func (p *Provider) GetCurrent(rc *RequestContext) *User {
	return p.resolver.GetCurrent(rc)
}

// SetCurrent sets or clears the current user of the request
func (p *Provider) SetCurrent(rc *RequestContext, user *User) {
	p.resolver.SetCurrent(rc, user)
}

// TryLogin resolves the request identity from session or token
func (p *Provider) TryLogin(ctx context.Context, rc *RequestContext) (*User, error) {
	return p.resolver.TryLogin(ctx, rc)
}

// Login authenticates name and password
func (p *Provider) Login(ctx context.Context, rc *RequestContext, name, password string, remember bool) (*User, error) {
	return p.authenticator.Login(ctx, rc, name, password, remember)
}

// Logout ends the client session
func (p *Provider) Logout(ctx context.Context, rc *RequestContext) error {
	return p.authenticator.Logout(ctx, rc)
}

// SaveCookie writes the token cookie for user
func (p *Provider) SaveCookie(rc *RequestContext, user *User, expiry time.Duration) error {
	return p.cookies.SaveCookie(rc, user, expiry)
}

// LoadCookie resolves a user from the request token
func (p *Provider) LoadCookie(ctx context.Context, rc *RequestContext, autoLogin bool) (*User, error) {
	return p.cookies.LoadCookie(ctx, rc, autoLogin)
}

// RefreshToken reissues the token cookie for the current user
func (p *Provider) RefreshToken(rc *RequestContext, expiry time.Duration) (string, error) {
	user := p.resolver.GetCurrent(rc)
	if user == nil {
		return "", nil
	}

	if err := p.cookies.SaveCookie(rc, user, expiry); err != nil {
		return "", err
	}

	return rc.Token(), nil
}

// Principal binds and returns the principal of the current user
func (p *Provider) Principal(rc *RequestContext) *Principal {
	return p.binder.Bind(rc, p.resolver.GetCurrent(rc))
}

// Codec returns the token codec in use
func (p *Provider) Codec() TokenCodec {
	return p.codec
}

// Config returns the provider configuration
func (p *Provider) Config() Config {
	return p.cfg
}
