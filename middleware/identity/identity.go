// Package identity resolves the current user once per request and
// publishes it to the router locals and the request context.
package identity

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-membership"
	"github.com/goliatone/go-router"
)

// Context is the part of router.Context the middleware needs
type Context interface {
	membership.RequestCarrier
	Context() context.Context
	SetContext(ctx context.Context)
	Locals(key any, value ...any) any
}

type Config struct {
	Provider membership.CurrentUserProvider
	// SessionLookup returns the host session for the request. When
	// nil, resolution relies on the token alone.
	SessionLookup  func(ctx Context) (membership.Session, error)
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler
	// ContextKey is the locals key holding the *membership.User
	ContextKey string
	// PrincipalKey is the locals key holding the *membership.Principal
	PrincipalKey string
	// TrustProxyHeaders reads the client address from X-Forwarded-For
	// and X-Real-IP. router.Context exposes no peer address, so the
	// origin is empty when this is off.
	TrustProxyHeaders bool
	Logger            membership.Logger
}

// New returns the per request identity middleware. Resolution
// failures are logged and the request continues anonymously.
func New(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			if _, err := cfg.Resolve(ctx); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

// Resolve builds the RequestContext for ctx, runs TryLogin and
// publishes the result. It only fails when the provider is missing.
func (cfg Config) Resolve(ctx Context) (*membership.User, error) {
	if cfg.Provider == nil {
		return nil, errors.New("identity provider is required", errors.CategoryInternal).
			WithTextCode(membership.TextCodeContextUnavailable)
	}

	stdCtx := ctx.Context()
	if stdCtx == nil {
		stdCtx = context.Background()
	}

	if err := cfg.Provider.Warmup(stdCtx); err != nil {
		cfg.Logger.Debug("identity warmup error", "error", err)
	}

	opts := []membership.RequestOption{
		membership.WithTrustedProxyHeaders(cfg.TrustProxyHeaders),
	}
	if cfg.SessionLookup != nil {
		opts = append(opts, membership.WithSessionLoader(func() (membership.Session, error) {
			return cfg.SessionLookup(ctx)
		}))
	}

	rc := membership.NewRequestContext(ctx, opts...)

	user, err := cfg.Provider.TryLogin(stdCtx, rc)
	if err != nil {
		cfg.Logger.Error("identity resolution failed", "error", err)
		user = nil
	}

	stdCtx = membership.WithRequestContext(stdCtx, rc)

	if user != nil {
		ctx.Locals(cfg.ContextKey, user)
	}

	if p := rc.Principal(); p != nil && user != nil {
		ctx.Locals(cfg.PrincipalKey, p)
		stdCtx = membership.WithPrincipal(stdCtx, p)
	}

	ctx.SetContext(stdCtx)

	return user, nil
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			return c.Status(router.StatusInternalServerError).SendString("Identity unavailable")
		}
	}

	if cfg.Provider == nil {
		panic("MEMBERSHIP: identity middleware configuration: Provider is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "current_user"
	}

	if cfg.PrincipalKey == "" {
		cfg.PrincipalKey = "principal"
	}

	if cfg.Logger == nil {
		cfg.Logger = membership.DefaultLogger()
	}

	return cfg
}
