// Package fiberware runs membership identity resolution as native
// fiber middleware backed by the fiber session store.
package fiberware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/goliatone/go-membership"
	"github.com/goliatone/go-router"
)

type Config struct {
	Provider *membership.Provider
	Store    *session.Store
	Filter   func(*fiber.Ctx) bool
	// ContextKey is the locals key holding the *membership.User
	ContextKey string
	// PrincipalKey is the locals key holding the *membership.Principal
	PrincipalKey string
	// TrustProxyHeaders reads the client address from X-Forwarded-For
	// and X-Real-IP instead of the peer address
	TrustProxyHeaders bool
	Logger            membership.Logger
}

// RegisterTypes registers the session value types with store
func RegisterTypes(store *session.Store) {
	store.RegisterType(&membership.User{})
}

// New resolves the current user for every request. The session is
// loaded on first use and saved after the handler chain returns.
func New(config Config) fiber.Handler {
	cfg := configDefault(config)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		var sess *session.Session
		loader := func() (membership.Session, error) {
			if sess == nil {
				s, err := cfg.Store.Get(c)
				if err != nil {
					return nil, err
				}
				sess = s
			}
			return Session{sess: sess}, nil
		}

		rc := membership.NewRequestContext(NewCarrier(c),
			membership.WithSessionLoader(loader),
			membership.WithTrustedProxyHeaders(cfg.TrustProxyHeaders),
		)

		if err := cfg.Provider.Warmup(c.UserContext()); err != nil {
			cfg.Logger.Debug("identity warmup error", "error", err)
		}

		user, err := cfg.Provider.TryLogin(c.UserContext(), rc)
		if err != nil {
			cfg.Logger.Error("identity resolution failed", "error", err)
			user = nil
		}

		ctx := membership.WithRequestContext(c.UserContext(), rc)
		if user != nil {
			c.Locals(cfg.ContextKey, user)
			if p := rc.Principal(); p != nil {
				c.Locals(cfg.PrincipalKey, p)
				ctx = membership.WithPrincipal(ctx, p)
			}
		}
		c.SetUserContext(ctx)

		err = c.Next()

		if sess != nil {
			if serr := sess.Save(); serr != nil {
				cfg.Logger.Error("failed to save session", "error", serr)
				if err == nil {
					err = serr
				}
			}
		}

		return err
	}
}

// RequestContext returns the RequestContext built by New for c
func RequestContext(c *fiber.Ctx) *membership.RequestContext {
	if rc, ok := membership.RequestFromContext(c.UserContext()); ok {
		return rc
	}
	return membership.NewRequestContext(NewCarrier(c))
}

func configDefault(cfg Config) Config {
	if cfg.Provider == nil {
		panic("MEMBERSHIP: fiber middleware configuration: Provider is required.")
	}

	if cfg.Store == nil {
		cfg.Store = session.New()
		RegisterTypes(cfg.Store)
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

// Carrier adapts *fiber.Ctx to membership.RequestCarrier
type Carrier struct {
	c *fiber.Ctx
}

var _ membership.RequestCarrier = Carrier{}

// NewCarrier wraps c
func NewCarrier(c *fiber.Ctx) Carrier {
	return Carrier{c: c}
}

func (r Carrier) Cookies(key string, defaultValue ...string) string {
	return r.c.Cookies(key, defaultValue...)
}

func (r Carrier) Query(key string, defaultValue ...string) string {
	return r.c.Query(key, defaultValue...)
}

func (r Carrier) Header(key string) string {
	return r.c.Get(key)
}

func (r Carrier) Cookie(cookie *router.Cookie) {
	if cookie == nil {
		return
	}

	path := cookie.Path
	if path == "" {
		path = "/"
	}

	r.c.Cookie(&fiber.Cookie{
		Name:     cookie.Name,
		Value:    cookie.Value,
		Path:     path,
		Expires:  cookie.Expires,
		Secure:   cookie.Secure,
		HTTPOnly: cookie.HTTPOnly,
		SameSite: cookie.SameSite,
	})
}

// IP returns the remote address seen by fiber
func (r Carrier) IP() string {
	return r.c.IP()
}

// Session adapts a fiber session to membership.Session
type Session struct {
	sess *session.Session
}

var _ membership.Session = Session{}

func (s Session) Get(key string) any {
	return s.sess.Get(key)
}

func (s Session) Set(key string, value any) {
	s.sess.Set(key, value)
}

func (s Session) Delete(key string) {
	s.sess.Delete(key)
}

// Clear drops every entry and rotates the session id
func (s Session) Clear() error {
	return s.sess.Reset()
}
