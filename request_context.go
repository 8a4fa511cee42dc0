package membership

import (
	"context"
)

// RequestContext is the per request item cache. It is created at the
// start of a request and discarded when the request ends. It is not
// safe for concurrent use.
type RequestContext struct {
	carrier RequestCarrier
	loader  SessionLoader

	session       Session
	sessionLoaded bool

	user         *User
	userResolved bool

	token     string
	principal *Principal

	trustProxyHeaders bool
}

// RequestOption configures a RequestContext
type RequestOption func(*RequestContext)

// WithSession attaches an already resolved session
func WithSession(s Session) RequestOption {
	return func(rc *RequestContext) {
		rc.session = s
		rc.sessionLoaded = true
	}
}

// WithSessionLoader attaches a lazy session resolver
func WithSessionLoader(loader SessionLoader) RequestOption {
	return func(rc *RequestContext) {
		rc.loader = loader
	}
}

// WithTrustedProxyHeaders makes Origin honor X-Forwarded-For and
// X-Real-IP. Enable it only behind a proxy that overwrites them.
func WithTrustedProxyHeaders(trust bool) RequestOption {
	return func(rc *RequestContext) {
		rc.trustProxyHeaders = trust
	}
}

// NewRequestContext creates the request scoped cache for carrier
func NewRequestContext(carrier RequestCarrier, opts ...RequestOption) *RequestContext {
	rc := &RequestContext{carrier: carrier}
	for _, opt := range opts {
		if opt != nil {
			opt(rc)
		}
	}
	return rc
}

// Carrier returns the request carrier
func (rc *RequestContext) Carrier() RequestCarrier {
	return rc.carrier
}

// Session returns the client session. A nil session with a nil error
// means the host has no session for this request.
func (rc *RequestContext) Session() (Session, error) {
	if rc.sessionLoaded {
		return rc.session, nil
	}

	if rc.loader == nil {
		rc.sessionLoaded = true
		return nil, nil
	}

	s, err := rc.loader()
	if err != nil {
		// not cached, the store may become ready later in the request
		return nil, err
	}

	rc.session = s
	rc.sessionLoaded = true
	return s, nil
}

// Token returns the token issued during this request, if any
func (rc *RequestContext) Token() string {
	return rc.token
}

// Principal returns the principal bound during this request
func (rc *RequestContext) Principal() *Principal {
	return rc.principal
}

// Origin returns the client address
func (rc *RequestContext) Origin() string {
	return OriginAddress(rc.carrier, rc.trustProxyHeaders)
}

func (rc *RequestContext) cachedUser() (*User, bool) {
	return rc.user, rc.userResolved
}

func (rc *RequestContext) cacheUser(user *User) {
	rc.user = user
	rc.userResolved = true
}

var requestCtxKey = &contextKey{"membership.request"}
var principalCtxKey = &contextKey{"membership.principal"}

type contextKey struct {
	name string
}

// WithRequestContext stores rc in ctx
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestCtxKey, rc)
}

// RequestFromContext finds the RequestContext in ctx
func RequestFromContext(ctx context.Context) (*RequestContext, bool) {
	if ctx == nil {
		return nil, false
	}
	rc, ok := ctx.Value(requestCtxKey).(*RequestContext)
	return rc, ok && rc != nil
}

// WithPrincipal stores p in ctx
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}

// PrincipalFromContext finds the Principal in ctx
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(principalCtxKey).(*Principal)
	return p, ok && p != nil
}
