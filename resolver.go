package membership

import (
	"context"
)

// SessionUserIDKey is the companion session entry holding the user id
const SessionUserIDKey = "userId"

// Resolver reconciles the request cache, the session and the token
// into a single current user per request.
type Resolver struct {
	sessionKey string
	cookies    *CookieManager
	binder     *PrincipalBinder
	logger     Logger
}

// NewResolver creates a resolver storing the user under sessionKey
func NewResolver(sessionKey string, cookies *CookieManager, binder *PrincipalBinder, logger Logger) *Resolver {
	if sessionKey == "" {
		sessionKey = DefaultSessionKey
	}
	if binder == nil {
		binder = NewPrincipalBinder()
	}
	if logger == nil {
		logger = defLogger{}
	}
	return &Resolver{
		sessionKey: sessionKey,
		cookies:    cookies,
		binder:     binder,
		logger:     logger,
	}
}

// SessionKey returns the session entry used for the current user
func (r *Resolver) SessionKey() string {
	return r.sessionKey
}

// GetCurrent returns the current user. The first call in a request
// reads the session and caches the result, including a miss; later
// calls return the cached value.
func (r *Resolver) GetCurrent(rc *RequestContext) *User {
	if rc == nil {
		return nil
	}

	if user, ok := rc.cachedUser(); ok {
		return user
	}

	session, err := rc.Session()
	if err != nil {
		r.logger.Warn("session unavailable, resolving as anonymous", "error", err)
		return nil
	}

	var user *User
	if session != nil {
		user, _ = session.Get(r.sessionKey).(*User)
	}

	rc.cacheUser(user)
	return user
}

// SetCurrent caches user for the request, rebinds the principal and
// writes it to the session. A nil user removes the identity entries.
func (r *Resolver) SetCurrent(rc *RequestContext, user *User) {
	if rc == nil {
		return
	}

	rc.cacheUser(user)
	if user == nil {
		rc.principal = nil
	} else {
		r.binder.Bind(rc, user)
	}

	session, err := rc.Session()
	if err != nil {
		r.logger.Warn("session unavailable, current user not persisted", "error", err)
		return
	}

	if session == nil {
		return
	}

	if user == nil {
		session.Delete(r.sessionKey)
		session.Delete(SessionUserIDKey)
		return
	}

	session.Set(r.sessionKey, user)
	session.Set(SessionUserIDKey, user.ID.String())
}

// TryLogin resolves the current user, falling back to the token when
// the session has none, and binds a principal for the result.
func (r *Resolver) TryLogin(ctx context.Context, rc *RequestContext) (*User, error) {
	if rc == nil {
		return nil, nil
	}

	user := r.GetCurrent(rc)
	if user == nil && r.cookies != nil {
		loaded, err := r.cookies.LoadCookie(ctx, rc, true)
		if err != nil {
			return nil, err
		}

		if loaded != nil {
			r.SetCurrent(rc, loaded)
			user = loaded
		}
	}

	if user != nil {
		r.binder.Bind(rc, user)
	}

	return user, nil
}
