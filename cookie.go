package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

const (
	// DefaultTokenExpiry applies when no positive expiry is given
	DefaultTokenExpiry = 2 * time.Hour
	// RememberExpiry applies when the user asks to be remembered
	RememberExpiry = 365 * 24 * time.Hour
)

// CookieManager issues and reads the token cookie
type CookieManager struct {
	codec  TokenCodec
	store  UserStore
	audit  auditor
	logger Logger
	now    func() time.Time
}

// NewCookieManager creates a cookie manager
func NewCookieManager(codec TokenCodec, store UserStore, sink AuditSink, logger Logger, clock func() time.Time) *CookieManager {
	if logger == nil {
		logger = defLogger{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &CookieManager{
		codec:  codec,
		store:  store,
		audit:  auditor{sink: sink, logger: logger, now: clock},
		logger: logger,
		now:    clock,
	}
}

// SaveCookie writes the token cookie for user. A nil user writes an
// empty, already expired cookie so the client drops it. The cookie
// is persistent only when expiry is positive.
func (m *CookieManager) SaveCookie(rc *RequestContext, user *User, expiry time.Duration) error {
	if rc == nil || rc.carrier == nil {
		return nil
	}

	now := m.now()
	cookie := &router.Cookie{
		Name:     TokenCookieName,
		Path:     "/",
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	}

	token := ""
	if user != nil {
		ttl := expiry
		if ttl <= 0 {
			ttl = DefaultTokenExpiry
		}

		encoded, err := m.codec.Encode(user.Name, now, now.Add(ttl))
		if err != nil {
			m.logger.Error("failed to encode token", "user", user.Name, "error", err)
			return err
		}
		token = encoded

		if expiry > 0 {
			cookie.Expires = now.Add(expiry)
		}
	} else {
		cookie.Expires = now.Add(-time.Hour * (24 * 365))
	}

	cookie.Value = token
	rc.carrier.Cookie(cookie)
	rc.token = token

	return nil
}

// LoadCookie resolves a user from a token carried by the request.
// Missing, invalid and expired tokens resolve to no user without an
// error. When autoLogin is set the login is recorded and audited; a
// failure to persist that bookkeeping is returned.
func (m *CookieManager) LoadCookie(ctx context.Context, rc *RequestContext, autoLogin bool) (*User, error) {
	if rc == nil {
		return nil, nil
	}

	token, channel, ok := ExtractToken(rc.carrier)
	if !ok {
		return nil, nil
	}

	info, err := m.codec.Decode(token)
	if err != nil {
		m.logger.Debug("token rejected", "channel", channel, "error", err)
		return nil, nil
	}

	if info.Subject == "" {
		m.logger.Debug("token without subject", "channel", channel)
		return nil, nil
	}

	if info.Expired(m.now()) {
		m.logger.Debug("token expired", "channel", channel, "subject", info.Subject, "expires_at", info.ExpiresAt)
		return nil, nil
	}

	user, err := m.store.FindByName(ctx, info.Subject)
	if err != nil && !isNotFound(err) {
		m.logger.Error("token subject lookup failed", "subject", info.Subject, "error", err)
		return nil, nil
	}

	if user == nil {
		m.logger.Info("token subject not found", "subject", info.Subject)
		return nil, nil
	}

	if !user.Enabled {
		m.logger.Info("token subject disabled", "subject", info.Subject)
		return nil, nil
	}

	if !autoLogin {
		return user, nil
	}

	origin := rc.Origin()
	user.recordLogin(m.now(), origin)
	if err := m.store.Update(ctx, user); err != nil {
		m.audit.write(ctx, AuditEntry{
			Action:    AuditActionAutoLogin,
			Success:   false,
			Message:   fmt.Sprintf("%s automatic login failed: %s", info.Subject, err),
			ActorID:   user.ID.String(),
			ActorName: user.String(),
			Origin:    origin,
		})
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to record automatic login")
	}

	m.audit.write(ctx, AuditEntry{
		Action:    AuditActionAutoLogin,
		Success:   true,
		Message:   fmt.Sprintf("%s Time=%s Expire=%s", info.Subject, info.IssuedAt.Format(time.RFC3339), info.ExpiresAt.Format(time.RFC3339)),
		ActorID:   user.ID.String(),
		ActorName: user.String(),
		Origin:    origin,
	})

	return user, nil
}
