package membership

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
)

// SessionAuthenticator orchestrates explicit login and logout
type SessionAuthenticator struct {
	store          UserStore
	verifier       CredentialVerifier
	resolver       *Resolver
	cookies        *CookieManager
	audit          auditor
	logger         Logger
	sessionTimeout time.Duration
	now            func() time.Time
}

// NewSessionAuthenticator creates an authenticator
func NewSessionAuthenticator(
	store UserStore,
	verifier CredentialVerifier,
	resolver *Resolver,
	cookies *CookieManager,
	sink AuditSink,
	sessionTimeout time.Duration,
	logger Logger,
	clock func() time.Time,
) *SessionAuthenticator {
	if logger == nil {
		logger = defLogger{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &SessionAuthenticator{
		store:          store,
		verifier:       verifier,
		resolver:       resolver,
		cookies:        cookies,
		audit:          auditor{sink: sink, logger: logger, now: clock},
		logger:         logger,
		sessionTimeout: sessionTimeout,
		now:            clock,
	}
}

// Login verifies the credential, records the login, issues the token
// cookie and sets the current user.
func (a *SessionAuthenticator) Login(ctx context.Context, rc *RequestContext, name, password string, remember bool) (*User, error) {
	origin := ""
	if rc != nil {
		origin = rc.Origin()
	}

	user, err := a.authenticate(ctx, name, password, origin)
	if err != nil {
		a.logger.Error("Login error", "name", name, "error", err)

		entry := AuditEntry{
			Action:  AuditActionLogin,
			Success: false,
			Message: fmt.Sprintf("%s login failed: %s", name, errorMessage(err)),
			Origin:  origin,
		}
		if user != nil {
			entry.ActorID = user.ID.String()
			entry.ActorName = user.String()
		}
		a.audit.write(ctx, entry)

		return nil, err
	}

	a.audit.write(ctx, AuditEntry{
		Action:    AuditActionLogin,
		Success:   true,
		Message:   fmt.Sprintf("user [%s] logged in using [%s]", user, name),
		ActorID:   user.ID.String(),
		ActorName: user.String(),
		Origin:    origin,
	})

	if err := a.cookies.SaveCookie(rc, user, a.expiry(remember)); err != nil {
		return nil, err
	}

	a.resolver.SetCurrent(rc, user)

	return user, nil
}

// Logout resets the whole session, expires the token cookie and
// clears the current user.
func (a *SessionAuthenticator) Logout(ctx context.Context, rc *RequestContext) error {
	if rc == nil {
		return nil
	}

	user := a.resolver.GetCurrent(rc)

	session, err := rc.Session()
	if err != nil {
		a.logger.Warn("session unavailable during logout", "error", err)
	} else if session != nil {
		if err := session.Clear(); err != nil {
			a.logger.Error("failed to clear session", "error", err)
			return err
		}
	}

	if err := a.cookies.SaveCookie(rc, nil, 0); err != nil {
		return err
	}

	a.resolver.SetCurrent(rc, nil)

	if user != nil {
		a.audit.write(ctx, AuditEntry{
			Action:    AuditActionLogout,
			Success:   true,
			Message:   fmt.Sprintf("user [%s] logged out", user),
			ActorID:   user.ID.String(),
			ActorName: user.String(),
			Origin:    rc.Origin(),
		})
	}

	return nil
}

// expiry returns the token lifetime for a login
func (a *SessionAuthenticator) expiry(remember bool) time.Duration {
	if remember {
		return RememberExpiry
	}
	if a.sessionTimeout > 0 {
		return a.sessionTimeout
	}
	return 0
}

// authenticate resolves and verifies the account and records the
// login. The matched user is returned alongside errors raised after
// the lookup so failures can be attributed.
func (a *SessionAuthenticator) authenticate(ctx context.Context, name, password, origin string) (*User, error) {
	user, err := a.findAccount(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, ErrAccountNotFound
	}

	if !user.Enabled {
		return user, ErrAccountDisabled
	}

	if !a.verifier.Verify(user.Password, password) {
		return user, ErrBadCredential
	}

	user.recordLogin(a.now(), origin)
	if err := a.store.Update(ctx, user); err != nil {
		return user, errors.Wrap(err, errors.CategoryInternal, "failed to record login")
	}

	return user, nil
}

// findAccount tries name, email, mobile and code in that order
func (a *SessionAuthenticator) findAccount(ctx context.Context, account string) (*User, error) {
	if account == "" {
		return nil, nil
	}

	lookups := []struct {
		applies bool
		find    func(context.Context, string) (*User, error)
	}{
		{true, a.store.FindByName},
		{strings.Contains(account, "@"), a.store.FindByEmail},
		{isPositiveInteger(account), a.store.FindByMobile},
		{true, a.store.FindByCode},
	}

	for _, lookup := range lookups {
		if !lookup.applies {
			continue
		}

		user, err := lookup.find(ctx, account)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve account")
		}

		if user != nil {
			return user, nil
		}
	}

	return nil, nil
}

func isPositiveInteger(s string) bool {
	n, err := strconv.ParseInt(s, 10, 64)
	return err == nil && n > 0
}

func errorMessage(err error) string {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.Message
	}
	return err.Error()
}
