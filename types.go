package membership

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-router"
)

// Logger takes a message followed by alternating key/value pairs
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds membership options
type Config interface {
	GetSessionKey() string
	GetJwtSecret() string
	GetSessionTimeout() int
	GetAllowPasswordless() bool
}

// UserStore is the persistence collaborator used to look up and
// update accounts. Lookups return a nil user (or a not found error)
// when there is no match.
type UserStore interface {
	FindByName(ctx context.Context, name string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByMobile(ctx context.Context, mobile string) (*User, error)
	FindByCode(ctx context.Context, code string) (*User, error)
	Update(ctx context.Context, user *User) error
}

// Warmer is implemented by stores that need a first touch before
// serving requests, e.g. to open connections or verify the schema.
type Warmer interface {
	Warmup(ctx context.Context) error
}

// Session is the mutable key/value map the host keeps per client
type Session interface {
	Get(key string) any
	Set(key string, value any)
	Delete(key string)
	Clear() error
}

// SessionLoader resolves the session for the current request. It
// should return an error when the host session store is not ready.
type SessionLoader func() (Session, error)

// RequestCarrier exposes the parts of an inbound request we read
// tokens from and the response cookie writer. router.Context
// satisfies it.
type RequestCarrier interface {
	Cookies(key string, defaultValue ...string) string
	Query(key string, defaultValue ...string) string
	Header(key string) string
	Cookie(cookie *router.Cookie)
}

var _ RequestCarrier = router.Context(nil)

// TokenCodec encodes and decodes signed tokens
type TokenCodec interface {
	Encode(subject string, issuedAt, expiresAt time.Time) (string, error)
	Decode(token string) (TokenInfo, error)
}

// CredentialVerifier checks a presented secret against a stored digest
type CredentialVerifier interface {
	Verify(storedDigest, presented string) bool
}

// CurrentUserProvider is the surface HTTP layers depend on
type CurrentUserProvider interface {
	GetCurrent(rc *RequestContext) *User
	SetCurrent(rc *RequestContext, user *User)
	TryLogin(ctx context.Context, rc *RequestContext) (*User, error)
	Login(ctx context.Context, rc *RequestContext, name, password string, remember bool) (*User, error)
	Logout(ctx context.Context, rc *RequestContext) error
	Warmup(ctx context.Context) error
}

// TokenInfo is the decoded content of a token
type TokenInfo struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token expiry is before now
func (t TokenInfo) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// DefaultLogger returns the stdout logger used when none is configured
func DefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print("[ERR] MEMBERSHIP " + render(msg, args...))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print("[WRN] MEMBERSHIP " + render(msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print("[INF] MEMBERSHIP " + render(msg, args...))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print("[DBG] MEMBERSHIP " + render(msg, args...))
}

// render writes msg verbatim followed by key=value pairs. A trailing
// unpaired value is appended on its own.
func render(msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
			continue
		}
		fmt.Fprintf(&b, " %v", args[i])
	}
	return newline(b.String())
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
