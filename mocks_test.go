package membership_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-membership"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "HS256:membership-test-secret"

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

// MockConfig implements membership.Config
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetSessionKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetJwtSecret() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetSessionTimeout() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetAllowPasswordless() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockUserStore implements membership.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByName(ctx context.Context, name string) (*membership.User, error) {
	args := m.Called(ctx, name)
	user, _ := args.Get(0).(*membership.User)
	return user, args.Error(1)
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (*membership.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*membership.User)
	return user, args.Error(1)
}

func (m *MockUserStore) FindByMobile(ctx context.Context, mobile string) (*membership.User, error) {
	args := m.Called(ctx, mobile)
	user, _ := args.Get(0).(*membership.User)
	return user, args.Error(1)
}

func (m *MockUserStore) FindByCode(ctx context.Context, code string) (*membership.User, error) {
	args := m.Called(ctx, code)
	user, _ := args.Get(0).(*membership.User)
	return user, args.Error(1)
}

func (m *MockUserStore) Update(ctx context.Context, user *membership.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// memStore is an in memory membership.UserStore
type memStore struct {
	mu        sync.Mutex
	users     []*membership.User
	updates   int
	lookups   map[string]int
	updateErr error
	warmups   int
	warmErr   error
}

func newMemStore(users ...*membership.User) *memStore {
	return &memStore{users: users, lookups: map[string]int{}}
}

func (s *memStore) find(kind string, match func(*membership.User) bool) (*membership.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups[kind]++
	for _, u := range s.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindByName(_ context.Context, name string) (*membership.User, error) {
	return s.find("name", func(u *membership.User) bool { return u.Name == name })
}

func (s *memStore) FindByEmail(_ context.Context, email string) (*membership.User, error) {
	return s.find("email", func(u *membership.User) bool { return u.Email != "" && u.Email == email })
}

func (s *memStore) FindByMobile(_ context.Context, mobile string) (*membership.User, error) {
	return s.find("mobile", func(u *membership.User) bool { return u.Mobile != "" && u.Mobile == mobile })
}

func (s *memStore) FindByCode(_ context.Context, code string) (*membership.User, error) {
	return s.find("code", func(u *membership.User) bool { return u.Code != "" && u.Code == code })
}

func (s *memStore) Update(_ context.Context, _ *membership.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates++
	return nil
}

func (s *memStore) Warmup(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warmups++
	return s.warmErr
}

// fakeCarrier implements membership.RequestCarrier
type fakeCarrier struct {
	cookies map[string]string
	queries map[string]string
	headers map[string]string
	ip      string
	written []*router.Cookie
}

func newCarrier() *fakeCarrier {
	return &fakeCarrier{
		cookies: map[string]string{},
		queries: map[string]string{},
		headers: map[string]string{},
	}
}

func (c *fakeCarrier) Cookies(key string, defaultValue ...string) string {
	if v, ok := c.cookies[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *fakeCarrier) Query(key string, defaultValue ...string) string {
	if v, ok := c.queries[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *fakeCarrier) Header(key string) string {
	return c.headers[key]
}

func (c *fakeCarrier) Cookie(cookie *router.Cookie) {
	c.written = append(c.written, cookie)
}

func (c *fakeCarrier) IP() string {
	return c.ip
}

func (c *fakeCarrier) lastCookie() *router.Cookie {
	if len(c.written) == 0 {
		return nil
	}
	return c.written[len(c.written)-1]
}

// captureSink records audit entries
type captureSink struct {
	mu      sync.Mutex
	entries []membership.AuditEntry
	err     error
}

func (s *captureSink) WriteLog(_ context.Context, entry membership.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return s.err
}

func (s *captureSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Action)
	}
	return out
}

// captureLogger records log lines by level
type captureLogger struct {
	mu    sync.Mutex
	lines map[string][]string
}

func newCaptureLogger() *captureLogger {
	return &captureLogger{lines: map[string][]string{}}
}

func (l *captureLogger) add(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines[level] = append(l.lines[level], fmt.Sprint(append([]any{msg}, args...)...))
}

func (l *captureLogger) Debug(msg string, args ...any) { l.add("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.add("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.add("error", msg, args...) }

func (l *captureLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines[level])
}

// fixtures

func newAlice() *membership.User {
	return &membership.User{
		ID:          uuid.New(),
		Name:        "alice",
		DisplayName: "Alice",
		Email:       "alice@example.com",
		Mobile:      "13800000000",
		Code:        "A001",
		Password:    membership.MD5Digest("secret"),
		Enabled:     true,
		Roles:       []string{membership.RoleAdministrator},
	}
}

func newBob() *membership.User {
	return &membership.User{
		ID:       uuid.New(),
		Name:     "bob",
		Email:    "bob@example.com",
		Code:     "EMP-001",
		Password: membership.MD5Digest("hunter2"),
		Enabled:  true,
		Roles:    []string{membership.RoleUser},
	}
}

func newOpen() *membership.User {
	return &membership.User{
		ID:      uuid.New(),
		Name:    "open",
		Email:   "open@x.com",
		Enabled: true,
		Roles:   []string{membership.RoleUser},
	}
}

func newDisabled() *membership.User {
	return &membership.User{
		ID:       uuid.New(),
		Name:     "mallory",
		Password: membership.MD5Digest("secret"),
		Enabled:  false,
	}
}

type harness struct {
	provider *membership.Provider
	store    *memStore
	sink     *captureSink
	logger   *captureLogger
}

func newHarness(t *testing.T, opts membership.Options, users ...*membership.User) *harness {
	t.Helper()

	if opts.JwtSecret == "" {
		opts.JwtSecret = testSecret
	}

	h := &harness{
		store:  newMemStore(users...),
		sink:   &captureSink{},
		logger: newCaptureLogger(),
	}

	provider, err := membership.New(h.store, opts,
		membership.WithLogger(h.logger),
		membership.WithAuditSink(h.sink),
		membership.WithClock(fixedClock),
	)
	require.NoError(t, err)
	h.provider = provider
	return h
}

func (h *harness) request(session membership.Session) (*membership.RequestContext, *fakeCarrier) {
	carrier := newCarrier()
	if session == nil {
		return membership.NewRequestContext(carrier), carrier
	}
	return membership.NewRequestContext(carrier, membership.WithSession(session)), carrier
}

func (h *harness) token(t *testing.T, subject string, ttl time.Duration) string {
	t.Helper()
	token, err := h.provider.Codec().Encode(subject, fixedNow, fixedNow.Add(ttl))
	require.NoError(t, err)
	return token
}
