package membership_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-membership"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresStore(t *testing.T) {
	opts := membership.DefaultOptions()
	opts.JwtSecret = testSecret

	_, err := membership.New(nil, opts)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := membership.New(newMemStore(), membership.DefaultOptions())
	require.Error(t, err)

	opts := membership.DefaultOptions()
	opts.JwtSecret = "RS256:not-hmac"
	_, err = membership.New(newMemStore(), opts)
	require.Error(t, err)
}

func TestNewWarnsForPasswordless(t *testing.T) {
	logger := newCaptureLogger()
	opts := membership.DefaultOptions()
	opts.JwtSecret = testSecret

	_, err := membership.New(newMemStore(), opts, membership.WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, 1, logger.count("warn"))

	logger = newCaptureLogger()
	opts.AllowPasswordless = false
	_, err = membership.New(newMemStore(), opts, membership.WithLogger(logger))
	require.NoError(t, err)
	assert.Zero(t, logger.count("warn"))
}

func TestWarmupRunsOnce(t *testing.T) {
	h := newHarness(t, membership.DefaultOptions())
	h.store.warmErr = assert.AnError

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.provider.Warmup(context.Background())
		}()
	}
	wg.Wait()

	assert.ErrorIs(t, h.provider.Warmup(context.Background()), assert.AnError)
	assert.Equal(t, 1, h.store.warmups)
}

func TestWarmupWithoutWarmer(t *testing.T) {
	opts := membership.DefaultOptions()
	opts.JwtSecret = testSecret

	provider, err := membership.New(new(MockUserStore), opts, membership.WithLogger(newCaptureLogger()))
	require.NoError(t, err)
	assert.NoError(t, provider.Warmup(context.Background()))
}

type staticCodec struct {
	info membership.TokenInfo
}

func (c staticCodec) Encode(subject string, _, _ time.Time) (string, error) {
	return "static." + subject + ".token", nil
}

func (c staticCodec) Decode(string) (membership.TokenInfo, error) {
	return c.info, nil
}

func TestWithTokenCodec(t *testing.T) {
	alice := newAlice()
	opts := membership.DefaultOptions()
	opts.JwtSecret = testSecret

	codec := staticCodec{info: membership.TokenInfo{Subject: "alice", ExpiresAt: fixedNow.Add(time.Hour)}}
	provider, err := membership.New(newMemStore(alice), opts,
		membership.WithTokenCodec(codec),
		membership.WithClock(fixedClock),
		membership.WithLogger(newCaptureLogger()),
	)
	require.NoError(t, err)
	assert.Equal(t, codec, provider.Codec())

	rc := membership.NewRequestContext(newCarrier(), membership.WithSession(membership.NewMapSession()))
	require.NoError(t, provider.SaveCookie(rc, alice, time.Hour))
	assert.Equal(t, "static.alice.token", rc.Token())

	carrier := newCarrier()
	carrier.cookies[membership.TokenCookieName] = "any.structured.value"
	user, err := provider.TryLogin(context.Background(), membership.NewRequestContext(carrier))
	require.NoError(t, err)
	assert.Same(t, alice, user)
}

type denyAll struct{}

func (denyAll) Verify(string, string) bool { return false }

func TestWithCredentialVerifier(t *testing.T) {
	opts := membership.DefaultOptions()
	opts.JwtSecret = testSecret

	provider, err := membership.New(newMemStore(newAlice()), opts,
		membership.WithCredentialVerifier(denyAll{}),
		membership.WithLogger(newCaptureLogger()),
	)
	require.NoError(t, err)

	rc := membership.NewRequestContext(newCarrier(), membership.WithSession(membership.NewMapSession()))
	_, err = provider.Login(context.Background(), rc, "alice", "secret", false)
	assert.ErrorIs(t, err, membership.ErrBadCredential)
}

func TestRefreshToken(t *testing.T) {
	alice := newAlice()
	h := newHarness(t, membership.DefaultOptions(), alice)

	anon, _ := h.request(membership.NewMapSession())
	token, err := h.provider.RefreshToken(anon, 0)
	require.NoError(t, err)
	assert.Empty(t, token)

	session := membership.NewMapSession()
	session.Set(membership.DefaultSessionKey, alice)
	rc, carrier := h.request(session)

	token, err = h.provider.RefreshToken(rc, 10*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, token, carrier.lastCookie().Value)

	info, err := h.provider.Codec().Decode(token)
	require.NoError(t, err)
	assert.True(t, info.ExpiresAt.Equal(fixedNow.Add(10*time.Minute)))
}

func TestSaveCookieNilCarrier(t *testing.T) {
	h := newHarness(t, membership.DefaultOptions())
	assert.NoError(t, h.provider.SaveCookie(membership.NewRequestContext(nil), newAlice(), time.Hour))
	assert.NoError(t, h.provider.SaveCookie(nil, newAlice(), time.Hour))
}

func TestConfigAccessor(t *testing.T) {
	opts := membership.DefaultOptions()
	opts.JwtSecret = testSecret
	provider, err := membership.New(newMemStore(), opts, membership.WithLogger(newCaptureLogger()))
	require.NoError(t, err)
	assert.Equal(t, opts, provider.Config())
}
