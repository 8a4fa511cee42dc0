package identity_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-membership"
	"github.com/goliatone/go-membership/middleware/identity"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// baseContext names the embedded router.Context so the struct can
// define its own Context method.
type baseContext = router.Context

// guardContext implements the router.Context methods used by the guard
type guardContext struct {
	baseContext
	ctx        context.Context
	status     int
	body       string
	nextCalled bool
}

func (g *guardContext) Context() context.Context { return g.ctx }

func (g *guardContext) Next() error {
	g.nextCalled = true
	return nil
}

func (g *guardContext) Status(code int) router.Context {
	g.status = code
	return g
}

func (g *guardContext) SendString(s string) error {
	g.body = s
	return nil
}

func principalContext(t *testing.T, roles ...string) context.Context {
	t.Helper()

	user := &membership.User{Name: "alice", Enabled: true, Roles: roles}
	rc := membership.NewRequestContext(nil)
	p := membership.NewPrincipalBinder().Bind(rc, user)
	require.NotNil(t, p)

	return membership.WithPrincipal(context.Background(), p)
}

func TestAuthorize(t *testing.T) {
	assert.ErrorIs(t, identity.Authorize(context.Background()), identity.ErrUnauthenticated)

	ctx := principalContext(t, membership.RoleUser)
	assert.NoError(t, identity.Authorize(ctx))
	assert.NoError(t, identity.Authorize(ctx, membership.RoleAdministrator, membership.RoleUser))
	assert.ErrorIs(t, identity.Authorize(ctx, membership.RoleAdministrator), identity.ErrForbidden)
}

func TestCurrentUser(t *testing.T) {
	assert.Nil(t, identity.CurrentUser(context.Background()))

	user := identity.CurrentUser(principalContext(t))
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Name)
}

func TestRequireUser(t *testing.T) {
	handler := identity.RequireUser(identity.GuardConfig{
		Roles: []string{membership.RoleAdministrator},
	})(func(router.Context) error { return nil })

	anon := &guardContext{ctx: context.Background()}
	require.NoError(t, handler(anon))
	assert.Equal(t, router.StatusUnauthorized, anon.status)
	assert.False(t, anon.nextCalled)

	member := &guardContext{ctx: principalContext(t, membership.RoleUser)}
	require.NoError(t, handler(member))
	assert.Equal(t, router.StatusForbidden, member.status)

	admin := &guardContext{ctx: principalContext(t, membership.RoleAdministrator)}
	require.NoError(t, handler(admin))
	assert.True(t, admin.nextCalled)
	assert.Zero(t, admin.status)
}
