package membership_test

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/goliatone/go-membership"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserString(t *testing.T) {
	alice := newAlice()
	assert.Equal(t, "Alice", alice.String())

	alice.DisplayName = ""
	assert.Equal(t, "alice", alice.String())

	var none *membership.User
	assert.Equal(t, "", none.String())
}

func TestUserRoles(t *testing.T) {
	alice := newAlice()
	assert.True(t, alice.HasRole(membership.RoleAdministrator))
	assert.False(t, alice.HasRole(membership.RoleUser))

	names := alice.RoleNames()
	names[0] = membership.RoleUser
	assert.Equal(t, []string{membership.RoleAdministrator}, alice.Roles)

	var none *membership.User
	assert.False(t, none.HasRole(membership.RoleUser))
	assert.Empty(t, none.RoleNames())
}

func TestUserPasswordless(t *testing.T) {
	assert.False(t, newAlice().Passwordless())
	assert.True(t, newOpen().Passwordless())

	var none *membership.User
	assert.False(t, none.Passwordless())
}

func TestUserGobRoundTrip(t *testing.T) {
	alice := newAlice()
	at := fixedNow
	alice.Logins = 4
	alice.LastLogin = &at
	alice.LastLoginIP = "10.1.1.1"

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(alice))
	encoded := buf.String()

	decoded := new(membership.User)
	require.NoError(t, gob.NewDecoder(&buf).Decode(decoded))

	assert.Equal(t, alice.ID, decoded.ID)
	assert.Equal(t, alice.Name, decoded.Name)
	assert.NotEmpty(t, alice.Password)
	assert.Empty(t, decoded.Password)
	assert.NotContains(t, encoded, alice.Password)
	assert.Equal(t, alice.Roles, decoded.Roles)
	assert.Equal(t, 4, decoded.Logins)
	require.NotNil(t, decoded.LastLogin)
	assert.True(t, decoded.LastLogin.Equal(fixedNow))
	assert.Nil(t, decoded.CreatedAt)
}

func TestUserGobInsideInterface(t *testing.T) {
	gob.Register(&membership.User{})

	values := map[string]any{membership.DefaultSessionKey: newAlice()}

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(values))

	out := map[string]any{}
	require.NoError(t, gob.NewDecoder(&buf).Decode(&out))

	user, ok := out[membership.DefaultSessionKey].(*membership.User)
	require.True(t, ok)
	assert.Equal(t, "alice", user.Name)
}
