package membership

import (
	"github.com/google/uuid"
)

// Principal is the resolved identity plus its role names
type Principal struct {
	user  *User
	id    uuid.UUID
	name  string
	roles []string
}

// ID returns the user id
func (p *Principal) ID() uuid.UUID {
	return p.id
}

// Name returns the login name
func (p *Principal) Name() string {
	return p.name
}

// Roles returns a copy of the role names
func (p *Principal) Roles() []string {
	out := make([]string, len(p.roles))
	copy(out, p.roles)
	return out
}

// IsInRole checks role membership
func (p *Principal) IsInRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.roles {
		if r == role {
			return true
		}
	}
	return false
}

// User returns the user the principal was built from
func (p *Principal) User() *User {
	return p.user
}

// IsAuthenticated is true for any bound principal
func (p *Principal) IsAuthenticated() bool {
	return p != nil && p.user != nil
}

// PrincipalBinder projects a resolved user into a Principal
type PrincipalBinder struct{}

// NewPrincipalBinder creates a binder
func NewPrincipalBinder() *PrincipalBinder {
	return &PrincipalBinder{}
}

// Bind publishes a principal for user on rc. The existing principal
// is kept when it was built from the same *User.
func (b *PrincipalBinder) Bind(rc *RequestContext, user *User) *Principal {
	if rc == nil || user == nil {
		return nil
	}

	if rc.principal != nil && rc.principal.user == user {
		return rc.principal
	}

	rc.principal = &Principal{
		user:  user,
		id:    user.ID,
		name:  user.Name,
		roles: user.RoleNames(),
	}

	return rc.principal
}
