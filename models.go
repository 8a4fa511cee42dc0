package membership

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	// RoleAdministrator full access role
	RoleAdministrator = "Administrator"
	// RoleUser regular account role
	RoleUser = "User"
)

// User is the account record
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	DisplayName   string     `bun:"display_name" json:"display_name,omitempty"`
	Email         string     `bun:"email,nullzero,unique" json:"email,omitempty"`
	Mobile        string     `bun:"mobile,nullzero,unique" json:"mobile,omitempty"`
	Code          string     `bun:"code,nullzero,unique" json:"code,omitempty"`
	Password      string     `bun:"password" json:"-"`
	Enabled       bool       `bun:"enabled,notnull" json:"enabled"`
	Logins        int        `bun:"logins,notnull" json:"logins"`
	LastLogin     *time.Time `bun:"last_login,nullzero" json:"last_login,omitempty"`
	LastLoginIP   string     `bun:"last_login_ip" json:"last_login_ip,omitempty"`
	Roles         []string   `bun:"roles" json:"roles,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// String returns the display name, falling back to the login name
func (u *User) String() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}

// HasRole reports whether the user carries the given role name
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleNames returns a copy of the user's role names
func (u *User) RoleNames() []string {
	if u == nil || len(u.Roles) == 0 {
		return []string{}
	}
	out := make([]string, len(u.Roles))
	copy(out, u.Roles)
	return out
}

// Passwordless reports whether the stored digest is empty
func (u *User) Passwordless() bool {
	return u != nil && u.Password == ""
}

// recordLogin applies the login bookkeeping fields
func (u *User) recordLogin(at time.Time, origin string) {
	u.Logins++
	u.LastLogin = &at
	u.LastLoginIP = origin
}

// userRecord is the gob shape of User. Session stores such as fiber's
// serialize values with gob, which rejects the empty bun.BaseModel.
// The password digest is left out so it never reaches session storage.
type userRecord struct {
	ID          uuid.UUID
	Name        string
	DisplayName string
	Email       string
	Mobile      string
	Code        string
	Enabled     bool
	Logins      int
	LastLogin   *time.Time
	LastLoginIP string
	Roles       []string
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
}

// GobEncode implements gob.GobEncoder
func (u *User) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(userRecord{
		ID:          u.ID,
		Name:        u.Name,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Mobile:      u.Mobile,
		Code:        u.Code,
		Enabled:     u.Enabled,
		Logins:      u.Logins,
		LastLogin:   u.LastLogin,
		LastLoginIP: u.LastLoginIP,
		Roles:       u.Roles,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	})
	return buf.Bytes(), err
}

// GobDecode implements gob.GobDecoder
func (u *User) GobDecode(data []byte) error {
	var r userRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&r); err != nil {
		return err
	}

	u.ID = r.ID
	u.Name = r.Name
	u.DisplayName = r.DisplayName
	u.Email = r.Email
	u.Mobile = r.Mobile
	u.Code = r.Code
	u.Enabled = r.Enabled
	u.Logins = r.Logins
	u.LastLogin = r.LastLogin
	u.LastLoginIP = r.LastLoginIP
	u.Roles = r.Roles
	u.CreatedAt = r.CreatedAt
	u.UpdatedAt = r.UpdatedAt
	return nil
}
