// Package models holds the plain data records exchanged between the
// repositories, services and transports.
package models

import "time"

// Role is one of a closed set of access levels.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r belongs to the closed set of roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// Account is the persisted identity record.
type Account struct {
	ID                     string
	Email                  string
	PasswordHash           string
	Role                   Role
	IsActive               bool
	Name                   string
	AvatarURL              string
	EmailVerificationToken *string
	ResetPasswordToken     *string
	ResetPasswordExpires   *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// HasPendingReset reports whether a reset ticket exists and is still usable
// at now.
func (a *Account) HasPendingReset(now time.Time) bool {
	return a.ResetPasswordToken != nil && a.ResetPasswordExpires != nil && a.ResetPasswordExpires.After(now)
}

// Public strips credentials and tickets.
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:        a.ID,
		Email:     a.Email,
		Role:      a.Role,
		IsActive:  a.IsActive,
		Name:      a.Name,
		AvatarURL: a.AvatarURL,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// PublicAccount is the only account shape returned to callers.
type PublicAccount struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"isActive"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"profilePicture,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AccountPatch lists the columns an Update should write. Nil fields are left
// untouched. ClearReset removes the reset ticket and wins over
// ResetPasswordToken/ResetPasswordExpires.
type AccountPatch struct {
	PasswordHash         *string
	Role                 *Role
	IsActive             *bool
	Name                 *string
	AvatarURL            *string
	ResetPasswordToken   *string
	ResetPasswordExpires *time.Time
	ClearReset           bool
}

// Empty reports whether the patch would write nothing.
func (p AccountPatch) Empty() bool {
	return p.PasswordHash == nil && p.Role == nil && p.IsActive == nil && p.Name == nil &&
		p.AvatarURL == nil && p.ResetPasswordToken == nil && p.ResetPasswordExpires == nil && !p.ClearReset
}

// ExternalIdentity is what a federated provider vouches for.
type ExternalIdentity struct {
	Provider  string
	Subject   string
	Email     string
	Name      string
	AvatarURL string
}
