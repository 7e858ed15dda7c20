package user

import (
	"time"
)

// Roles a user can hold. Self-service registration always creates RoleUser.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superAdmin"
)

// Account statuses. Blocked users cannot authenticate.
const (
	StatusActive  = "active"
	StatusBlocked = "blocked"
)

type User struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"` // Never expose password hash in JSON
	Role              string     `json:"role"`
	Status            string     `json:"status"`
	IsDeleted         bool       `json:"-"`
	ReferralCode      string     `json:"referralCode"`
	ReferredBy        *string    `json:"referredBy,omitempty"`
	Credits           int        `json:"credits"`
	HasPurchased      bool       `json:"hasPurchased"`
	PasswordChangedAt *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// CanAuthenticate reports whether the account may log in or present tokens.
func (u *User) CanAuthenticate() bool {
	return !u.IsDeleted && u.Status != StatusBlocked
}

// TokenIssuedBeforePasswordChange reports whether a credential issued at
// issuedAt predates the user's most recent password change and must be
// rejected.
func (u *User) TokenIssuedBeforePasswordChange(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	// Truncate to seconds: token timestamps carry second precision
	return issuedAt.Truncate(time.Second).Before(u.PasswordChangedAt.Truncate(time.Second))
}
