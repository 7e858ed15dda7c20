package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanAuthenticate(t *testing.T) {
	tests := []struct {
		name string
		user User
		want bool
	}{
		{name: "active user", user: User{Status: StatusActive}, want: true},
		{name: "blocked user", user: User{Status: StatusBlocked}, want: false},
		{name: "deleted user", user: User{Status: StatusActive, IsDeleted: true}, want: false},
		{name: "deleted and blocked", user: User{Status: StatusBlocked, IsDeleted: true}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.CanAuthenticate())
		})
	}
}

func TestTokenIssuedBeforePasswordChange(t *testing.T) {
	changedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("no password change on record", func(t *testing.T) {
		u := User{}
		assert.False(t, u.TokenIssuedBeforePasswordChange(changedAt))
	})

	t.Run("token issued before the change", func(t *testing.T) {
		u := User{PasswordChangedAt: &changedAt}
		assert.True(t, u.TokenIssuedBeforePasswordChange(changedAt.Add(-time.Hour)))
	})

	t.Run("token issued after the change", func(t *testing.T) {
		u := User{PasswordChangedAt: &changedAt}
		assert.False(t, u.TokenIssuedBeforePasswordChange(changedAt.Add(time.Hour)))
	})

	t.Run("sub-second skew does not invalidate", func(t *testing.T) {
		// Token timestamps carry second precision; a change recorded with
		// nanoseconds must not reject a token issued the same second.
		changedWithNanos := changedAt.Add(500 * time.Millisecond)
		u := User{PasswordChangedAt: &changedWithNanos}
		assert.False(t, u.TokenIssuedBeforePasswordChange(changedAt))
	})
}
