package auth

import (
	"time"
)

// TokenService defines the interface for credential creation and validation
type TokenService interface {
	CreateToken(userID, role string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}
