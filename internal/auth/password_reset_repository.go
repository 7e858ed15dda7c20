package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrPasswordResetTokenNotFound = errors.New("password reset token not found or expired")

const passwordResetTokenTTL = 1 * time.Hour

// PasswordResetRepository handles password reset token storage in Redis
type PasswordResetRepository struct {
	client *redis.Client
}

// NewPasswordResetRepository creates a new password reset repository instance
func NewPasswordResetRepository(client *redis.Client) *PasswordResetRepository {
	return &PasswordResetRepository{
		client: client,
	}
}

// StorePasswordResetToken stores a password reset token with 1-hour TTL
func (r *PasswordResetRepository) StorePasswordResetToken(ctx context.Context, userID string, token string) error {
	key := passwordResetKey(token)

	err := r.client.Set(ctx, key, userID, passwordResetTokenTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to store password reset token: %w", err)
	}

	return nil
}

// GetPasswordResetToken retrieves the user id associated with a password reset token
func (r *PasswordResetRepository) GetPasswordResetToken(ctx context.Context, token string) (string, error) {
	key := passwordResetKey(token)

	userID, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrPasswordResetTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get password reset token: %w", err)
	}

	return userID, nil
}

// DeletePasswordResetToken removes a used password reset token
func (r *PasswordResetRepository) DeletePasswordResetToken(ctx context.Context, token string) error {
	err := r.client.Del(ctx, passwordResetKey(token)).Err()
	if err != nil {
		return fmt.Errorf("failed to delete password reset token: %w", err)
	}

	return nil
}

// passwordResetKey generates a Redis key for password reset tokens.
// The token is hashed so the raw value never lands in Redis.
func passwordResetKey(token string) string {
	return fmt.Sprintf("password_reset:%s", hashToken(token))
}
