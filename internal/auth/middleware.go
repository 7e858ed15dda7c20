package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/filesure/referral-rewards-api/internal/httputil"
	"github.com/filesure/referral-rewards-api/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	UserIDContextKey   ContextKey = "user_id"
	UserRoleContextKey ContextKey = "user_role"
)

// Middleware handles authentication for protected routes. It re-checks the
// account on every request: a token for a deleted, blocked, or
// password-changed account stops working immediately.
type Middleware struct {
	tokenService TokenService
	users        *user.Repository
}

func NewMiddleware(tokenService TokenService, users *user.Repository) *Middleware {
	return &Middleware{tokenService: tokenService, users: users}
}

// RequireAuth validates the bearer access token and loads the account state
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string

		// Priority 1: Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			} else {
				httputil.RespondError(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}
		}

		// Priority 2: Cookie (fallback)
		if token == "" {
			cookieToken, err := GetAccessTokenFromCookie(r)
			if err != nil {
				httputil.RespondError(w, "you are not authorized", http.StatusUnauthorized)
				return
			}
			token = cookieToken
		}

		claims, err := m.tokenService.VerifyToken(token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				httputil.RespondError(w, "token has expired", http.StatusUnauthorized)
				return
			}
			httputil.RespondError(w, "invalid token", http.StatusUnauthorized)
			return
		}

		account, err := m.users.GetByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				httputil.RespondError(w, "this user is not found", http.StatusNotFound)
				return
			}
			httputil.RespondError(w, "failed to authenticate request", http.StatusInternalServerError)
			return
		}

		if !account.CanAuthenticate() {
			httputil.RespondError(w, "this user is not allowed to access the system", http.StatusForbidden)
			return
		}

		if account.TokenIssuedBeforePasswordChange(claims.IssuedAt) {
			httputil.RespondError(w, "you are not authorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, account.ID)
		ctx = context.WithValue(ctx, UserRoleContextKey, account.Role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles rejects authenticated requests whose role is not listed
func (m *Middleware) RequireRoles(roles ...string) func(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRoleFromContext(r.Context())
			if !ok {
				httputil.RespondError(w, "you are not authorized", http.StatusUnauthorized)
				return
			}
			if _, ok := allowed[role]; !ok {
				httputil.RespondError(w, "you do not have permission to perform this action", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext extracts the user id from the request context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(string)
	return userID, ok
}

// GetUserRoleFromContext extracts the user role from the request context
func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleContextKey).(string)
	return role, ok
}
