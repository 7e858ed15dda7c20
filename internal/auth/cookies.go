package auth

import (
	"errors"
	"net/http"
	"time"
)

const (
	accessTokenCookieName  = "access_token"
	refreshTokenCookieName = "refresh_token"
)

var ErrCookieNotFound = errors.New("auth cookie not found")

// SetRefreshTokenCookie delivers the refresh credential as an HTTP-only
// cookie scoped to the refresh endpoint
func SetRefreshTokenCookie(w http.ResponseWriter, token string, duration time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    token,
		Path:     "/auth",
		MaxAge:   int(duration.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearRefreshTokenCookie expires the refresh cookie
func ClearRefreshTokenCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetRefreshTokenFromCookie reads the refresh credential cookie
func GetRefreshTokenFromCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(refreshTokenCookieName)
	if err != nil {
		return "", ErrCookieNotFound
	}
	return cookie.Value, nil
}

// GetAccessTokenFromCookie reads the access credential cookie, used as a
// fallback when no Authorization header is present
func GetAccessTokenFromCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(accessTokenCookieName)
	if err != nil {
		return "", ErrCookieNotFound
	}
	return cookie.Value, nil
}
