package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/filesure/referral-rewards-api/internal/config"
	"github.com/filesure/referral-rewards-api/internal/httputil"
	"github.com/filesure/referral-rewards-api/internal/logging"
	"github.com/filesure/referral-rewards-api/internal/ratelimit"
	"github.com/filesure/referral-rewards-api/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service      *Service
	rateLimiter  *ratelimit.Limiter
	logger       *logging.Logger
	isProduction bool
	authCfg      config.AuthConfig
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, logger *logging.Logger, isProduction bool, authCfg config.AuthConfig) *Handler {
	return &Handler{
		service:      service,
		rateLimiter:  rateLimiter,
		logger:       logger,
		isProduction: isProduction,
		authCfg:      authCfg,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	ReferralCode string `json:"referralCode,omitempty"`
}

// LoginRequest represents the login request body; ID accepts either a user
// id or an email address
type LoginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents the password change request body
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ForgetPasswordRequest represents the password reset initiation body
type ForgetPasswordRequest struct {
	ID string `json:"id"`
}

// ResetPasswordRequest represents the password reset confirmation body
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// RegisterResponse represents the registration response
type RegisterResponse struct {
	AccessToken string     `json:"accessToken"`
	User        PublicUser `json:"user"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

// RefreshResponse represents the token refresh response
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a user, optionally linked to a referrer via referral code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration payload"
// @Success      201 {object} RegisterResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      404 {object} httputil.ErrorResponse "Invalid referral code"
// @Failure      409 {object} httputil.ErrorResponse "Email already registered"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.rateLimited(w, r, "register") {
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Register(r.Context(), RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		h.respondServiceError(w, logger, "registration failed", err)
		return
	}

	logger.Info("user registered", "user_id", result.User.ID, "referred", req.ReferralCode != "")

	SetRefreshTokenCookie(w, result.RefreshToken, h.authCfg.RefreshTokenDuration, h.isProduction)
	httputil.RespondJSON(w, RegisterResponse{
		AccessToken: result.AccessToken,
		User:        result.User,
	}, http.StatusCreated)
}

// Login handles user login with email or user id
// @Summary      User login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} LoginResponse
// @Failure      403 {object} httputil.ErrorResponse "Blocked, deleted, or wrong password"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.rateLimited(w, r, "auth") {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Login(r.Context(), req.ID, req.Password)
	if err != nil {
		h.respondServiceError(w, logger, "login failed", err)
		return
	}

	logger.Info("user logged in", "user_id", result.User.ID)

	SetRefreshTokenCookie(w, result.RefreshToken, h.authCfg.RefreshTokenDuration, h.isProduction)
	httputil.RespondJSON(w, LoginResponse{AccessToken: result.AccessToken}, http.StatusOK)
}

// RefreshToken exchanges a refresh credential for a new access token.
// The credential is read from the cookie; a body token is accepted as a
// fallback for non-browser clients.
// @Summary      Refresh access token
// @Tags         auth
// @Produce      json
// @Success      200 {object} RefreshResponse
// @Failure      401 {object} httputil.ErrorResponse "Invalid or expired refresh token"
// @Router       /auth/refresh-token [post]
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token, err := GetRefreshTokenFromCookie(r)
	if err != nil {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil || req.RefreshToken == "" {
			httputil.RespondError(w, "refresh token is required", http.StatusUnauthorized)
			return
		}
		token = req.RefreshToken
	}

	accessToken, err := h.service.RefreshAccessToken(r.Context(), token)
	if err != nil {
		h.respondServiceError(w, logger, "token refresh failed", err)
		return
	}

	httputil.RespondJSON(w, RefreshResponse{AccessToken: accessToken}, http.StatusOK)
}

// ChangePassword handles password change for the authenticated user
// @Summary      Change password
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body ChangePasswordRequest true "Old and new passwords"
// @Success      200 {object} map[string]string
// @Failure      403 {object} httputil.ErrorResponse "Old password does not match"
// @Router       /auth/change-password [post]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "you are not authorized", http.StatusUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		h.respondServiceError(w, logger, "password change failed", err)
		return
	}

	logger.Info("password changed", "user_id", userID)
	httputil.RespondJSON(w, map[string]string{"message": "password updated successfully"}, http.StatusOK)
}

// ForgetPassword initiates the password reset flow
// @Summary      Request a password reset link
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgetPasswordRequest true "User id or email"
// @Success      200 {object} map[string]string
// @Router       /auth/forget-password [post]
func (h *Handler) ForgetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.rateLimited(w, r, "auth") {
		return
	}

	var req ForgetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.ForgetPassword(r.Context(), req.ID); err != nil {
		h.respondServiceError(w, logger, "password reset request failed", err)
		return
	}

	httputil.RespondJSON(w, map[string]string{"message": "reset link sent to your email"}, http.StatusOK)
}

// ResetPassword completes the password reset flow
// @Summary      Reset password with a reset token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Reset token and new password"
// @Success      200 {object} map[string]string
// @Failure      403 {object} httputil.ErrorResponse "Invalid or expired reset token"
// @Router       /auth/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.respondServiceError(w, logger, "password reset failed", err)
		return
	}

	httputil.RespondJSON(w, map[string]string{"message": "password reset successfully"}, http.StatusOK)
}

// Logout clears the refresh cookie. Access tokens simply age out.
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ClearRefreshTokenCookie(w, h.isProduction)
	httputil.RespondJSON(w, map[string]string{"message": "logged out"}, http.StatusOK)
}

// rateLimited applies the IP rate limit for a purpose and writes the 429
// response when the limit is exhausted
func (h *Handler) rateLimited(w http.ResponseWriter, r *http.Request, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())
	ip := httputil.ClientIP(r)

	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, purpose)
	if err != nil {
		// Rate limiting is advisory; a Redis hiccup must not block auth
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return false
	}
	if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondError(w, "too many requests, please try again later", http.StatusTooManyRequests)
		return true
	}

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	return false
}

// respondServiceError maps workflow errors onto the fixed status taxonomy
func (h *Handler) respondServiceError(w http.ResponseWriter, logger *logging.Logger, context string, err error) {
	switch {
	case errors.Is(err, user.ErrDuplicateEmail):
		logger.Warn(context, "reason", "duplicate email")
		httputil.RespondError(w, "email already registered", http.StatusConflict)
	case errors.Is(err, ErrInvalidReferralCode):
		logger.Warn(context, "reason", "invalid referral code")
		httputil.RespondError(w, "invalid referral code", http.StatusNotFound)
	case errors.Is(err, user.ErrNotFound):
		logger.Warn(context, "reason", "user not found")
		httputil.RespondError(w, "this user is not found", http.StatusNotFound)
	case errors.Is(err, user.ErrConflict):
		logger.Warn(context, "reason", "registration conflict")
		httputil.RespondError(w, "registration conflict, please try again", http.StatusConflict)
	case errors.Is(err, ErrUserDeleted), errors.Is(err, ErrUserBlocked), errors.Is(err, ErrPasswordMismatch):
		logger.Warn(context, "reason", err.Error())
		httputil.RespondError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrPasswordResetTokenNotFound):
		logger.Warn(context, "reason", "reset token invalid")
		httputil.RespondError(w, "invalid or expired reset token", http.StatusForbidden)
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrExpiredToken):
		logger.Warn(context, "reason", "invalid credential")
		httputil.RespondError(w, "you are not authorized", http.StatusUnauthorized)
	case errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrEmailRequired),
		errors.Is(err, ErrInvalidEmailFormat),
		errors.Is(err, ErrPasswordRequired),
		errors.Is(err, ErrPasswordTooShort):
		logger.Warn(context, "reason", err.Error())
		httputil.RespondError(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Error(context, "error", err.Error())
		httputil.RespondError(w, "something went wrong", http.StatusInternalServerError)
	}
}
