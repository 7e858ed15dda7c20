package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/filesure/referral-rewards-api/internal/auth"
	"github.com/filesure/referral-rewards-api/internal/httputil"
	"github.com/filesure/referral-rewards-api/internal/logging"
	"github.com/filesure/referral-rewards-api/internal/user"
)

// UserHandler serves the user profile and administration endpoints
type UserHandler struct {
	users *user.Repository
}

func NewUserHandler(users *user.Repository) *UserHandler {
	return &UserHandler{users: users}
}

// ChangeStatusRequest represents the admin status change body
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// GetMe returns the authenticated user's own record
// @Summary      Get own profile
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} user.User
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Router       /users/me [get]
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "you are not authorized", http.StatusUnauthorized)
		return
	}

	account, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondError(w, "this user is not found", http.StatusNotFound)
			return
		}
		logger.Error("failed to load profile", "user_id", userID, "error", err.Error())
		httputil.RespondError(w, "failed to retrieve profile", http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, account, http.StatusOK)
}

// ChangeStatus blocks or unblocks a user. Admin only.
// @Summary      Change a user's status
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "User id"
// @Param        request body ChangeStatusRequest true "New status"
// @Success      200 {object} user.User
// @Failure      403 {object} httputil.ErrorResponse "Insufficient role"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /users/change-status/{id} [patch]
func (h *UserHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	targetID := chi.URLParam(r, "id")

	var req ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Status != user.StatusActive && req.Status != user.StatusBlocked {
		httputil.RespondError(w, "status must be active or blocked", http.StatusBadRequest)
		return
	}

	updated, err := h.users.UpdateStatus(r.Context(), targetID, req.Status)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondError(w, "this user is not found", http.StatusNotFound)
			return
		}
		logger.Error("failed to change status", "target_id", targetID, "error", err.Error())
		httputil.RespondError(w, "failed to change status", http.StatusInternalServerError)
		return
	}

	logger.Info("user status changed", "target_id", targetID, "status", req.Status)
	httputil.RespondJSON(w, updated, http.StatusOK)
}
