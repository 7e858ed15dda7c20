package dashboard

import (
	"errors"
	"net/http"

	"github.com/filesure/referral-rewards-api/internal/auth"
	"github.com/filesure/referral-rewards-api/internal/httputil"
	"github.com/filesure/referral-rewards-api/internal/logging"
	"github.com/filesure/referral-rewards-api/internal/ratelimit"
	"github.com/filesure/referral-rewards-api/internal/user"
)

// Handler contains HTTP handlers for the dashboard endpoints
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter) *Handler {
	return &Handler{service: service, rateLimiter: rateLimiter}
}

// GetStats returns the authenticated user's referral dashboard
// @Summary      Get referral dashboard statistics
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} Stats
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /dashboard/stats [get]
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "you are not authorized", http.StatusUnauthorized)
		return
	}

	ip := httputil.ClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "dashboard")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		httputil.RespondError(w, "too many dashboard requests, please slow down", http.StatusTooManyRequests)
		return
	}
	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "dashboard"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	stats, err := h.service.GetStats(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondError(w, "user not found", http.StatusNotFound)
			return
		}
		logger.Error("failed to build dashboard stats", "user_id", userID, "error", err.Error())
		httputil.RespondError(w, "failed to retrieve dashboard statistics", http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, stats, http.StatusOK)
}
