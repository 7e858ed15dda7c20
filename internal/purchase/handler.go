package purchase

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/filesure/referral-rewards-api/internal/auth"
	"github.com/filesure/referral-rewards-api/internal/httputil"
	"github.com/filesure/referral-rewards-api/internal/logging"
	"github.com/filesure/referral-rewards-api/internal/ratelimit"
	"github.com/filesure/referral-rewards-api/internal/user"
)

// Handler contains HTTP handlers for purchase endpoints
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter) *Handler {
	return &Handler{service: service, rateLimiter: rateLimiter}
}

// MakePurchaseRequest represents the purchase request body; both fields are
// optional and fall back to configured defaults
type MakePurchaseRequest struct {
	ProductName string  `json:"productName"`
	Amount      float64 `json:"amount"`
}

// MakePurchase records a purchase for the authenticated user
// @Summary      Make a purchase (first purchase awards credits)
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body MakePurchaseRequest false "Optional purchase details"
// @Success      201 {object} Purchase
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /purchases [post]
func (h *Handler) MakePurchase(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "you are not authorized", http.StatusUnauthorized)
		return
	}

	ip := httputil.ClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "purchase")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		httputil.RespondError(w, "too many purchase requests, please try again later", http.StatusTooManyRequests)
		return
	}
	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "purchase"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	// The body is optional: an empty body means "defaults for everything"
	var req MakePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("invalid purchase request body", "error", err.Error())
		httputil.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Amount < 0 {
		httputil.RespondError(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	created, err := h.service.MakePurchase(r.Context(), userID, req.ProductName, req.Amount)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondError(w, "user not found", http.StatusNotFound)
			return
		}
		logger.Error("purchase failed", "user_id", userID, "error", err.Error())
		httputil.RespondError(w, "failed to complete purchase", http.StatusInternalServerError)
		return
	}

	logger.Info("purchase completed",
		"user_id", userID,
		"purchase_id", created.ID,
		"first_purchase", created.IsFirstPurchase,
	)

	httputil.RespondJSON(w, created, http.StatusCreated)
}

// GetMyPurchases returns the authenticated user's purchase history
// @Summary      Get current user's purchase history
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} Purchase
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Router       /purchases/my-purchases [get]
func (h *Handler) GetMyPurchases(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "you are not authorized", http.StatusUnauthorized)
		return
	}

	purchases, err := h.service.GetUserPurchases(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondError(w, "user not found", http.StatusNotFound)
			return
		}
		logger.Error("failed to list purchases", "user_id", userID, "error", err.Error())
		httputil.RespondError(w, "failed to retrieve purchases", http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, purchases, http.StatusOK)
}
