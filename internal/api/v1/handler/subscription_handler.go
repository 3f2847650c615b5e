package handler

import (
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"

	"github.com/rs/zerolog"
)

// SubscriptionHandler exposes the caller's plan and poll quota usage.
type SubscriptionHandler struct {
	usageService service.UsageService
	logger       zerolog.Logger
}

func NewSubscriptionHandler(usageService service.UsageService, logger zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		usageService: usageService,
		logger:       logger.With().Str("handler", "SubscriptionHandler").Logger(),
	}
}

// RegisterRoutes mounts the subscription endpoints.
func (h *SubscriptionHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/user/subscription", authMw(http.HandlerFunc(h.getUsage)))
}

// getUsage godoc
// @Summary Get subscription status and poll usage
// @Description Returns the caller's tier, poll counts and whether another poll can be created.
// @Tags subscriptions
// @Produce json
// @Param userId query string true "User ID, must match the authenticated user"
// @Param companyId query string true "Company ID"
// @Param experienceId query string true "Experience ID"
// @Success 200 {object} dto.UsageResponse
// @Failure 400 {object} dto.ErrorResponse "Missing parameters"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /user/subscription [get]
func (h *SubscriptionHandler) getUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	authedUser, ok := middleware.UserID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized: User ID not found in context")
		return
	}
	q := r.URL.Query()
	userID := q.Get("userId")
	companyID := q.Get("companyId")
	experienceID := q.Get("experienceId")
	if userID == "" || companyID == "" || experienceID == "" {
		writeError(w, http.StatusBadRequest, "userId, companyId and experienceId are required")
		return
	}
	if userID != authedUser {
		writeError(w, http.StatusUnauthorized, "Token does not match the requested user")
		return
	}
	usage, err := h.usageService.GetUsage(r.Context(), userID, companyID, experienceID)
	if err != nil {
		h.logger.Error().Err(err).Str("userId", userID).Msg("Failed to load poll usage")
		writeError(w, http.StatusInternalServerError, "Failed to load subscription status")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewUsageResponse(usage))
}
