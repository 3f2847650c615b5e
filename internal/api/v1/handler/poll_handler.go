package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PollHandler handles poll CRUD, voting and the lifecycle sweep endpoints.
type PollHandler struct {
	pollService service.PollService
	voteService service.VoteService
	notifier    service.NotificationService
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewPollHandler(pollService service.PollService, voteService service.VoteService, notifier service.NotificationService, validate *validator.Validate, logger zerolog.Logger) *PollHandler {
	return &PollHandler{
		pollService: pollService,
		voteService: voteService,
		notifier:    notifier,
		validate:    validate,
		logger:      logger.With().Str("handler", "PollHandler").Logger(),
	}
}

// RegisterRoutes mounts poll routes. The sweep endpoints skip user auth
// so schedulers can call them; everything else requires a verified user.
func (h *PollHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/polls", authMw(http.HandlerFunc(h.handlePolls)))
	mux.Handle("/polls/", authMw(http.HandlerFunc(h.handlePoll)))
	mux.Handle("/polls/activate-scheduled", http.HandlerFunc(h.activateScheduled))
	mux.Handle("/polls/update-expired", http.HandlerFunc(h.updateExpired))
}

func (h *PollHandler) handlePolls(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createPoll(w, r)
	case http.MethodGet:
		h.listPolls(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *PollHandler) handlePoll(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/polls/")
	switch {
	case strings.HasSuffix(rest, "/vote") && r.Method == http.MethodPost:
		h.castVote(w, r, strings.TrimSuffix(rest, "/vote"))
	case !strings.Contains(rest, "/") && r.Method == http.MethodDelete:
		h.deletePoll(w, r, rest)
	default:
		http.NotFound(w, r)
	}
}

// createPoll godoc
// @Summary Create a poll
// @Description Creates a poll with 2-10 options. Free-tier creators are limited in concurrently active polls.
// @Tags polls
// @Accept json
// @Produce json
// @Param poll body dto.CreatePollRequest true "Poll creation request"
// @Success 201 {object} dto.PollResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid payload or validation failed"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Active poll limit reached"
// @Router /polls [post]
func (h *PollHandler) createPoll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized: User ID not found in context")
		return
	}
	var req dto.CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}
	options := make([]string, 0, len(req.Options))
	for _, opt := range req.Options {
		options = append(options, opt.OptionText)
	}
	sendNotification := true
	if req.SendNotification != nil {
		sendNotification = *req.SendNotification
	}
	poll, err := h.pollService.Create(r.Context(), service.CreatePollInput{
		Question:         req.Question,
		Options:          options,
		CompanyID:        req.CompanyID,
		ExperienceID:     req.ExperienceID,
		CreatorUserID:    userID,
		ExpiresAt:        req.ExpiresAt,
		ScheduledAt:      req.ScheduledAt,
		IsAnonymous:      req.IsAnonymous,
		SendNotification: sendNotification,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuotaExceeded):
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{
				Error:           "Free tier poll limit reached. Upgrade to create more polls.",
				RequiresUpgrade: true,
			})
		case errors.Is(err, service.ErrExpiryInPast):
			writeError(w, http.StatusBadRequest, "Expiration time must be in the future")
		default:
			h.logger.Error().Err(err).Msg("Failed to create poll")
			writeError(w, http.StatusInternalServerError, "Failed to create poll")
		}
		return
	}
	// A poll that starts out active is announced right away. Scheduled
	// polls are announced by the sweeper when they go live.
	if poll.Status == model.StatusActive && h.notifier != nil {
		if err := h.notifier.NotifyPollLaunched(r.Context(), *poll); err != nil {
			h.logger.Error().Err(err).Str("pollId", poll.ID).Msg("Failed to send launch notification")
		}
	}
	writeJSON(w, http.StatusCreated, dto.NewPollResponse(poll))
}

// listPolls godoc
// @Summary List polls
// @Description Lists polls scoped to an experience or a company, newest first. Vote totals and the caller's own ballot are included.
// @Tags polls
// @Produce json
// @Param experience_id query string false "Experience ID"
// @Param company_id query string false "Company ID"
// @Success 200 {array} dto.PollResponse
// @Failure 400 {object} dto.ErrorResponse "Missing scope parameter"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /polls [get]
func (h *PollHandler) listPolls(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized: User ID not found in context")
		return
	}
	var (
		polls []model.Poll
		err   error
	)
	if experienceID := r.URL.Query().Get("experience_id"); experienceID != "" {
		polls, err = h.pollService.ListByExperience(r.Context(), experienceID, userID)
	} else if companyID := r.URL.Query().Get("company_id"); companyID != "" {
		polls, err = h.pollService.ListByCompany(r.Context(), companyID, userID)
	} else {
		writeError(w, http.StatusBadRequest, "experience_id or company_id is required")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list polls")
		writeError(w, http.StatusInternalServerError, "Failed to list polls")
		return
	}
	resp := make([]dto.PollResponse, 0, len(polls))
	for i := range polls {
		resp = append(resp, dto.NewPollResponse(&polls[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// deletePoll godoc
// @Summary Delete a poll
// @Description Deletes a poll with its options and ballots. Allowed for the creator or a company admin.
// @Tags polls
// @Produce json
// @Param pollId path string true "Poll ID"
// @Success 200 {object} map[string]bool
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not the creator or an admin"
// @Failure 404 {object} dto.ErrorResponse "Poll not found"
// @Router /polls/{pollId} [delete]
func (h *PollHandler) deletePoll(w http.ResponseWriter, r *http.Request, pollID string) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized: User ID not found in context")
		return
	}
	if _, err := uuid.Parse(pollID); err != nil {
		writeError(w, http.StatusNotFound, "Poll not found")
		return
	}
	err := h.pollService.Delete(r.Context(), pollID, userID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	case errors.Is(err, service.ErrPollNotFound):
		writeError(w, http.StatusNotFound, "Poll not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "Only the poll creator or an admin can delete this poll")
	default:
		h.logger.Error().Err(err).Str("pollId", pollID).Msg("Failed to delete poll")
		writeError(w, http.StatusInternalServerError, "Failed to delete poll")
	}
}

// castVote godoc
// @Summary Vote on a poll
// @Description Records the caller's ballot. Voting again for a different option moves the ballot; the same option is a no-op.
// @Tags polls
// @Accept json
// @Produce json
// @Param pollId path string true "Poll ID"
// @Param vote body dto.VoteRequest true "Vote request"
// @Success 200 {object} dto.VoteResponse
// @Failure 400 {object} dto.ErrorResponse "Poll is not active or invalid payload"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Poll or option not found"
// @Failure 409 {object} dto.ErrorResponse "Simultaneous vote detected"
// @Router /polls/{pollId}/vote [post]
func (h *PollHandler) castVote(w http.ResponseWriter, r *http.Request, pollID string) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized: User ID not found in context")
		return
	}
	if _, err := uuid.Parse(pollID); err != nil {
		writeError(w, http.StatusNotFound, "Poll not found")
		return
	}
	var req dto.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}
	err := h.voteService.Cast(r.Context(), pollID, req.OptionID, userID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, dto.VoteResponse{Success: true, Message: "Vote recorded"})
	case errors.Is(err, service.ErrPollNotFound):
		writeError(w, http.StatusNotFound, "Poll not found")
	case errors.Is(err, service.ErrOptionNotFound):
		writeError(w, http.StatusNotFound, "Option not found")
	case errors.Is(err, service.ErrPollNotActive):
		writeError(w, http.StatusBadRequest, "This poll is no longer active")
	case errors.Is(err, repository.ErrConcurrentVote):
		writeError(w, http.StatusConflict, "Vote already in progress, please retry")
	default:
		h.logger.Error().Err(err).Str("pollId", pollID).Msg("Failed to record vote")
		writeError(w, http.StatusInternalServerError, "Failed to record vote")
	}
}

// activateScheduled godoc
// @Summary Promote due scheduled polls
// @Description Flips scheduled polls whose start time has passed to active and announces the ones that opted in to notifications.
// @Tags polls
// @Produce json
// @Success 200 {object} dto.SweepResponse
// @Router /polls/activate-scheduled [post]
func (h *PollHandler) activateScheduled(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	polls, err := h.pollService.ActivateDue(r.Context(), time.Now())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to activate scheduled polls")
		writeError(w, http.StatusInternalServerError, "Failed to activate scheduled polls")
		return
	}
	if h.notifier != nil {
		for i := range polls {
			if err := h.notifier.NotifyPollLaunched(r.Context(), polls[i]); err != nil {
				h.logger.Error().Err(err).Str("pollId", polls[i].ID).Msg("Failed to send launch notification")
			}
		}
	}
	writeJSON(w, http.StatusOK, dto.NewSweepResponse("Activated scheduled polls", polls))
}

// updateExpired godoc
// @Summary Demote past-expiry polls
// @Description Flips active polls whose expiration has passed to expired.
// @Tags polls
// @Produce json
// @Success 200 {object} dto.SweepResponse
// @Router /polls/update-expired [post]
func (h *PollHandler) updateExpired(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	polls, err := h.pollService.ExpireDue(r.Context(), time.Now())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to expire polls")
		writeError(w, http.StatusInternalServerError, "Failed to expire polls")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSweepResponse("Expired polls updated", polls))
}
