package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"app/internal/model"
	"app/internal/whop"

	"github.com/rs/zerolog"
)

// WebhookService ingests signed billing events from the Whop platform and
// updates subscription tiers. It is independent of poll/vote consistency;
// the quota tracker only reads the resulting tier.
type WebhookService struct {
	secret string
	subSvc SubscriptionService
	logger zerolog.Logger
}

// NewWebhookService creates a WebhookService with a scoped logger.
func NewWebhookService(secret string, subSvc SubscriptionService, logger zerolog.Logger) *WebhookService {
	return &WebhookService{
		secret: secret,
		subSvc: subSvc,
		logger: logger.With().Str("service", "WebhookService").Logger(),
	}
}

// HandleWebhook verifies the request signature and dispatches on the event
// action. It responds 200 as soon as the event is accepted; processing
// failures are logged but never turned into an error response, since the
// platform would retry the delivery.
func (s *WebhookService) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read webhook body")
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	event, err := whop.ValidateWebhook(body, r.Header.Get(whop.SignatureHeader), s.secret)
	if err != nil {
		if errors.Is(err, whop.ErrInvalidSignature) {
			s.logger.Warn().Err(err).Msg("Webhook signature validation failed")
			http.Error(w, "invalid signature", http.StatusBadRequest)
			return
		}
		s.logger.Error().Err(err).Msg("Invalid webhook payload")
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := s.HandleEvent(r.Context(), event); err != nil {
		s.logger.Error().Err(err).Str("action", event.Action).Msg("Webhook processing failed")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// HandleEvent applies a validated webhook event to subscription state.
func (s *WebhookService) HandleEvent(ctx context.Context, event *whop.WebhookEvent) error {
	switch event.Action {
	case "membership.went_valid":
		return s.handleMembershipValid(ctx, event.Data)
	case "membership.went_invalid":
		return s.handleMembershipInvalid(ctx, event.Data)
	case "membership.cancel_at_period_end_changed":
		return s.handleCancelAtPeriodEnd(ctx, event.Data)
	case "payment.succeeded":
		return s.handlePaymentSucceeded(ctx, event.Data)
	case "payment.failed", "payment.pending":
		// Informational only; tier changes arrive via membership events.
		var payment whop.PaymentData
		if err := json.Unmarshal(event.Data, &payment); err != nil {
			return err
		}
		s.logger.Info().Str("action", event.Action).Str("user_id", payment.UserID).Msg("Payment event received")
		return nil
	case "refund.created":
		return s.handleRefundCreated(ctx, event.Data)
	default:
		s.logger.Info().Str("action", event.Action).Msg("Unhandled webhook action")
		return nil
	}
}

// scope resolves the tenant scope for a membership event. Webhooks carry no
// experience id, so the company id doubles as the experience scope, matching
// how subscription rows are written on upgrade.
func scope(companyID string) (string, string) {
	if companyID == "" {
		companyID = "default"
	}
	return companyID, companyID
}

func (s *WebhookService) handleMembershipValid(ctx context.Context, raw json.RawMessage) error {
	var m whop.MembershipData
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	if m.UserID == "" {
		s.logger.Warn().Msg("membership.went_valid event has no user_id")
		return nil
	}
	companyID, experienceID := scope(m.CompanyID)
	now := time.Now()
	endsAt := now.AddDate(1, 0, 0)
	sub := &model.UserSubscription{
		UserID:       m.UserID,
		CompanyID:    companyID,
		ExperienceID: experienceID,
		Status:       model.TierPro,
		StartedAt:    &now,
		EndsAt:       &endsAt,
	}
	if m.PlanID != "" {
		sub.PlanID = &m.PlanID
	}
	if m.AccessPassID != "" {
		sub.AccessPassID = &m.AccessPassID
	}
	if err := s.subSvc.UpsertSubscription(ctx, sub); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", m.UserID).Str("company_id", companyID).Msg("Subscription upgraded to pro")
	return nil
}

func (s *WebhookService) handleMembershipInvalid(ctx context.Context, raw json.RawMessage) error {
	var m whop.MembershipData
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	if m.UserID == "" {
		s.logger.Warn().Msg("membership.went_invalid event has no user_id")
		return nil
	}
	companyID, experienceID := scope(m.CompanyID)
	now := time.Now()
	if err := s.subSvc.SetStatus(ctx, m.UserID, companyID, experienceID, model.TierCancelled, &now); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", m.UserID).Str("company_id", companyID).Msg("Subscription cancelled")
	return nil
}

func (s *WebhookService) handleCancelAtPeriodEnd(ctx context.Context, raw json.RawMessage) error {
	var m whop.MembershipData
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	if m.UserID == "" {
		s.logger.Warn().Msg("membership.cancel_at_period_end_changed event has no user_id")
		return nil
	}
	companyID, experienceID := scope(m.CompanyID)
	// The membership stays valid until the period ends; only flag the tier
	// when the user reverses the cancellation.
	status := model.TierCancelled
	if !m.CancelAtPeriodEnd {
		status = model.TierPro
	}
	if err := s.subSvc.SetStatus(ctx, m.UserID, companyID, experienceID, status, nil); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", m.UserID).Bool("cancel_at_period_end", m.CancelAtPeriodEnd).Msg("Cancellation flag updated")
	return nil
}

func (s *WebhookService) handlePaymentSucceeded(ctx context.Context, raw json.RawMessage) error {
	var p whop.PaymentData
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.UserID == "" {
		s.logger.Warn().Msg("payment.succeeded event has no user_id")
		return nil
	}
	companyID, experienceID := scope(p.CompanyID)
	now := time.Now()
	endsAt := now.AddDate(1, 0, 0)
	sub := &model.UserSubscription{
		UserID:       p.UserID,
		CompanyID:    companyID,
		ExperienceID: experienceID,
		Status:       model.TierPro,
		StartedAt:    &now,
		EndsAt:       &endsAt,
	}
	if p.AccessPassID != "" {
		sub.AccessPassID = &p.AccessPassID
	}
	if err := s.subSvc.UpsertSubscription(ctx, sub); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", p.UserID).Str("company_id", companyID).Msg("Subscription upgraded to pro on payment")
	return nil
}

func (s *WebhookService) handleRefundCreated(ctx context.Context, raw json.RawMessage) error {
	var p whop.PaymentData
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.UserID == "" {
		s.logger.Warn().Msg("refund.created event has no user_id")
		return nil
	}
	companyID, experienceID := scope(p.CompanyID)
	now := time.Now()
	if err := s.subSvc.SetStatus(ctx, p.UserID, companyID, experienceID, model.TierCancelled, &now); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", p.UserID).Str("company_id", companyID).Msg("Subscription cancelled on refund")
	return nil
}
