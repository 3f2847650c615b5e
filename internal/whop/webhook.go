package whop

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SignatureHeader carries the HMAC-SHA256 signature of the webhook body,
// hex-encoded with an optional "sha256=" prefix.
const SignatureHeader = "x-whop-signature"

// ErrInvalidSignature is returned when a webhook signature does not match
// the shared secret.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// WebhookEvent is a billing event delivered by the Whop platform.
type WebhookEvent struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// MembershipData is the payload of membership.* webhook actions.
type MembershipData struct {
	UserID            string `json:"user_id"`
	CompanyID         string `json:"company_id"`
	AccessPassID      string `json:"access_pass_id"`
	PlanID            string `json:"plan_id"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}

// PaymentData is the payload of payment.* and refund.* webhook actions.
type PaymentData struct {
	UserID       string  `json:"user_id"`
	CompanyID    string  `json:"company_id"`
	AccessPassID string  `json:"access_pass_id"`
	FinalAmount  float64 `json:"final_amount"`
	Currency     string  `json:"currency"`
}

// ValidateWebhook verifies the signature over the raw body and parses the
// event envelope.
func ValidateWebhook(body []byte, signature, secret string) (*WebhookEvent, error) {
	if err := verifySignature(body, signature, secret); err != nil {
		return nil, err
	}
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decoding webhook payload: %w", err)
	}
	if event.Action == "" {
		return nil, errors.New("webhook payload has no action")
	}
	return &event, nil
}

func verifySignature(body []byte, signature, secret string) error {
	if signature == "" {
		return fmt.Errorf("%w: missing %s header", ErrInvalidSignature, SignatureHeader)
	}
	signature = strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrInvalidSignature
	}
	return nil
}
