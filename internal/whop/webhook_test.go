package whop

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
)

const secret = "whsec_test"

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestValidateWebhook(t *testing.T) {
	body := []byte(`{"action":"payment.succeeded","data":{"user_id":"user_1"}}`)

	event, err := ValidateWebhook(body, sign(body), secret)
	if err != nil {
		t.Fatalf("ValidateWebhook() error = %v", err)
	}
	if event.Action != "payment.succeeded" {
		t.Errorf("Action = %q", event.Action)
	}
}

func TestValidateWebhookSha256Prefix(t *testing.T) {
	body := []byte(`{"action":"payment.succeeded","data":{}}`)

	if _, err := ValidateWebhook(body, "sha256="+sign(body), secret); err != nil {
		t.Fatalf("ValidateWebhook() with prefix error = %v", err)
	}
}

func TestValidateWebhookUppercaseSignature(t *testing.T) {
	body := []byte(`{"action":"payment.succeeded","data":{}}`)
	upper := []byte(sign(body))
	for i, c := range upper {
		if c >= 'a' && c <= 'f' {
			upper[i] = c - 32
		}
	}

	if _, err := ValidateWebhook(body, string(upper), secret); err != nil {
		t.Fatalf("ValidateWebhook() with uppercase hex error = %v", err)
	}
}

func TestValidateWebhookBadSignature(t *testing.T) {
	body := []byte(`{"action":"payment.succeeded","data":{}}`)

	if _, err := ValidateWebhook(body, "deadbeef", secret); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("ValidateWebhook() error = %v, want ErrInvalidSignature", err)
	}
}

func TestValidateWebhookTamperedBody(t *testing.T) {
	body := []byte(`{"action":"payment.succeeded","data":{}}`)
	sig := sign(body)
	tampered := []byte(`{"action":"membership.went_valid","data":{}}`)

	if _, err := ValidateWebhook(tampered, sig, secret); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("ValidateWebhook() error = %v, want ErrInvalidSignature", err)
	}
}

func TestValidateWebhookMissingAction(t *testing.T) {
	body := []byte(`{"data":{}}`)

	if _, err := ValidateWebhook(body, sign(body), secret); err == nil {
		t.Fatal("ValidateWebhook() error = nil, want missing action error")
	}
}
