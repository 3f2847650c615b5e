package whop

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"app/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.Config{
		WhopAPIBaseURL:   srv.URL,
		WhopAPIKey:       "api_key",
		WhopAppID:        "app_1",
		WhopJWTPublicKey: "dev-secret",
	}, zerolog.Nop())
}

func TestVerifyUserToken(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user_42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("dev-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	header := http.Header{}
	header.Set(UserTokenHeader, signed)
	userID, err := c.VerifyUserToken(header)
	if err != nil {
		t.Fatalf("VerifyUserToken() error = %v", err)
	}
	if userID != "user_42" {
		t.Errorf("userID = %q, want user_42", userID)
	}
}

func TestVerifyUserTokenMissingHeader(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	if _, err := c.VerifyUserToken(http.Header{}); err == nil {
		t.Fatal("VerifyUserToken() error = nil, want missing header error")
	}
}

func TestCheckCompanyAccess(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/app/users/user_1/access/biz_1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer api_key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"has_access":true,"access_level":"admin"}`))
	}))

	result, err := c.CheckCompanyAccess(context.Background(), "user_1", "biz_1")
	if err != nil {
		t.Fatalf("CheckCompanyAccess() error = %v", err)
	}
	if !result.HasAccess || result.AccessLevel != AccessAdmin {
		t.Errorf("result = %+v, want admin access", result)
	}
}

func TestCheckAccessNotFoundMeansNoAccess(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	result, err := c.CheckExperienceAccess(context.Background(), "user_1", "exp_1")
	if err != nil {
		t.Fatalf("CheckExperienceAccess() error = %v", err)
	}
	if result.HasAccess || result.AccessLevel != AccessNone {
		t.Errorf("result = %+v, want no access", result)
	}
}

func TestSendPushNotification(t *testing.T) {
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusCreated)
	}))

	err := c.SendPushNotification(context.Background(), PushNotification{
		Title:        "New poll launched!",
		Content:      "Pizza or tacos?",
		ExperienceID: "exp_1",
	})
	if err != nil {
		t.Fatalf("SendPushNotification() error = %v", err)
	}
	if gotPath != "/app/notifications" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestSendPushNotificationServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	err := c.SendPushNotification(context.Background(), PushNotification{ExperienceID: "exp_1"})
	if err == nil {
		t.Fatal("SendPushNotification() error = nil, want server error")
	}
}
