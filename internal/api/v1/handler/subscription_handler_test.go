package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"app/internal/api/v1/dto"
	"app/internal/model"

	"github.com/rs/zerolog"
)

type fakeUsageService struct {
	usage *model.PollUsage
	err   error
}

func (f *fakeUsageService) GetUsage(ctx context.Context, userID, companyID, experienceID string) (*model.PollUsage, error) {
	return f.usage, f.err
}

func (f *fakeUsageService) CanCreate(ctx context.Context, userID, companyID, experienceID string) (bool, error) {
	return f.usage != nil && f.usage.CanCreateMore, f.err
}

func (f *fakeUsageService) ActiveLimit(ctx context.Context, userID, companyID, experienceID string) (int, error) {
	return 3, f.err
}

func (f *fakeUsageService) Initialize(ctx context.Context, userID, companyID, experienceID string) error {
	return f.err
}

func newSubscriptionMux(usage *fakeUsageService) *http.ServeMux {
	h := NewSubscriptionHandler(usage, zerolog.Nop())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, stubAuth("user_1"))
	return mux
}

func TestGetUsageEndpoint(t *testing.T) {
	mux := newSubscriptionMux(&fakeUsageService{usage: &model.PollUsage{
		SubscriptionStatus: model.TierFree,
		TotalPollsCreated:  4,
		ActivePollsCount:   2,
		CanCreateMore:      true,
		MaxFreePolls:       3,
	}})

	req := httptest.NewRequest(http.MethodGet, "/user/subscription?userId=user_1&companyId=biz_1&experienceId=exp_1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp dto.UsageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.SubscriptionStatus != "free" || resp.ActivePollsCount != 2 || !resp.CanCreateMore {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGetUsageRejectsMismatchedUser(t *testing.T) {
	mux := newSubscriptionMux(&fakeUsageService{usage: &model.PollUsage{}})

	req := httptest.NewRequest(http.MethodGet, "/user/subscription?userId=user_2&companyId=biz_1&experienceId=exp_1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestGetUsageRequiresParams(t *testing.T) {
	mux := newSubscriptionMux(&fakeUsageService{usage: &model.PollUsage{}})

	req := httptest.NewRequest(http.MethodGet, "/user/subscription?userId=user_1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
