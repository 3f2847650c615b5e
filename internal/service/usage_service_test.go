package service

import (
	"context"
	"testing"

	"app/internal/model"

	"github.com/rs/zerolog"
)

func TestGetUsageDefaultsToFreeTier(t *testing.T) {
	repo := newFakePollRepo()
	repo.totalCount = 5
	repo.activeCount = 2
	svc := NewUsageService(repo, newFakeSubRepo(), 3, zerolog.Nop())

	usage, err := svc.GetUsage(context.Background(), "user_1", "biz_1", "exp_1")
	if err != nil {
		t.Fatalf("GetUsage() error = %v", err)
	}
	if usage.SubscriptionStatus != model.TierFree {
		t.Errorf("SubscriptionStatus = %q, want %q", usage.SubscriptionStatus, model.TierFree)
	}
	if usage.TotalPollsCreated != 5 || usage.ActivePollsCount != 2 {
		t.Errorf("counts = %d/%d, want 5/2", usage.TotalPollsCreated, usage.ActivePollsCount)
	}
	if !usage.CanCreateMore {
		t.Error("CanCreateMore = false with 2 of 3 active polls")
	}
	if usage.MaxFreePolls != 3 {
		t.Errorf("MaxFreePolls = %d, want 3", usage.MaxFreePolls)
	}
}

func TestGetUsageFreeTierAtLimit(t *testing.T) {
	repo := newFakePollRepo()
	repo.activeCount = 3
	svc := NewUsageService(repo, newFakeSubRepo(), 3, zerolog.Nop())

	usage, err := svc.GetUsage(context.Background(), "user_1", "biz_1", "exp_1")
	if err != nil {
		t.Fatalf("GetUsage() error = %v", err)
	}
	if usage.CanCreateMore {
		t.Error("CanCreateMore = true at the free-tier limit")
	}
}

func TestGetUsageProTierUnlimited(t *testing.T) {
	repo := newFakePollRepo()
	repo.activeCount = 50
	subs := newFakeSubRepo()
	subs.subs[subKey("user_1", "biz_1", "exp_1")] = &model.UserSubscription{Status: model.TierPro}
	svc := NewUsageService(repo, subs, 3, zerolog.Nop())

	usage, err := svc.GetUsage(context.Background(), "user_1", "biz_1", "exp_1")
	if err != nil {
		t.Fatalf("GetUsage() error = %v", err)
	}
	if !usage.CanCreateMore {
		t.Error("CanCreateMore = false for pro tier")
	}
}

func TestActiveLimit(t *testing.T) {
	subs := newFakeSubRepo()
	subs.subs[subKey("pro", "biz_1", "exp_1")] = &model.UserSubscription{Status: model.TierPro}
	subs.subs[subKey("cancelled", "biz_1", "exp_1")] = &model.UserSubscription{Status: model.TierCancelled}
	svc := NewUsageService(newFakePollRepo(), subs, 3, zerolog.Nop())

	tests := []struct {
		userID string
		want   int
	}{
		{"pro", 0},       // unlimited
		{"free", 3},      // no row yet
		{"cancelled", 3}, // back to the free limit
	}
	for _, tt := range tests {
		got, err := svc.ActiveLimit(context.Background(), tt.userID, "biz_1", "exp_1")
		if err != nil {
			t.Fatalf("ActiveLimit(%s) error = %v", tt.userID, err)
		}
		if got != tt.want {
			t.Errorf("ActiveLimit(%s) = %d, want %d", tt.userID, got, tt.want)
		}
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	subs := newFakeSubRepo()
	subs.subs[subKey("user_1", "biz_1", "exp_1")] = &model.UserSubscription{Status: model.TierPro}
	svc := NewUsageService(newFakePollRepo(), subs, 3, zerolog.Nop())

	if err := svc.Initialize(context.Background(), "user_1", "biz_1", "exp_1"); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	// An existing pro row must not be downgraded.
	if got := subs.subs[subKey("user_1", "biz_1", "exp_1")].Status; got != model.TierPro {
		t.Errorf("Status after Initialize = %q, want %q", got, model.TierPro)
	}
}
