package model

import (
	"testing"
	"time"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestStatusAt(t *testing.T) {
	now := ts("2026-06-01T12:00:00Z")
	past := ts("2026-06-01T11:00:00Z")
	future := ts("2026-06-01T13:00:00Z")
	farFuture := ts("2026-06-02T12:00:00Z")

	tests := []struct {
		name        string
		scheduledAt *time.Time
		expiresAt   time.Time
		want        PollStatus
	}{
		{"no schedule, future expiry", nil, future, StatusActive},
		{"no schedule, past expiry", nil, past, StatusExpired},
		{"schedule in future", &future, farFuture, StatusScheduled},
		{"schedule in past", &past, future, StatusActive},
		{"schedule equal to now", &now, future, StatusActive},
		{"expiry equal to now", nil, now, StatusExpired},
		{"expired wins over pending schedule", &future, past, StatusExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StatusAt(tt.scheduledAt, tt.expiresAt, now)
			if got != tt.want {
				t.Errorf("StatusAt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusNowIgnoresStoredStatus(t *testing.T) {
	now := ts("2026-06-01T12:00:00Z")
	p := Poll{
		Status:    StatusActive, // stale cached value
		ExpiresAt: ts("2026-06-01T11:00:00Z"),
	}
	if got := p.StatusNow(now); got != StatusExpired {
		t.Errorf("StatusNow() = %q, want %q", got, StatusExpired)
	}
}
