package quota

import (
	"context"
	"errors"
	"testing"
	"time"
)

type staticPlans struct {
	plan string
	err  error
}

func (s staticPlans) PlanForUser(ctx context.Context, userID string) (string, error) {
	return s.plan, s.err
}

func TestConsume_ProPlanUnmetered(t *testing.T) {
	store := NewStore(nil, staticPlans{plan: PlanPro}, 5)
	store.now = func() time.Time {
		return time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	}

	// Pro never touches the counter, so a nil client is fine here.
	dec, err := store.Consume(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if !dec.Allowed {
		t.Error("pro plan should always be allowed")
	}
	if dec.Limit != -1 {
		t.Errorf("limit = %d, want -1 for unmetered", dec.Limit)
	}
	want := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	if !dec.ResetsAt.Equal(want) {
		t.Errorf("resetsAt = %v, want %v", dec.ResetsAt, want)
	}
}

func TestConsume_PlanLookupError(t *testing.T) {
	boom := errors.New("db down")
	store := NewStore(nil, staticPlans{err: boom}, 5)

	if _, err := store.Consume(context.Background(), "user-1"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}

func TestUsageKey(t *testing.T) {
	at := time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)
	if got, want := usageKey("abc-123", at), "usage:abc-123:2025-12-31"; got != want {
		t.Errorf("usageKey = %q, want %q", got, want)
	}
}

func TestNextMidnight(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{
			name: "mid-day",
			at:   time.Date(2025, 6, 1, 13, 45, 0, 0, time.UTC),
			want: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "just before midnight",
			at:   time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC),
			want: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly midnight rolls to next day",
			at:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			want: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "month boundary",
			at:   time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC),
			want: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "year boundary",
			at:   time.Date(2025, 12, 31, 8, 0, 0, 0, time.UTC),
			want: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextMidnight(tt.at); !got.Equal(tt.want) {
				t.Errorf("nextMidnight(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}
