// Package quota enforces per-user daily fact-check limits on top of Redis.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PlanFree is metered by the daily limit; PlanPro is unmetered.
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// Decision is the outcome of a consumption attempt.
type Decision struct {
	Allowed  bool
	Plan     string
	Used     int
	Limit    int
	ResetsAt time.Time
}

// PlanLookup resolves a user's billing plan.
type PlanLookup interface {
	PlanForUser(ctx context.Context, userID string) (string, error)
}

// Store tracks daily usage counters. Counters are keyed per user per UTC day
// and expire at the next UTC midnight, so a restart never extends or shortens
// anyone's window.
type Store struct {
	rdb       *redis.Client
	plans     PlanLookup
	freeLimit int
	now       func() time.Time
}

// NewStore creates a new quota store
func NewStore(rdb *redis.Client, plans PlanLookup, freeLimit int) *Store {
	return &Store{
		rdb:       rdb,
		plans:     plans,
		freeLimit: freeLimit,
		now:       time.Now,
	}
}

// Consume attempts to use one fact-check for the user. The counter is
// incremented first and rolled back on denial, so concurrent requests cannot
// both slip under the limit.
func (s *Store) Consume(ctx context.Context, userID string) (Decision, error) {
	plan, err := s.plans.PlanForUser(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("lookup plan: %w", err)
	}

	now := s.now().UTC()
	reset := nextMidnight(now)

	if plan == PlanPro {
		return Decision{Allowed: true, Plan: plan, Limit: -1, ResetsAt: reset}, nil
	}

	key := usageKey(userID, now)
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("increment usage: %w", err)
	}
	if n == 1 {
		if err := s.rdb.ExpireAt(ctx, key, reset).Err(); err != nil {
			return Decision{}, fmt.Errorf("set usage expiry: %w", err)
		}
	}

	if int(n) > s.freeLimit {
		if err := s.rdb.Decr(ctx, key).Err(); err != nil {
			return Decision{}, fmt.Errorf("roll back usage: %w", err)
		}
		return Decision{
			Allowed:  false,
			Plan:     plan,
			Used:     s.freeLimit,
			Limit:    s.freeLimit,
			ResetsAt: reset,
		}, nil
	}

	return Decision{
		Allowed:  true,
		Plan:     plan,
		Used:     int(n),
		Limit:    s.freeLimit,
		ResetsAt: reset,
	}, nil
}

// Usage reports current consumption without spending anything.
func (s *Store) Usage(ctx context.Context, userID string) (Decision, error) {
	plan, err := s.plans.PlanForUser(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("lookup plan: %w", err)
	}

	now := s.now().UTC()
	reset := nextMidnight(now)

	if plan == PlanPro {
		return Decision{Allowed: true, Plan: plan, Limit: -1, ResetsAt: reset}, nil
	}

	n, err := s.rdb.Get(ctx, usageKey(userID, now)).Int()
	if err != nil && err != redis.Nil {
		return Decision{}, fmt.Errorf("read usage: %w", err)
	}

	return Decision{
		Allowed:  n < s.freeLimit,
		Plan:     plan,
		Used:     n,
		Limit:    s.freeLimit,
		ResetsAt: reset,
	}, nil
}

func usageKey(userID string, t time.Time) string {
	return fmt.Sprintf("usage:%s:%s", userID, t.Format("2006-01-02"))
}

func nextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}
