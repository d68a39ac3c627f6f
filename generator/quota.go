package generator

import (
	"context"
	"sync"
	"time"

	"github.com/NataTusia/Haah-and-Cash/config"
)

// QuotaLimiter applies per-minute pacing and a daily cap to LLM calls.
// Counters live in memory and reset on restart.
type QuotaLimiter struct {
	mu sync.Mutex

	dailyLimit int
	usedToday  int
	dayKey     string

	interval time.Duration
	lastCall time.Time

	// loc decides where a day starts; it matches the draft schedule.
	loc *time.Location
	now func() time.Time
}

// NewQuotaLimiterFromConfig builds a limiter from generation_quota. Values <= 0 disable that limit.
// The daily cap resets at midnight in loc (UTC when nil).
func NewQuotaLimiterFromConfig(q config.QuotaConfig, loc *time.Location) *QuotaLimiter {
	if loc == nil {
		loc = time.UTC
	}
	requestsPerDay := q.RequestsPerDay
	if requestsPerDay < 0 {
		requestsPerDay = 0
	}

	var interval time.Duration
	if q.RequestsPerMinute > 0 {
		interval = time.Minute / time.Duration(q.RequestsPerMinute)
	}

	return &QuotaLimiter{
		dailyLimit: requestsPerDay,
		interval:   interval,
		loc:        loc,
		now:        time.Now,
	}
}

// WaitAndReserve blocks until the next call is allowed.
// It returns (false, nil) when today's cap is used up and the caller must skip the call.
func (l *QuotaLimiter) WaitAndReserve(ctx context.Context) (bool, error) {
	for {
		l.mu.Lock()

		now := l.now().In(l.loc)
		todayKey := now.Format("2006-01-02")
		if l.dayKey != todayKey {
			l.dayKey = todayKey
			l.usedToday = 0
		}

		if l.dailyLimit > 0 && l.usedToday >= l.dailyLimit {
			l.mu.Unlock()
			return false, nil
		}

		var delay time.Duration
		if l.interval > 0 && !l.lastCall.IsZero() {
			delay = l.lastCall.Add(l.interval).Sub(now)
		}

		if delay <= 0 {
			l.usedToday++
			l.lastCall = now
			l.mu.Unlock()
			return true, nil
		}

		l.mu.Unlock()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}
