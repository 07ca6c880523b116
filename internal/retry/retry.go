package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/loykin/discourseapi/internal/common"
)

// Policy controls how a failed store write is retried. It is never applied
// to forum API calls; those are executed exactly once.
type Policy struct {
	MaxRetries    int           // attempts after the first one
	InitialDelay  time.Duration // delay before the first retry
	MaxDelay      time.Duration // upper bound for any delay
	BackoffFactor float64       // multiplier per retry
	// Transient lists lower-case error fragments worth another attempt.
	Transient []string
}

// StorePolicy is the default for call history writes: busy SQLite files and
// dropped Postgres connections.
func StorePolicy() *Policy {
	return &Policy{
		MaxRetries:    3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
		Transient: []string{
			"database is locked",
			"sqlite_busy",
			"connection refused",
			"connection reset",
			"broken pipe",
			"deadlock",
			"bad connection",
		},
	}
}

func (p *Policy) transient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range p.Transient {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

// delay returns the wait before retry n (1-based).
func (p *Policy) delay(n int) time.Duration {
	if n <= 1 {
		return p.InitialDelay
	}
	d := time.Duration(float64(p.InitialDelay) * math.Pow(p.BackoffFactor, float64(n-1)))
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Do runs op until it succeeds, fails with a non-transient error, the
// retries are used up or ctx is done. A nil policy means StorePolicy.
func Do(ctx context.Context, p *Policy, op func(ctx context.Context) error) error {
	if p == nil {
		p = StorePolicy()
	}
	logger := common.GetLogger().WithComponent("store-retry")

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			d := p.delay(attempt)
			logger.Warn("store write failed, retrying", "error", lastErr, "attempt", attempt, "retry_delay", d)
			select {
			case <-ctx.Done():
				return fmt.Errorf("cancelled during retry: %w", ctx.Err())
			case <-time.After(d):
			}
		}
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !p.transient(err) {
			return err
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", p.MaxRetries+1, lastErr)
}
