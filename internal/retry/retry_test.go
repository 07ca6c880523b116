package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func fastPolicy() *Policy {
	p := StorePolicy()
	p.InitialDelay = time.Millisecond
	p.MaxDelay = 2 * time.Millisecond
	return p
}

func TestDo_RetriesTransientErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	calls := 0
	perm := errors.New("no such table: api_calls")
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return perm
	})
	if !errors.Is(err, perm) || calls != 1 {
		t.Fatalf("err = %v, calls = %d", err, calls)
	}
}

func TestDo_GivesUp(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return errors.New("connection reset by peer")
	})
	if err == nil || !strings.Contains(err.Error(), "failed after 4 attempts") {
		t.Fatalf("err = %v", err)
	}
	if calls != 4 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestDo_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := fastPolicy()
	p.InitialDelay = time.Hour
	p.MaxDelay = time.Hour

	err := Do(ctx, p, func(context.Context) error {
		cancel()
		return errors.New("broken pipe")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}

	if p.transient(context.DeadlineExceeded) {
		t.Fatalf("deadline must not be retried")
	}
}

func TestPolicy_Delay(t *testing.T) {
	p := &Policy{InitialDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, BackoffFactor: 2}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond, 50 * time.Millisecond}
	for i, w := range want {
		if got := p.delay(i + 1); got != w {
			t.Fatalf("delay(%d) = %v, want %v", i+1, got, w)
		}
	}
}
