package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result := Do(context.Background(), DefaultConfig(), func() error {
		calls++
		return nil
	})

	if result.Err != nil {
		t.Errorf("unexpected error: %v", result.Err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	config := Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Factor: 1}
	result := Do(context.Background(), config, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if result.Err != nil {
		t.Errorf("unexpected error: %v", result.Err)
	}
	if result.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", result.Attempts)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	config := Config{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Factor: 1}
	result := Do(context.Background(), config, func() error {
		return errors.New("still failing")
	})

	if result.Err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if result.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", result.Attempts)
	}
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	config := Config{MaxAttempts: 5, InitialDelay: time.Millisecond}
	result := Do(context.Background(), config, func() error {
		calls++
		return Permanent(errors.New("bad request"))
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !IsPermanent(result.Err) {
		t.Error("expected permanent error")
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Do(ctx, DefaultConfig(), func() error {
		t.Fatal("op should not run after cancellation")
		return nil
	})

	if !errors.Is(result.Err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", result.Err)
	}
}

func TestDoWithValue(t *testing.T) {
	config := Config{MaxAttempts: 2, InitialDelay: time.Millisecond}
	calls := 0
	value, result := DoWithValue(context.Background(), config, func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	if result.Err != nil {
		t.Errorf("unexpected error: %v", result.Err)
	}
	if value != "ok" {
		t.Errorf("value = %q, want ok", value)
	}
}

func TestBackoff_Growth(t *testing.T) {
	first := Backoff(1, time.Second, time.Minute, 2)
	second := Backoff(2, time.Second, time.Minute, 2)
	capped := Backoff(20, time.Second, time.Minute, 2)

	if first != time.Second {
		t.Errorf("attempt 1 = %v, want 1s", first)
	}
	if second != 2*time.Second {
		t.Errorf("attempt 2 = %v, want 2s", second)
	}
	if capped != time.Minute {
		t.Errorf("attempt 20 = %v, want capped at 1m", capped)
	}
}

type hintedErr struct {
	delay time.Duration
}

func (e *hintedErr) Error() string                    { return "rate limited" }
func (e *hintedErr) RetryAfter() (time.Duration, bool) { return e.delay, e.delay > 0 }

func TestHintedDelay_Interface(t *testing.T) {
	d, ok := HintedDelay(&hintedErr{delay: 9 * time.Second})
	if !ok || d != 9*time.Second {
		t.Errorf("HintedDelay = %v, %v; want 9s, true", d, ok)
	}
}

func TestHintedDelay_TextPatterns(t *testing.T) {
	cases := []struct {
		name string
		text string
		want time.Duration
	}{
		{"gemini retryDelay", `rpc error: code = ResourceExhausted desc = quota exceeded, "retryDelay": "12s"`, 12 * time.Second},
		{"please retry in", "429 rate limit exceeded, please retry in 7.5s", 7500 * time.Millisecond},
		{"retry-after header", "too many requests; retry-after: 30", 30 * time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, ok := HintedDelay(errors.New(tc.text))
			if !ok {
				t.Fatal("expected a hint")
			}
			if d != tc.want {
				t.Errorf("delay = %v, want %v", d, tc.want)
			}
		})
	}
}

func TestHintedDelay_NoHint(t *testing.T) {
	if _, ok := HintedDelay(errors.New("plain failure")); ok {
		t.Error("expected no hint")
	}
	if _, ok := HintedDelay(nil); ok {
		t.Error("expected no hint for nil")
	}
}

func TestHintedDelay_Clamped(t *testing.T) {
	d, ok := HintedDelay(errors.New("retry in 9000s"))
	if !ok {
		t.Fatal("expected a hint")
	}
	if d != maxHintedDelay {
		t.Errorf("delay = %v, want clamp at %v", d, maxHintedDelay)
	}
}

func TestDo_UsesHintedDelay(t *testing.T) {
	calls := 0
	start := time.Now()
	config := Config{MaxAttempts: 2, InitialDelay: time.Hour, MaxDelay: time.Hour}
	Do(context.Background(), config, func() error {
		calls++
		return errors.New("retry in 0.01s")
	})

	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("hinted delay ignored; slept %v", elapsed)
	}
}
