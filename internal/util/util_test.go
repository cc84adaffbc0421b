package util

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	attempts := 0
	targetAttempts := 3

	err := Retry(context.Background(), 5, 0, func() error {
		attempts++
		if attempts < targetAttempts {
			return errors.New("transient error")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Retry returned unexpected error: %v", err)
	}
	if attempts != targetAttempts {
		t.Errorf("Retry called fn %d times, want %d", attempts, targetAttempts)
	}
}

func TestRetryAllFail(t *testing.T) {
	attempts := 0
	maxAttempts := 3

	err := Retry(context.Background(), maxAttempts, 0, func() error {
		attempts++
		return errors.New("persistent error")
	})

	if err == nil {
		t.Fatal("Retry should return error when all attempts fail")
	}
	if attempts != maxAttempts {
		t.Errorf("Retry called fn %d times, want %d", attempts, maxAttempts)
	}
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Hour, func() error {
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry error = %v, want context.Canceled", err)
	}
}

func TestRetryPermanent(t *testing.T) {
	attempts := 0
	notFound := errors.New("status 404")

	err := Retry(context.Background(), 5, time.Hour, func() error {
		attempts++
		return Permanent(notFound)
	})
	if err != notFound {
		t.Errorf("Retry error = %v, want the unwrapped permanent error", err)
	}
	if attempts != 1 {
		t.Errorf("Retry called fn %d times, want 1", attempts)
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(60, 3)
	now := rl.last

	for i := 0; i < 3; i++ {
		if wait := rl.reserve(now); wait != 0 {
			t.Fatalf("token %d: wait = %v, want 0", i, wait)
		}
	}
	if wait := rl.reserve(now); wait != time.Second {
		t.Errorf("empty bucket wait = %v, want 1s", wait)
	}
	// Half a second later half a token has accrued.
	if wait := rl.reserve(now.Add(500 * time.Millisecond)); wait != 500*time.Millisecond {
		t.Errorf("wait = %v, want 500ms", wait)
	}
}

func TestRateLimiterWait(t *testing.T) {
	rl := NewRateLimiter(60, 0)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	// The next token is a second away; a short deadline expires first.
	short, cancelShort := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelShort()
	if err := rl.Wait(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait error = %v, want DeadlineExceeded", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("info", "json", &buf).Info("hello", "k", "v")
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("json output = %q", buf.String())
	}

	buf.Reset()
	NewLogger("info", "text", &buf).Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("text output = %q", buf.String())
	}

	buf.Reset()
	NewLogger("warn", "text", &buf).Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info record should be filtered at warn level, got %q", buf.String())
	}
}

func TestLatestFinishedTradingDay(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	cal := NewTradingCalendar(ist, 15, 30)

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		// Wednesday after close → same day.
		{"after close", time.Date(2024, 6, 12, 16, 0, 0, 0, ist), "2024-06-12"},
		// Wednesday before close → Tuesday.
		{"before close", time.Date(2024, 6, 12, 10, 0, 0, 0, ist), "2024-06-11"},
		// Monday morning → previous Friday.
		{"monday morning", time.Date(2024, 6, 10, 9, 0, 0, 0, ist), "2024-06-07"},
		// Sunday → Friday.
		{"sunday", time.Date(2024, 6, 9, 18, 0, 0, 0, ist), "2024-06-07"},
	}
	for _, tt := range tests {
		got := cal.LatestFinishedTradingDay(tt.now).Format("2006-01-02")
		if got != tt.want {
			t.Errorf("%s: LatestFinishedTradingDay = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestIsTradingDay(t *testing.T) {
	cal := NewTradingCalendar(time.UTC, 16, 0)
	if cal.IsTradingDay(time.Date(2024, 6, 8, 12, 0, 0, 0, time.UTC)) {
		t.Error("Saturday should not be a trading day")
	}
	if !cal.IsTradingDay(time.Date(2024, 6, 7, 12, 0, 0, 0, time.UTC)) {
		t.Error("Friday should be a trading day")
	}
}
