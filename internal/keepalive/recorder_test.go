package keepalive

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/dlemaire/pulse/internal/logger"
	redisstore "github.com/dlemaire/pulse/internal/store/redis"
	"github.com/dlemaire/pulse/internal/store/redis/redistest"
)

// sunday is a fixed epoch for deterministic date buckets (2024-03-10 was a Sunday).
var sunday = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testLogger() logger.Logger {
	return logger.New("error", false)
}

func TestRecorderRun(t *testing.T) {
	fake := redistest.New()
	store := redisstore.NewStore(fake)
	rec := NewRecorder(store, testLogger(), fixedClock(sunday))

	report := rec.Run(context.Background(), "http")

	if report.Status != "success" {
		t.Fatalf("status = %q, want success", report.Status)
	}
	if report.Operations.Total != 7 || report.Operations.Failed != 0 {
		t.Errorf("operations = %+v, want 7 total / 0 failed", report.Operations)
	}
	if report.Timestamp != "2024-03-10T00:00:00.000Z" {
		t.Errorf("timestamp = %q", report.Timestamp)
	}

	checks := []struct {
		key  string
		want string
	}{
		{"total_pings", "1"},
		{"stats:day_0", "1"}, // Sunday bucket
		{"daily_pings:2024-03-10", "1"},
		{"app_metrics:last_activity", "2024-03-10T00:00:00.000Z"},
		{"app_metrics:last_ping_date", "2024-03-10"},
		{"app_metrics:server_status", "active"},
	}
	for _, c := range checks {
		v, ok := fake.Value(c.key)
		if !ok {
			t.Errorf("key %s not written", c.key)
			continue
		}
		if v != c.want {
			t.Errorf("%s = %q, want %q", c.key, v, c.want)
		}
	}

	recent := fake.List("recent_activities")
	if len(recent) != 1 || recent[0] != "2024-03-10T00:00:00.000Z" {
		t.Errorf("recent_activities = %v", recent)
	}

	if _, ok := fake.Value("activity_log:2024-03-10T00:00:00.000Z"); !ok {
		t.Error("activity log entry not written")
	}
	if _, ok := fake.Value("system_info"); !ok {
		t.Error("system info not written")
	}

	if report.Reads == nil {
		t.Fatal("report has no echo reads")
	}
	if report.Reads.TotalPings != 1 {
		t.Errorf("echo total_pings = %d, want 1", report.Reads.TotalPings)
	}
	if report.Reads.LastActivity == nil || *report.Reads.LastActivity != "2024-03-10T00:00:00.000Z" {
		t.Errorf("echo last_activity = %v", report.Reads.LastActivity)
	}
}

func TestRecorderTTLPolicy(t *testing.T) {
	fake := redistest.New()
	store := redisstore.NewStore(fake)
	rec := NewRecorder(store, testLogger(), fixedClock(sunday))

	rec.Run(context.Background(), "http")

	if got := fake.TTL("daily_pings:2024-03-10"); got != DailyTTL {
		t.Errorf("daily TTL = %v, want %v", got, DailyTTL)
	}
	if got := fake.TTL("total_pings"); got != LifetimeTTL {
		t.Errorf("total_pings TTL = %v, want %v", got, LifetimeTTL)
	}
	if got := fake.TTL("recent_activities"); got != RecentTTL {
		t.Errorf("recent_activities TTL = %v, want %v", got, RecentTTL)
	}
	if got := fake.TTL("system_info"); got != SystemInfoTTL {
		t.Errorf("system_info TTL = %v, want %v", got, SystemInfoTTL)
	}
}

func TestRecorderConcurrent(t *testing.T) {
	fake := redistest.New()
	store := redisstore.NewStore(fake)
	rec := NewRecorder(store, testLogger(), fixedClock(sunday))

	const n = 25
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			rec.Run(context.Background(), "http")
		}()
	}
	wg.Wait()

	v, _ := fake.Value("total_pings")
	if got, _ := strconv.Atoi(v); got != n {
		t.Errorf("total_pings = %d after %d concurrent runs, want %d", got, n, n)
	}
	if got := len(fake.List("recent_activities")); got > 10 {
		t.Errorf("recent_activities length = %d, want <= 10", got)
	}
}

func TestRecorderRecentOrder(t *testing.T) {
	fake := redistest.New()
	store := redisstore.NewStore(fake)

	now := sunday
	rec := NewRecorder(store, testLogger(), func() time.Time { return now })

	for i := 0; i < 12; i++ {
		rec.Run(context.Background(), "http")
		now = now.Add(time.Minute)
	}

	recent := fake.List("recent_activities")
	if len(recent) != 10 {
		t.Fatalf("recent length = %d, want 10", len(recent))
	}
	// Strictly newest first.
	for i := 1; i < len(recent); i++ {
		if recent[i-1] <= recent[i] {
			t.Errorf("order violated at %d: %q <= %q", i, recent[i-1], recent[i])
		}
	}
	if recent[0] != "2024-03-10T00:11:00.000Z" {
		t.Errorf("recent[0] = %q", recent[0])
	}
}

func TestRecorderPartialFailure(t *testing.T) {
	fake := redistest.New()
	fake.FailEval(errors.New("script quota exceeded"))
	store := redisstore.NewStore(fake)
	rec := NewRecorder(store, testLogger(), fixedClock(sunday))

	report := rec.Run(context.Background(), "http")

	// Counters and the capped list go through scripts; the snapshot writes do not.
	if report.Status != "success" {
		t.Fatalf("status = %q, want success despite partial failure", report.Status)
	}
	if report.Operations.Failed != 4 {
		t.Errorf("failed = %d, want 4 (daily, total, weekday, recent)", report.Operations.Failed)
	}
	if report.Operations.Successful != 3 {
		t.Errorf("successful = %d, want 3", report.Operations.Successful)
	}
	if _, ok := fake.Value("app_metrics:server_status"); !ok {
		t.Error("snapshot write should have been attempted independently")
	}
}

func TestRecorderUnreachableStore(t *testing.T) {
	fake := redistest.New()
	fake.FailPing(errors.New("connection refused"))
	store := redisstore.NewStore(fake)
	rec := NewRecorder(store, testLogger(), fixedClock(sunday))

	report := rec.Run(context.Background(), "http")

	if report.Status != "error" {
		t.Fatalf("status = %q, want error", report.Status)
	}
	if report.Message == "" {
		t.Error("fatal report should carry the triggering message")
	}
	if report.Operations.Total != 0 {
		t.Errorf("no operations should have been attempted, got %+v", report.Operations)
	}
}
