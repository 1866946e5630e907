package redis

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/dlemaire/pulse/internal/store/redis/redistest"
)

func TestKeyBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"daily pings", DailyPingsKey("2024-03-10"), "daily_pings:2024-03-10"},
		{"day stats sunday", DayStatsKey(0), "stats:day_0"},
		{"day stats saturday", DayStatsKey(6), "stats:day_6"},
		{"activity log", ActivityLogKey("2024-03-10T00:00:00.000Z"), "activity_log:2024-03-10T00:00:00.000Z"},
		{"backup", BackupKey("2024-03-10T00:00:00.000Z"), "backup:2024-03-10T00:00:00.000Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestIncrOrInit(t *testing.T) {
	ctx := context.Background()
	fake := redistest.New()
	store := NewStore(fake)

	n, err := store.IncrOrInit(ctx, "counter", 10*24*time.Hour, false)
	if err != nil {
		t.Fatalf("IncrOrInit failed: %v", err)
	}
	if n != 1 {
		t.Errorf("first increment = %d, want 1", n)
	}
	if got := fake.TTL("counter"); got != 10*24*time.Hour {
		t.Errorf("TTL after create = %v, want 240h", got)
	}

	n, err = store.IncrOrInit(ctx, "counter", 10*24*time.Hour, false)
	if err != nil {
		t.Fatalf("IncrOrInit failed: %v", err)
	}
	if n != 2 {
		t.Errorf("second increment = %d, want 2", n)
	}
}

func TestIncrOrInitTTLPolicy(t *testing.T) {
	tests := []struct {
		name    string
		refresh bool
		wantTTL time.Duration
	}{
		// Cumulative bucket: the second increment must not slide the expiry.
		{"no refresh keeps original TTL", false, 10 * time.Hour},
		{"refresh renews TTL", true, 99 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			fake := redistest.New()
			store := NewStore(fake)

			if _, err := store.IncrOrInit(ctx, "counter", 10*time.Hour, tt.refresh); err != nil {
				t.Fatalf("IncrOrInit failed: %v", err)
			}
			if _, err := store.IncrOrInit(ctx, "counter", 99*time.Hour, tt.refresh); err != nil {
				t.Fatalf("IncrOrInit failed: %v", err)
			}

			if got := fake.TTL("counter"); got != tt.wantTTL {
				t.Errorf("TTL = %v, want %v", got, tt.wantTTL)
			}
		})
	}
}

func TestIncrOrInitConcurrent(t *testing.T) {
	ctx := context.Background()
	fake := redistest.New()
	store := NewStore(fake)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := store.IncrOrInit(ctx, "counter", time.Hour, true); err != nil {
				t.Errorf("IncrOrInit failed: %v", err)
			}
		}()
	}
	wg.Wait()

	v, ok := fake.Value("counter")
	if !ok {
		t.Fatal("counter not created")
	}
	if got, _ := strconv.Atoi(v); got != n {
		t.Errorf("counter = %d after %d concurrent increments, want %d", got, n, n)
	}
}

func TestPushCapped(t *testing.T) {
	ctx := context.Background()
	fake := redistest.New()
	store := NewStore(fake)

	for i := 0; i < 15; i++ {
		entries, err := store.PushCapped(ctx, "list", "entry-"+strconv.Itoa(i), 10, time.Hour)
		if err != nil {
			t.Fatalf("PushCapped failed: %v", err)
		}
		if len(entries) > 10 {
			t.Fatalf("list length %d exceeds cap after push %d", len(entries), i)
		}
	}

	entries, err := store.Range(ctx, "list", 0, -1)
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if len(entries) != 10 {
		t.Fatalf("final list length = %d, want 10", len(entries))
	}
	// Newest first: last pushed entry leads.
	if entries[0] != "entry-14" {
		t.Errorf("entries[0] = %q, want entry-14", entries[0])
	}
	if entries[9] != "entry-5" {
		t.Errorf("entries[9] = %q, want entry-5", entries[9])
	}
	if got := fake.TTL("list"); got != time.Hour {
		t.Errorf("list TTL = %v, want 1h", got)
	}
}

func TestPushCappedConcurrent(t *testing.T) {
	ctx := context.Background()
	fake := redistest.New()
	store := NewStore(fake)

	const n = 40
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			if _, err := store.PushCapped(ctx, "list", "entry-"+strconv.Itoa(i), 10, 0); err != nil {
				t.Errorf("PushCapped failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	entries := fake.List("list")
	if len(entries) != 10 {
		t.Errorf("list length = %d after %d concurrent pushes, want 10", len(entries), n)
	}
}

func TestGetAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(redistest.New())

	v, ok, err := store.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Errorf("Get(missing) ok = true, want false (value %q)", v)
	}
}

func TestDeleteAbsentKeyIsNotAnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore(redistest.New())

	if err := store.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("Delete of absent key failed: %v", err)
	}
}

func TestHashIncrBy(t *testing.T) {
	ctx := context.Background()
	store := NewStore(redistest.New())

	for want := int64(1); want <= 3; want++ {
		n, err := store.HashIncrBy(ctx, "h", "count", 1)
		if err != nil {
			t.Fatalf("HashIncrBy failed: %v", err)
		}
		if n != want {
			t.Errorf("HashIncrBy = %d, want %d", n, want)
		}
	}

	m, err := store.HashGetAll(ctx, "h")
	if err != nil {
		t.Fatalf("HashGetAll failed: %v", err)
	}
	if m["count"] != "3" {
		t.Errorf(`hash field count = %q, want "3"`, m["count"])
	}
}
