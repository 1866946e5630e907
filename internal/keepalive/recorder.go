package keepalive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dlemaire/pulse/internal/logger"
	redisstore "github.com/dlemaire/pulse/internal/store/redis"
	"github.com/dlemaire/pulse/internal/sysinfo"
)

// Retention policy for everything the recorder writes. Daily buckets outlive
// the 7-day dashboard window so Maintenance, not expiry, decides when they go.
const (
	MetricsTTL     = 30 * 24 * time.Hour
	DailyTTL       = 10 * 24 * time.Hour
	LifetimeTTL    = 30 * 24 * time.Hour
	ActivityLogTTL = 30 * 24 * time.Hour
	RecentTTL      = 7 * 24 * time.Hour
	SystemInfoTTL  = time.Hour

	RecentMax = 10
)

// timeLayout matches the historical stored format (RFC3339 with milliseconds).
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// dateLayout is the daily bucket format.
const dateLayout = "2006-01-02"

// Recorder timestamps activity and bumps the counter/log schema on every
// keepalive event. Each write group is attempted independently; partial
// failure degrades the report but never fails the run.
type Recorder struct {
	store  *redisstore.Store
	logger logger.Logger
	now    func() time.Time
}

// NewRecorder creates a recorder. now may be nil, in which case time.Now is
// used; tests inject a fixed clock to pin date-bucket boundaries.
func NewRecorder(store *redisstore.Store, log logger.Logger, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{store: store, logger: log, now: now}
}

// RecorderReport is the diagnostic payload of one recorder run.
type RecorderReport struct {
	Status     string        `json:"status"`
	Timestamp  string        `json:"timestamp"`
	Message    string        `json:"message,omitempty"`
	Operations OpTally       `json:"operations"`
	Writes     []OpResult    `json:"writes,omitempty"`
	Reads      *RecorderEcho `json:"reads,omitempty"`
}

// RecorderEcho is a small read-back included in the report so callers can see
// the effect of the run without a dashboard round trip.
type RecorderEcho struct {
	LastActivity     *string  `json:"last_activity"`
	TotalPings       int64    `json:"total_pings"`
	RecentActivities []string `json:"recent_activities"`
}

// activityEntry is the one-off JSON blob written per keepalive event.
type activityEntry struct {
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Source    string `json:"source"`
	Status    string `json:"status"`
}

// Run performs one keepalive recording pass. source names the trigger
// ("http", "ticker") and ends up in the activity log entry.
func (r *Recorder) Run(ctx context.Context, source string) *RecorderReport {
	now := r.now().UTC()
	timestamp := now.Format(timeLayout)
	date := now.Format(dateLayout)
	weekday := int(now.Weekday())

	// An unreachable store is the only fatal case; individual write failures
	// below are tolerated.
	if err := r.store.Ping(ctx); err != nil {
		r.logger.Error("recorder: store unreachable", logger.Error(err))
		return &RecorderReport{
			Status:    "error",
			Timestamp: timestamp,
			Message:   err.Error(),
		}
	}

	ops := []operation{
		{name: "metrics_snapshot", run: func(ctx context.Context) error {
			return errors.Join(
				r.store.SetWithTTL(ctx, redisstore.KeyLastActivity, timestamp, MetricsTTL),
				r.store.SetWithTTL(ctx, redisstore.KeyLastPingDate, date, MetricsTTL),
				r.store.SetWithTTL(ctx, redisstore.KeyServerStatus, "active", MetricsTTL),
			)
		}},
		{name: "daily_counter", run: func(ctx context.Context) error {
			// Cumulative bucket: a plain increment must not slide the expiry.
			_, err := r.store.IncrOrInit(ctx, redisstore.DailyPingsKey(date), DailyTTL, false)
			return err
		}},
		{name: "total_pings", run: func(ctx context.Context) error {
			_, err := r.store.IncrOrInit(ctx, redisstore.KeyTotalPings, LifetimeTTL, true)
			return err
		}},
		{name: "day_of_week", run: func(ctx context.Context) error {
			_, err := r.store.IncrOrInit(ctx, redisstore.DayStatsKey(weekday), LifetimeTTL, true)
			return err
		}},
		{name: "activity_log", run: func(ctx context.Context) error {
			entry, err := json.Marshal(activityEntry{
				Timestamp: timestamp,
				Type:      "keepalive",
				Source:    source,
				Status:    "success",
			})
			if err != nil {
				return fmt.Errorf("failed to marshal activity entry: %w", err)
			}
			return r.store.SetWithTTL(ctx, redisstore.ActivityLogKey(timestamp), entry, ActivityLogTTL)
		}},
		{name: "recent_activities", run: func(ctx context.Context) error {
			_, err := r.store.PushCapped(ctx, redisstore.KeyRecentActivities, timestamp, RecentMax, RecentTTL)
			return err
		}},
		{name: "system_info", run: func(ctx context.Context) error {
			snap, err := json.Marshal(sysinfo.Collect(now))
			if err != nil {
				return fmt.Errorf("failed to marshal system info: %w", err)
			}
			return r.store.SetWithTTL(ctx, redisstore.KeySystemInfo, snap, SystemInfoTTL)
		}},
	}

	results := settle(ctx, ops)
	t := tally(results)

	for _, res := range results {
		if !res.OK {
			r.logger.Warn("recorder: operation failed",
				logger.String("op", res.Name),
				logger.String("error", res.Error))
		}
	}
	r.logger.Info("keepalive recorded",
		logger.String("source", source),
		logger.Int("successful", t.Successful),
		logger.Int("failed", t.Failed))

	return &RecorderReport{
		Status:     "success",
		Timestamp:  timestamp,
		Operations: t,
		Writes:     results,
		Reads:      r.echo(ctx),
	}
}

// echo reads back a few headline values. Failures degrade to zero values; they
// are logged but never counted against the run.
func (r *Recorder) echo(ctx context.Context) *RecorderEcho {
	e := &RecorderEcho{}

	if v, ok, err := r.store.Get(ctx, redisstore.KeyLastActivity); err != nil {
		r.logger.Debug("recorder: echo read failed", logger.String("key", redisstore.KeyLastActivity), logger.Error(err))
	} else if ok {
		e.LastActivity = &v
	}

	if v, ok, err := r.store.Get(ctx, redisstore.KeyTotalPings); err != nil {
		r.logger.Debug("recorder: echo read failed", logger.String("key", redisstore.KeyTotalPings), logger.Error(err))
	} else if ok {
		e.TotalPings = parseCount(v)
	}

	if entries, err := r.store.Range(ctx, redisstore.KeyRecentActivities, 0, 4); err != nil {
		r.logger.Debug("recorder: echo read failed", logger.String("key", redisstore.KeyRecentActivities), logger.Error(err))
	} else {
		e.RecentActivities = entries
	}

	return e
}
