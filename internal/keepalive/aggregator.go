package keepalive

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dlemaire/pulse/internal/logger"
	redisstore "github.com/dlemaire/pulse/internal/store/redis"
)

// dayNames maps time.Weekday indexes (0 = Sunday) to dashboard labels.
var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// maintenanceLogPreview is how many maintenance log entries the dashboard shows.
const maintenanceLogPreview = 5

// Aggregator composes the dashboard from whatever state currently exists. It
// is a read-only consumer: any individual read that fails or finds nothing
// degrades to null/zero/"unknown" instead of failing the report.
type Aggregator struct {
	store  *redisstore.Store
	logger logger.Logger
	now    func() time.Time
}

// NewAggregator creates an aggregator. now may be nil (defaults to time.Now).
func NewAggregator(store *redisstore.Store, log logger.Logger, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{store: store, logger: log, now: now}
}

// Dashboard is the composed report.
type Dashboard struct {
	Timestamp        string           `json:"timestamp"`
	Database         DatabaseInfo     `json:"database"`
	Activity         ActivityInfo     `json:"activity"`
	RecentActivities []string         `json:"recent_activities"`
	Statistics       Statistics       `json:"statistics"`
	System           interface{}      `json:"system"`
	Maintenance      *MaintenanceInfo `json:"maintenance"`
	Health           Health           `json:"health"`
}

type DatabaseInfo struct {
	Size             *int64 `json:"size"`
	ConnectionStatus string `json:"connection_status"`
}

type ActivityInfo struct {
	TotalPings   int64       `json:"total_pings"`
	LastActivity interface{} `json:"last_activity"`
	LastPingDate interface{} `json:"last_ping_date"`
	ServerStatus interface{} `json:"server_status"`
}

// DailyCount is one entry of the 7-day series.
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type Statistics struct {
	DailyPingsLast7Days []DailyCount     `json:"daily_pings_last_7_days"`
	WeeklyDistribution  map[string]int64 `json:"weekly_distribution"`
	TotalDaysActive     int              `json:"total_days_active"`
}

type MaintenanceInfo struct {
	LastMaintenance  *string       `json:"last_maintenance"`
	MaintenanceCount int64         `json:"maintenance_count"`
	RecentLog        []interface{} `json:"recent_log"`
}

type Health struct {
	DatabaseResponsive      bool  `json:"database_responsive"`
	RecentActivityWithin24h bool  `json:"recent_activity_within_24h"`
	TotalOperationsToday    int64 `json:"total_operations_today"`
}

// Run reads the full key schema and shapes the dashboard. The only fatal case
// is an unreachable store; it surfaces as a returned error.
func (a *Aggregator) Run(ctx context.Context) (*Dashboard, error) {
	now := a.now().UTC()

	if err := a.store.Ping(ctx); err != nil {
		a.logger.Error("aggregator: store unreachable", logger.Error(err))
		return nil, fmt.Errorf("store unreachable: %w", err)
	}

	var (
		lastActivity, lastPingDate, serverStatus, totalPings, systemInfo *string
		recentActivities                                                 []string
		dbSize                                                           *int64
		maintStats                                                       map[string]string
		maintLog                                                         []string
		dayCounts                                                        [7]*string
		dailyCounts                                                      [7]*string
	)

	readString := func(key string, dst **string) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			v, ok, err := a.store.Get(ctx, key)
			if err != nil {
				return err
			}
			if ok {
				*dst = &v
			}
			return nil
		}
	}

	ops := []operation{
		{name: "last_activity", run: readString(redisstore.KeyLastActivity, &lastActivity)},
		{name: "last_ping_date", run: readString(redisstore.KeyLastPingDate, &lastPingDate)},
		{name: "server_status", run: readString(redisstore.KeyServerStatus, &serverStatus)},
		{name: "total_pings", run: readString(redisstore.KeyTotalPings, &totalPings)},
		{name: "system_info", run: readString(redisstore.KeySystemInfo, &systemInfo)},
		{name: "recent_activities", run: func(ctx context.Context) error {
			entries, err := a.store.Range(ctx, redisstore.KeyRecentActivities, 0, -1)
			if err != nil {
				return err
			}
			recentActivities = entries
			return nil
		}},
		{name: "db_size", run: func(ctx context.Context) error {
			n, err := a.store.KeyCount(ctx)
			if err != nil {
				return err
			}
			dbSize = &n
			return nil
		}},
		{name: "maintenance_stats", run: func(ctx context.Context) error {
			m, err := a.store.HashGetAll(ctx, redisstore.KeyMaintenanceStats)
			if err != nil {
				return err
			}
			maintStats = m
			return nil
		}},
		{name: "maintenance_log", run: func(ctx context.Context) error {
			entries, err := a.store.Range(ctx, redisstore.KeyMaintenanceLog, 0, maintenanceLogPreview-1)
			if err != nil {
				return err
			}
			maintLog = entries
			return nil
		}},
	}

	for i := 0; i < 7; i++ {
		ops = append(ops, operation{
			name: "day_stats_" + strconv.Itoa(i),
			run:  readString(redisstore.DayStatsKey(i), &dayCounts[i]),
		})
	}

	// i = 0 is today, i = 6 is six days back.
	for i := 0; i < 7; i++ {
		date := now.AddDate(0, 0, -i).Format(dateLayout)
		ops = append(ops, operation{
			name: "daily_pings_" + date,
			run:  readString(redisstore.DailyPingsKey(date), &dailyCounts[i]),
		})
	}

	results := settle(ctx, ops)
	for _, res := range results {
		if !res.OK {
			a.logger.Warn("aggregator: read failed, degrading",
				logger.String("op", res.Name),
				logger.String("error", res.Error))
		}
	}

	// Oldest first for presentation.
	daily := make([]DailyCount, 0, 7)
	for i := 6; i >= 0; i-- {
		daily = append(daily, DailyCount{
			Date:  now.AddDate(0, 0, -i).Format(dateLayout),
			Count: parseCountPtr(dailyCounts[i]),
		})
	}

	weekly := make(map[string]int64, 7)
	for i := 0; i < 7; i++ {
		weekly[dayNames[i]] = parseCountPtr(dayCounts[i])
	}

	daysActive := 0
	for _, d := range daily {
		if d.Count > 0 {
			daysActive++
		}
	}

	serverStatusValue := parseJSONValuePtr(serverStatus)
	if serverStatusValue == nil {
		serverStatusValue = "unknown"
	}

	if recentActivities == nil {
		recentActivities = []string{}
	}

	return &Dashboard{
		Timestamp: now.Format(timeLayout),
		Database: DatabaseInfo{
			Size:             dbSize,
			ConnectionStatus: "connected",
		},
		Activity: ActivityInfo{
			TotalPings:   parseCountPtr(totalPings),
			LastActivity: parseJSONValuePtr(lastActivity),
			LastPingDate: parseJSONValuePtr(lastPingDate),
			ServerStatus: serverStatusValue,
		},
		RecentActivities: recentActivities,
		Statistics: Statistics{
			DailyPingsLast7Days: daily,
			WeeklyDistribution:  weekly,
			TotalDaysActive:     daysActive,
		},
		System:      parseJSONValuePtr(systemInfo),
		Maintenance: shapeMaintenance(maintStats, maintLog),
		Health: Health{
			DatabaseResponsive:      dbSize != nil,
			RecentActivityWithin24h: withinLastDay(lastActivity, now),
			TotalOperationsToday:    daily[len(daily)-1].Count,
		},
	}, nil
}

func shapeMaintenance(stats map[string]string, log []string) *MaintenanceInfo {
	if len(stats) == 0 && len(log) == 0 {
		return nil
	}

	info := &MaintenanceInfo{RecentLog: make([]interface{}, 0, len(log))}
	if v, ok := stats[redisstore.FieldLastMaintenance]; ok {
		info.LastMaintenance = &v
	}
	info.MaintenanceCount = parseCount(stats[redisstore.FieldMaintenanceCount])
	for _, raw := range log {
		info.RecentLog = append(info.RecentLog, parseJSONValue(raw))
	}
	return info
}

// parseJSONValue opportunistically decodes a stored value: stored values are
// not guaranteed to be structured, so a parse failure keeps the raw string.
func parseJSONValue(raw string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

func parseJSONValuePtr(raw *string) interface{} {
	if raw == nil {
		return nil
	}
	return parseJSONValue(*raw)
}

// parseCount coerces a stored counter to an integer; missing or non-numeric
// values count as 0.
func parseCount(raw string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseCountPtr(raw *string) int64 {
	if raw == nil {
		return 0
	}
	return parseCount(*raw)
}

// withinLastDay reports whether the stored last-activity timestamp is within
// 24h of now. Missing or unparseable timestamps report false.
func withinLastDay(raw *string, now time.Time) bool {
	if raw == nil {
		return false
	}
	s := *raw
	if v, ok := parseJSONValue(s).(string); ok {
		s = v
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return false
		}
	}
	return now.Sub(t) < 24*time.Hour
}
