package keepalive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dlemaire/pulse/internal/logger"
	redisstore "github.com/dlemaire/pulse/internal/store/redis"
)

const (
	// BackupTTL bounds how long a maintenance backup snapshot is kept.
	BackupTTL = 7 * 24 * time.Hour
	// MaintenanceLogMax caps the maintenance run log.
	MaintenanceLogMax = 20
	// retentionDays is the dashboard display window; daily buckets older than
	// this are deleted explicitly so storage cannot grow even when TTLs slip.
	retentionDays = 7
)

// Maintenance performs retention cleanup and bookkeeping against the shared
// store. Same fan-out-and-tolerate pattern as the recorder.
type Maintenance struct {
	store  *redisstore.Store
	logger logger.Logger
	now    func() time.Time
}

// NewMaintenance creates a maintenance runner. now may be nil (defaults to time.Now).
func NewMaintenance(store *redisstore.Store, log logger.Logger, now func() time.Time) *Maintenance {
	if now == nil {
		now = time.Now
	}
	return &Maintenance{store: store, logger: log, now: now}
}

// MaintenanceReport summarizes one maintenance run.
type MaintenanceReport struct {
	Status       string            `json:"status"`
	Message      string            `json:"message"`
	Timestamp    string            `json:"timestamp"`
	Operations   OpTally           `json:"operations"`
	Results      []OpResult        `json:"results,omitempty"`
	Stats        map[string]string `json:"stats"`
	DatabaseSize *int64            `json:"database_size"`
}

// maintenanceEntry is one maintenance log record.
type maintenanceEntry struct {
	Timestamp       string `json:"timestamp"`
	Action          string `json:"action"`
	OperationsCount int    `json:"operations_count"`
}

// backupEntry is the timestamped backup snapshot blob.
type backupEntry struct {
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	CreatedBy string `json:"created_by"`
}

// Run performs one maintenance pass. Deleting already-gone stale keys is not
// an error, so back-to-back runs are safe.
func (m *Maintenance) Run(ctx context.Context, source string) *MaintenanceReport {
	now := m.now().UTC()
	timestamp := now.Format(timeLayout)

	if err := m.store.Ping(ctx); err != nil {
		m.logger.Error("maintenance: store unreachable", logger.Error(err))
		return &MaintenanceReport{
			Status:    "error",
			Message:   "Maintenance failed",
			Timestamp: timestamp,
		}
	}

	var ops []operation

	// Daily buckets for the 7 dates just outside the display window. TTL
	// should already have reaped them; the delete is the backstop.
	for i := 0; i < 7; i++ {
		date := now.AddDate(0, 0, -(retentionDays + i)).Format(dateLayout)
		key := redisstore.DailyPingsKey(date)
		ops = append(ops, operation{
			name: "purge_" + date,
			run: func(ctx context.Context) error {
				return m.store.Delete(ctx, key)
			},
		})
	}

	ops = append(ops,
		operation{name: "stats_timestamp", run: func(ctx context.Context) error {
			return m.store.HashSet(ctx, redisstore.KeyMaintenanceStats,
				redisstore.FieldLastMaintenance, timestamp)
		}},
		operation{name: "stats_counter", run: func(ctx context.Context) error {
			_, err := m.store.HashIncrBy(ctx, redisstore.KeyMaintenanceStats,
				redisstore.FieldMaintenanceCount, 1)
			return err
		}},
		operation{name: "backup", run: func(ctx context.Context) error {
			blob, err := json.Marshal(backupEntry{
				Timestamp: timestamp,
				Type:      "maintenance_backup",
				CreatedBy: source,
			})
			if err != nil {
				return fmt.Errorf("failed to marshal backup: %w", err)
			}
			return m.store.SetWithTTL(ctx, redisstore.BackupKey(timestamp), blob, BackupTTL)
		}},
		operation{name: "db_size_check", run: func(ctx context.Context) error {
			_, err := m.store.KeyCount(ctx)
			return err
		}},
	)

	entry, _ := json.Marshal(maintenanceEntry{
		Timestamp:       timestamp,
		Action:          "routine_maintenance",
		OperationsCount: len(ops) + 1,
	})
	ops = append(ops, operation{name: "maintenance_log", run: func(ctx context.Context) error {
		_, err := m.store.PushCapped(ctx, redisstore.KeyMaintenanceLog, string(entry), MaintenanceLogMax, 0)
		return err
	}})

	results := settle(ctx, ops)
	t := tally(results)

	for _, res := range results {
		if !res.OK {
			m.logger.Warn("maintenance: operation failed",
				logger.String("op", res.Name),
				logger.String("error", res.Error))
		}
	}

	report := &MaintenanceReport{
		Status:     "success",
		Message:    "Database maintenance completed",
		Timestamp:  timestamp,
		Operations: t,
		Results:    results,
	}

	// Final informational reads; a failure here is logged and the field stays
	// null, it is not a run failure.
	if stats, err := m.store.HashGetAll(ctx, redisstore.KeyMaintenanceStats); err != nil {
		m.logger.Warn("maintenance: could not read stats", logger.Error(err))
	} else if len(stats) > 0 {
		report.Stats = stats
	}
	if n, err := m.store.KeyCount(ctx); err != nil {
		m.logger.Warn("maintenance: could not read key count", logger.Error(err))
	} else {
		report.DatabaseSize = &n
	}

	m.logger.Info("maintenance completed",
		logger.String("source", source),
		logger.Int("successful", t.Successful),
		logger.Int("failed", t.Failed))

	return report
}
