package scheduler

import (
	"context"
	"time"

	"github.com/dlemaire/pulse/internal/keepalive"
	"github.com/dlemaire/pulse/internal/logger"
)

// MaintenanceTicker runs retention cleanup on a fixed interval. An interval of
// 0 disables it (external cron drives POST /maintenance instead).
type MaintenanceTicker struct {
	maintenance *keepalive.Maintenance
	logger      logger.Logger
	interval    time.Duration
	stopCh      chan struct{}
}

// NewMaintenanceTicker creates a periodic maintenance trigger.
func NewMaintenanceTicker(m *keepalive.Maintenance, log logger.Logger, interval time.Duration) *MaintenanceTicker {
	return &MaintenanceTicker{
		maintenance: m,
		logger:      log,
		interval:    interval,
		stopCh:      make(chan struct{}),
	}
}

// Start begins periodic maintenance. Unlike the keepalive ticker there is no
// immediate first run: cleanup right after boot adds nothing, the first
// interval is soon enough.
func (m *MaintenanceTicker) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				report := m.maintenance.Run(ctx, "ticker")
				if report.Status != "success" {
					m.logger.Error("scheduled maintenance failed",
						logger.String("message", report.Message))
				}
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the ticker.
func (m *MaintenanceTicker) Stop() {
	close(m.stopCh)
}
