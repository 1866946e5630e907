package scheduler

import (
	"context"
	"time"

	"github.com/dlemaire/pulse/internal/keepalive"
	"github.com/dlemaire/pulse/internal/logger"
)

// KeepaliveTicker drives the recorder on a fixed interval for deployments
// without an external cron. An interval of 0 disables it entirely.
type KeepaliveTicker struct {
	recorder *keepalive.Recorder
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewKeepaliveTicker creates a periodic recorder trigger.
func NewKeepaliveTicker(rec *keepalive.Recorder, log logger.Logger, interval time.Duration) *KeepaliveTicker {
	return &KeepaliveTicker{
		recorder: rec,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic keepalive recording. The first run happens
// immediately so a fresh deployment registers activity without waiting a full
// interval.
func (k *KeepaliveTicker) Start(ctx context.Context) error {
	k.run(ctx)

	ticker := time.NewTicker(k.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				k.run(ctx)
			case <-k.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the ticker.
func (k *KeepaliveTicker) Stop() {
	close(k.stopCh)
}

func (k *KeepaliveTicker) run(ctx context.Context) {
	report := k.recorder.Run(ctx, "ticker")
	if report.Status != "success" {
		k.logger.Error("scheduled keepalive failed",
			logger.String("message", report.Message))
	}
}
