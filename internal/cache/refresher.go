package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Refresher reloads the cache on a fixed interval while a server or recognition loop runs.
type Refresher struct {
	cache     *Cache
	tenantID  string
	interval  time.Duration
	scheduler *gocron.Scheduler
	logger    *slog.Logger
}

// NewRefresher creates a refresher for one tenant, or for all tenants when tenantID is empty.
func NewRefresher(c *Cache, tenantID string, interval time.Duration, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		cache:     c,
		tenantID:  tenantID,
		interval:  interval,
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger,
	}
}

// Start schedules the periodic refresh. The first run happens after one interval.
func (r *Refresher) Start() error {
	if r.interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %v", r.interval)
	}
	_, err := r.scheduler.Every(r.interval).SingletonMode().WaitForSchedule().Do(r.refresh)
	if err != nil {
		return fmt.Errorf("schedule cache refresh: %w", err)
	}
	r.scheduler.StartAsync()
	r.logger.Debug("cache refresher started", "interval", r.interval, "tenant", r.tenantID)
	return nil
}

// Stop stops the scheduler. A refresh in progress is allowed to finish.
func (r *Refresher) Stop() {
	r.scheduler.Stop()
}

func (r *Refresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()
	if err := r.cache.Refresh(ctx, r.tenantID); err != nil {
		r.logger.Error("periodic cache refresh failed", "error", err)
	}
}
