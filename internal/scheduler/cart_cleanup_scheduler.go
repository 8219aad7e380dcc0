package scheduler

import (
	"time"

	"github.com/ikkim/vibe-storefront/pkg/logger"
	"github.com/robfig/cron/v3"
)

// IdleItemPurger removes cart lines untouched for longer than ttl.
type IdleItemPurger interface {
	PurgeIdleItems(ttl time.Duration) (int64, error)
}

// CartCleanupScheduler periodically drops abandoned cart lines.
type CartCleanupScheduler struct {
	cron     *cron.Cron
	purger   IdleItemPurger
	schedule string
	ttl      time.Duration
}

func NewCartCleanupScheduler(purger IdleItemPurger, schedule string, ttl time.Duration) *CartCleanupScheduler {
	return &CartCleanupScheduler{
		cron:     cron.New(),
		purger:   purger,
		schedule: schedule,
		ttl:      ttl,
	}
}

// Start registers the cleanup job and starts the scheduler
func (s *CartCleanupScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.RunOnce); err != nil {
		logger.Error("Failed to add cron job for cart cleanup", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Cart cleanup scheduler started", map[string]interface{}{
		"schedule": s.schedule,
		"ttl":      s.ttl.String(),
	})
	return nil
}

// RunOnce purges idle lines now.
func (s *CartCleanupScheduler) RunOnce() {
	logger.Info("Starting scheduled cart cleanup", nil)

	removed, err := s.purger.PurgeIdleItems(s.ttl)
	if err != nil {
		logger.Error("Failed to purge idle cart items", err)
		return
	}

	logger.Info("Cart cleanup finished", map[string]interface{}{
		"removed": removed,
	})
}

// Stop waits for a running job to finish
func (s *CartCleanupScheduler) Stop() {
	logger.Info("Stopping cart cleanup scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Cart cleanup scheduler stopped", nil)
}
