package core

// scheduler.go evicts finished batches from memory.
//
// Batches are kept after an upload so clients can fetch results and failed
// rows. The janitor removes any batch that is not uploading and has not
// changed for longer than the retention period. It runs once on start, then
// every Interval, until the context is cancelled.

import (
	"context"
	"log/slog"
	"time"
)

// JanitorConfig configures batch eviction.
type JanitorConfig struct {
	Retention time.Duration // idle time before a batch is evicted (default: 1h)
	Interval  time.Duration // how often to sweep (default: 5m)
}

func (c JanitorConfig) withDefaults() JanitorConfig {
	if c.Retention <= 0 {
		c.Retention = time.Hour
	}
	if c.Interval <= 0 {
		c.Interval = 5 * time.Minute
	}
	return c
}

// StartJanitor runs the eviction loop. It blocks until ctx is cancelled.
func (s *Service) StartJanitor(ctx context.Context, cfg JanitorConfig) {
	cfg = cfg.withDefaults()
	slog.Info("batch janitor started",
		"retention", cfg.Retention.String(),
		"interval", cfg.Interval.String(),
	)

	s.sweep(time.Now(), cfg.Retention)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("batch janitor stopped")
			return
		case now := <-ticker.C:
			s.sweep(now, cfg.Retention)
		}
	}
}

// sweep removes stale batches and returns how many were evicted.
func (s *Service) sweep(now time.Time, retention time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, b := range s.batches {
		if b.Phase() == PhaseUploading {
			continue
		}
		if now.Sub(b.UpdatedAt()) < retention {
			continue
		}
		delete(s.batches, id)
		evicted++
	}

	if evicted > 0 {
		slog.Info("evicted stale batches", "evicted", evicted, "remaining", len(s.batches))
	}
	return evicted
}
