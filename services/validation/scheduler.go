package validation

import (
	"context"
	"time"

	"eps-campanhas/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Scheduler struct {
	service *Service
	cfg     *config.Config
	loc     *time.Location
	cancel  context.CancelFunc
}

func NewScheduler(svc *Service, cfg *config.Config) *Scheduler {
	loc := time.UTC
	if cfg.Scheduler.Timezone != "" {
		parsed, err := time.LoadLocation(cfg.Scheduler.Timezone)
		if err != nil {
			zap.L().Warn("invalid scheduler timezone, falling back to UTC",
				zap.String("timezone", cfg.Scheduler.Timezone),
				zap.Error(err),
			)
		} else {
			loc = parsed
		}
	}
	return &Scheduler{service: svc, cfg: cfg, loc: loc}
}

// StartScheduler registers the daily loop on the fx lifecycle.
func StartScheduler(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			runCtx, cancel := context.WithCancel(context.Background())
			s.cancel = cancel
			go s.run(runCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if s.cancel != nil {
				s.cancel()
			}
			return nil
		},
	})
}

func (s *Scheduler) run(ctx context.Context) {
	zap.L().Info("campaign expiry scheduler started")

	for {
		now := time.Now().In(s.loc)
		next := nextRunTime(now, s.cfg.Scheduler.ExpiryHour, s.cfg.Scheduler.ExpiryMinute)

		zap.L().Info("next expiry sweep scheduled",
			zap.Time("next_run", next),
			zap.Duration("sleep_for", next.Sub(now)),
		)

		select {
		case <-time.After(next.Sub(now)):
			s.runDaily(ctx)
		case <-ctx.Done():
			zap.L().Info("campaign expiry scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) runDaily(ctx context.Context) {
	start := time.Now()

	if err := s.service.EnqueueExpiryRun(ctx); err != nil {
		zap.L().Error("failed to enqueue expiry run", zap.Error(err))
		return
	}

	zap.L().Info("daily expiry sweep dispatched", zap.Duration("duration", time.Since(start)))
}

// nextRunTime returns the next occurrence of hour:minute from now.
func nextRunTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.After(next) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
