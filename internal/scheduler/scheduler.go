package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cortexhub/mnemo/internal/memory"
	"github.com/cortexhub/mnemo/internal/metrics"
)

// DefaultSchedule runs maintenance nightly, off the chat peak.
const DefaultSchedule = "30 3 * * *"

// Scheduler runs periodic store maintenance and refreshes the size gauges.
type Scheduler struct {
	cron     *cron.Cron
	store    memory.Store
	schedule string
	logger   *slog.Logger
}

func NewScheduler(store memory.Store, schedule string, logger *slog.Logger) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:     cron.New(),
		store:    store,
		schedule: schedule,
		logger:   logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.runMaintenance); err != nil {
		return nil, err
	}
	return s, nil
}

// Start starts the scheduler and primes the gauges once.
func (s *Scheduler) Start() {
	s.refreshGauges()
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runMaintenance() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.store.Maintain(ctx); err != nil {
		s.logger.Warn("store maintenance failed", "error", err)
	} else {
		s.logger.Info("store maintenance done")
	}
	s.refreshGauges()
}

func (s *Scheduler) refreshGauges() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := s.store.Stats(ctx)
	if err != nil {
		s.logger.Warn("store stats failed", "error", err)
		return
	}
	metrics.StoredMemories.Set(float64(stats.Memories))
	metrics.GroupModes.Set(float64(stats.GroupModes))
}
