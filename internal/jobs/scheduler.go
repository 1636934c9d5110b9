package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"shiftdesk/pkg/config"
	"shiftdesk/pkg/metrics"
	"shiftdesk/pkg/trace"
)

type OutboxPurger interface {
	PurgeSent(ctx context.Context, before time.Time) (int64, error)
}

type OpenShiftCounter interface {
	CountOpenFrom(ctx context.Context, from time.Time) (int, error)
}

// Scheduler runs the periodic housekeeping jobs on cron specs.
type Scheduler struct {
	purger  OutboxPurger
	counter OpenShiftCounter
	cfg     config.JobsConfig
	now     func() time.Time
	logger  *zap.Logger
}

func NewScheduler(purger OutboxPurger, counter OpenShiftCounter, cfg config.JobsConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		purger:  purger,
		counter: counter,
		cfg:     cfg,
		now:     time.Now,
		logger:  logger,
	}
}

// PurgeOutbox deletes sent outbox events older than the retention window.
func (s *Scheduler) PurgeOutbox(ctx context.Context) error {
	before := s.now().Add(-s.cfg.OutboxRetention)
	n, err := s.purger.PurgeSent(ctx, before)
	if err != nil {
		return err
	}
	s.logger.Info("Outbox purged", zap.Int64("deleted", n), zap.Time("before", before))
	return nil
}

// RefreshOpenShifts updates the open shift gauge with shifts from today on.
func (s *Scheduler) RefreshOpenShifts(ctx context.Context) error {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	n, err := s.counter.CountOpenFrom(ctx, today)
	if err != nil {
		return err
	}
	metrics.SetOpenShifts(n)
	s.logger.Debug("Open shift gauge refreshed", zap.Int("open", n))
	return nil
}

// Start registers the jobs, runs the gauge once and blocks until ctx is done.
// Running jobs are allowed to finish before it returns.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New()

	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"outbox_purge", s.cfg.OutboxPurgeSpec, s.PurgeOutbox},
		{"open_shift_gauge", s.cfg.GaugeSpec, s.RefreshOpenShifts},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if _, err := c.AddFunc(j.spec, s.wrap(ctx, j.name, j.run)); err != nil {
			return fmt.Errorf("invalid cron spec %q for %s: %w", j.spec, j.name, err)
		}
	}

	s.wrap(ctx, "open_shift_gauge", s.RefreshOpenShifts)()

	c.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(c.Entries())))

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("Scheduler stopped")
	return nil
}

func (s *Scheduler) wrap(ctx context.Context, name string, run func(context.Context) error) func() {
	return func() {
		jobCtx, _ := trace.Ensure(ctx)
		if err := run(jobCtx); err != nil {
			s.logger.Error("Scheduled job failed", zap.String("job", name), zap.Error(err))
		}
	}
}
