package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"anoa.com/rewardshub/internal/config"
	"github.com/go-co-op/gocron/v2"
)

type OrphanSweeper interface {
	SweepOrphanEvidence(ctx context.Context) (int, error)
}

type BalanceAuditor interface {
	RebuildBalances(ctx context.Context) (int, error)
}

// Scheduler runs the periodic maintenance of the rewards engine.
type Scheduler struct {
	sched   gocron.Scheduler
	sweeper OrphanSweeper
	auditor BalanceAuditor
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewScheduler(cfg config.Jobs, sweeper OrphanSweeper, auditor BalanceAuditor) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		sched:   sched,
		sweeper: sweeper,
		auditor: auditor,
		ctx:     ctx,
		cancel:  cancel,
	}

	if err := s.add("orphan-evidence-sweep", cfg.OrphanSweepInterval, s.runOrphanSweep); err != nil {
		cancel()
		return nil, err
	}
	if err := s.add("balance-audit", cfg.BalanceAuditInterval, s.runBalanceAudit); err != nil {
		cancel()
		return nil, err
	}

	return s, nil
}

// add registers task every interval. A non-positive interval disables the job.
func (s *Scheduler) add(name string, interval time.Duration, task func(context.Context)) error {
	if interval <= 0 {
		slog.Info("job disabled", "job", name)
		return nil
	}

	_, err := s.sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { task(s.ctx) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
	slog.Info("scheduler started", "jobs", len(s.sched.Jobs()))
}

func (s *Scheduler) Shutdown() error {
	s.cancel()
	return s.sched.Shutdown()
}

func (s *Scheduler) runOrphanSweep(ctx context.Context) {
	removed, err := s.sweeper.SweepOrphanEvidence(ctx)
	if err != nil {
		slog.Error("orphan evidence sweep failed", "removed", removed, "error", err)
		return
	}
	if removed > 0 {
		slog.Info("orphan evidence swept", "removed", removed)
	}
}

func (s *Scheduler) runBalanceAudit(ctx context.Context) {
	drifted, err := s.auditor.RebuildBalances(ctx)
	if err != nil {
		slog.Error("balance audit failed", "error", err)
		return
	}
	slog.Info("balance audit completed", "drifted_users", drifted)
}
