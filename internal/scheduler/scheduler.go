package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/luggagehub/internal/clock"
	obsmetrics "github.com/smallbiznis/luggagehub/internal/observability/metrics"
	"github.com/smallbiznis/luggagehub/internal/ratelimit"
	userdomain "github.com/smallbiznis/luggagehub/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log     *zap.Logger
	UserSvc userdomain.Service
	GenID   *snowflake.Node
	Clock   clock.Clock
	Config  Config                       `optional:"true"`
	Metrics *obsmetrics.SchedulerMetrics `optional:"true"`
	Locker  *ratelimit.Locker            `optional:"true"`
}

type Scheduler struct {
	log     *zap.Logger
	cfg     Config
	genID   *snowflake.Node
	clock   clock.Clock
	userSvc userdomain.Service
	metrics *obsmetrics.SchedulerMetrics
	locker  *ratelimit.Locker
}

type job struct {
	Name string
	Run  func(context.Context) error
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.UserSvc == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	schedMetrics := p.Metrics
	if schedMetrics == nil {
		schedMetrics = obsmetrics.Scheduler()
	}
	return &Scheduler{
		log:     p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:     p.Config.withDefaults(),
		genID:   p.GenID,
		clock:   p.Clock,
		userSvc: p.UserSvc,
		metrics: schedMetrics,
		locker:  p.Locker,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	release, held := s.claimJob(parent, name, timeout)
	if !held {
		return nil
	}
	defer release()

	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run := s.startJobRun(ctx, name)
	s.logJobStart(ctx, run)
	s.metrics.IncJobRun(name)

	err := fn(ctx)
	s.metrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if err != nil {
		run.IncError()
	}
	s.logJobFinish(ctx, run)
	if err == nil {
		return nil
	}

	// deadline is a soft timeout; the next tick picks the work up again
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		s.metrics.IncJobTimeout(name)
	}
	s.metrics.IncJobError(name, err)
	if isTimeout {
		s.logger(ctx).Warn("job timed out",
			zap.String("job", name),
			zap.String("run_id", run.runID),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	s.logSchedulerError(ctx, run, "scheduler.job.failed", err)
	return fmt.Errorf("%s: %w", name, err)
}

const keySchedulerJob = "scheduler:job:%s"

// claimJob keeps `serve` and the standalone scheduler from running the same
// job concurrently. Without Redis, or when Redis fails, the job runs anyway.
func (s *Scheduler) claimJob(parent context.Context, name string, timeout time.Duration) (func(), bool) {
	noop := func() {}
	if s.locker == nil {
		return noop, true
	}

	key := fmt.Sprintf(keySchedulerJob, name)
	token, ok, err := s.locker.Claim(parent, key, timeout+lockGrace)
	if err != nil {
		s.log.Warn("scheduler job lock unavailable", zap.String("job", name), zap.Error(err))
		return noop, true
	}
	if !ok {
		s.metrics.IncJobSkipped(name)
		s.log.Debug("scheduler job held by another instance", zap.String("job", name))
		return noop, false
	}

	return func() {
		if err := s.locker.Release(context.WithoutCancel(parent), key, token); err != nil {
			s.log.Warn("scheduler job lock release failed", zap.String("job", name), zap.Error(err))
		}
	}, true
}

func (s *Scheduler) jobs() []job {
	return []job{
		{JobPurgeLinkTokens, s.PurgeLinkTokensJob},
	}
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error
	for _, j := range s.jobs() {
		if !s.isJobEnabled(j.Name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, j.Name, s.cfg.JobTimeout, j.Run))
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)

	for {
		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			s.metrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// PurgeLinkTokensJob deletes Telegram link tokens that were used or have expired.
func (s *Scheduler) PurgeLinkTokensJob(ctx context.Context) error {
	run := jobRunFromContext(ctx)

	deleted, err := s.userSvc.PurgeLinkTokens(ctx)
	if err != nil {
		return err
	}
	run.AddProcessed(int(deleted))
	s.metrics.AddBatchProcessed(JobPurgeLinkTokens, "telegram_link_tokens", int(deleted))
	return nil
}
