package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Scheduler runs periodic background jobs. A job never overlaps with its
// own previous run.
type Scheduler struct {
	sched  gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

func New(log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		return nil, errors.New("logger is nil")
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{sched: sched, ctx: ctx, cancel: cancel, log: log}, nil
}

// Every registers fn to run once at start and then every interval. Each run
// gets a context bounded by the interval.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(ctx context.Context) error) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	_, err := s.sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(s.ctx, interval)
			defer cancel()

			start := time.Now()
			if err := fn(ctx); err != nil {
				s.log.Warn("scheduler: job failed", zap.String("job", name), zap.Error(err))
				return
			}
			s.log.Debug("scheduler: job done", zap.String("job", name), zap.Duration("duration", time.Since(start)))
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}
	s.log.Info("scheduler: job registered", zap.String("job", name), zap.Duration("interval", interval))
	return nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

func (s *Scheduler) Shutdown() error {
	s.cancel()
	if err := s.sched.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	return nil
}
