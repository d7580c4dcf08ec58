package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"discord-giveaway-bot/internal/common/metrics"
	"discord-giveaway-bot/internal/features/giveaway/models"
	"discord-giveaway-bot/internal/features/giveaway/repository"
)

type SchedulerOptions struct {
	PollInterval time.Duration
	TaskTimeout  time.Duration
	MaxAttempts  int
	BatchSize    int
	Concurrency  int
	Logger       zerolog.Logger
}

// Scheduler polls the draw queue and hands due tasks to the Drawer.
// Failed tasks are left leased and come back after the lease expires.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	queue     repository.DrawQueue
	drawer    Drawer
	semaphore chan struct{}
	opts      SchedulerOptions
	logger    zerolog.Logger
}

func NewScheduler(queue repository.DrawQueue, drawer Drawer, opts SchedulerOptions) *Scheduler {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = DefaultTaskTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:       ctx,
		cancel:    cancel,
		queue:     queue,
		drawer:    drawer,
		semaphore: make(chan struct{}, opts.Concurrency),
		opts:      opts,
		logger:    opts.Logger,
	}
}

func (s *Scheduler) Start() {
	s.logger.Info().
		Dur("poll_interval", s.opts.PollInterval).
		Int("concurrency", s.opts.Concurrency).
		Msg("Starting draw scheduler")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.ProcessDue(s.ctx); err != nil && s.ctx.Err() == nil {
					s.logger.Error().Err(err).Msg("Error processing due draws")
				}
				s.reportDepth()
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

// Stop ends polling and waits for in-flight draws.
func (s *Scheduler) Stop() {
	s.logger.Info().Msg("Stopping draw scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info().Msg("Draw scheduler stopped")
}

// ProcessDue leases one batch of due tasks and processes it to completion.
// It returns the number of tasks leased.
func (s *Scheduler) ProcessDue(ctx context.Context) (int, error) {
	deliveries, err := s.queue.Lease(ctx, s.opts.BatchSize)
	if err != nil {
		return 0, err
	}

	var wg sync.WaitGroup
	for _, d := range deliveries {
		select {
		case s.semaphore <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return len(deliveries), ctx.Err()
		}

		wg.Add(1)
		go func(d models.Delivery) {
			defer wg.Done()
			defer func() { <-s.semaphore }()
			s.process(ctx, d)
		}(d)
	}
	wg.Wait()
	return len(deliveries), nil
}

func (s *Scheduler) process(ctx context.Context, d models.Delivery) {
	log := s.logger.With().
		Str("giveaway_id", d.Task.GiveawayID).
		Str("task_id", d.Task.ID).
		Int("attempt", d.Attempts).
		Logger()

	taskCtx, cancel := context.WithTimeout(ctx, s.opts.TaskTimeout)
	err := s.drawer.Draw(taskCtx, d.Task)
	cancel()

	// Queue bookkeeping must survive shutdown of the polling context.
	ackCtx, ackCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer ackCancel()

	switch {
	case err == nil:
		if ackErr := s.queue.Ack(ackCtx, d); ackErr != nil {
			log.Error().Err(ackErr).Msg("Failed to ack draw task")
		}
	case IsPermanent(err):
		log.Warn().Err(err).Msg("Draw abandoned")
		if ackErr := s.queue.Ack(ackCtx, d); ackErr != nil {
			log.Error().Err(ackErr).Msg("Failed to ack abandoned draw task")
		}
	case d.Attempts >= s.opts.MaxAttempts:
		log.Error().Err(err).Msg("Draw failed permanently, moving to dead letters")
		metrics.IncDraw("dead_letter")
		if dlErr := s.queue.DeadLetter(ackCtx, d, err.Error()); dlErr != nil {
			log.Error().Err(dlErr).Msg("Failed to dead-letter draw task")
		}
	default:
		log.Warn().Err(err).Msg("Draw failed, will retry after lease")
	}
}

func (s *Scheduler) reportDepth() {
	ctx, cancel := context.WithTimeout(s.ctx, time.Second)
	defer cancel()

	if n, err := s.queue.Depth(ctx); err == nil {
		metrics.SetQueueDepth(n)
	}
	if n, err := s.queue.DeadLetters(ctx); err == nil {
		metrics.SetDeadLetterDepth(n)
	}
}
