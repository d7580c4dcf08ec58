package interaction

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"discord-giveaway-bot/internal/common/metrics"
)

type RunnerOptions struct {
	// Delay before a follow-up starts, giving the HTTP response time to reach Discord.
	Delay       time.Duration
	Timeout     time.Duration
	Concurrency int
	Logger      zerolog.Logger
}

// Runner executes deferred follow-ups detached from the request context.
type Runner struct {
	wg      sync.WaitGroup
	sem     chan struct{}
	delay   time.Duration
	timeout time.Duration
	closed  atomic.Bool
	logger  zerolog.Logger
}

func NewRunner(opts RunnerOptions) *Runner {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 32
	}
	return &Runner{
		sem:     make(chan struct{}, opts.Concurrency),
		delay:   opts.Delay,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
}

// Go schedules fn. Follow-ups submitted after Close are refused and logged.
func (r *Runner) Go(name string, fn Followup) {
	if fn == nil {
		return
	}
	if r.closed.Load() {
		metrics.IncFollowup("refused")
		r.logger.Error().Str("followup", name).Msg("Follow-up refused, runner is shutting down")
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		if r.delay > 0 {
			time.Sleep(r.delay)
		}

		r.sem <- struct{}{}
		defer func() { <-r.sem }()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		start := time.Now()
		err := r.run(ctx, fn)
		if err != nil {
			metrics.IncFollowup("error")
			r.logger.Error().Err(err).Str("followup", name).Dur("elapsed", time.Since(start)).Msg("Follow-up failed")
			return
		}
		metrics.IncFollowup("ok")
		r.logger.Debug().Str("followup", name).Dur("elapsed", time.Since(start)).Msg("Follow-up completed")
	}()
}

func (r *Runner) run(ctx context.Context, fn Followup) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("follow-up panicked: %v", rec)
		}
	}()
	return fn(ctx)
}

// Close refuses new follow-ups and waits for running ones until ctx ends.
func (r *Runner) Close(ctx context.Context) error {
	r.closed.Store(true)
	return r.Wait(ctx)
}

// Wait blocks until every scheduled follow-up has returned.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
