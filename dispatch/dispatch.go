package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rids-cl/webchat/logging"
	"github.com/rids-cl/webchat/model"
)

const (
	// DefaultMaxParallel is the default bound on concurrently running tasks.
	DefaultMaxParallel = 2
	// DefaultMaxAttempts is the default attempt ceiling per task (first try
	// plus retries).
	DefaultMaxAttempts = 4
	// DefaultBackoffBase is the first backoff delay; it doubles per attempt.
	DefaultBackoffBase = 500 * time.Millisecond
	// DefaultLongDelayThreshold is the advisory retry-after duration at or
	// above which the queue gives up instead of blocking the caller.
	DefaultLongDelayThreshold = 10 * time.Second
)

// Task is a deferred unit of work producing a payload or an error. A task
// signals upstream throttling by returning *model.RateLimitError; any other
// error class is terminal.
type Task func(ctx context.Context) (string, error)

// Sleeper waits for the given duration or until the context is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func timerSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Options configure a Queue.
type Options struct {
	// MaxParallel bounds concurrently running tasks.
	MaxParallel int
	// MaxAttempts bounds total attempts per task on rate-limit signals.
	MaxAttempts int
	// BackoffBase is the initial retry delay, doubled per attempt.
	BackoffBase time.Duration
	// LongDelayThreshold makes the queue fail fast when the upstream advises
	// waiting at least this long.
	LongDelayThreshold time.Duration
	// Pace is an optional delay applied before waking the next waiter.
	Pace time.Duration
	// Sleep overrides how the queue waits, mainly for tests.
	Sleep Sleeper
	// Logger receives retry/backoff diagnostics.
	Logger logging.Logger
}

// Queue is the bounded-concurrency admission and retry mechanism guarding
// calls to the external model service. Safe for concurrent use.
type Queue struct {
	maxParallel        int
	maxAttempts        int
	backoffBase        time.Duration
	longDelayThreshold time.Duration
	pace               time.Duration
	sleep              Sleeper
	logger             logging.Logger

	mu      sync.Mutex
	running int
	waiters []chan struct{} // FIFO; closed channel hands the slot over
}

// New constructs a Queue with optional overrides.
func New(optFns ...func(o *Options)) *Queue {
	opts := Options{
		MaxParallel:        DefaultMaxParallel,
		MaxAttempts:        DefaultMaxAttempts,
		BackoffBase:        DefaultBackoffBase,
		LongDelayThreshold: DefaultLongDelayThreshold,
		Sleep:              timerSleep,
		Logger:             logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = DefaultMaxParallel
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	return &Queue{
		maxParallel:        opts.MaxParallel,
		maxAttempts:        opts.MaxAttempts,
		backoffBase:        opts.BackoffBase,
		longDelayThreshold: opts.LongDelayThreshold,
		pace:               opts.Pace,
		sleep:              opts.Sleep,
		logger:             opts.Logger,
	}
}

// Submit runs task under the concurrency bound, waiting FIFO for a free slot
// first. It returns the task's payload, the task's terminal error, or the
// context error if ctx is done before a slot frees.
func (q *Queue) Submit(ctx context.Context, task Task) (string, error) {
	if err := q.acquire(ctx); err != nil {
		return "", err
	}
	defer q.release()
	return q.runWithRetry(ctx, task)
}

// Running returns the number of tasks currently executing.
func (q *Queue) Running() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// acquire claims a slot, enqueueing FIFO when none is free.
func (q *Queue) acquire(ctx context.Context) error {
	q.mu.Lock()
	if q.running < q.maxParallel {
		q.running++
		q.mu.Unlock()
		return nil
	}
	ready := make(chan struct{})
	q.waiters = append(q.waiters, ready)
	q.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		q.mu.Lock()
		for i, w := range q.waiters {
			if w == ready {
				q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
				q.mu.Unlock()
				return ctx.Err()
			}
		}
		q.mu.Unlock()
		// The slot was handed over concurrently with cancellation; pass it on.
		q.release()
		return ctx.Err()
	}
}

// release frees the slot, handing it directly to the oldest waiter if any.
func (q *Queue) release() {
	if q.pace > 0 {
		_ = q.sleep(context.Background(), q.pace)
	}
	q.mu.Lock()
	if len(q.waiters) > 0 {
		next := q.waiters[0]
		q.waiters = q.waiters[1:]
		q.mu.Unlock()
		// Hand-off: running count is unchanged, the waiter inherits the slot.
		close(next)
		return
	}
	q.running--
	q.mu.Unlock()
}

// runWithRetry executes the bounded attempt loop: attempt, classify, back off,
// attempt again. Only rate-limit signals are retried.
func (q *Queue) runWithRetry(ctx context.Context, task Task) (string, error) {
	for attempt := 1; ; attempt++ {
		out, err := task(ctx)
		if err == nil {
			return out, nil
		}

		var rl *model.RateLimitError
		if !errors.As(err, &rl) {
			return "", err
		}
		if rl.RetryAfter >= q.longDelayThreshold {
			q.logger.Warn("upstream advisory delay too long, giving up",
				"retry_after", rl.RetryAfter.String(), "attempt", attempt)
			return "", fmt.Errorf("dispatch: advisory retry delay %s exceeds threshold: %w", rl.RetryAfter, err)
		}
		if attempt >= q.maxAttempts {
			return "", fmt.Errorf("dispatch: rate limited after %d attempts: %w", attempt, err)
		}

		delay := q.backoffBase << (attempt - 1)
		if rl.RetryAfter > delay {
			delay = rl.RetryAfter
		}
		q.logger.Debug("rate limited, backing off",
			"attempt", attempt, "delay", delay.String())
		if err := q.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
}
