package director

import (
	"context"
	"errors"
	"time"

	"github.com/zeusync/director/internal/core/observability/log"
)

var ErrRunnerStopped = errors.New("director: runner stopped")

// EntitySource feeds the runner. Step advances the external world by dt and
// returns the live entity set along with how many agents are pooled for
// spawning. Spawn receives the budget the wave controller allows.
type EntitySource interface {
	Step(dt time.Duration) (entities []Entity, pooled int)
	Spawn(n int)
}

type request struct {
	fn   func(*Director)
	done chan struct{}
}

// Runner owns a Director on a single goroutine. Ticks and queries are
// serialized, so a query never observes a rebuild in progress.
type Runner struct {
	director *Director
	source   EntitySource
	interval time.Duration
	logger   log.Log
	requests chan request
	stopped  chan struct{}
}

func NewRunner(d *Director, source EntitySource, interval time.Duration, logger log.Log) *Runner {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Runner{
		director: d,
		source:   source,
		interval: interval,
		logger:   logger.Named("runner"),
		requests: make(chan request),
		stopped:  make(chan struct{}),
	}
}

// Run ticks the director every interval until ctx is cancelled. Queries
// submitted through Do run between ticks.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.stopped)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("runner started", log.Duration("interval", r.interval))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("runner stopped", log.Uint64("ticks", r.director.Counters().Rebuilds))
			return ctx.Err()
		case now := <-ticker.C:
			r.step(now.Sub(last))
			last = now
		case req := <-r.requests:
			req.fn(r.director)
			close(req.done)
		}
	}
}

func (r *Runner) step(dt time.Duration) {
	entities, pooled := r.source.Step(dt)
	if budget := r.director.Tick(dt, entities, pooled); budget > 0 {
		r.source.Spawn(budget)
	}
}

// Do runs fn on the loop goroutine and waits for it to return. ctx only
// bounds the wait for the loop to accept fn. fn must not retain the director.
func (r *Runner) Do(ctx context.Context, fn func(*Director)) error {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case r.requests <- req:
	case <-r.stopped:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-req.done
	return nil
}

// Interval is the tick period.
func (r *Runner) Interval() time.Duration { return r.interval }
