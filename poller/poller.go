// Package poller runs a task on a fixed interval until its context is cancelled.
// A tick that arrives while the previous run is still going is skipped, so a slow API never
// builds up a queue of overlapping requests.
package poller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-storefront/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Task is one polling cycle. Errors are logged; they never stop the poller.
type Task func(ctx context.Context) error

type Poller struct {
	name     string
	interval time.Duration
	task     Task
	ticks    <-chan time.Time
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	inFlight atomic.Bool
	runs     atomic.Int64
	skipped  atomic.Int64
	wg       sync.WaitGroup
}

type Option func(*Poller)

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Poller) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) {
		p.metrics = m
	}
}

// WithTickSource replaces the interval ticker, primarily for testing
func WithTickSource(ticks <-chan time.Time) Option {
	return func(p *Poller) {
		p.ticks = ticks
	}
}

func New(name string, interval time.Duration, task Task, options ...Option) (*Poller, error) {
	if task == nil {
		return nil, fmt.Errorf("[poller.New] task is required")
	}
	p := &Poller{
		name:     name,
		interval: interval,
		task:     task,
		logger:   log.Logger,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.ticks == nil && interval <= 0 {
		return nil, fmt.Errorf("[poller.New] interval must be positive, got %s", interval)
	}
	p.logger = p.logger.With().Str("task", name).Logger()
	return p, nil
}

// Run starts a cycle immediately and then one per tick. It returns once ctx is done and the
// in-flight cycle, if any, has finished.
func (p *Poller) Run(ctx context.Context) {
	ticks := p.ticks
	if ticks == nil {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		ticks = ticker.C
	}
	defer p.wg.Wait()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Debug().Msg("poller stopped")
			return
		case <-ticks:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		p.metrics.ObserveTick(p.name, true)
		p.logger.Debug().Msg("previous cycle still running, skipping tick")
		return
	}
	p.metrics.ObserveTick(p.name, false)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inFlight.Store(false)

		p.runs.Add(1)
		if err := p.task(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn().Err(err).Msg("poll cycle failed")
		}
	}()
}

func (p *Poller) InFlight() bool {
	return p.inFlight.Load()
}

// Runs counts cycles started
func (p *Poller) Runs() int64 {
	return p.runs.Load()
}

// Skipped counts ticks dropped because a cycle was still running
func (p *Poller) Skipped() int64 {
	return p.skipped.Load()
}
