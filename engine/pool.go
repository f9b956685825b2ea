// Package engine partitions the observation stream by PUID, running each
// partition's observations through the configured checks on a single
// goroutine so stateful checks (delta buffers, window tumblers,
// consecutive-null runs) see every observation for a PUID in order. A
// partition is spun up lazily on first use and torn down once it has sat
// idle past idleTimeout, so a stream touching millions of PUIDs over its
// lifetime does not hold a goroutine per PUID forever.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sensorqc.evalgo.org/checks"
	"sensorqc.evalgo.org/obslog"
	"sensorqc.evalgo.org/semantic"
	"sensorqc.evalgo.org/sink"
)

type job struct {
	ctx context.Context
	obs semantic.Observation
}

type lane struct {
	in      chan job
	pending int // Submit calls currently blocked trying to send into in
}

// Pool is a PUID-partitioned worker pool with lazy, idle-reaped lanes.
type Pool struct {
	newLane     func() []checks.Check
	sink        sink.Sink
	log         *obslog.Logger
	idleTimeout time.Duration

	mu      sync.Mutex
	lanes   map[string]*lane
	wg      sync.WaitGroup
	stopCh  chan struct{}
	stopped bool
}

// DefaultIdleTimeout is how long a partition may sit without a new
// observation before its goroutine exits.
const DefaultIdleTimeout = 5 * time.Minute

// NewPool builds a Pool. newLane must return a fresh slice of Check
// instances (range, delta, sigma, ...) with independent internal state;
// it is called once per partition, the first time a PUID is seen.
func NewPool(newLane func() []checks.Check, snk sink.Sink, log *obslog.Logger, idleTimeout time.Duration) *Pool {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Pool{
		newLane:     newLane,
		sink:        snk,
		log:         log,
		idleTimeout: idleTimeout,
		lanes:       make(map[string]*lane),
		stopCh:      make(chan struct{}),
	}
}

// Stop signals every partition goroutine to exit and waits for them to
// drain. Each partition flushes its stateful checks (open windows,
// buffered delta pairs) through the sink on the way out. It does not
// cancel in-flight contexts.
func (p *Pool) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	close(p.stopCh)
	p.wg.Wait()
}

// Submit routes obs to the partition owning its PUID, spinning one up if
// none exists yet, and blocks until the partition accepts it, ctx is
// cancelled, or the pool is stopped.
func (p *Pool) Submit(ctx context.Context, obs semantic.Observation) error {
	key := obs.PUID.String()

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return fmt.Errorf("engine: pool is stopped")
	}
	l, ok := p.lanes[key]
	if !ok {
		l = &lane{in: make(chan job, 64)}
		p.lanes[key] = l
		p.wg.Add(1)
		go p.runLane(key, l)
	}
	l.pending++
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		l.pending--
		p.mu.Unlock()
	}()

	select {
	case l.in <- job{ctx: ctx, obs: obs}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopCh:
		return fmt.Errorf("engine: pool is stopped")
	}
}

func (p *Pool) runLane(key string, l *lane) {
	defer p.wg.Done()
	laneChecks := p.newLane()
	laneLog := p.log.WithField("puid", key)
	defer p.flush(laneChecks, laneLog)

	timer := time.NewTimer(p.idleTimeout)
	defer timer.Stop()

	for {
		select {
		case j, ok := <-l.in:
			if !ok {
				return
			}
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(p.idleTimeout)
			if j.ctx.Err() == nil {
				p.evaluate(j.ctx, j.obs, laneChecks, laneLog)
			}

		case <-timer.C:
			p.mu.Lock()
			if len(l.in) == 0 && l.pending == 0 {
				delete(p.lanes, key)
				p.mu.Unlock()
				return
			}
			p.mu.Unlock()
			timer.Reset(p.idleTimeout)

		case <-p.stopCh:
			return
		}
	}
}

func (p *Pool) evaluate(ctx context.Context, obs semantic.Observation, laneChecks []checks.Check, laneLog *obslog.Logger) {
	for _, check := range laneChecks {
		if err := ctx.Err(); err != nil {
			return
		}
		p.publish(ctx, check.Family(), check.Evaluate(ctx, obs), laneLog)
	}
}

// flush drains whatever state the lane's stateful checks still hold
// (open windows, buffered delta pairs) when the lane winds down, whether
// by idle reap or pool stop, publishing through the sink exactly like
// evaluate so no buffered observation is silently dropped.
func (p *Pool) flush(laneChecks []checks.Check, laneLog *obslog.Logger) {
	ctx := context.Background()
	for _, check := range laneChecks {
		f, ok := check.(checks.Flusher)
		if !ok {
			continue
		}
		p.publish(ctx, check.Family(), f.Flush(ctx), laneLog)
	}
}

func (p *Pool) publish(ctx context.Context, family string, result checks.Result, laneLog *obslog.Logger) {
	for _, outcome := range result.Outcomes {
		if err := p.sink.PublishOutcome(ctx, outcome); err != nil {
			laneLog.WithCheck(family).Error(err, "publishing outcome")
		}
	}
	for _, event := range result.Events {
		if err := p.sink.PublishEvent(ctx, event); err != nil {
			laneLog.WithCheck(family).Error(err, "publishing event")
		}
	}
}
