// Package pool multiplexes a bounded set of expensive, asynchronously
// constructed resources among concurrent clients. Clients acquire a resource,
// use it, and return it; the pool enforces capacity, priority plus FIFO
// fairness, optional validity checks, idle eviction, and a drain/clear
// shutdown protocol that settles every outstanding resource.
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/esroyo/generic-pool/errs"
	"github.com/esroyo/generic-pool/internal/collections"
	"github.com/esroyo/generic-pool/internal/observability"
	"github.com/esroyo/generic-pool/internal/worker"
)

// loan records that a client currently holds a pooled resource. Its done
// channel is the signal Drain waits on; by contract a loan only ever settles
// successfully, so the channel carries no error.
type loan[T comparable] struct {
	pr   *pooledResource[T]
	done chan struct{}
}

// Pool coordinates a bounded set of resources of type T. T must be usable as
// a map key with reference identity (a pointer or handle type); the loan
// table is keyed by the resource value itself.
//
// All internal state is guarded by a single mutex. Factory callbacks run on
// background workers outside the critical section and post their results back
// through lock-taking continuations, so a slow factory never stalls the
// pool's bookkeeping.
type Pool[T comparable] struct {
	cfg     settings
	factory Factory[T]
	runner  *worker.Runner

	mu   sync.Mutex
	cond *sync.Cond // broadcast when createInFlight/destroyInFlight change

	waiting        *waitingQueue[T]
	available      collections.Deque[*pooledResource[T]]
	all            map[*pooledResource[T]]struct{}
	loans          map[T]*loan[T]
	inTestOnBorrow map[*pooledResource[T]]struct{}
	inTestOnReturn map[*pooledResource[T]]struct{}

	createInFlight  int
	destroyInFlight int

	started   bool
	draining  bool
	evictStop chan struct{}
	evictIter *collections.Iterator[*pooledResource[T]]

	counters counters
	metrics  *poolMetrics
	events   emitter
}

// New constructs a pool over the given factory. Options are normalized once
// at construction; see Options for defaults. With Autostart (the default) the
// pool immediately provisions its minimum set and schedules eviction.
func New[T comparable](factory Factory[T], opts Options) (*Pool[T], error) {
	if err := factory.check(); err != nil {
		return nil, err
	}
	p := new(Pool[T])
	p.cfg = normalizeOptions(opts)
	p.factory = factory
	p.runner = worker.New(0)
	p.cond = sync.NewCond(&p.mu)
	p.waiting = newWaitingQueue[T](p.cfg.priorityRange)
	p.all = make(map[*pooledResource[T]]struct{})
	p.loans = make(map[T]*loan[T])
	p.inTestOnBorrow = make(map[*pooledResource[T]]struct{})
	p.inTestOnReturn = make(map[*pooledResource[T]]struct{})
	p.evictIter = p.available.Iterator()
	p.metrics = newPoolMetrics(p.cfg.name, gaugeFuncs{
		size:      p.Size,
		available: p.Available,
		borrowed:  p.Borrowed,
		pending:   p.Pending,
	})
	if p.cfg.autostart {
		p.Start()
	}
	return p, nil
}

// Start is idempotent: it marks the pool started, schedules the evictor, and
// provisions the minimum resource set. Acquire starts a stopped pool lazily.
func (p *Pool[T]) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startLocked()
}

func (p *Pool[T]) startLocked() {
	if p.started || p.draining {
		return
	}
	p.started = true
	p.scheduleEvictorLocked()
	p.ensureMinimumLocked()
	observability.Log().Debug("pool: started",
		observability.F("pool", p.cfg.name),
		observability.F("min", p.cfg.min),
		observability.F("max", p.cfg.max))
}

// Acquire obtains a resource at the default (highest) priority.
func (p *Pool[T]) Acquire(ctx context.Context) (T, error) {
	return p.AcquireWithPriority(ctx, 0)
}

// AcquireWithPriority obtains a resource, queueing behind all waiters of
// numerically lower (more urgent) priority. The wait is bounded by both ctx
// and the configured AcquireTimeout.
func (p *Pool[T]) AcquireWithPriority(ctx context.Context, priority int) (T, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.Lock()
	if !p.started {
		p.startLocked()
	}
	if p.draining {
		p.mu.Unlock()
		return zero, errs.New("pool.acquire", errs.CodeDraining,
			errs.WithMessage("pool is draining and cannot accept work"))
	}
	if p.cfg.maxWaitingClients >= 0 &&
		p.spareCapacityLocked() < 1 &&
		p.available.Len() == 0 &&
		p.waiting.length() >= p.cfg.maxWaitingClients {
		p.mu.Unlock()
		return zero, errs.New("pool.acquire", errs.CodeMaxWaiters,
			errs.WithMessage("max waitingClients count exceeded"))
	}

	req := newResourceRequest[T]()
	req.node = p.waiting.enqueue(req, priority)
	req.arm(p.cfg.acquireTimeout, p.expireWaiter)
	p.dispenseLocked()
	p.mu.Unlock()

	select {
	case <-req.done:
	case <-ctx.Done():
		cancelled := fmt.Errorf("acquire context: %w", ctx.Err())
		if req.reject(cancelled) {
			p.mu.Lock()
			req.node.Detach()
			p.mu.Unlock()
			return zero, cancelled
		}
		// Lost the race: the request settled concurrently; fall through and
		// honor whatever it settled with.
		<-req.done
	}
	if req.err != nil {
		return zero, req.err
	}
	return req.obj, nil
}

// expireWaiter is the queue's rejection observer: the only path that removes
// a timed-out waiter from the waiting queue.
func (p *Pool[T]) expireWaiter(r *resourceRequest[T]) {
	p.mu.Lock()
	r.node.Detach()
	p.mu.Unlock()
	p.counters.acquireTimeouts.Add(1)
	p.metrics.incAcquireTimeout()
	observability.Log().Debug("pool: waiter timed out",
		observability.F("pool", p.cfg.name))
}

// Release returns a borrowed resource to the pool. Releasing a value the pool
// did not lend fails with a not-in-pool error and changes nothing.
func (p *Pool[T]) Release(obj T) error {
	p.mu.Lock()
	ln, ok := p.loans[obj]
	if !ok {
		p.mu.Unlock()
		return errs.New("pool.release", errs.CodeNotInPool,
			errs.WithMessage("resource not currently part of this pool"))
	}
	delete(p.loans, obj)
	close(ln.done)
	pr := ln.pr
	pr.markReturning()

	if p.cfg.testOnReturn && p.factory.Validate != nil {
		pr.markValidation()
		p.inTestOnReturn[pr] = struct{}{}
		p.validateOnReturnLocked(pr)
		p.mu.Unlock()
		return nil
	}

	pr.deallocate()
	p.addAvailableLocked(pr)
	p.dispenseLocked()
	p.mu.Unlock()
	return nil
}

// DestroyResource removes a borrowed resource from the pool permanently,
// invoking the factory's destroy callback instead of returning it to the
// idle set.
func (p *Pool[T]) DestroyResource(obj T) error {
	p.mu.Lock()
	ln, ok := p.loans[obj]
	if !ok {
		p.mu.Unlock()
		return errs.New("pool.destroy", errs.CodeNotInPool,
			errs.WithMessage("resource not currently part of this pool"))
	}
	delete(p.loans, obj)
	close(ln.done)
	p.destroyLocked(ln.pr, "destroyed by caller")
	p.dispenseLocked()
	p.mu.Unlock()
	return nil
}

// Use acquires a resource, runs fn with it, and settles the loan: the
// resource is released on success and destroyed when fn fails. fn's error is
// propagated either way.
func (p *Pool[T]) Use(ctx context.Context, fn func(context.Context, T) error) error {
	return p.UseWithPriority(ctx, 0, fn)
}

// UseWithPriority is Use at an explicit priority.
func (p *Pool[T]) UseWithPriority(ctx context.Context, priority int, fn func(context.Context, T) error) error {
	if fn == nil {
		return errs.New("pool.use", errs.CodeInvalidConfig,
			errs.WithMessage("fn must not be nil"))
	}
	obj, err := p.AcquireWithPriority(ctx, priority)
	if err != nil {
		return err
	}
	if err := fn(ctx, obj); err != nil {
		_ = p.DestroyResource(obj)
		return err
	}
	return p.Release(obj)
}

// IsBorrowed reports whether obj is currently on loan from this pool.
func (p *Pool[T]) IsBorrowed(obj T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.loans[obj]
	return ok
}

// Drain stops the pool accepting new acquires, waits for every waiter queued
// at drain-begin to settle, then waits for every outstanding loan to settle,
// and finally deschedules the evictor. Borrowers keep working during the
// drain; releases are still honored and still feed remaining waiters.
func (p *Pool[T]) Drain(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p.mu.Lock()
	p.draining = true
	waiters := p.waiting.pending()
	p.mu.Unlock()

	for _, w := range waiters {
		select {
		case <-w.done:
		case <-ctx.Done():
			return fmt.Errorf("drain context: %w", ctx.Err())
		}
	}

	p.mu.Lock()
	dones := make([]chan struct{}, 0, len(p.loans))
	for _, ln := range p.loans {
		dones = append(dones, ln.done)
	}
	p.mu.Unlock()
	for _, d := range dones {
		select {
		case <-d:
		case <-ctx.Done():
			return fmt.Errorf("drain context: %w", ctx.Err())
		}
	}

	p.mu.Lock()
	p.stopEvictorLocked()
	p.mu.Unlock()
	p.metrics.unregister()
	observability.Log().Info("pool: drained", observability.F("pool", p.cfg.name))
	return nil
}

// Clear waits for in-flight creations to settle, destroys every idle
// resource, and waits for the resulting destroy operations to settle
// (success and failure both count as settled).
func (p *Pool[T]) Clear(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.mu.Lock()
		for p.createInFlight > 0 {
			p.cond.Wait()
		}
		for {
			pr, ok := p.available.Shift()
			if !ok {
				break
			}
			p.destroyLocked(pr, "cleared")
		}
		for p.destroyInFlight > 0 {
			p.cond.Wait()
		}
		p.mu.Unlock()
	}()
	select {
	case <-done:
		observability.Log().Info("pool: cleared", observability.F("pool", p.cfg.name))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("clear context: %w", ctx.Err())
	}
}

// Ready blocks until the available set reaches the configured minimum,
// polling on a constant interval.
func (p *Pool[T]) Ready(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	op := func() (struct{}, error) {
		if p.Available() >= p.cfg.min {
			return struct{}{}, nil
		}
		return struct{}{}, errs.New("pool.ready", errs.CodeUnavailable,
			errs.WithMessage("available below minimum"))
	}
	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(readyPollInterval)))
	return err
}

// On registers a listener for a factory error event and returns its
// unregister function.
func (p *Pool[T]) On(kind EventKind, fn func(error)) func() {
	return p.events.on(kind, fn)
}

// Name returns the pool's configured label.
func (p *Pool[T]) Name() string { return p.cfg.name }

// Size is the total resource count, including in-flight creations.
func (p *Pool[T]) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.all) + p.createInFlight
}

// Available is the number of idle resources ready for dispatch.
func (p *Pool[T]) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available.Len()
}

// Borrowed is the number of resources currently on loan.
func (p *Pool[T]) Borrowed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.loans)
}

// Pending is the number of queued waiters.
func (p *Pool[T]) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waiting.length()
}

// Max returns the configured capacity ceiling.
func (p *Pool[T]) Max() int { return p.cfg.max }

// Min returns the configured minimum resource count.
func (p *Pool[T]) Min() int { return p.cfg.min }

// SpareCapacity is how many more resources the pool could still create.
func (p *Pool[T]) SpareCapacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.spareCapacityLocked()
}

// Stats returns a snapshot of gauges and lifetime counters.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	s := Stats{
		Name:          p.cfg.name,
		Size:          len(p.all) + p.createInFlight,
		Available:     p.available.Len(),
		Borrowed:      len(p.loans),
		Pending:       p.waiting.length(),
		Max:           p.cfg.max,
		Min:           p.cfg.min,
		SpareCapacity: p.spareCapacityLocked(),
	}
	p.mu.Unlock()
	s.Created = p.counters.created.Load()
	s.CreateFailures = p.counters.createFailures.Load()
	s.Destroyed = p.counters.destroyed.Load()
	s.DestroyFailures = p.counters.destroyFailures.Load()
	s.AcquireTimeouts = p.counters.acquireTimeouts.Load()
	s.Evicted = p.counters.evicted.Load()
	return s
}

func (p *Pool[T]) spareCapacityLocked() int {
	return p.cfg.max - (len(p.all) + p.createInFlight)
}

// dispenseLocked is the matching pass between waiters and resources. It runs
// after every event that can change the match: acquire, release, destroy, a
// settled create, or a failed validation.
func (p *Pool[T]) dispenseLocked() {
	waiting := p.waiting.length()
	if waiting == 0 {
		return
	}

	potentiallyAllocable := p.available.Len() +
		len(p.inTestOnBorrow) + len(p.inTestOnReturn) + p.createInFlight
	shortfall := waiting - potentiallyAllocable
	if creates := minInt(p.spareCapacityLocked(), shortfall); creates > 0 {
		for i := 0; i < creates; i++ {
			p.createResourceLocked()
		}
	}

	if p.cfg.testOnBorrow && p.factory.Validate != nil {
		toTest := minInt(p.available.Len(), waiting-len(p.inTestOnBorrow))
		for i := 0; i < toTest; i++ {
			pr, ok := p.available.Shift()
			if !ok {
				break
			}
			pr.markValidation()
			p.inTestOnBorrow[pr] = struct{}{}
			p.validateOnBorrowLocked(pr)
		}
		return
	}

	dispatches := minInt(p.available.Len(), waiting)
	for i := 0; i < dispatches; i++ {
		pr, ok := p.available.Shift()
		if !ok {
			break
		}
		if !p.dispatchLocked(pr) {
			break
		}
	}
}

// dispatchLocked hands pr to the next waiter. When the dequeued waiter has
// already settled (it raced with its timeout), the resource goes back to the
// available set and the pass stops with it.
func (p *Pool[T]) dispatchLocked(pr *pooledResource[T]) bool {
	req, ok := p.waiting.dequeue()
	if !ok {
		p.addAvailableLocked(pr)
		return false
	}
	if !req.fulfill(pr.obj) {
		p.addAvailableLocked(pr)
		return false
	}
	pr.allocate()
	p.loans[pr.obj] = &loan[T]{pr: pr, done: make(chan struct{})}
	return true
}

// addAvailableLocked stamps the idle time and queues pr per the fifo flag:
// fifo appends (oldest returned dispatches first), lifo prepends.
func (p *Pool[T]) addAvailableLocked(pr *pooledResource[T]) {
	pr.idle()
	if p.cfg.fifo {
		p.available.Push(pr)
	} else {
		p.available.Unshift(pr)
	}
}

// createResourceLocked launches one factory create. The pool keeps retrying
// failed creations for as long as waiters remain and capacity allows; there
// is no retry cap.
func (p *Pool[T]) createResourceLocked() {
	p.createInFlight++
	p.runner.Go(func() {
		obj, err := p.factory.Create(context.Background())
		p.mu.Lock()
		p.createInFlight--
		if err == nil {
			pr := newPooledResource(obj)
			p.all[pr] = struct{}{}
			p.addAvailableLocked(pr)
			p.counters.created.Add(1)
		} else {
			p.counters.createFailures.Add(1)
		}
		p.cond.Broadcast()
		p.dispenseLocked()
		p.mu.Unlock()

		if err != nil {
			p.metrics.incCreateFailure()
			observability.Log().Error("pool: factory create failed",
				observability.F("pool", p.cfg.name),
				observability.F("error", err))
			p.events.emit(EventFactoryCreateError, err)
			return
		}
		p.metrics.incCreated()
	})
}

// validateOnBorrowLocked runs the factory validation for a resource pulled
// out of the available set; a pass dispatches it, a failure destroys it and
// re-dispenses.
func (p *Pool[T]) validateOnBorrowLocked(pr *pooledResource[T]) {
	p.runner.Go(func() {
		ok, err := p.factory.Validate(context.Background(), pr.obj)
		p.mu.Lock()
		delete(p.inTestOnBorrow, pr)
		if err != nil || !ok {
			p.destroyLocked(pr, "failed borrow validation")
			p.dispenseLocked()
			p.mu.Unlock()
			if err != nil {
				observability.Log().Error("pool: borrow validation error",
					observability.F("pool", p.cfg.name),
					observability.F("error", err))
			}
			return
		}
		p.dispatchLocked(pr)
		p.mu.Unlock()
	})
}

// validateOnReturnLocked runs the factory validation for a released
// resource; a pass re-lists it as available, a failure destroys it.
func (p *Pool[T]) validateOnReturnLocked(pr *pooledResource[T]) {
	p.runner.Go(func() {
		ok, err := p.factory.Validate(context.Background(), pr.obj)
		p.mu.Lock()
		delete(p.inTestOnReturn, pr)
		if err != nil || !ok {
			p.destroyLocked(pr, "failed return validation")
		} else {
			pr.deallocate()
			p.addAvailableLocked(pr)
		}
		p.dispenseLocked()
		p.mu.Unlock()
		if err != nil {
			observability.Log().Error("pool: return validation error",
				observability.F("pool", p.cfg.name),
				observability.F("error", err))
		}
	})
}

// destroyLocked invalidates pr, removes it from the pool, and launches the
// factory destroy in the background. The caller must already have removed pr
// from whichever holding set it occupied.
func (p *Pool[T]) destroyLocked(pr *pooledResource[T], reason string) {
	pr.invalidate()
	delete(p.all, pr)
	p.destroyInFlight++
	observability.Log().Debug("pool: destroying resource",
		observability.F("pool", p.cfg.name),
		observability.F("resource", pr.id.String()),
		observability.F("reason", reason))
	p.runner.Go(func() {
		err := p.destroyResource(pr)
		p.mu.Lock()
		p.destroyInFlight--
		p.cond.Broadcast()
		p.ensureMinimumLocked()
		p.mu.Unlock()

		if err != nil {
			p.counters.destroyFailures.Add(1)
			p.metrics.incDestroyFailure()
			observability.Log().Error("pool: factory destroy failed",
				observability.F("pool", p.cfg.name),
				observability.F("resource", pr.id.String()),
				observability.F("error", err))
			p.events.emit(EventFactoryDestroyError, err)
			return
		}
		p.counters.destroyed.Add(1)
		p.metrics.incDestroyed()
	})
}

// destroyResource invokes the factory destroy, racing it against the destroy
// timeout when one is configured. On timeout the pool stops waiting but the
// underlying destroy keeps running.
func (p *Pool[T]) destroyResource(pr *pooledResource[T]) error {
	if p.cfg.destroyTimeout <= 0 {
		if err := p.factory.Destroy(context.Background(), pr.obj); err != nil {
			return errs.New("pool.destroy", errs.CodeFactoryDestroy, errs.WithCause(err))
		}
		return nil
	}
	result := make(chan error, 1)
	p.runner.Go(func() {
		result <- p.factory.Destroy(context.Background(), pr.obj)
	})
	timer := time.NewTimer(p.cfg.destroyTimeout)
	defer timer.Stop()
	select {
	case err := <-result:
		if err != nil {
			return errs.New("pool.destroy", errs.CodeFactoryDestroy, errs.WithCause(err))
		}
		return nil
	case <-timer.C:
		return errs.New("pool.destroy", errs.CodeDestroyTimeout,
			errs.WithMessage("destroy timed out"))
	}
}

// ensureMinimumLocked tops the pool back up to its minimum when a
// destruction dips it below, unless the pool is draining or stopped.
func (p *Pool[T]) ensureMinimumLocked() {
	if p.draining || !p.started {
		return
	}
	shortage := p.cfg.min - (len(p.all) + p.createInFlight)
	for i := 0; i < shortage; i++ {
		p.createResourceLocked()
	}
}

func (p *Pool[T]) scheduleEvictorLocked() {
	if p.cfg.evictionRunInterval <= 0 || p.evictStop != nil {
		return
	}
	stop := make(chan struct{})
	p.evictStop = stop
	go p.evictLoop(stop)
}

func (p *Pool[T]) stopEvictorLocked() {
	if p.evictStop == nil {
		return
	}
	close(p.evictStop)
	p.evictStop = nil
}

func (p *Pool[T]) evictLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(p.cfg.evictionRunInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.evictRun()
		}
	}
}

// evictRun advances the persistent iterator over the available set — a
// rotating hand, so successive runs do not re-examine the same head items —
// and destroys every visited resource the eviction policy condemns.
func (p *Pool[T]) evictRun() {
	p.mu.Lock()
	defer p.mu.Unlock()
	tests := minInt(p.cfg.numTestsPerEvictionRun, p.available.Len())
	now := time.Now()
	for i := 0; i < tests; i++ {
		node, ok := p.evictIter.Next()
		if !ok {
			p.evictIter.Reset()
			if p.available.Len() == 0 {
				return
			}
			if node, ok = p.evictIter.Next(); !ok {
				return
			}
		}
		pr := node.Value
		if shouldEvict(p.cfg, pr, p.available.Len(), now) {
			p.evictIter.Remove()
			p.counters.evicted.Add(1)
			p.metrics.incEvicted()
			p.destroyLocked(pr, "evicted")
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
