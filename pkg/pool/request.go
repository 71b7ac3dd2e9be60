package pool

import (
	"sync/atomic"
	"time"

	"github.com/esroyo/generic-pool/errs"
	"github.com/esroyo/generic-pool/internal/collections"
)

const (
	requestPending int32 = iota
	requestFulfilled
	requestRejected
)

// resourceRequest is a pending waiter: a value-or-error promise with an
// optional TTL. It settles exactly once; the pending→settled transition is a
// compare-and-swap, so a dispatch racing the expiry timer resolves cleanly.
// Once settled the request is inert.
type resourceRequest[T comparable] struct {
	done  chan struct{}
	state atomic.Int32
	obj   T
	err   error
	timer *time.Timer

	// node is the request's position in the waiting queue, set under the
	// pool lock at enqueue so the expiry observer can splice it out.
	node *collections.Node[*resourceRequest[T]]
}

func newResourceRequest[T comparable]() *resourceRequest[T] {
	return &resourceRequest[T]{done: make(chan struct{})}
}

// arm starts the TTL timer. Must be called after the request is enqueued and
// its node recorded, so onExpire can remove it from the queue. A non-positive
// ttl leaves the request without a deadline.
func (r *resourceRequest[T]) arm(ttl time.Duration, onExpire func(*resourceRequest[T])) {
	if ttl <= 0 {
		return
	}
	r.timer = time.AfterFunc(ttl, func() {
		expired := errs.New("pool.acquire", errs.CodeAcquireTimeout,
			errs.WithMessage("resource request timed out"))
		if r.reject(expired) && onExpire != nil {
			onExpire(r)
		}
	})
}

// fulfill resolves the request with a resource. Returns false when the
// request already settled.
func (r *resourceRequest[T]) fulfill(obj T) bool {
	if !r.state.CompareAndSwap(requestPending, requestFulfilled) {
		return false
	}
	r.obj = obj
	r.stopTimer()
	close(r.done)
	return true
}

// reject resolves the request with an error. Returns false when the request
// already settled.
func (r *resourceRequest[T]) reject(err error) bool {
	if !r.state.CompareAndSwap(requestPending, requestRejected) {
		return false
	}
	r.err = err
	r.stopTimer()
	close(r.done)
	return true
}

func (r *resourceRequest[T]) settled() bool {
	return r.state.Load() != requestPending
}

func (r *resourceRequest[T]) stopTimer() {
	if r.timer != nil {
		r.timer.Stop()
	}
}
