// Package worker runs factory callbacks on background goroutines so the pool
// never blocks its critical section on user code.
package worker

import (
	"fmt"

	concpool "github.com/sourcegraph/conc/pool"

	"github.com/esroyo/generic-pool/internal/observability"
)

// Runner executes submitted functions on a conc pool. A panicking callback is
// recovered and logged instead of tearing down the process. The panic is not
// turned into an error: nothing is reported back to the code that submitted
// fn, and whatever fn would have done after the panic does not run.
type Runner struct {
	workers *concpool.Pool
}

// New constructs a runner. When maxGoroutines is positive the runner bounds
// concurrency; zero or negative leaves it unbounded, which the pool requires
// because submissions happen while its mutex is held.
func New(maxGoroutines int) *Runner {
	r := new(Runner)
	r.workers = concpool.New()
	if maxGoroutines > 0 {
		r.workers = r.workers.WithMaxGoroutines(maxGoroutines)
	}
	return r
}

// Go schedules fn on a worker goroutine.
func (r *Runner) Go(fn func()) {
	if fn == nil {
		return
	}
	r.workers.Go(func() {
		defer func() {
			if rec := recover(); rec != nil {
				observability.Log().Error("worker: recovered panic",
					observability.F("panic", fmt.Sprint(rec)))
			}
		}()
		fn()
	})
}

// Wait blocks until every submitted function has returned. The runner must
// not be used again afterwards.
func (r *Runner) Wait() {
	r.workers.Wait()
}
