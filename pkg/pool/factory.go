package pool

import (
	"context"

	"github.com/esroyo/generic-pool/errs"
)

// Factory supplies the resource lifecycle callbacks. Create and Destroy are
// mandatory; Validate is optional and only consulted when TestOnBorrow or
// TestOnReturn is enabled.
//
// The pool may invoke factory callbacks concurrently; implementations must be
// reentrant. Callbacks run outside the pool's critical section, so they are
// free to block.
type Factory[T comparable] struct {
	// Create yields a new resource or fails. The pool retries failed
	// creations for as long as waiters are queued and capacity remains.
	Create func(ctx context.Context) (T, error)
	// Destroy releases the underlying handles of a resource.
	Destroy func(ctx context.Context, obj T) error
	// Validate reports whether a resource is still usable; false destroys it.
	Validate func(ctx context.Context, obj T) (bool, error)
}

func (f Factory[T]) check() error {
	if f.Create == nil {
		return errs.New("pool.new", errs.CodeInvalidConfig,
			errs.WithMessage("factory requires a create function"))
	}
	if f.Destroy == nil {
		return errs.New("pool.new", errs.CodeInvalidConfig,
			errs.WithMessage("factory requires a destroy function"))
	}
	return nil
}
