package pool

import (
	"time"

	"github.com/google/uuid"
)

// resourceState tracks where a pooled resource is in its lifecycle.
type resourceState int

const (
	stateIdle resourceState = iota
	stateAllocated
	stateValidation
	stateReturning
	stateInvalid
)

func (s resourceState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateAllocated:
		return "allocated"
	case stateValidation:
		return "validation"
	case stateReturning:
		return "returning"
	case stateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// pooledResource wraps one user resource with lifecycle state and timestamps.
// Created by the pool only; destroyed only through the pool's destroy path.
// Set membership uses the wrapper's identity, never equality of obj.
type pooledResource[T comparable] struct {
	id  uuid.UUID
	obj T

	state          resourceState
	creationTime   time.Time
	lastBorrowTime time.Time
	lastReturnTime time.Time
	lastIdleTime   time.Time
}

func newPooledResource[T comparable](obj T) *pooledResource[T] {
	now := time.Now()
	return &pooledResource[T]{
		id:           uuid.New(),
		obj:          obj,
		state:        stateIdle,
		creationTime: now,
		lastIdleTime: now,
	}
}

// allocate marks the resource as borrowed.
func (pr *pooledResource[T]) allocate() {
	pr.state = stateAllocated
	pr.lastBorrowTime = time.Now()
}

// deallocate marks the resource returned but not yet idle-listed.
func (pr *pooledResource[T]) deallocate() {
	pr.state = stateIdle
	pr.lastReturnTime = time.Now()
}

// idle stamps the moment the resource entered the available set; the evictor
// measures idle age from this.
func (pr *pooledResource[T]) idle() {
	pr.state = stateIdle
	pr.lastIdleTime = time.Now()
}

// markReturning flags the resource as in transit back to the pool.
func (pr *pooledResource[T]) markReturning() {
	pr.state = stateReturning
}

// markValidation flags the resource as undergoing a factory validate call.
func (pr *pooledResource[T]) markValidation() {
	pr.state = stateValidation
}

// invalidate removes the resource from circulation prior to destruction.
func (pr *pooledResource[T]) invalidate() {
	pr.state = stateInvalid
}
