package pool

import "github.com/esroyo/generic-pool/internal/collections"

// waitingQueue holds pending resource requests in a fixed array of FIFO
// slots, one per priority level. Slot 0 is the highest priority and is always
// served first; a busy high-priority slot may starve lower ones.
type waitingQueue[T comparable] struct {
	slots []collections.Queue[*resourceRequest[T]]
}

func newWaitingQueue[T comparable](priorityRange int) *waitingQueue[T] {
	if priorityRange < 1 {
		priorityRange = 1
	}
	return &waitingQueue[T]{
		slots: make([]collections.Queue[*resourceRequest[T]], priorityRange),
	}
}

// enqueue files the request under its priority slot and returns its node.
// Out-of-range priorities (negative or beyond the configured range) land in
// the lowest-priority slot.
func (w *waitingQueue[T]) enqueue(r *resourceRequest[T], priority int) *collections.Node[*resourceRequest[T]] {
	slot := priority
	if slot < 0 || slot >= len(w.slots) {
		slot = len(w.slots) - 1
	}
	return w.slots[slot].Enqueue(r)
}

// dequeue shifts the oldest request from the first non-empty slot.
func (w *waitingQueue[T]) dequeue() (*resourceRequest[T], bool) {
	for i := range w.slots {
		if r, ok := w.slots[i].Dequeue(); ok {
			return r, true
		}
	}
	return nil, false
}

// length sums all slots.
func (w *waitingQueue[T]) length() int {
	total := 0
	for i := range w.slots {
		total += w.slots[i].Len()
	}
	return total
}

// head peeks at the next request to be served.
func (w *waitingQueue[T]) head() (*resourceRequest[T], bool) {
	for i := range w.slots {
		if r, ok := w.slots[i].Head(); ok {
			return r, true
		}
	}
	return nil, false
}

// tail peeks at the last request that would be served: the newest entry of
// the lowest-priority populated slot.
func (w *waitingQueue[T]) tail() (*resourceRequest[T], bool) {
	for i := len(w.slots) - 1; i >= 0; i-- {
		if r, ok := w.slots[i].Tail(); ok {
			return r, true
		}
	}
	return nil, false
}

// pending snapshots every queued request, highest priority first. Drain waits
// on this snapshot.
func (w *waitingQueue[T]) pending() []*resourceRequest[T] {
	var out []*resourceRequest[T]
	for i := range w.slots {
		it := w.slots[i].Iterator()
		for {
			n, ok := it.Next()
			if !ok {
				break
			}
			out = append(out, n.Value)
		}
	}
	return out
}
