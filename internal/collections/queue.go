package collections

// Queue is a FIFO built on Deque whose entries remain addressable by node, so
// an entry whose request expired can be spliced out in O(1) by the expiry
// observer. That splice is the only way timed-out entries leave the queue.
type Queue[T any] struct {
	deque Deque[T]
}

// Len returns the number of queued values.
func (q *Queue[T]) Len() int { return q.deque.Len() }

// Enqueue appends v and returns its node for later removal.
func (q *Queue[T]) Enqueue(v T) *Node[T] { return q.deque.Push(v) }

// Dequeue removes and returns the oldest value.
func (q *Queue[T]) Dequeue() (T, bool) { return q.deque.Shift() }

// Head peeks at the oldest value.
func (q *Queue[T]) Head() (T, bool) { return q.deque.Head() }

// Tail peeks at the newest value.
func (q *Queue[T]) Tail() (T, bool) { return q.deque.Tail() }

// Remove splices the node out of the queue.
func (q *Queue[T]) Remove(n *Node[T]) bool { return q.deque.Remove(n) }

// Iterator returns a stable cursor over the queued values, oldest first.
func (q *Queue[T]) Iterator() *Iterator[T] { return q.deque.Iterator() }
