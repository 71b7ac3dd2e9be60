// Package collections provides the intrusive linked structures backing the
// pool's waiting queues and eviction cursor.
package collections

// Node is a heap-allocated element of a List. A node belongs to at most one
// list at a time; its list pointer doubles as the is-in-list bit used for
// detachment detection.
type Node[T any] struct {
	prev, next *Node[T]
	list       *List[T]
	Value      T
}

// InList reports whether the node is currently attached to a list.
func (n *Node[T]) InList() bool {
	return n != nil && n.list != nil
}

// Detach removes the node from whichever list currently holds it. Detaching
// an already-free node is a no-op returning false.
func (n *Node[T]) Detach() bool {
	if n == nil || n.list == nil {
		return false
	}
	return n.list.Remove(n)
}

// List is an intrusive doubly linked list with O(1) insertion and removal at
// arbitrary nodes.
type List[T any] struct {
	head, tail *Node[T]
	size       int
}

// Len returns the number of attached nodes.
func (l *List[T]) Len() int { return l.size }

// Head returns the first node, or nil when the list is empty.
func (l *List[T]) Head() *Node[T] { return l.head }

// Tail returns the last node, or nil when the list is empty.
func (l *List[T]) Tail() *Node[T] { return l.tail }

// InsertBeginning prepends a new node holding v.
func (l *List[T]) InsertBeginning(v T) *Node[T] {
	n := &Node[T]{Value: v, list: l}
	if l.head == nil {
		l.head = n
		l.tail = n
	} else {
		n.next = l.head
		l.head.prev = n
		l.head = n
	}
	l.size++
	return n
}

// InsertEnd appends a new node holding v.
func (l *List[T]) InsertEnd(v T) *Node[T] {
	n := &Node[T]{Value: v, list: l}
	if l.tail == nil {
		l.head = n
		l.tail = n
	} else {
		n.prev = l.tail
		l.tail.next = n
		l.tail = n
	}
	l.size++
	return n
}

// InsertBefore places a new node holding v immediately before mark. Mark must
// belong to this list.
func (l *List[T]) InsertBefore(mark *Node[T], v T) *Node[T] {
	if mark == nil || mark.list != l {
		return nil
	}
	if mark.prev == nil {
		return l.InsertBeginning(v)
	}
	n := &Node[T]{Value: v, list: l, prev: mark.prev, next: mark}
	mark.prev.next = n
	mark.prev = n
	l.size++
	return n
}

// InsertAfter places a new node holding v immediately after mark. Mark must
// belong to this list.
func (l *List[T]) InsertAfter(mark *Node[T], v T) *Node[T] {
	if mark == nil || mark.list != l {
		return nil
	}
	if mark.next == nil {
		return l.InsertEnd(v)
	}
	n := &Node[T]{Value: v, list: l, prev: mark, next: mark.next}
	mark.next.prev = n
	mark.next = n
	l.size++
	return n
}

// Remove detaches n from the list. Removing a node that is not attached to
// this list is a no-op returning false, so the timeout observer and the
// eviction cursor may race over the same node safely.
func (l *List[T]) Remove(n *Node[T]) bool {
	if n == nil || n.list != l {
		return false
	}
	if n.prev == nil {
		l.head = n.next
	} else {
		n.prev.next = n.next
	}
	if n.next == nil {
		l.tail = n.prev
	} else {
		n.next.prev = n.prev
	}
	n.prev = nil
	n.next = nil
	n.list = nil
	l.size--
	return true
}
