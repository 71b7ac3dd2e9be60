package collections

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDequePushPopShiftUnshift(t *testing.T) {
	var d Deque[int]

	d.Push(1)
	d.Push(2)
	d.Unshift(0)
	require.Equal(t, 3, d.Len())

	head, ok := d.Head()
	require.True(t, ok)
	require.Equal(t, 0, head)
	tail, ok := d.Tail()
	require.True(t, ok)
	require.Equal(t, 2, tail)

	v, ok := d.Shift()
	require.True(t, ok)
	require.Equal(t, 0, v)

	v, ok = d.Pop()
	require.True(t, ok)
	require.Equal(t, 2, v)

	v, ok = d.Pop()
	require.True(t, ok)
	require.Equal(t, 1, v)

	_, ok = d.Pop()
	require.False(t, ok)
	_, ok = d.Shift()
	require.False(t, ok)
	require.Equal(t, 0, d.Len())
}

func TestDequeRemoveByNode(t *testing.T) {
	var d Deque[string]
	d.Push("a")
	mid := d.Push("b")
	d.Push("c")

	require.True(t, d.Remove(mid))
	require.Equal(t, 2, d.Len())

	v, _ := d.Shift()
	require.Equal(t, "a", v)
	v, _ = d.Shift()
	require.Equal(t, "c", v)
}

func TestQueueFIFOAndSplice(t *testing.T) {
	var q Queue[int]
	n1 := q.Enqueue(1)
	q.Enqueue(2)
	n3 := q.Enqueue(3)

	// Simulate the expiry observer splicing out an entry mid-queue.
	require.True(t, q.Remove(n1))
	require.Equal(t, 2, q.Len())

	v, ok := q.Dequeue()
	require.True(t, ok)
	require.Equal(t, 2, v)

	tail, ok := q.Tail()
	require.True(t, ok)
	require.Equal(t, 3, tail)

	require.True(t, q.Remove(n3))
	_, ok = q.Dequeue()
	require.False(t, ok)
}
