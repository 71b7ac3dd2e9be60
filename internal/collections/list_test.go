package collections

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func drain[T any](l *List[T]) []T {
	var out []T
	for n := l.Head(); n != nil; n = n.next {
		out = append(out, n.Value)
	}
	return out
}

func TestListInsertEndAndBeginning(t *testing.T) {
	var l List[int]
	l.InsertEnd(2)
	l.InsertEnd(3)
	l.InsertBeginning(1)

	require.Equal(t, 3, l.Len())
	require.Equal(t, []int{1, 2, 3}, drain(&l))
	require.Equal(t, 1, l.Head().Value)
	require.Equal(t, 3, l.Tail().Value)
}

func TestListInsertBeforeAfter(t *testing.T) {
	var l List[string]
	b := l.InsertEnd("b")
	l.InsertBefore(b, "a")
	l.InsertAfter(b, "c")

	require.Equal(t, []string{"a", "b", "c"}, drain(&l))

	head := l.Head()
	l.InsertBefore(head, "start")
	tail := l.Tail()
	l.InsertAfter(tail, "end")
	require.Equal(t, []string{"start", "a", "b", "c", "end"}, drain(&l))
}

func TestListInsertRelativeToForeignNode(t *testing.T) {
	var a, b List[int]
	n := a.InsertEnd(1)

	require.Nil(t, b.InsertBefore(n, 2))
	require.Nil(t, b.InsertAfter(n, 2))
	require.Equal(t, 0, b.Len())
}

func TestListRemove(t *testing.T) {
	var l List[int]
	n1 := l.InsertEnd(1)
	n2 := l.InsertEnd(2)
	n3 := l.InsertEnd(3)

	require.True(t, l.Remove(n2))
	require.Equal(t, []int{1, 3}, drain(&l))
	require.False(t, n2.InList())

	// Removing an already-detached node is a no-op.
	require.False(t, l.Remove(n2))
	require.Equal(t, 2, l.Len())

	require.True(t, l.Remove(n1))
	require.True(t, l.Remove(n3))
	require.Equal(t, 0, l.Len())
	require.Nil(t, l.Head())
	require.Nil(t, l.Tail())
}

func TestListRemoveForeignNode(t *testing.T) {
	var a, b List[int]
	n := a.InsertEnd(1)
	require.False(t, b.Remove(n))
	require.Equal(t, 1, a.Len())
	require.True(t, n.InList())
}
