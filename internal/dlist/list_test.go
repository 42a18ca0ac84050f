package dlist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushBackAndPopFrontOrder(t *testing.T) {
	var l List[int]
	l.PushBack(1)
	l.PushBack(2)
	l.PushBack(3)
	require.Equal(t, 3, l.Len())

	v, ok := l.PopFront()
	require.True(t, ok)
	require.Equal(t, 1, v)
	v, ok = l.PopFront()
	require.True(t, ok)
	require.Equal(t, 2, v)
	v, ok = l.PopFront()
	require.True(t, ok)
	require.Equal(t, 3, v)

	_, ok = l.PopFront()
	require.False(t, ok)
	require.True(t, l.Empty())
}

func TestInsertBefore(t *testing.T) {
	var l List[string]
	c := l.PushBack("c")
	l.InsertBefore(c, "a")
	l.InsertBefore(c, "b")

	var got []string
	l.Walk(func(v string) { got = append(got, v) })
	require.Equal(t, []string{"a", "b", "c"}, got)
}

func TestAppendListMovesNodesAndEmptiesSource(t *testing.T) {
	var a, b List[int]
	a.PushBack(1)
	a.PushBack(2)
	b.PushBack(3)
	b.PushBack(4)

	a.AppendList(&b)

	require.Equal(t, 4, a.Len())
	require.True(t, b.Empty())
	require.Equal(t, 0, b.Len())

	var got []int
	a.Walk(func(v int) { got = append(got, v) })
	require.Equal(t, []int{1, 2, 3, 4}, got)
}

func TestAppendListOntoEmptyDestination(t *testing.T) {
	var a, b List[int]
	b.PushBack(1)
	b.PushBack(2)

	a.AppendList(&b)
	require.Equal(t, 2, a.Len())
	require.Equal(t, 1, a.Front().Value)
	require.Equal(t, 2, a.Back().Value)
}

func TestAppendListOfEmptySourceIsNoop(t *testing.T) {
	var a, b List[int]
	a.PushBack(1)
	a.AppendList(&b)
	require.Equal(t, 1, a.Len())
}

func TestFrontAndBackOnEmptyList(t *testing.T) {
	var l List[int]
	require.Nil(t, l.Front())
	require.Nil(t, l.Back())
}
