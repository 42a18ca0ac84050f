package syncqueue

import (
	"sync"
	"testing"
	"time"

	"github.com/nezhinsky/itchygen/internal/dlist"
	"github.com/stretchr/testify/require"
)

func TestAccumPushAccumPopOne(t *testing.T) {
	q := New[int]()
	q.Accum(1)
	q.Accum(2)
	q.Accum(3)
	q.PushAccum()

	for _, want := range []int{1, 2, 3} {
		v, ok := q.PopOne()
		require.True(t, ok)
		require.Equal(t, want, v)
	}
}

func TestPushOneAndPopOne(t *testing.T) {
	q := New[string]()
	q.PushOne("a")
	v, ok := q.PopOne()
	require.True(t, ok)
	require.Equal(t, "a", v)
}

func TestPullListDrainsWholeBatchAtOnce(t *testing.T) {
	q := New[int]()
	q.Accum(1)
	q.Accum(2)
	q.PushAccum()

	var h dlist.List[int]
	ok := q.PullList(&h)
	require.True(t, ok)
	require.Equal(t, 2, h.Len())
}

func TestPopOneBlocksUntilPush(t *testing.T) {
	q := New[int]()
	done := make(chan int, 1)

	go func() {
		v, ok := q.PopOne()
		require.True(t, ok)
		done <- v
	}()

	time.Sleep(20 * time.Millisecond)
	q.PushOne(42)

	select {
	case v := <-done:
		require.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("PopOne never returned")
	}
}

func TestShutdownDrainsThenUnblocksConsumers(t *testing.T) {
	q := New[int]()
	q.PushOne(1)

	var wg sync.WaitGroup
	results := make([]bool, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok := q.PopOne()
			results[i] = ok
		}(i)
	}

	// Let the first consumer drain the single pending item, then shut down.
	time.Sleep(20 * time.Millisecond)
	q.Shutdown()
	wg.Wait()

	okCount := 0
	for _, ok := range results {
		if ok {
			okCount++
		}
	}
	require.Equal(t, 1, okCount, "exactly one consumer should have received the pending item")
	require.False(t, q.Active())
}

func TestShutdownWaitsForNonEmptyList(t *testing.T) {
	q := New[int]()
	q.PushOne(1)
	q.PushOne(2)

	shutdownDone := make(chan struct{})
	go func() {
		q.Shutdown()
		close(shutdownDone)
	}()

	// Drain both items; Shutdown should only complete after this.
	_, _ = q.PopOne()
	_, _ = q.PopOne()

	select {
	case <-shutdownDone:
	case <-time.After(time.Second):
		t.Fatal("Shutdown never completed after queue drained")
	}
	require.False(t, q.Active())
}
