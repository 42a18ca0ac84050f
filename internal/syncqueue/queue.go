// Package syncqueue implements the batched producer/consumer handoff
// queue spec.md §4.8 and §5 describe: a generator goroutine accumulates
// a batch of items locally, then pushes the whole batch onto a shared
// list under one lock, and a writer goroutine pulls the whole shared
// list in one lock acquisition rather than popping item by item. This
// is a direct translation of usync_queue.c's mutex+condvar design onto
// sync.Mutex/sync.Cond; a plain buffered channel cannot express the
// accumulate-then-splice-as-one-batch handoff the original performs,
// which is why this stays off channels (see DESIGN.md).
package syncqueue

import (
	"runtime"
	"sync"

	"github.com/nezhinsky/itchygen/internal/dlist"
)

// Queue is a synchronized handoff queue of items of type T.
type Queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	list   dlist.List[T]
	accum  dlist.List[T]
	active bool
}

// New returns an active, empty Queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{active: true}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Accum appends v to the caller-local accumulator. Accum is NOT
// synchronized: it is meant to be called only by the single goroutine
// that owns this Queue's producer side, building up a batch before a
// call to PushAccum.
func (q *Queue[T]) Accum(v T) {
	q.accum.PushBack(v)
}

// PushAccum moves the accumulated batch onto the shared list under
// the queue's lock in one splice, and wakes one waiting consumer.
func (q *Queue[T]) PushAccum() {
	q.mu.Lock()
	q.list.AppendList(&q.accum)
	q.cond.Signal()
	q.mu.Unlock()
}

// PushList moves every item of h onto the shared list under the
// queue's lock, and wakes one waiting consumer. h is emptied.
func (q *Queue[T]) PushList(h *dlist.List[T]) {
	q.mu.Lock()
	q.list.AppendList(h)
	q.cond.Signal()
	q.mu.Unlock()
}

// PushOne moves a single item onto the shared list and wakes one
// waiting consumer.
func (q *Queue[T]) PushOne(v T) {
	q.mu.Lock()
	q.list.PushBack(v)
	q.cond.Signal()
	q.mu.Unlock()
}

// PopOne blocks until at least one item is available and returns it,
// or returns ok=false if the queue has been shut down with nothing
// left to drain.
func (q *Queue[T]) PopOne() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.active && q.list.Empty() {
		q.cond.Wait()
	}
	if q.list.Empty() {
		return v, false
	}
	v, _ = q.list.PopFront()
	return v, true
}

// PullList blocks until the shared list is non-empty, then moves the
// entire shared list into h in one lock acquisition and returns true.
// If the queue is inactive and empty, it returns false without
// blocking further.
func (q *Queue[T]) PullList(h *dlist.List[T]) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.active && q.list.Empty() {
		q.cond.Wait()
	}
	if q.list.Empty() {
		return false
	}
	h.AppendList(&q.list)
	return true
}

// Shutdown blocks until the shared list has drained, then marks the
// queue inactive and wakes any blocked consumers so they observe the
// empty, inactive state and return.
func (q *Queue[T]) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for !q.list.Empty() {
		q.mu.Unlock()
		runtime.Gosched()
		q.mu.Lock()
	}
	q.active = false
	q.cond.Broadcast()
}

// Active reports whether the queue is still accepting new consumers
// (i.e. Shutdown has not yet been called).
func (q *Queue[T]) Active() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}
