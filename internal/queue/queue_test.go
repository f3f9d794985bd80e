package queue

import (
	"sync"
	"testing"
)

type sample struct {
	Tick  uint64
	Speed float64
}

func TestQueue_Lifecycle(t *testing.T) {
	q := New[sample]()
	if !q.Empty() || q.Len() != 0 {
		t.Fatal("new queue should be empty")
	}

	// Pop on empty yields the zero value.
	if got := q.Pop(); got.Tick != 0 || got.Speed != 0 {
		t.Errorf("expected zero value, got %+v", got)
	}

	q.Push(sample{Tick: 1}, sample{Tick: 2})
	q.Push(sample{Tick: 3})
	if q.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", q.Len())
	}

	if got := q.Pop(); got.Tick != 1 {
		t.Errorf("expected tick 1 first, got %d", got.Tick)
	}
	if q.Empty() {
		t.Error("queue should still hold items")
	}

	q.Clear()
	if !q.Empty() {
		t.Error("expected empty queue after clear")
	}
}

func TestQueue_PushFront(t *testing.T) {
	q := New[sample]()
	q.Push(sample{Tick: 10})

	// Requeued batch lands ahead of existing items, in its own order.
	batch := []sample{{Tick: 1}, {Tick: 2}}
	q.PushFront(batch...)

	want := []uint64{1, 2, 10}
	for i, w := range want {
		if got := q.Pop(); got.Tick != w {
			t.Errorf("pop %d: expected tick %d, got %d", i, w, got.Tick)
		}
	}

	// The requeued slice must not alias the queue's backing array.
	q.PushFront(batch...)
	batch[0].Tick = 99
	if got := q.Pop(); got.Tick != 1 {
		t.Errorf("queue aliased the caller's slice, got tick %d", got.Tick)
	}

	q.PushFront()
	if q.Len() != 1 {
		t.Errorf("empty PushFront changed length to %d", q.Len())
	}
}

func TestQueue_GetAndEmpty(t *testing.T) {
	q := New[sample]()
	q.Push(sample{Tick: 1}, sample{Tick: 2}, sample{Tick: 3})

	batch := q.GetAndEmpty()
	if len(batch) != 3 {
		t.Fatalf("expected 3 items, got %d", len(batch))
	}
	if batch[0].Tick != 1 || batch[2].Tick != 3 {
		t.Errorf("unexpected batch order: %+v", batch)
	}
	if !q.Empty() {
		t.Error("expected empty queue after drain")
	}

	if got := q.GetAndEmpty(); len(got) != 0 {
		t.Errorf("drain of empty queue returned %d items", len(got))
	}
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := New[sample]()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(tick uint64) {
			defer wg.Done()
			q.Push(sample{Tick: tick})
		}(uint64(i))
	}
	wg.Wait()

	if q.Len() != 100 {
		t.Errorf("expected 100 items, got %d", q.Len())
	}
}

func TestQueue_ConcurrentDrain(t *testing.T) {
	q := New[sample]()
	for i := 0; i < 100; i++ {
		q.Push(sample{Tick: uint64(i)})
	}

	var wg sync.WaitGroup
	results := make(chan []sample, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- q.GetAndEmpty()
		}()
	}
	wg.Wait()
	close(results)

	// Every item is drained exactly once across the competing writers.
	total := 0
	for batch := range results {
		total += len(batch)
	}
	if total != 100 {
		t.Errorf("expected 100 items across drains, got %d", total)
	}
}
