package queue

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestBlockQueue_FIFO(t *testing.T) {
	q := New(4)
	for i := 0; i < 3; i++ {
		if !q.TryPush([]float32{float32(i)}) {
			t.Fatalf("push %d failed", i)
		}
	}
	for i := 0; i < 3; i++ {
		block, ok := q.TryPop()
		if !ok {
			t.Fatalf("pop %d failed", i)
		}
		if block[0] != float32(i) {
			t.Errorf("pop %d: want %d, got %v", i, i, block[0])
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Error("pop from empty queue succeeded")
	}
}

func TestBlockQueue_FullPushFails(t *testing.T) {
	q := New(2)
	q.TryPush([]float32{1})
	q.TryPush([]float32{2})
	if q.TryPush([]float32{3}) {
		t.Fatal("push into full queue succeeded")
	}
	if q.Len() != 2 {
		t.Fatalf("len after overfull push: want 2, got %d", q.Len())
	}
}

// The queue length must never exceed capacity under arbitrary
// interleavings of production and consumption.
func TestBlockQueue_BoundUnderConcurrency(t *testing.T) {
	q := New(4)
	var wg sync.WaitGroup
	var violations int64
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			q.TryPush(make([]float32, 2))
			if q.Len() > q.Cap() {
				atomic.AddInt64(&violations, 1)
			}
		}
		close(stop)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				q.TryPop()
				if q.Len() > q.Cap() {
					atomic.AddInt64(&violations, 1)
				}
			}
		}
	}()

	wg.Wait()
	if v := atomic.LoadInt64(&violations); v != 0 {
		t.Fatalf("queue exceeded capacity %d times", v)
	}
}

func TestBlockQueue_Clear(t *testing.T) {
	q := New(4)
	q.TryPush([]float32{1})
	q.TryPush([]float32{2})
	q.Clear()
	if q.Len() != 0 {
		t.Fatalf("len after clear: want 0, got %d", q.Len())
	}
	if _, ok := q.TryPop(); ok {
		t.Error("pop after clear succeeded")
	}
}
