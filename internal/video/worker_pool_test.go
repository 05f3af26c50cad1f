package video

import (
	"sync/atomic"
	"testing"
)

func TestWorkerPool_RunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Start()
	defer pool.Close()

	var counter int64
	for i := 0; i < 100; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&counter, 1)
		})
	}
	pool.Wait()

	if counter != 100 {
		t.Errorf("ran %d jobs, want 100", counter)
	}
}

func TestWorkerPool_DefaultWorkerCount(t *testing.T) {
	pool := NewWorkerPool(0)
	if pool.workers <= 0 {
		t.Errorf("workers = %d, want > 0", pool.workers)
	}
}

func TestWorkerPool_WaitWithNoJobs(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	defer pool.Close()
	pool.Wait() // must not block
}
