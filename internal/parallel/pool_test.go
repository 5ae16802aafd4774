package parallel

import (
	"runtime"
	"sync/atomic"
	"testing"
)

func TestPool_Create(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("pool should be running after creation")
	}
}

func TestPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -3} {
		pool := NewPool(n)
		if pool.Workers() != runtime.GOMAXPROCS(0) {
			t.Errorf("NewPool(%d).Workers() = %d, want %d", n, pool.Workers(), runtime.GOMAXPROCS(0))
		}
		pool.Close()
	}
}

func TestPool_Run(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	results := make([]int, 100)
	tasks := make([]func(), len(results))
	for i := range tasks {
		tasks[i] = func() { results[i] = i * 2 }
	}
	pool.Run(tasks)

	for i, v := range results {
		if v != i*2 {
			t.Fatalf("results[%d] = %d, want %d", i, v, i*2)
		}
	}
}

func TestPool_RunEmpty(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	pool.Run(nil)
	pool.Run([]func(){})
}

func TestPool_RunRepanics(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	var ran atomic.Int32
	defer func() {
		r := recover()
		if r != "boom" {
			t.Errorf("recover() = %v, want boom", r)
		}
		if ran.Load() != 3 {
			t.Errorf("ran = %d, want 3 (other tasks must still run)", ran.Load())
		}
	}()

	pool.Run([]func(){
		func() { ran.Add(1) },
		func() { panic("boom") },
		func() { ran.Add(1) },
		func() { ran.Add(1) },
	})
	t.Error("Run should have panicked")
}

func TestPool_RunAfterClose(t *testing.T) {
	pool := NewPool(2)
	pool.Close()
	pool.Close()

	if pool.IsRunning() {
		t.Error("pool should not be running after Close")
	}

	var counter atomic.Int32
	pool.Run([]func(){func() { counter.Add(1) }, func() { counter.Add(1) }})
	if counter.Load() != 2 {
		t.Errorf("counter = %d, want 2 (closed pool runs on the caller)", counter.Load())
	}
}

func TestPool_ManyTasksFewWorkers(t *testing.T) {
	pool := NewPool(1)
	defer pool.Close()

	var counter atomic.Int64
	tasks := make([]func(), 1000)
	for i := range tasks {
		tasks[i] = func() { counter.Add(1) }
	}
	pool.Run(tasks)

	if counter.Load() != 1000 {
		t.Errorf("counter = %d, want 1000", counter.Load())
	}
}

func BenchmarkPool_Run(b *testing.B) {
	pool := NewPool(runtime.GOMAXPROCS(0))
	defer pool.Close()

	tasks := make([]func(), 32)
	for i := range tasks {
		tasks[i] = func() {}
	}

	b.ReportAllocs()
	for b.Loop() {
		pool.Run(tasks)
	}
}
