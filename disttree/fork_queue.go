package disttree

import (
	"runtime"
	"sync/atomic"
)

type refineTask[T any] struct {
	started int32
	f       func() T
	result  chan T
}

// A refineQueue runs recursive octant-refinement tasks with a fixed maximum
// number of Goroutines. Create it with newRefineQueue(), run the root task
// with Run(), and call Fork() within a task to run the per-child sub-tasks,
// potentially on separate goroutines.
type refineQueue[T any] struct {
	queue chan *refineTask[T]
}

func newRefineQueue[T any](numWorkers int) *refineQueue[T] {
	if numWorkers == 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	q := &refineQueue[T]{
		queue: make(chan *refineTask[T], numWorkers*1000),
	}
	for i := 0; i < numWorkers; i++ {
		go q.worker()
	}
	return q
}

func (q *refineQueue[T]) Run(fn func() T) T {
	defer close(q.queue)
	task := &refineTask[T]{f: fn, result: make(chan T, 1)}
	q.queue <- task
	return <-task.result
}

// Fork runs the given sub-tasks, offering all but the first to idle workers,
// and returns their results in argument order.
func (q *refineQueue[T]) Fork(fns ...func() T) []T {
	tasks := make([]*refineTask[T], len(fns))
	for i, fn := range fns[1:] {
		task := &refineTask[T]{f: fn, result: make(chan T, 1)}
		select {
		case q.queue <- task:
		default:
			// A full queue means enough parallelism already; run the
			// task in place to bound memory growth.
			task.started = 1
			task.result <- task.f()
		}
		tasks[i+1] = task
	}
	results := make([]T, len(fns))
	results[0] = fns[0]()
	for i, task := range tasks[1:] {
		if atomic.SwapInt32(&task.started, 1) == 0 {
			// No worker picked the task up, so run it here.
			results[i+1] = task.f()
		} else {
			results[i+1] = <-task.result
		}
	}
	return results
}

func (q *refineQueue[T]) worker() {
	for task := range q.queue {
		if atomic.SwapInt32(&task.started, 1) != 0 {
			// Already started on a different goroutine.
			continue
		}
		task.result <- task.f()
	}
}
